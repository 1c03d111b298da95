package road

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/scenario-player/document"
	"github.com/tsinghua-fib-lab/scenario-player/document/xodr"
	"github.com/tsinghua-fib-lab/scenario-player/entity"
)

// RoadManager Road管理器
// 功能：管理所有Road实体，提供创建、查找功能
type RoadManager struct {
	data  map[string]*Road
	roads []*Road
}

// NewManager 创建Road管理器实例
func NewManager() *RoadManager {
	return &RoadManager{
		data:  make(map[string]*Road),
		roads: make([]*Road, 0),
	}
}

// Init 初始化所有Road
// 功能：逐条转换文档中的道路，失败的道路被跳过
// 参数：bases-文档中的road元素，resolution-参考线采样密度
// 返回：被跳过道路的警告列表
func (m *RoadManager) Init(bases []xodr.Road, resolution float64) []error {
	warnings := make([]error, 0)
	m.roads = make([]*Road, 0, len(bases))
	for _, base := range bases {
		r, err := newRoad(base, resolution)
		if err != nil {
			log.Warnf("skip road: %v", err)
			warnings = append(warnings, err)
			continue
		}
		if _, ok := m.data[r.id]; ok {
			err := &document.ElementParseError{Element: "road", ID: r.id, Err: errors.New("duplicate id")}
			log.Warnf("skip road: %v", err)
			warnings = append(warnings, err)
			continue
		}
		m.data[r.id] = r
		m.roads = append(m.roads, r)
	}
	log.Infof("%d roads loaded, %d skipped", len(m.roads), len(warnings))
	return warnings
}

// Get 根据ID获取Road实例，如果不存在则panic
func (m *RoadManager) Get(id string) entity.IRoad {
	if road, ok := m.data[id]; !ok {
		log.Panicf("no id %s in road data", id)
		return nil
	} else {
		return road
	}
}

// GetOrError 根据ID获取Road实例，如果不存在则返回错误
func (m *RoadManager) GetOrError(id string) (entity.IRoad, error) {
	if road, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %s in road data", id)
	} else {
		return road, nil
	}
}

// Road 根据ID获取具体类型的Road
func (m *RoadManager) Road(id string) (*Road, bool) {
	r, ok := m.data[id]
	return r, ok
}

// All 按文档顺序返回全部Road
func (m *RoadManager) All() []entity.IRoad {
	return lo.Map(m.roads, func(r *Road, _ int) entity.IRoad { return r })
}

// Roads 按文档顺序返回全部Road（具体类型）
func (m *RoadManager) Roads() []*Road {
	return m.roads
}
