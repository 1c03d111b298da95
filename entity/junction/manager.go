package junction

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/scenario-player/document"
	"github.com/tsinghua-fib-lab/scenario-player/document/xodr"
	"github.com/tsinghua-fib-lab/scenario-player/entity"
)

// JunctionManager Junction管理器
type JunctionManager struct {
	data      map[string]*Junction
	junctions []*Junction
}

// NewManager 创建Junction管理器实例
func NewManager() *JunctionManager {
	return &JunctionManager{
		data:      make(map[string]*Junction),
		junctions: make([]*Junction, 0),
	}
}

// Init 初始化所有Junction
// 功能：逐个转换文档中的路口，失败的路口被跳过
// 返回：被跳过路口的警告列表
func (m *JunctionManager) Init(bases []xodr.Junction) []error {
	warnings := make([]error, 0)
	for _, base := range bases {
		j, err := newJunction(base)
		if err == nil {
			if _, ok := m.data[j.id]; ok {
				err = &document.ElementParseError{Element: "junction", ID: j.id, Err: errors.New("duplicate id")}
			}
		}
		if err != nil {
			log.Warnf("skip junction: %v", err)
			warnings = append(warnings, err)
			continue
		}
		m.data[j.id] = j
		m.junctions = append(m.junctions, j)
	}
	log.Infof("%d junctions loaded, %d skipped", len(m.junctions), len(warnings))
	return warnings
}

// Get 根据ID获取Junction实例，如果不存在则panic
func (m *JunctionManager) Get(id string) entity.IJunction {
	if junction, ok := m.data[id]; !ok {
		log.Panicf("no id %s in junction data", id)
		return nil
	} else {
		return junction
	}
}

// GetOrError 根据ID获取Junction实例，如果不存在则返回错误
func (m *JunctionManager) GetOrError(id string) (entity.IJunction, error) {
	if junction, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %s in junction data", id)
	} else {
		return junction, nil
	}
}

// All 按文档顺序返回全部Junction
func (m *JunctionManager) All() []entity.IJunction {
	return lo.Map(m.junctions, func(j *Junction, _ int) entity.IJunction { return j })
}

// Junctions 按文档顺序返回全部Junction（具体类型）
func (m *JunctionManager) Junctions() []*Junction {
	return m.junctions
}
