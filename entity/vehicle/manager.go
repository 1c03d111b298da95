package vehicle

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/scenario-player/entity"
	"github.com/tsinghua-fib-lab/scenario-player/entity/event"
	"github.com/tsinghua-fib-lab/scenario-player/entity/trajectory"
	"github.com/tsinghua-fib-lab/scenario-player/utils/parallel"
)

// Snapshot 全部车辆运动状态的快照
type Snapshot struct {
	now     float64
	motions []motion
}

// Time 快照时刻
func (s Snapshot) Time() float64 {
	return s.now
}

// Manager 车辆管理器
// 功能：管理场景中全部执行者，执行事件状态更新并计算每一时刻的位姿
type Manager struct {
	ctx entity.ITaskContext

	data     map[string]*Vehicle
	vehicles []*Vehicle // 按ID排序

	laneWidth float64
	mode      trajectory.Mode
	cacheSize int
}

// NewManager 创建车辆管理器
// 参数：ctx-播放器上下文，提供路网与运行时配置
func NewManager(ctx entity.ITaskContext) *Manager {
	c := ctx.RuntimeConfig().C
	return &Manager{
		ctx:       ctx,
		data:      make(map[string]*Vehicle),
		laneWidth: c.LaneWidth,
		mode:      trajectory.ParseMode(c.Interpolation),
		cacheSize: c.CacheSize,
	}
}

// Init 根据初始状态创建全部车辆
// 返回：无法解析的初始位置或轨迹，对应车辆放在原点
func (m *Manager) Init(placements []event.Placement) []error {
	var errs []error
	m.data = make(map[string]*Vehicle, len(placements))
	m.vehicles = make([]*Vehicle, 0, len(placements))
	for _, pl := range placements {
		if _, ok := m.data[pl.Actor]; ok {
			errs = append(errs, fmt.Errorf("duplicate vehicle %s", pl.Actor))
			continue
		}
		v, err := m.newVehicle(pl)
		if err != nil {
			errs = append(errs, fmt.Errorf("vehicle %s: %w", pl.Actor, err))
		}
		m.data[v.id] = v
		m.vehicles = append(m.vehicles, v)
	}
	slices.SortFunc(m.vehicles, func(a, b *Vehicle) int { return strings.Compare(a.id, b.id) })
	m.UpdateState(0)
	return errs
}

func (m *Manager) newVehicle(pl event.Placement) (*Vehicle, error) {
	v := &Vehicle{
		id:    pl.Actor,
		m:     m,
		traj:  trajectory.New(m.mode, m.cacheSize),
		shift: math.NaN(),
	}
	mo, err := m.resolvePosition(pl.Position, 0)
	if err != nil {
		mo, _ = m.resolvePosition(nil, 0)
	}
	if len(pl.Trajectory) > 0 {
		wps, wErr := m.resolveWaypoints(pl.Trajectory)
		if wErr != nil {
			err = wErr
		} else {
			v.base = wps
			mo.tracking = true
			// 航点已是世界坐标，工作轨迹只叠加变道产生的偏移
			mo.latBase, mo.lat.From, mo.lat.To = 0, 0, 0
			mo.laneSign = 1
		}
	}
	mo.lon.V0, mo.lon.V1 = pl.Speed, pl.Speed
	mo.targetSpeed, mo.resumeSpeed = pl.Speed, pl.Speed
	v.init = mo
	v.restore(mo)
	return v, err
}

// Get 根据ID获取车辆，如果不存在则panic
func (m *Manager) Get(id string) entity.IVehicle {
	if v, ok := m.data[id]; !ok {
		log.Panicf("no id %s in vehicle data", id)
		return nil
	} else {
		return v
	}
}

// GetOrError 根据ID获取车辆，如果不存在则返回错误
func (m *Manager) GetOrError(id string) (entity.IVehicle, error) {
	if v, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %s in vehicle data", id)
	} else {
		return v, nil
	}
}

// Vehicle 根据ID获取车辆
func (m *Manager) Vehicle(id string) (*Vehicle, bool) {
	v, ok := m.data[id]
	return v, ok
}

// Vehicles 按ID排序的全部车辆
func (m *Manager) Vehicles() []*Vehicle {
	return m.vehicles
}

// Poses 全部车辆的当前位姿，按ID排序
func (m *Manager) Poses() []entity.ActorPose {
	return lo.Map(m.vehicles, func(v *Vehicle, _ int) entity.ActorPose { return v.pose })
}

// UpdateState 计算全部车辆在now时刻的位姿
// 说明：幂等，同一now多次调用结果相同
func (m *Manager) UpdateState(now float64) {
	parallel.GoFor(m.vehicles, func(v *Vehicle) { v.update(now) })
}

// ApplyStateUpdate 执行事件调度器给出的状态更新
// 说明：目标车辆先update到激活时刻再执行；目标车辆不存在时事件被丢弃
func (m *Manager) ApplyStateUpdate(u event.StateUpdate) Outcome {
	v, ok := m.data[u.Event.TargetActor]
	if !ok {
		log.Warnf("%v: no vehicle %s", u.Event, u.Event.TargetActor)
		return Outcome{Cancelled: []*event.Event{u.Event}}
	}
	out := v.apply(u.Event, u.Time)
	v.update(u.Time)
	return out
}

// Snapshot 保存全部车辆的运动状态
func (m *Manager) Snapshot(now float64) Snapshot {
	return Snapshot{
		now:     now,
		motions: lo.Map(m.vehicles, func(v *Vehicle, _ int) motion { return v.motion }),
	}
}

// Restore 恢复快照并计算快照时刻的位姿
func (m *Manager) Restore(s Snapshot) {
	for i, v := range m.vehicles {
		v.restore(s.motions[i])
	}
	m.UpdateState(s.now)
}

// Reset 全部车辆回到初始状态
func (m *Manager) Reset() {
	for _, v := range m.vehicles {
		v.restore(v.init)
	}
	m.UpdateState(0)
}
