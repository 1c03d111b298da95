package vehicle

import (
	"fmt"
	"math"
	"slices"

	"github.com/tsinghua-fib-lab/scenario-player/entity"
	"github.com/tsinghua-fib-lab/scenario-player/entity/event"
	"github.com/tsinghua-fib-lab/scenario-player/entity/trajectory"
	"github.com/tsinghua-fib-lab/scenario-player/geometry"
)

// motion 车辆的全部可变运动状态
// 说明：该数据结构可以被直接复制用作快照，path为只读共享
type motion struct {
	lon longitudinal
	lat lateral

	path     *trajectory.Path // 速度驱动时沿行驶的路径
	tracking bool             // 是否沿航点轨迹行驶

	baseLane   int     // path所在车道
	latBase    float64 // baseLane对应的横向偏移
	laneSign   float64 // 车道编号增大时横向偏移的方向，逆参考线行驶时为-1
	lane       int     // 当前车道，变道完成后更新
	targetLane int     // 最近一次变道的目标车道

	targetSpeed float64 // 目标速度
	resumeSpeed float64 // 最近一次非零目标速度，vehicle_start时恢复
}

// laneOffset 车道lane对应的横向偏移
func (mo *motion) laneOffset(lane int, width float64) float64 {
	return mo.latBase + mo.laneSign*float64(lane-mo.baseLane)*width
}

// settle 结束已完成的过渡
func (mo *motion) settle(t float64) {
	mo.lon = mo.lon.settle(t)
	if mo.lat.Duration > 0 && !mo.lat.active(t) {
		mo.lane = mo.targetLane
	}
	mo.lat = mo.lat.settle(t)
}

// State 车辆状态的只读视图
type State struct {
	ID            string
	CurrentSpeed  float64
	TargetSpeed   float64
	Lane          int
	TargetLane    int
	LateralOffset float64
	Tracking      bool
	ActiveEvents  []string // 正在执行过渡的事件ID
}

// Vehicle 场景中的单个执行者
// 功能：按事件驱动的纵向/横向过渡或航点轨迹计算任意时刻的位姿
type Vehicle struct {
	id string
	m  *Manager

	init   motion // 初始状态，Reset时恢复
	motion motion

	base  []trajectory.Waypoint  // 初始轨迹航点
	traj  *trajectory.Trajectory // 工作轨迹：base按横向偏移平移
	shift float64                // 工作轨迹当前使用的横向偏移

	now  float64
	pose entity.ActorPose
}

func (v *Vehicle) ID() string {
	return v.id
}

func (v *Vehicle) String() string {
	return fmt.Sprintf("Vehicle %s", v.id)
}

// Speed 最近一次UpdateState时的速度
func (v *Vehicle) Speed() float64 {
	return v.pose.Speed
}

// Pose 最近一次UpdateState时的位姿
func (v *Vehicle) Pose() entity.ActorPose {
	return v.pose
}

// State 最近一次UpdateState时的运动状态
func (v *Vehicle) State() State {
	mo := &v.motion
	s := State{
		ID:            v.id,
		CurrentSpeed:  v.pose.Speed,
		TargetSpeed:   mo.targetSpeed,
		Lane:          mo.lane,
		TargetLane:    mo.targetLane,
		LateralOffset: mo.lat.offset(v.now),
		Tracking:      mo.tracking,
	}
	if mo.lon.active(v.now) && mo.lon.Event != nil {
		s.ActiveEvents = append(s.ActiveEvents, mo.lon.Event.ID)
	}
	if mo.lat.active(v.now) && mo.lat.Event != nil {
		s.ActiveEvents = append(s.ActiveEvents, mo.lat.Event.ID)
	}
	return s
}

// update 计算now时刻的位姿
// 说明：结果只取决于运动段与now，重复调用结果相同
func (v *Vehicle) update(now float64) {
	v.now = now
	mo := &v.motion
	mo.settle(now)
	offset := mo.lat.offset(now)
	if mo.tracking {
		if offset != v.shift {
			v.traj.SetWaypoints(trajectory.Shifted(v.base, offset))
			v.shift = offset
		}
		r := v.traj.At(now)
		v.pose = entity.ActorPose{
			ID:      v.id,
			X:       r.Position.X,
			Y:       r.Position.Y,
			Z:       r.Position.Z,
			Heading: r.Heading,
			Speed:   r.Speed,
		}
		return
	}
	s := mo.path.OffsetAt(mo.lon.distance(now), offset)
	v.pose = entity.ActorPose{
		ID:      v.id,
		X:       s.X,
		Y:       s.Y,
		Z:       s.Z,
		Heading: s.Hdg,
		Speed:   mo.lon.speed(now),
	}
}

// restore 恢复运动状态，工作轨迹在下次update时重建
func (v *Vehicle) restore(mo motion) {
	v.motion = mo
	v.shift = math.NaN()
}

// place 把车辆放到path上距离d处并静止
func place(path *trajectory.Path, d float64, lane int, latBase, sign float64, now float64) motion {
	return motion{
		lon:        longitudinal{T0: now, D0: d},
		lat:        lateral{T0: now, From: latBase, To: latBase},
		path:       path,
		baseLane:   lane,
		latBase:    latBase,
		laneSign:   sign,
		lane:       lane,
		targetLane: lane,
	}
}

// resolvePosition 把事件位置转为行驶路径、初始距离与车道
func (m *Manager) resolvePosition(pos *event.Position, now float64) (motion, error) {
	if pos == nil {
		return place(trajectory.NewRay(geometry.Sample{}), 0, 0, 0, 1, now), nil
	}
	if pos.World {
		origin := geometry.Sample{X: pos.X, Y: pos.Y, Z: pos.Z, Hdg: pos.H}
		return place(trajectory.NewRay(origin), 0, 0, 0, 1, now), nil
	}
	r, err := m.ctx.RoadManager().GetOrError(pos.RoadID)
	if err != nil {
		return motion{}, err
	}
	var samples []geometry.Sample
	if pos.LaneID == 0 {
		samples = slices.Clone(r.Centerline())
	} else if samples, err = r.LaneCenterline(pos.LaneID); err != nil {
		return motion{}, err
	}
	if len(samples) == 0 {
		return motion{}, fmt.Errorf("road %s has no centerline", pos.RoadID)
	}
	sFirst, sLast := samples[0].S, samples[len(samples)-1].S
	k := 0.0
	if sLast > sFirst {
		k = (pos.S - sFirst) / (sLast - sFirst)
	}
	sign := 1.0
	if pos.LaneID > 0 {
		// 左侧车道逆参考线方向行驶
		slices.Reverse(samples)
		for i := range samples {
			samples[i].Hdg += math.Pi
		}
		k = 1 - k
		sign = -1
	}
	path := trajectory.NewPath(samples)
	return place(path, k*path.Length(), pos.LaneID, sign*pos.Offset, sign, now), nil
}

// resolveWaypoints 初始轨迹航点转为世界坐标
func (m *Manager) resolveWaypoints(tps []event.TimedPosition) ([]trajectory.Waypoint, error) {
	wps := make([]trajectory.Waypoint, 0, len(tps))
	for i, tp := range tps {
		p := tp.Position
		var point geometry.Point
		if p.World {
			point = geometry.Point{X: p.X, Y: p.Y, Z: p.Z}
		} else {
			r, err := m.ctx.RoadManager().GetOrError(p.RoadID)
			if err != nil {
				return nil, fmt.Errorf("waypoint %d: %w", i, err)
			}
			s, err := r.LanePose(p.LaneID, p.S, p.Offset)
			if err != nil {
				return nil, fmt.Errorf("waypoint %d: %w", i, err)
			}
			point = s.Point()
		}
		wps = append(wps, trajectory.Waypoint{Time: tp.Time, Position: point, Speed: tp.Speed})
	}
	return wps, nil
}
