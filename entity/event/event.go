// 场景事件：编译、触发条件与状态机
package event

import "fmt"

// Kind 事件类型
type Kind string

const (
	KindSpeedChange  Kind = "speed_change"
	KindLaneChange   Kind = "lane_change"
	KindTeleport     Kind = "teleport"
	KindBrakeAction  Kind = "brake_action"
	KindVehicleStart Kind = "vehicle_start"
	KindVehicleStop  Kind = "vehicle_stop"
	KindCustom       Kind = "custom"
)

// Priority 同类过渡冲突时的处理方式
type Priority string

const (
	PriorityOverwrite Priority = "overwrite" // 替换正在进行的同类过渡
	PrioritySkip      Priority = "skip"      // 同类过渡进行中时丢弃
	PriorityParallel  Priority = "parallel"  // 只与不同类过渡并行，同类进行中时丢弃
)

// Status 事件状态
// 状态转移：pending→active→completed；active或completed→cancelled
// 说明：瞬时事件在激活的同一步内即完成，若随后被车辆丢弃或替换，会从completed变为cancelled
type Status int

const (
	StatusPending Status = iota
	StatusActive
	StatusCompleted
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Position 事件或初始化中的位置，World为true时使用世界坐标，否则使用车道坐标
type Position struct {
	World      bool
	X, Y, Z, H float64
	RoadID     string
	LaneID     int
	S, Offset  float64
}

// Params 事件参数，按Kind使用其中的一部分
type Params struct {
	TargetSpeed   float64   // 目标速度，RelativeSpeed为true时为相对当前速度的增量
	RelativeSpeed bool      // 相对目标速度
	Reference     string    // 相对速度的参照车辆，为空时参照自身
	HasSpeed      bool      // vehicle_start是否指定了速度
	Rate          float64   // 过渡按变化率给出（m/s²或车道/秒），>0时由车辆根据当前状态计算时长
	Distance      float64   // 过渡按距离给出，>0时由车辆根据当前状态计算时长
	TargetLane    int       // 目标车道，RelativeLane为true时为相对当前车道的偏移
	RelativeLane  bool      // 相对目标车道
	Position      *Position // teleport目标
	Command       string    // 自定义命令类型
	Content       string    // 自定义命令内容
}

// Event 编译后的单个执行者事件
// 说明：Status与ActivatedAt只由Evaluator修改
type Event struct {
	ID          string // <story>/<act>/<group>/<maneuver>/<event>#<actor>
	Name        string
	Time        float64 // 由仿真时间条件给出的激活时刻，没有时间条件时为0
	Timed       bool    // 是否由仿真时间门控（有时间条件或没有任何触发器）
	TargetActor string
	Kind        Kind
	Priority    Priority
	Params      Params
	Trigger     *Trigger // 可为nil
	Duration    float64  // 过渡时长，0表示瞬时

	Status      Status
	ActivatedAt float64

	order int // 编译顺序，时间相同时保持稳定
}

func (e *Event) String() string {
	return fmt.Sprintf("Event{%s %s t=%v %s}", e.ID, e.Kind, e.Time, e.Status)
}

// Order 编译顺序
func (e *Event) Order() int {
	return e.order
}
