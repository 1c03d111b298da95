package vehicle

import (
	"math"

	"github.com/tsinghua-fib-lab/scenario-player/entity/event"
)

// Outcome 执行一次状态更新的结果
type Outcome struct {
	Applied   bool           // 是否改变了车辆状态
	Cancelled []*event.Event // 被丢弃的新事件或被替换的旧事件，由调用方交给调度器取消
}

// conflict 同类过渡正在进行时按新事件的优先级处理
// 返回：是否继续执行新事件
func conflict(running *event.Event, ev *event.Event, out *Outcome) bool {
	if running == nil || running == ev {
		return true
	}
	switch ev.Priority {
	case event.PrioritySkip, event.PriorityParallel:
		log.Debugf("%v dropped: %s already running", ev, running.ID)
		out.Cancelled = append(out.Cancelled, ev)
		return false
	default:
		log.Debugf("%v overwrites %s", ev, running.ID)
		out.Cancelled = append(out.Cancelled, running)
		return true
	}
}

// apply 在now时刻执行事件
// 说明：
// 1. 同类过渡（纵向或横向）最多一个，不同类可以并行
// 2. teleport立即生效，取消全部过渡并使车辆静止
// 3. 调用前车辆已update到now
func (v *Vehicle) apply(ev *event.Event, now float64) Outcome {
	out := Outcome{}
	mo := &v.motion
	mo.settle(now)
	var running *event.Event
	switch ev.Kind {
	case event.KindSpeedChange, event.KindBrakeAction, event.KindVehicleStop, event.KindVehicleStart:
		if mo.lon.active(now) {
			running = mo.lon.Event
		}
	case event.KindLaneChange:
		if mo.lat.active(now) {
			running = mo.lat.Event
		}
	}

	switch ev.Kind {
	case event.KindSpeedChange, event.KindBrakeAction, event.KindVehicleStop:
		if !conflict(running, ev, &out) {
			return out
		}
		v.applySpeed(ev, now)
	case event.KindVehicleStart:
		if running != nil {
			out.Cancelled = append(out.Cancelled, running)
		}
		speed := mo.resumeSpeed
		if ev.Params.HasSpeed {
			speed = ev.Params.TargetSpeed
		}
		mo.lon = longitudinal{T0: now, D0: mo.lon.distance(now), V0: speed, V1: speed, Event: ev}
		mo.targetSpeed = speed
		if speed > 0 {
			mo.resumeSpeed = speed
		}
	case event.KindLaneChange:
		if !conflict(running, ev, &out) {
			return out
		}
		v.applyLaneChange(ev, now)
	case event.KindTeleport:
		next, err := v.m.resolvePosition(ev.Params.Position, now)
		if err != nil {
			log.Warnf("%v: teleport of %v failed: %v", ev, v, err)
			out.Cancelled = append(out.Cancelled, ev)
			return out
		}
		if mo.lon.active(now) && mo.lon.Event != nil {
			out.Cancelled = append(out.Cancelled, mo.lon.Event)
		}
		if mo.lat.active(now) && mo.lat.Event != nil {
			out.Cancelled = append(out.Cancelled, mo.lat.Event)
		}
		next.resumeSpeed = mo.resumeSpeed
		*mo = next
	case event.KindCustom:
		log.Infof("%v: custom command %q (%s) for %v", ev, ev.Params.Command, ev.Params.Content, v)
	default:
		log.Warnf("%v: unknown event kind %q", ev, ev.Kind)
		out.Cancelled = append(out.Cancelled, ev)
		return out
	}
	out.Applied = true
	return out
}

// applySpeed 开始纵向过渡
// 算法说明：
// 1. 相对目标以参照车辆（默认自身）当前速度为基准，结果不小于0
// 2. 按变化率或距离给出的动态在此时换算为时长
func (v *Vehicle) applySpeed(ev *event.Event, now float64) {
	mo := &v.motion
	current := mo.lon.speed(now)
	p := ev.Params
	target := p.TargetSpeed
	if p.RelativeSpeed {
		ref := current
		if p.Reference != "" && p.Reference != v.id {
			if other, ok := v.m.data[p.Reference]; ok {
				ref = other.motion.lon.speed(now)
			} else {
				log.Warnf("%v: unknown reference vehicle %s, use %v", ev, p.Reference, v)
			}
		}
		target = ref + p.TargetSpeed
	}
	target = max(target, 0)
	duration := ev.Duration
	switch {
	case p.Rate > 0:
		duration = math.Abs(target-current) / p.Rate
	case p.Distance > 0 && current+target > 0:
		duration = 2 * p.Distance / (current + target)
	}
	if ev.Kind == event.KindVehicleStop {
		duration = 0
	}
	mo.lon = longitudinal{
		T0:       now,
		D0:       mo.lon.distance(now),
		V0:       current,
		V1:       target,
		Duration: duration,
		Event:    ev,
	}
	mo.targetSpeed = target
	if target > 0 {
		mo.resumeSpeed = target
	}
}

// applyLaneChange 开始横向过渡，从当前横向偏移缓动到目标车道的偏移
func (v *Vehicle) applyLaneChange(ev *event.Event, now float64) {
	mo := &v.motion
	width := v.m.laneWidth
	target := ev.Params.TargetLane
	if ev.Params.RelativeLane {
		target += mo.targetLane
	}
	from := mo.lat.offset(now)
	to := mo.laneOffset(target, width)
	duration := ev.Duration
	switch p := ev.Params; {
	case p.Rate > 0:
		duration = math.Abs(to-from) / p.Rate
	case p.Distance > 0:
		if speed := mo.lon.speed(now); speed > 0 {
			duration = p.Distance / speed
		} else {
			duration = 0
		}
	}
	mo.lat = lateral{T0: now, From: from, To: to, Duration: duration, Event: ev}
	mo.targetLane = target
	if duration <= 0 {
		mo.lane = target
	}
}
