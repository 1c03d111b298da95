package task

import (
	"flag"
	"sort"

	"github.com/tsinghua-fib-lab/scenario-player/entity"
	"github.com/tsinghua-fib-lab/scenario-player/entity/event"
)

// 时刻比较的容差
const timeEpsilon = 1e-9

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 200, "心跳日志间隔步数")
)

// step 在now时刻执行一步
// 功能：计算车辆位姿，激活事件并交给车辆执行，被丢弃或替换的事件交回调度器取消
// 参数：now-仿真时间，grid-是否为网格点，只有网格点求值触发器
func (ctx *Context) step(now float64, grid bool) {
	vm := ctx.vehicleManager
	vm.UpdateState(now)
	var updates []event.StateUpdate
	if grid {
		updates = ctx.evaluator.Step(now, vm)
	} else {
		updates = ctx.evaluator.StepTimed(now)
	}
	for _, u := range updates {
		log.Debugf("t=%.3f apply %v", now, u.Event)
		out := vm.ApplyStateUpdate(u)
		for _, ev := range out.Cancelled {
			ctx.evaluator.Cancel(ev, now)
		}
	}
	ctx.clock.T = now
}

// advance 从当前时间推进到to
// 算法说明：
// 1. 按固定子步长网格逐点推进，网格点上求值触发器
// 2. 两个网格点之间到期的定时事件在其精确时刻执行
// 3. to不在网格上时最后只执行到期的定时事件并计算位姿
// 4. 每经过一个快照间隔保存一次快照
func (ctx *Context) advance(to float64) {
	c := ctx.clock
	if ctx.pending0 {
		ctx.pending0 = false
		ctx.step(c.T, true)
	}
	steps := 0
	for c.T < to {
		g := c.NextGrid(c.T)
		next := min(g, to)
		for {
			te, ok := ctx.evaluator.NextTime()
			if !ok || te >= next {
				break
			}
			ctx.step(max(te, c.T), false)
		}
		// to与网格点只差浮点误差时视为网格点
		onGrid := g-next <= timeEpsilon
		ctx.step(next, onGrid)
		if onGrid {
			ctx.maybeSnapshot()
			steps++
			if steps%*heartBeatInterval == 0 {
				log.Debugf("advance: t=%s", c)
			}
		}
	}
	ctx.vehicleManager.UpdateState(to)
}

// takeSnapshot 保存当前时刻的快照
func (ctx *Context) takeSnapshot() {
	t := ctx.clock.T
	ctx.snapshots = append(ctx.snapshots, snapshot{
		t:        t,
		events:   ctx.evaluator.Snapshot(),
		vehicles: ctx.vehicleManager.Snapshot(t),
	})
}

// maybeSnapshot 距最近的快照超过快照间隔时保存快照
// 说明：跳转回退后重放时，已有的更晚快照仍然有效，不重复保存
func (ctx *Context) maybeSnapshot() {
	last := ctx.snapshots[len(ctx.snapshots)-1].t
	if ctx.clock.T >= last+ctx.runtimeConfig.C.SnapshotInterval-timeEpsilon {
		ctx.takeSnapshot()
	}
}

// restore 恢复快照
func (ctx *Context) restore(s snapshot) {
	ctx.evaluator.Restore(s.events)
	ctx.vehicleManager.Restore(s.vehicles)
	ctx.clock.T = s.t
	ctx.pending0 = s.initial
}

// nearestSnapshot 时刻不晚于t的最后一个快照
func (ctx *Context) nearestSnapshot(t float64) snapshot {
	i := sort.Search(len(ctx.snapshots), func(i int) bool {
		return ctx.snapshots[i].t > t+timeEpsilon
	})
	return ctx.snapshots[max(i-1, 0)]
}

// SetTime 跳转到t
// 功能：回退时恢复不晚于t的最近快照后重放；前进时如有更近的快照也先恢复
// 说明：t<0按0处理；结果与从0时刻连续播放到t相同
func (ctx *Context) SetTime(t float64) error {
	if !ctx.Loaded() {
		return ErrNotLoaded
	}
	t = max(t, 0)
	if s := ctx.nearestSnapshot(t); t < ctx.clock.T || s.t > ctx.clock.T {
		ctx.restore(s)
	}
	ctx.advance(t)
	return nil
}

// SetPlaybackSpeed 设置播放倍速，负值返回clock.ErrNegativeSpeed
func (ctx *Context) SetPlaybackSpeed(speed float64) error {
	return ctx.clock.SetSpeed(speed)
}

// Tick 经过真实时间realDt后按播放倍速推进
func (ctx *Context) Tick(realDt float64) error {
	if !ctx.Loaded() {
		return ErrNotLoaded
	}
	ctx.advance(ctx.clock.Target(realDt))
	return nil
}

// Reset 回到0时刻，全部事件回到pending，车辆回到初始状态
// 说明：0时刻的事件在下次SetTime或Tick时才激活
func (ctx *Context) Reset() error {
	if !ctx.Loaded() {
		return ErrNotLoaded
	}
	ctx.restore(ctx.snapshots[0])
	return nil
}

// Time 当前仿真时间
func (ctx *Context) Time() float64 {
	return ctx.clock.T
}

// GetActorPoses 跳转到t并返回全部车辆位姿，按ID排序
func (ctx *Context) GetActorPoses(t float64) ([]entity.ActorPose, error) {
	if err := ctx.SetTime(t); err != nil {
		return nil, err
	}
	return ctx.vehicleManager.Poses(), nil
}

// Poses 当前时刻的全部车辆位姿
func (ctx *Context) Poses() []entity.ActorPose {
	if !ctx.Loaded() {
		return nil
	}
	return ctx.vehicleManager.Poses()
}

// RegisterEventCallback 注册事件激活回调，eventID为空时对全部事件生效
// 说明：回调属于本次加载，重新加载后需要重新注册
func (ctx *Context) RegisterEventCallback(eventID string, cb event.Callback) error {
	if !ctx.Loaded() {
		return ErrNotLoaded
	}
	return ctx.evaluator.RegisterCallback(eventID, cb)
}
