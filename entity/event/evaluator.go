package event

import (
	"fmt"
	"slices"

	"github.com/tsinghua-fib-lab/scenario-player/utils/container"
)

// StateUpdate 事件激活时交给车辆执行的状态更新
type StateUpdate struct {
	Event *Event
	Time  float64 // 激活时刻
}

// Callback 事件激活回调
type Callback func(ev *Event)

// Observer 事件状态变化观察者
type Observer func(ev *Event, from, to Status, now float64)

// eventState Snapshot中单个事件的状态
type eventState struct {
	status      Status
	activatedAt float64
}

// Snapshot 全部事件状态的快照
type Snapshot struct {
	states []eventState
}

// Evaluator 事件调度器
// 功能：每步激活满足条件的待触发事件，完成到期的活动事件
// 说明：
// 1. 由仿真时间门控的事件放在按Time排序的优先队列中
// 2. 触发器含实体条件的事件每步求值
// 3. 事件状态只在本结构中修改，车辆只通过Cancel报告被丢弃或被替换的事件
type Evaluator struct {
	events []*Event
	byID   map[string]*Event

	timed   *container.PriorityQueue[*Event]
	watched []*Event // 需要逐步求值触发器的待触发事件
	active  []*Event

	callbacks map[string][]Callback
	observers []Observer
}

// NewEvaluator 创建事件调度器，事件应已按Time排序
func NewEvaluator(events []*Event) *Evaluator {
	e := &Evaluator{
		events:    events,
		byID:      make(map[string]*Event, len(events)),
		timed:     container.NewPriorityQueue[*Event](),
		callbacks: make(map[string][]Callback),
	}
	for _, ev := range events {
		e.byID[ev.ID] = ev
	}
	e.rebuild()
	return e
}

// rebuild 按当前状态重建待触发集合与活动集合
func (e *Evaluator) rebuild() {
	e.timed.Clear()
	e.watched = e.watched[:0]
	e.active = e.active[:0]
	for _, ev := range e.events {
		switch ev.Status {
		case StatusPending:
			if ev.Timed {
				e.timed.Push(ev, ev.Time)
			}
			if !ev.Timed || ev.Trigger.HasEntityConditions() {
				e.watched = append(e.watched, ev)
			}
		case StatusActive:
			e.active = append(e.active, ev)
		}
	}
	e.timed.Heapify()
}

// Events 全部事件
func (e *Evaluator) Events() []*Event {
	return e.events
}

// Get 按ID查找事件
func (e *Evaluator) Get(id string) (*Event, bool) {
	ev, ok := e.byID[id]
	return ev, ok
}

// Active 当前活动事件
func (e *Evaluator) Active() []*Event {
	return slices.Clone(e.active)
}

// NextTime 最早的待触发定时事件时刻
func (e *Evaluator) NextTime() (float64, bool) {
	for e.timed.Len() > 0 {
		if e.timed.First().Status == StatusPending {
			return e.timed.FirstPriority(), true
		}
		e.timed.HeapPop()
	}
	return 0, false
}

// RegisterCallback 注册事件激活回调，eventID为空时对全部事件生效
func (e *Evaluator) RegisterCallback(eventID string, cb Callback) error {
	if eventID != "" {
		if _, ok := e.byID[eventID]; !ok {
			return fmt.Errorf("event %s not found", eventID)
		}
	}
	e.callbacks[eventID] = append(e.callbacks[eventID], cb)
	return nil
}

// Observe 注册状态变化观察者
func (e *Evaluator) Observe(o Observer) {
	e.observers = append(e.observers, o)
}

func (e *Evaluator) setStatus(ev *Event, to Status, now float64) {
	from := ev.Status
	ev.Status = to
	for _, o := range e.observers {
		o(ev, from, to, now)
	}
}

// activate 激活事件
// 说明：只有pending事件可以激活，因此回调对每次激活只触发一次
func (e *Evaluator) activate(ev *Event, now float64) bool {
	if ev.Status != StatusPending {
		return false
	}
	if ev.Timed && now >= ev.Time {
		ev.ActivatedAt = ev.Time
	} else {
		ev.ActivatedAt = now
	}
	e.setStatus(ev, StatusActive, now)
	e.active = append(e.active, ev)
	for _, cb := range e.callbacks[ev.ID] {
		cb(ev)
	}
	for _, cb := range e.callbacks[""] {
		cb(ev)
	}
	return true
}

// Step 推进到now
// 功能：激活满足条件的事件并完成到期的活动事件
// 参数：now-当前仿真时间，actors-供实体条件读取的车辆
// 返回：本步激活的事件，定时事件在前（按Time），其余按编译顺序
// 说明：时长为0的事件在激活的同一步完成，但仍会返回一次状态更新
func (e *Evaluator) Step(now float64, actors Actors) []StateUpdate {
	updates := e.activateTimed(now, nil)
	updates = e.activateWatched(now, actors, updates)
	e.complete(now)
	return updates
}

// StepTimed 只激活到期的定时事件，不求值触发器
// 说明：用于网格点之间的精确事件时刻
func (e *Evaluator) StepTimed(now float64) []StateUpdate {
	updates := e.activateTimed(now, nil)
	e.complete(now)
	return updates
}

func (e *Evaluator) activateTimed(now float64, updates []StateUpdate) []StateUpdate {
	for e.timed.Len() > 0 && e.timed.FirstPriority() <= now {
		ev, _ := e.timed.HeapPop()
		if e.activate(ev, now) {
			updates = append(updates, StateUpdate{Event: ev, Time: ev.ActivatedAt})
		}
	}
	return updates
}

func (e *Evaluator) activateWatched(now float64, actors Actors, updates []StateUpdate) []StateUpdate {
	kept := e.watched[:0]
	for _, ev := range e.watched {
		if ev.Status != StatusPending {
			continue
		}
		if ShouldTrigger(ev, now, actors) && e.activate(ev, now) {
			updates = append(updates, StateUpdate{Event: ev, Time: ev.ActivatedAt})
			continue
		}
		kept = append(kept, ev)
	}
	clear(e.watched[len(kept):])
	e.watched = kept
	return updates
}

func (e *Evaluator) complete(now float64) {
	kept := e.active[:0]
	for _, ev := range e.active {
		if ev.Status == StatusActive && now-ev.ActivatedAt >= ev.Duration {
			e.setStatus(ev, StatusCompleted, now)
			continue
		}
		if ev.Status == StatusActive {
			kept = append(kept, ev)
		}
	}
	clear(e.active[len(kept):])
	e.active = kept
}

// Cancel 取消事件
// 说明：车辆丢弃或替换事件时调用；同一步内已完成的瞬时事件也会被标记为取消
func (e *Evaluator) Cancel(ev *Event, now float64) {
	switch ev.Status {
	case StatusActive, StatusCompleted:
	default:
		return
	}
	e.setStatus(ev, StatusCancelled, now)
	e.active = slices.DeleteFunc(e.active, func(a *Event) bool { return a == ev })
}

// Reset 全部事件回到pending
func (e *Evaluator) Reset() {
	for _, ev := range e.events {
		ev.Status = StatusPending
		ev.ActivatedAt = 0
	}
	e.rebuild()
}

// Snapshot 保存全部事件状态
func (e *Evaluator) Snapshot() Snapshot {
	states := make([]eventState, len(e.events))
	for i, ev := range e.events {
		states[i] = eventState{status: ev.Status, activatedAt: ev.ActivatedAt}
	}
	return Snapshot{states: states}
}

// Restore 恢复快照，回调与观察者不会被触发
func (e *Evaluator) Restore(s Snapshot) {
	for i, ev := range e.events {
		ev.Status = s.states[i].status
		ev.ActivatedAt = s.states[i].activatedAt
	}
	e.rebuild()
}
