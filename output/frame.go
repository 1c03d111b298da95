// Package output 位姿与事件状态的输出格式，供websocket、MQTT与数据库输出共用
package output

import (
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/scenario-player/entity"
	"github.com/tsinghua-fib-lab/scenario-player/entity/event"
)

// 帧类型
const (
	FramePoses = "poses"
	FrameEvent = "event"
)

// Pose 车辆位姿
type Pose struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	Heading float64 `json:"heading"`
	Speed   float64 `json:"speed"`
}

// EventStatus 事件状态变化
type EventStatus struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Actor string `json:"actor"`
	Kind  string `json:"kind"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// Frame 一条输出消息
type Frame struct {
	Type  string       `json:"type"`
	Time  float64      `json:"time"`
	Poses []Pose       `json:"poses,omitempty"`
	Event *EventStatus `json:"event,omitempty"`
}

// PoseFrame 位姿帧
func PoseFrame(t float64, poses []entity.ActorPose) Frame {
	return Frame{
		Type: FramePoses,
		Time: t,
		Poses: lo.Map(poses, func(p entity.ActorPose, _ int) Pose {
			return Pose{ID: p.ID, X: p.X, Y: p.Y, Z: p.Z, Heading: p.Heading, Speed: p.Speed}
		}),
	}
}

// EventFrame 事件状态帧
func EventFrame(ev *event.Event, from, to event.Status, now float64) Frame {
	return Frame{
		Type: FrameEvent,
		Time: now,
		Event: &EventStatus{
			ID:    ev.ID,
			Name:  ev.Name,
			Actor: ev.TargetActor,
			Kind:  string(ev.Kind),
			From:  from.String(),
			To:    to.String(),
		},
	}
}
