package entity

import (
	"github.com/tsinghua-fib-lab/scenario-player/entity/lane"
	"github.com/tsinghua-fib-lab/scenario-player/geometry"
)

// 方位常量
const (
	LEFT  = 0 // 左侧
	RIGHT = 1 // 右侧
)

// entity/road/road.go的依赖倒置
type IRoad interface {
	ID() string       // 道路ID
	Name() string     // 道路名
	Length() float64  // 参考线长度
	Junction() string // 所属路口ID，不在路口内时为空
	Sections() []*lane.Section
	Segments() []geometry.Segment

	Centerline() []geometry.Sample                                    // 参考线采样点（含高程）
	Boundary(side int) []geometry.Sample                              // 左/右最外侧车道边界
	PoseAt(s, t float64) geometry.Sample                              // 道路坐标(s,t)对应的世界坐标位姿
	LanePose(laneID int, s, offset float64) (geometry.Sample, error) // 车道坐标转世界坐标
	LaneCenterline(laneID int) ([]geometry.Sample, error)             // 车道中心线
}

// entity/junction/junction.go的依赖倒置
type IJunction interface {
	ID() string
	Name() string
	ConnectingRoads() []string // 路口内全部连接道路ID
}

// ActorPose 车辆在某一时刻的位姿
type ActorPose struct {
	ID      string
	X, Y, Z float64
	Heading float64
	Speed   float64
}

// entity/vehicle/vehicle.go的依赖倒置，供触发条件读取车辆状态
type IVehicle interface {
	ID() string
	Speed() float64
	Pose() ActorPose
}
