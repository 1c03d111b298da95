package entity

import (
	"github.com/tsinghua-fib-lab/scenario-player/clock"
	"github.com/tsinghua-fib-lab/scenario-player/utils/config"
)

// ITaskContext 播放器上下文，供各实体访问时钟、路网与车辆
type ITaskContext interface {
	Clock() *clock.Clock
	RoadManager() IRoadManager
	JunctionManager() IJunctionManager
	VehicleManager() IVehicleManager
	RuntimeConfig() *config.RuntimeConfig
}
