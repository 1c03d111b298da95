package entity

// Manager依赖倒置

// entity/road/manager.go的依赖倒置
type IRoadManager interface {
	// 输入Road ID，查找Road，如果不存在则panic
	Get(id string) IRoad
	// 输入Road ID，查找Road，如果不存在则返回error
	GetOrError(id string) (IRoad, error)
	// 按文档顺序返回全部Road
	All() []IRoad
}

// entity/junction/manager.go的依赖倒置
type IJunctionManager interface {
	// 输入Junction ID，查找Junction，如果不存在则panic
	Get(id string) IJunction
	// 输入Junction ID，查找Junction，如果不存在则返回error
	GetOrError(id string) (IJunction, error)
	// 按文档顺序返回全部Junction
	All() []IJunction
}

// entity/vehicle/manager.go的依赖倒置
type IVehicleManager interface {
	// 输入车辆ID，查找车辆，如果不存在则返回error
	GetOrError(id string) (IVehicle, error)
	// 全部车辆当前位姿，按ID排序
	Poses() []ActorPose
}
