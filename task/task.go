package task

import (
	"errors"

	"github.com/google/uuid"
	"github.com/tsinghua-fib-lab/scenario-player/clock"
	"github.com/tsinghua-fib-lab/scenario-player/document/xosc"
	"github.com/tsinghua-fib-lab/scenario-player/entity"
	"github.com/tsinghua-fib-lab/scenario-player/entity/event"
	"github.com/tsinghua-fib-lab/scenario-player/entity/roadnet"
	"github.com/tsinghua-fib-lab/scenario-player/entity/vehicle"
	"github.com/tsinghua-fib-lab/scenario-player/utils/config"
)

// ErrNotLoaded 尚未加载文档
var ErrNotLoaded = errors.New("no scenario loaded")

// snapshot 某一网格时刻的全部可变状态
type snapshot struct {
	t        float64
	events   event.Snapshot
	vehicles vehicle.Snapshot
	initial  bool // 加载后、0时刻一步之前的状态
}

// Context 播放器上下文
// 功能：包含一次加载的路网、事件、车辆与时钟，提供加载、跳转、播放与查询
// 说明：不是并发安全的，由Player加锁串行调用
type Context struct {
	// 时钟
	clock *clock.Clock
	// 运行时配置文件
	runtimeConfig *config.RuntimeConfig

	// 本次加载的标识
	session string
	// 路网
	network *roadnet.Network
	// 车辆管理器
	vehicleManager *vehicle.Manager
	// 事件调度器
	evaluator *event.Evaluator
	// 按时间升序的快照，首个为0时刻执行之前的初始状态
	snapshots []snapshot
	// 0时刻一步尚未执行，下次推进时先执行
	pending0 bool

	// 跨加载保留的事件状态观察者
	observers []event.Observer
}

// NewContext 创建播放器上下文
// 参数：c-配置对象
// 返回：未加载文档的Context实例
func NewContext(c config.Config) *Context {
	rc := config.NewRuntimeConfig(c)
	return &Context{
		clock:         clock.New(rc.C.Step, rc.C.PlaybackSpeed),
		runtimeConfig: rc,
	}
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) RoadManager() entity.IRoadManager {
	if ctx.network == nil {
		return nil
	}
	return ctx.network.RoadManager()
}

func (ctx *Context) JunctionManager() entity.IJunctionManager {
	if ctx.network == nil {
		return nil
	}
	return ctx.network.JunctionManager()
}

func (ctx *Context) VehicleManager() entity.IVehicleManager {
	if ctx.vehicleManager == nil {
		return nil
	}
	return ctx.vehicleManager
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

// Session 本次加载的标识，未加载时为空
func (ctx *Context) Session() string {
	return ctx.session
}

// Loaded 是否已加载文档
func (ctx *Context) Loaded() bool {
	return ctx.evaluator != nil
}

// Events 全部事件
func (ctx *Context) Events() ([]*event.Event, error) {
	if !ctx.Loaded() {
		return nil, ErrNotLoaded
	}
	return ctx.evaluator.Events(), nil
}

// Observe 注册事件状态变化观察者，对之后的全部加载生效
func (ctx *Context) Observe(o event.Observer) {
	ctx.observers = append(ctx.observers, o)
	if ctx.evaluator != nil {
		ctx.evaluator.Observe(o)
	}
}

// Load 加载路网与场景文档
// 功能：解析两个文档，编译事件，创建车辆，回到0时刻
// 参数：roadDoc-OpenDRIVE原文，scenarioDoc-OpenSCENARIO原文
// 返回：被跳过元素的警告；任一文档整体无法解析时返回*document.ParseError，原有状态不变
// 算法说明：
// 1. 先解析两个文档，全部成功后才替换当前状态
// 2. 编译事件与初始状态，创建车辆
// 3. 保存初始状态快照，再在0时刻执行一步
func (ctx *Context) Load(roadDoc, scenarioDoc []byte) ([]error, error) {
	network, warnings, err := roadnet.Parse(roadDoc, roadnet.Options{Resolution: ctx.runtimeConfig.C.Resolution})
	if err != nil {
		return nil, err
	}
	doc, err := xosc.Parse(scenarioDoc)
	if err != nil {
		return nil, err
	}
	events, errs := event.Compile(doc)
	warnings = append(warnings, errs...)
	placements, errs := event.CompileInit(doc)
	warnings = append(warnings, errs...)

	ctx.network = network
	ctx.session = uuid.NewString()
	ctx.vehicleManager = vehicle.NewManager(ctx)
	warnings = append(warnings, ctx.vehicleManager.Init(placements)...)
	ctx.evaluator = event.NewEvaluator(events)
	for _, o := range ctx.observers {
		ctx.evaluator.Observe(o)
	}
	ctx.clock.Init()
	ctx.snapshots = ctx.snapshots[:0]
	ctx.takeSnapshot()
	ctx.snapshots[0].initial = true
	ctx.pending0 = false
	ctx.step(0, true)

	for _, w := range warnings {
		log.Warn(w)
	}
	log.Infof("session %s: %d roads, %d junctions, %d vehicles, %d events, %d warnings",
		ctx.session, len(network.Roads()), len(network.Junctions()),
		len(ctx.vehicleManager.Vehicles()), len(events), len(warnings))
	return warnings, nil
}
