package task

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/scenario-player/clock"
	"github.com/tsinghua-fib-lab/scenario-player/entity"
	"github.com/tsinghua-fib-lab/scenario-player/utils"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Sink 位姿输出
type Sink interface {
	Publish(t float64, poses []entity.ActorPose) error
}

// Player 播放器服务
// 功能：用互斥锁串行化实时播放循环与RPC调用对Context的访问，并把位姿推送到输出
type Player struct {
	mu    sync.Mutex
	ctx   *Context
	sinks []Sink
}

// NewPlayer 创建播放器服务
func NewPlayer(ctx *Context, sinks ...Sink) *Player {
	return &Player{ctx: ctx, sinks: sinks}
}

// AddSink 添加位姿输出
func (p *Player) AddSink(s Sink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sinks = append(p.sinks, s)
}

// Lock 与Unlock使Player满足sync.Locker，供共享同一把锁的服务使用
func (p *Player) Lock() {
	p.mu.Lock()
}

func (p *Player) Unlock() {
	p.mu.Unlock()
}

// Run 实时播放循环
// 功能：每隔interval按经过的真实时间推进一次并推送位姿，直到ctx取消
func (p *Player) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			realDt := now.Sub(last).Seconds()
			last = now
			p.mu.Lock()
			err := p.ctx.Tick(realDt)
			t, poses := p.ctx.Time(), p.ctx.Poses()
			p.mu.Unlock()
			if err != nil {
				if !errors.Is(err, ErrNotLoaded) {
					log.Errorf("tick: %v", err)
				}
				continue
			}
			p.publish(t, poses)
		}
	}
}

// publish 推送位姿到全部输出，失败只记录日志
func (p *Player) publish(t float64, poses []entity.ActorPose) {
	for _, s := range p.sinks {
		if err := s.Publish(t, poses); err != nil {
			log.Warnf("publish poses at t=%.3f: %v", t, err)
		}
	}
}

// connectError 将播放器错误映射为RPC错误码
func connectError(err error) error {
	switch {
	case errors.Is(err, ErrNotLoaded):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, clock.ErrNegativeSpeed):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// Handler 播放控制服务的HTTP处理器
// 参数：opts-connect处理器选项
// 返回：路由前缀与处理器
func (p *Player) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	with := func(method string, extra ...connect.HandlerOption) []connect.HandlerOption {
		o := []connect.HandlerOption{connect.WithSchema(methodSchema("PlaybackService", method))}
		o = append(o, extra...)
		return append(o, opts...)
	}
	mux := http.NewServeMux()
	mux.Handle(SetTimeProcedure, connect.NewUnaryHandler(
		SetTimeProcedure, p.SetTime, with("SetTime")...,
	))
	mux.Handle(SetPlaybackSpeedProcedure, connect.NewUnaryHandler(
		SetPlaybackSpeedProcedure, p.SetPlaybackSpeed, with("SetPlaybackSpeed")...,
	))
	mux.Handle(ResetProcedure, connect.NewUnaryHandler(
		ResetProcedure, p.Reset, with("Reset")...,
	))
	mux.Handle(GetActorPosesProcedure, connect.NewUnaryHandler(
		GetActorPosesProcedure, p.GetActorPoses, with("GetActorPoses")...,
	))
	mux.Handle(GetRoadNetworkProcedure, connect.NewUnaryHandler(
		GetRoadNetworkProcedure, p.GetRoadNetwork,
		with("GetRoadNetwork", connect.WithIdempotency(connect.IdempotencyNoSideEffects))...,
	))
	return "/" + PlaybackServiceName + "/", mux
}

// SetTime 跳转到指定仿真时间并推送位姿
func (p *Player) SetTime(ctx context.Context, in *connect.Request[wrapperspb.DoubleValue]) (*connect.Response[emptypb.Empty], error) {
	p.mu.Lock()
	err := p.ctx.SetTime(in.Msg.GetValue())
	t, poses := p.ctx.Time(), p.ctx.Poses()
	p.mu.Unlock()
	if err != nil {
		return nil, connectError(err)
	}
	p.publish(t, poses)
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// SetPlaybackSpeed 设置播放倍速
func (p *Player) SetPlaybackSpeed(ctx context.Context, in *connect.Request[wrapperspb.DoubleValue]) (*connect.Response[emptypb.Empty], error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ctx.SetPlaybackSpeed(in.Msg.GetValue()); err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// Reset 回到0时刻并推送位姿
func (p *Player) Reset(ctx context.Context, in *connect.Request[emptypb.Empty]) (*connect.Response[emptypb.Empty], error) {
	p.mu.Lock()
	err := p.ctx.Reset()
	t, poses := p.ctx.Time(), p.ctx.Poses()
	p.mu.Unlock()
	if err != nil {
		return nil, connectError(err)
	}
	p.publish(t, poses)
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// GetActorPoses 查询车辆位姿
// 功能：请求中有time时先跳转到该时刻，否则返回当前时刻的位姿；ids非空时只返回这些车辆
// 返回：{time, poses, missing}，missing为不存在的车辆ID
func (p *Player) GetActorPoses(ctx context.Context, in *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	fields := in.Msg.GetFields()
	ids := lo.FilterMap(fields["ids"].GetListValue().GetValues(), func(v *structpb.Value, _ int) (string, bool) {
		s, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return "", false
		}
		return s.StringValue, true
	})

	p.mu.Lock()
	var poses []entity.ActorPose
	var err error
	if tv, ok := fields["time"]; ok {
		poses, err = p.ctx.GetActorPoses(tv.GetNumberValue())
	} else if p.ctx.Loaded() {
		poses = p.ctx.Poses()
	} else {
		err = ErrNotLoaded
	}
	t := p.ctx.Time()
	p.mu.Unlock()
	if err != nil {
		return nil, connectError(err)
	}

	byID := lo.SliceToMap(poses, func(pose entity.ActorPose) (string, entity.ActorPose) { return pose.ID, pose })
	found, missing := utils.Find(byID, poses, ids)
	res, err := structpb.NewStruct(map[string]any{
		"time":    t,
		"poses":   posesValue(found),
		"missing": lo.ToAnySlice(missing),
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(res), nil
}

// GetRoadNetwork 查询路网几何
func (p *Player) GetRoadNetwork(ctx context.Context, in *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	p.mu.Lock()
	n, err := p.ctx.GetRoadNetwork()
	p.mu.Unlock()
	if err != nil {
		return nil, connectError(err)
	}
	res, err := structpb.NewStruct(n.toMap())
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(res), nil
}
