package clock

import (
	"context"
	"net/http"
	"sync"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName 时钟服务名
const ServiceName = "scenario.v1.ClockService"

// NowProcedure 查询当前仿真时间
const NowProcedure = "/" + ServiceName + "/Now"

// Handler 时钟服务的HTTP处理器
// 参数：mu-与播放器共享的锁，读取时间时持有；opts-connect处理器选项
// 返回：路由前缀与处理器
func (c *Clock) Handler(mu sync.Locker, opts ...connect.HandlerOption) (string, http.Handler) {
	now := connect.NewUnaryHandler(
		NowProcedure,
		func(ctx context.Context, in *connect.Request[emptypb.Empty]) (*connect.Response[wrapperspb.DoubleValue], error) {
			mu.Lock()
			defer mu.Unlock()
			return connect.NewResponse(wrapperspb.Double(c.T)), nil
		},
		opts...,
	)
	mux := http.NewServeMux()
	mux.Handle(NowProcedure, now)
	return "/" + ServiceName + "/", mux
}
