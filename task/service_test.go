package task_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/scenario-player/clock"
	"github.com/tsinghua-fib-lab/scenario-player/entity"
	"github.com/tsinghua-fib-lab/scenario-player/task"
	"github.com/tsinghua-fib-lab/scenario-player/utils/config"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type recordSink struct {
	mu    sync.Mutex
	times []float64
	last  []entity.ActorPose
}

func (s *recordSink) Publish(t float64, poses []entity.ActorPose) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.times = append(s.times, t)
	s.last = poses
	return nil
}

func (s *recordSink) published() ([]float64, []entity.ActorPose) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.times), s.last
}

func serve(t *testing.T, ctx *task.Context, sinks ...task.Sink) string {
	p := task.NewPlayer(ctx, sinks...)
	mux := http.NewServeMux()
	mux.Handle(p.Handler())
	mux.Handle(ctx.Clock().Handler(p))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestPlaybackService(t *testing.T) {
	sink := &recordSink{}
	url := serve(t, newContext(t), sink)
	bg := context.Background()

	setTime := connect.NewClient[wrapperspb.DoubleValue, emptypb.Empty](http.DefaultClient, url+task.SetTimeProcedure)
	_, err := setTime.CallUnary(bg, connect.NewRequest(wrapperspb.Double(2.5)))
	require.NoError(t, err)
	times, last := sink.published()
	assert.Equal(t, []float64{2.5}, times)
	require.Len(t, last, 2)

	now := connect.NewClient[emptypb.Empty, wrapperspb.DoubleValue](http.DefaultClient, url+clock.NowProcedure)
	res, err := now.CallUnary(bg, connect.NewRequest(&emptypb.Empty{}))
	require.NoError(t, err)
	assert.Equal(t, 2.5, res.Msg.GetValue())

	poses := connect.NewClient[structpb.Struct, structpb.Struct](http.DefaultClient, url+task.GetActorPosesProcedure)
	req, err := structpb.NewStruct(map[string]any{"time": 2.0, "ids": []any{"ego", "ghost"}})
	require.NoError(t, err)
	got, err := poses.CallUnary(bg, connect.NewRequest(req))
	require.NoError(t, err)
	fields := got.Msg.GetFields()
	assert.Equal(t, 2.0, fields["time"].GetNumberValue())
	list := fields["poses"].GetListValue().GetValues()
	require.Len(t, list, 1)
	ego := list[0].GetStructValue().GetFields()
	assert.Equal(t, "ego", ego["id"].GetStringValue())
	assert.InDelta(t, 20, ego["x"].GetNumberValue(), 1e-6)
	missing := fields["missing"].GetListValue().GetValues()
	require.Len(t, missing, 1)
	assert.Equal(t, "ghost", missing[0].GetStringValue())

	speed := connect.NewClient[wrapperspb.DoubleValue, emptypb.Empty](http.DefaultClient, url+task.SetPlaybackSpeedProcedure)
	_, err = speed.CallUnary(bg, connect.NewRequest(wrapperspb.Double(-1)))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	_, err = speed.CallUnary(bg, connect.NewRequest(wrapperspb.Double(4)))
	assert.NoError(t, err)

	reset := connect.NewClient[emptypb.Empty, emptypb.Empty](http.DefaultClient, url+task.ResetProcedure)
	_, err = reset.CallUnary(bg, connect.NewRequest(&emptypb.Empty{}))
	require.NoError(t, err)
	times, _ = sink.published()
	assert.Equal(t, []float64{2.5, 0}, times)

	network := connect.NewClient[emptypb.Empty, structpb.Struct](http.DefaultClient, url+task.GetRoadNetworkProcedure)
	n, err := network.CallUnary(bg, connect.NewRequest(&emptypb.Empty{}))
	require.NoError(t, err)
	roads := n.Msg.GetFields()["roads"].GetListValue().GetValues()
	require.Len(t, roads, 1)
	road := roads[0].GetStructValue().GetFields()
	assert.Equal(t, "1", road["id"].GetStringValue())
	// 每个采样点4个数
	assert.Zero(t, len(road["centerline"].GetListValue().GetValues())%4)
	assert.Len(t, road["lanes"].GetListValue().GetValues(), 2)
}

func TestPlaybackServiceNotLoaded(t *testing.T) {
	url := serve(t, task.NewContext(config.Config{}))
	setTime := connect.NewClient[wrapperspb.DoubleValue, emptypb.Empty](http.DefaultClient, url+task.SetTimeProcedure)
	_, err := setTime.CallUnary(context.Background(), connect.NewRequest(wrapperspb.Double(1)))
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	poses := connect.NewClient[structpb.Struct, structpb.Struct](http.DefaultClient, url+task.GetActorPosesProcedure)
	_, err = poses.CallUnary(context.Background(), connect.NewRequest(&structpb.Struct{}))
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))
}

func TestServiceNames(t *testing.T) {
	assert.Equal(t, []string{task.PlaybackServiceName, clock.ServiceName}, task.ServiceNames())
}
