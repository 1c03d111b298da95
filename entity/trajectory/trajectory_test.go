package trajectory_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/scenario-player/entity/trajectory"
	"github.com/tsinghua-fib-lab/scenario-player/geometry"
)

func speed(v float64) *float64 { return &v }

func waypoints() []trajectory.Waypoint {
	return []trajectory.Waypoint{
		{Time: 1, Position: geometry.Point{X: 0, Y: 0, Z: 1}},
		{Time: 3, Position: geometry.Point{X: 10, Y: 0, Z: 1}},
		{Time: 5, Position: geometry.Point{X: 10, Y: 10, Z: 3}},
	}
}

func TestInterpolateEnds(t *testing.T) {
	wps := waypoints()
	for _, f := range []func([]trajectory.Waypoint, float64) trajectory.Result{
		trajectory.Interpolate, trajectory.InterpolateSpline,
	} {
		assert.Equal(t, wps[0].Position, f(wps, wps[0].Time).Position)
		assert.Equal(t, wps[0].Position, f(wps, -5).Position)
		assert.Equal(t, wps[2].Position, f(wps, wps[2].Time).Position)
		assert.Equal(t, wps[2].Position, f(wps, 100).Position)
		assert.Equal(t, wps[1].Position, f(wps, wps[1].Time).Position)
	}
	assert.Equal(t, trajectory.Result{}, trajectory.Interpolate(nil, 3))
}

func TestInterpolateLinear(t *testing.T) {
	wps := waypoints()
	r := trajectory.Interpolate(wps, 2)
	assert.InDelta(t, 5, r.Position.X, 1e-12)
	assert.InDelta(t, 0, r.Heading, 1e-12)
	assert.InDelta(t, 5, r.Speed, 1e-12)

	r = trajectory.Interpolate(wps, 4.5)
	assert.InDelta(t, 10, r.Position.X, 1e-12)
	assert.InDelta(t, 7.5, r.Position.Y, 1e-12)
	assert.InDelta(t, 2.5, r.Position.Z, 1e-12)
	// 拐角处航向不连续
	assert.InDelta(t, math.Pi/2, r.Heading, 1e-12)
	assert.InDelta(t, math.Pi/2, trajectory.Interpolate(wps, 100).Heading, 1e-12)
}

func TestInterpolateSpeedHint(t *testing.T) {
	// 0->20 m/s 匀加速 2s，推算距离20，几何距离40，触发修正
	wps := []trajectory.Waypoint{
		{Time: 0, Position: geometry.Point{}, Speed: speed(0)},
		{Time: 2, Position: geometry.Point{X: 40}, Speed: speed(20)},
	}
	r := trajectory.Interpolate(wps, 1)
	// 已行驶 0*1 + 20*1/4 = 5，占推算距离 5/20
	assert.InDelta(t, 10, r.Position.X, 1e-12)
	assert.InDelta(t, 10, r.Speed, 1e-12)

	// 推算距离与几何距离一致时保持时间线性
	wps[1].Position.X = 20
	r = trajectory.Interpolate(wps, 1)
	assert.InDelta(t, 10, r.Position.X, 1e-12)

	// 只有一端有速度提示时不修正
	wps[1].Position.X = 40
	wps[0].Speed = nil
	r = trajectory.Interpolate(wps, 1)
	assert.InDelta(t, 20, r.Position.X, 1e-12)
}

func TestInterpolateSplineSmooth(t *testing.T) {
	wps := waypoints()
	eps := 1e-6
	before := trajectory.InterpolateSpline(wps, 3-eps).Heading
	after := trajectory.InterpolateSpline(wps, 3+eps).Heading
	assert.InDelta(t, before, after, 1e-4)
	// 线性插值在同一位置航向跳变
	assert.Greater(t, math.Abs(trajectory.Interpolate(wps, 3+eps).Heading-trajectory.Interpolate(wps, 3-eps).Heading), 1.0)
}

func straight() []trajectory.Waypoint {
	return []trajectory.Waypoint{
		{Time: 0, Position: geometry.Point{X: 0}},
		{Time: 2, Position: geometry.Point{X: 10}},
		{Time: 4, Position: geometry.Point{X: 20}},
	}
}

func TestTrajectoryCache(t *testing.T) {
	tr := trajectory.New(trajectory.Linear, 8)
	assert.True(t, tr.Empty())
	tr.SetWaypoints(straight())
	v := tr.Version()

	first := tr.At(2)
	assert.Equal(t, 1, tr.CacheLen())
	assert.Equal(t, first, tr.At(2))
	assert.Equal(t, 1, tr.CacheLen())

	// 横向偏移后航点变化，缓存必须失效
	tr.SetWaypoints(trajectory.Shifted(straight(), 3.5))
	assert.Equal(t, v+1, tr.Version())
	assert.Equal(t, 0, tr.CacheLen())
	shifted := tr.At(2)
	assert.InDelta(t, first.Position.Y+3.5, shifted.Position.Y, 1e-9)
	assert.InDelta(t, first.Position.X, shifted.Position.X, 1e-9)

	for i := 0; i < 20; i++ {
		tr.At(float64(i) / 10)
	}
	assert.LessOrEqual(t, tr.CacheLen(), 8)
	assert.Equal(t, 4.0, tr.End())
}

func TestTrajectoryUnsorted(t *testing.T) {
	wps := waypoints()
	wps[0], wps[2] = wps[2], wps[0]
	tr := trajectory.New(trajectory.ParseMode("linear"), 0)
	tr.SetWaypoints(wps)
	assert.Equal(t, 1.0, tr.Waypoints()[0].Time)
	// 输入切片不被修改
	assert.Equal(t, 5.0, wps[0].Time)
	assert.Equal(t, 0, tr.CacheLen())
	tr.At(2)
	assert.Equal(t, 0, tr.CacheLen())
	assert.Equal(t, trajectory.Spline, trajectory.ParseMode("spline"))
}

func TestPath(t *testing.T) {
	p := trajectory.NewPath([]geometry.Sample{
		{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 10, Y: 0, Z: 2}, {X: 10, Y: 10, Z: 2},
	})
	assert.InDelta(t, 20, p.Length(), 1e-12)

	s := p.At(5)
	assert.InDelta(t, 5, s.X, 1e-12)
	assert.InDelta(t, 1, s.Z, 1e-12)
	assert.InDelta(t, 0, s.Hdg, 1e-12)

	s = p.At(15)
	assert.InDelta(t, 10, s.X, 1e-12)
	assert.InDelta(t, 5, s.Y, 1e-12)
	assert.InDelta(t, math.Pi/2, s.Hdg, 1e-12)

	// 两端直线外推
	s = p.At(25)
	assert.InDelta(t, 15, s.Y, 1e-12)
	assert.Equal(t, 25.0, s.S)
	s = p.At(-3)
	assert.InDelta(t, -3, s.X, 1e-12)

	o := p.OffsetAt(5, 2)
	assert.InDelta(t, 2, o.Y, 1e-12)
}

func TestRay(t *testing.T) {
	p := trajectory.NewRay(geometry.Sample{X: 1, Y: 2, Hdg: math.Pi / 2})
	assert.Equal(t, 0.0, p.Length())
	s := p.At(4)
	assert.InDelta(t, 1, s.X, 1e-12)
	assert.InDelta(t, 6, s.Y, 1e-12)
	require.Equal(t, math.Pi/2, p.Start().Hdg)

	empty := trajectory.NewPath(nil)
	assert.InDelta(t, 3, empty.At(3).X, 1e-12)
}
