// 轨迹插值：带时间戳的航点序列到任意时刻的位置与航向
package trajectory

import (
	"math"
	"sort"

	"github.com/paulmach/orb/planar"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/scenario-player/geometry"
	"github.com/tsinghua-fib-lab/scenario-player/utils/mathutil"
)

// 航点速度提示与几何距离的最大允许偏差
const speedHintTolerance = 0.1

// Waypoint 带时间戳的航点
type Waypoint struct {
	Time     float64
	Position geometry.Point
	Speed    *float64 // 可选速度提示
}

// Result 插值结果
type Result struct {
	Position geometry.Point
	Heading  float64
	Speed    float64
}

// SortWaypoints 按时间稳定排序
func SortWaypoints(wps []Waypoint) {
	sort.SliceStable(wps, func(i, j int) bool { return wps[i].Time < wps[j].Time })
}

func distance(a, b geometry.Point) float64 {
	return planar.Distance(a.XY(), b.XY())
}

// heading 第i段（航点i-1到i）的方向，重合航点向前查找非零段
func heading(wps []Waypoint, i int) float64 {
	for j := i; j >= 1; j-- {
		a, b := wps[j-1].Position, wps[j].Position
		if distance(a, b) > 0 {
			return math.Atan2(b.Y-a.Y, b.X-a.X)
		}
	}
	for j := i + 1; j < len(wps); j++ {
		a, b := wps[j-1].Position, wps[j].Position
		if distance(a, b) > 0 {
			return math.Atan2(b.Y-a.Y, b.X-a.X)
		}
	}
	return 0
}

// bracket 查找包含t的航点区间[i-1, i]
// 返回：i；t早于首航点返回0，不早于末航点返回len(wps)
func bracket(wps []Waypoint, t float64) int {
	return sort.Search(len(wps), func(i int) bool { return wps[i].Time > t })
}

// clampEnds 处理区间外的查询
func clampEnds(wps []Waypoint, i int) (Result, bool) {
	n := len(wps)
	switch {
	case n == 0:
		return Result{}, true
	case i == 0:
		return Result{Position: wps[0].Position, Heading: heading(wps, 1), Speed: hint(wps[0])}, true
	case i >= n:
		return Result{Position: wps[n-1].Position, Heading: heading(wps, n-1), Speed: hint(wps[n-1])}, true
	}
	return Result{}, false
}

func hint(w Waypoint) float64 {
	if w.Speed == nil {
		return 0
	}
	return *w.Speed
}

// Interpolate 线性插值
// 功能：求航点序列在时刻t的位置、航向与速度
// 参数：wps-按时间升序的航点，t-查询时刻
// 返回：插值结果
// 算法说明：
// 1. t不晚于首航点时间返回首航点位置，不早于末航点时间返回末航点位置
// 2. 二分查找包含t的区间，局部比例 k = (t-t0)/(t1-t0)
// 3. 两端都有速度提示且推算距离与几何距离相差超过0.1时，按匀加速假设把k修正为已行驶距离占推算距离的比例
// 4. 航向取区间两端点连线方向（atan2），折线拐角处航向不连续
func Interpolate(wps []Waypoint, t float64) Result {
	i := bracket(wps, t)
	if r, ok := clampEnds(wps, i); ok {
		return r
	}
	a, b := wps[i-1], wps[i]
	dt := b.Time - a.Time
	tau := t - a.Time
	k := tau / dt
	speed := distance(a.Position, b.Position) / dt
	if a.Speed != nil && b.Speed != nil {
		v0, v1 := *a.Speed, *b.Speed
		implied := (v0 + v1) / 2 * dt
		if math.Abs(implied-distance(a.Position, b.Position)) > speedHintTolerance && implied > 0 {
			k = lo.Clamp((v0*tau+(v1-v0)*tau*tau/(2*dt))/implied, 0, 1)
		}
		speed = v0 + (v1-v0)*tau/dt
	}
	return Result{
		Position: geometry.Point{
			X: mathutil.Lerp(a.Position.X, b.Position.X, k),
			Y: mathutil.Lerp(a.Position.Y, b.Position.Y, k),
			Z: mathutil.Lerp(a.Position.Z, b.Position.Z, k),
		},
		Heading: heading(wps, i),
		Speed:   speed,
	}
}

// InterpolateSpline 平滑插值
// 功能：通过全部航点的Catmull-Rom样条，航向一阶连续
// 说明：首末区间的外侧控制点取端点自身；航点处位置与线性插值一致
func InterpolateSpline(wps []Waypoint, t float64) Result {
	i := bracket(wps, t)
	if r, ok := clampEnds(wps, i); ok {
		return r
	}
	n := len(wps)
	p0 := wps[max(i-2, 0)].Position
	p1 := wps[i-1].Position
	p2 := wps[i].Position
	p3 := wps[min(i+1, n-1)].Position
	dt := wps[i].Time - wps[i-1].Time
	u := (t - wps[i-1].Time) / dt

	pos := func(a, b, c, d float64) float64 {
		return 0.5 * (2*b + (-a+c)*u + (2*a-5*b+4*c-d)*u*u + (-a+3*b-3*c+d)*u*u*u)
	}
	der := func(a, b, c, d float64) float64 {
		return 0.5 * ((-a + c) + 2*(2*a-5*b+4*c-d)*u + 3*(-a+3*b-3*c+d)*u*u)
	}
	dx := der(p0.X, p1.X, p2.X, p3.X)
	dy := der(p0.Y, p1.Y, p2.Y, p3.Y)
	hdg := heading(wps, i)
	if dx != 0 || dy != 0 {
		hdg = math.Atan2(dy, dx)
	}
	return Result{
		Position: geometry.Point{
			X: pos(p0.X, p1.X, p2.X, p3.X),
			Y: pos(p0.Y, p1.Y, p2.Y, p3.Y),
			Z: pos(p0.Z, p1.Z, p2.Z, p3.Z),
		},
		Heading: hdg,
		Speed:   math.Hypot(dx, dy) / dt,
	}
}
