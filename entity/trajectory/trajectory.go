package trajectory

import (
	"math"
	"slices"

	"github.com/tsinghua-fib-lab/scenario-player/geometry"
)

// Mode 插值方式
type Mode int

const (
	Linear Mode = iota // 线性
	Spline             // Catmull-Rom样条
)

// ParseMode 配置字符串转插值方式，未知值按线性处理
func ParseMode(s string) Mode {
	if s == "spline" {
		return Spline
	}
	return Linear
}

// Trajectory 车辆的工作轨迹
// 功能：持有航点序列与插值方式，按查询时刻缓存插值结果
// 说明：缓存属于单个轨迹（单辆车），替换航点时整体失效
type Trajectory struct {
	waypoints []Waypoint
	mode      Mode
	version   int

	cache     map[float64]Result
	cacheSize int
}

// New 创建空轨迹
// 参数：mode-插值方式，cacheSize-缓存容量上限，<=0表示不缓存
func New(mode Mode, cacheSize int) *Trajectory {
	return &Trajectory{
		mode:      mode,
		cache:     make(map[float64]Result),
		cacheSize: cacheSize,
	}
}

// SetWaypoints 替换航点序列
// 功能：复制并按时间排序，版本号加一，清空缓存
func (t *Trajectory) SetWaypoints(wps []Waypoint) {
	t.waypoints = slices.Clone(wps)
	SortWaypoints(t.waypoints)
	t.version++
	clear(t.cache)
}

// Shifted 返回每个航点沿所在折线段左法向平移lateral后的新序列
// 功能：用于变道时对基础轨迹施加横向偏移
func Shifted(wps []Waypoint, lateral float64) []Waypoint {
	out := slices.Clone(wps)
	if lateral == 0 || len(wps) < 2 {
		return out
	}
	samples := make([]geometry.Sample, len(wps))
	for i, w := range wps {
		samples[i] = geometry.Sample{X: w.Position.X, Y: w.Position.Y, Hdg: heading(wps, max(i, 1))}
	}
	tangents := geometry.Tangents(samples)
	for i := range out {
		samples[i].Hdg = tangents[i]
		p := geometry.Offset(samples[i], lateral)
		out[i].Position.X, out[i].Position.Y = p.X, p.Y
	}
	return out
}

// Waypoints 当前航点（只读）
func (t *Trajectory) Waypoints() []Waypoint {
	return t.waypoints
}

// Empty 是否没有航点
func (t *Trajectory) Empty() bool {
	return len(t.waypoints) == 0
}

// Version 航点序列版本号，每次SetWaypoints加一
func (t *Trajectory) Version() int {
	return t.version
}

// CacheLen 当前缓存条目数
func (t *Trajectory) CacheLen() int {
	return len(t.cache)
}

// End 末航点时刻，没有航点时为-Inf
func (t *Trajectory) End() float64 {
	if len(t.waypoints) == 0 {
		return math.Inf(-1)
	}
	return t.waypoints[len(t.waypoints)-1].Time
}

// At 查询时刻time的插值结果
// 说明：缓存满时整体清空后再写入
func (t *Trajectory) At(time float64) Result {
	if r, ok := t.cache[time]; ok {
		return r
	}
	var r Result
	switch t.mode {
	case Spline:
		r = InterpolateSpline(t.waypoints, time)
	default:
		r = Interpolate(t.waypoints, time)
	}
	if t.cacheSize > 0 {
		if len(t.cache) >= t.cacheSize {
			clear(t.cache)
		}
		t.cache[time] = r
	}
	return r
}
