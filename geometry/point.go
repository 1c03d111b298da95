package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// Point 三维坐标点
type Point struct {
	X, Y, Z float64
}

// XY 转为orb二维点
func (p Point) XY() orb.Point {
	return orb.Point{p.X, p.Y}
}

// Pose 平面位姿：坐标与航向角（弧度，x轴正方向为0，逆时针为正）
type Pose struct {
	X, Y, Hdg float64
}

// Point 丢弃航向角
func (p Pose) Point() Point {
	return Point{X: p.X, Y: p.Y}
}

// Sample 曲线上的一个采样点
// 功能：记录采样处的弧长、坐标、高程与切向航向
type Sample struct {
	S       float64 // 弧长
	X, Y, Z float64 // 坐标
	Hdg     float64 // 航向角
}

// Point 采样点坐标
func (s Sample) Point() Point {
	return Point{X: s.X, Y: s.Y, Z: s.Z}
}

// Offset 沿采样点的左法向平移lateral
// 功能：左法向为航向逆时针旋转90度，lateral为负时向右平移
func Offset(s Sample, lateral float64) Sample {
	s.X -= math.Sin(s.Hdg) * lateral
	s.Y += math.Cos(s.Hdg) * lateral
	return s
}

// Tangents 计算折线每个点的切向角
// 功能：内部点使用中心差分，两端分别使用前向/后向差分
// 参数：samples-采样点序列
// 返回：与samples等长的切向角
// 说明：相邻点重合（差分为零向量）时回退到采样点自身的航向
func Tangents(samples []Sample) []float64 {
	n := len(samples)
	out := make([]float64, n)
	for i := range samples {
		a, b := i-1, i+1
		if a < 0 {
			a = 0
		}
		if b > n-1 {
			b = n - 1
		}
		dx := samples[b].X - samples[a].X
		dy := samples[b].Y - samples[a].Y
		if a == b || math.Hypot(dx, dy) < 1e-12 {
			out[i] = samples[i].Hdg
			continue
		}
		out[i] = math.Atan2(dy, dx)
	}
	return out
}
