package lane

import (
	"github.com/tsinghua-fib-lab/scenario-player/geometry"
	"github.com/tsinghua-fib-lab/scenario-player/utils/mathutil"
)

// 车道边界所在侧
const (
	SideLeft  = 0
	SideRight = 1
)

// LateralFunc 给定参考线弧长s，返回某条线相对参考线的横向距离（左正右负）
type LateralFunc func(s float64) float64

// BuildBoundary 构造偏移线
// 功能：将参考线每个采样点沿局部切线的左法向平移lateral(s)
// 参数：centerline-参考线采样，lateral-横向距离函数
// 返回：与centerline等长的偏移采样，航向取局部切向
// 算法说明：
// 1. 切向使用中心差分，首末点使用前向/后向差分
// 2. 按切向左法向平移，保留弧长与高程
func BuildBoundary(centerline []geometry.Sample, lateral LateralFunc) []geometry.Sample {
	tangents := geometry.Tangents(centerline)
	out := make([]geometry.Sample, len(centerline))
	for i, p := range centerline {
		p.Hdg = tangents[i]
		out[i] = geometry.Offset(p, lateral(p.S))
	}
	return out
}

// OuterBoundary 一侧最外侧车道边界的横向距离函数
// 参数：offsets-车道偏移记录，sections-按S升序的车道段，side-SideLeft或SideRight
func OuterBoundary(offsets []mathutil.PolyRecord, sections []*Section, side int) LateralFunc {
	return func(s float64) float64 {
		base := mathutil.ResolvePolynomial(offsets, s, 0)
		sec := SectionAt(sections, s)
		if sec == nil {
			return base
		}
		return base + sec.OuterOffset(side, s-sec.S)
	}
}
