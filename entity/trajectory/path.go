package trajectory

import (
	"math"
	"sort"

	"github.com/paulmach/orb/planar"
	"github.com/tsinghua-fib-lab/scenario-player/geometry"
	"github.com/tsinghua-fib-lab/scenario-player/utils/mathutil"
)

// Path 按弧长参数化的折线
// 功能：速度驱动的车辆沿Path行驶，行驶距离超出两端时沿端点方向直线外推
type Path struct {
	line       []geometry.Sample // 折线点
	lengths    []float64         // 每个点对应的累计长度
	directions []float64         // 每一段的方向（atan2），长度为len(line)-1
	startHdg   float64
	endHdg     float64
}

// NewPath 由采样点创建Path
// 说明：重合的相邻点被合并；samples为空时返回原点处朝向x轴的射线
func NewPath(samples []geometry.Sample) *Path {
	p := &Path{
		line:    make([]geometry.Sample, 0, len(samples)),
		lengths: make([]float64, 0, len(samples)),
	}
	for _, s := range samples {
		if n := len(p.line); n > 0 {
			d := planar.Distance(p.line[n-1].Point().XY(), s.Point().XY())
			if d < 1e-9 {
				continue
			}
			p.directions = append(p.directions, math.Atan2(s.Y-p.line[n-1].Y, s.X-p.line[n-1].X))
			p.lengths = append(p.lengths, p.lengths[n-1]+d)
		} else {
			p.lengths = append(p.lengths, 0)
		}
		p.line = append(p.line, s)
	}
	switch {
	case len(p.line) == 0:
		p.line = append(p.line, geometry.Sample{})
		p.lengths = append(p.lengths, 0)
	case len(p.directions) == 0:
		p.startHdg, p.endHdg = p.line[0].Hdg, p.line[0].Hdg
	default:
		p.startHdg, p.endHdg = p.directions[0], p.directions[len(p.directions)-1]
	}
	return p
}

// NewRay 从位姿出发沿航向的射线
func NewRay(origin geometry.Sample) *Path {
	return NewPath([]geometry.Sample{origin})
}

// Length 折线总长
func (p *Path) Length() float64 {
	return p.lengths[len(p.lengths)-1]
}

// Start 起点
func (p *Path) Start() geometry.Sample {
	s := p.line[0]
	s.S, s.Hdg = 0, p.startHdg
	return s
}

// At 行驶距离d处的位姿
// 算法说明：
// 1. d<=0或d>=总长时，从对应端点沿端点方向直线外推
// 2. 否则二分查找所在线段，按比例混合坐标与高程，航向取线段方向
func (p *Path) At(d float64) geometry.Sample {
	n := len(p.line)
	if d <= 0 || n == 1 {
		return extrapolate(p.line[0], p.startHdg, d)
	}
	if total := p.Length(); d >= total {
		out := extrapolate(p.line[n-1], p.endHdg, d-total)
		out.S = d
		return out
	}
	i := sort.SearchFloat64s(p.lengths, d)
	if i == 0 {
		i = 1
	}
	sLow, sHigh := p.lengths[i-1], p.lengths[i]
	k := (d - sLow) / (sHigh - sLow)
	a, b := p.line[i-1], p.line[i]
	return geometry.Sample{
		S:   d,
		X:   mathutil.Lerp(a.X, b.X, k),
		Y:   mathutil.Lerp(a.Y, b.Y, k),
		Z:   mathutil.Lerp(a.Z, b.Z, k),
		Hdg: p.directions[i-1],
	}
}

// OffsetAt 行驶距离d处沿左法向平移lateral后的位姿
func (p *Path) OffsetAt(d, lateral float64) geometry.Sample {
	return geometry.Offset(p.At(d), lateral)
}

func extrapolate(from geometry.Sample, hdg, dist float64) geometry.Sample {
	sin, cos := math.Sincos(hdg)
	return geometry.Sample{
		S:   dist,
		X:   from.X + cos*dist,
		Y:   from.Y + sin*dist,
		Z:   from.Z,
		Hdg: hdg,
	}
}
