package geometry

import (
	"iter"
	"math"
)

// SampleCount 几何段的采样点数
// 零长度为1个点，否则为 max(2, ceil(length·resolution)+1)
func SampleCount(length, resolution float64) int {
	if length <= 0 {
		return 1
	}
	if resolution <= 0 {
		return 2
	}
	n := int(math.Ceil(length*resolution)) + 1
	return max(n, 2)
}

// Points 在[0, length]上均匀采样几何段
// 功能：返回惰性、有限且可重复遍历的采样序列，仅在需要时求值
// 参数：seg-几何段，resolution-每单位弧长的采样密度
// 返回：采样序列，Sample.S为局部弧长
// 说明：未知类型只产生起点一个采样
func Points(seg Segment, resolution float64) iter.Seq[Sample] {
	h := Head(seg)
	return func(yield func(Sample) bool) {
		if _, ok := seg.(*Unknown); ok {
			p := Evaluate(seg, 0)
			yield(Sample{X: p.X, Y: p.Y, Hdg: p.Hdg})
			return
		}
		n := SampleCount(h.Length, resolution)
		for i := 0; i < n; i++ {
			s := 0.0
			if n > 1 {
				// 末点直接取length，避免浮点累积误差
				if i == n-1 {
					s = h.Length
				} else {
					s = h.Length * float64(i) / float64(n-1)
				}
			}
			p := Evaluate(seg, s)
			if !yield(Sample{S: s, X: p.X, Y: p.Y, Hdg: p.Hdg}) {
				return
			}
		}
	}
}

// Collect 将采样序列物化为切片
func Collect(seq iter.Seq[Sample]) []Sample {
	out := make([]Sample, 0)
	for s := range seq {
		out = append(out, s)
	}
	return out
}
