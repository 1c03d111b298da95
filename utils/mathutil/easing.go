package mathutil

import (
	"math"

	"github.com/samber/lo"
)

// EaseInOutCubic 三次缓入缓出
// p<0.5 时为 4p³，否则为 1-(-2p+2)³/2；p会先被限制在[0,1]
func EaseInOutCubic(p float64) float64 {
	p = lo.Clamp(p, 0, 1)
	if p < .5 {
		return 4 * p * p * p
	}
	q := -2*p + 2
	return 1 - q*q*q/2
}

// EaseInOutCubicIntegral 缓动函数在[0,p]上的积分
// 功能：用于在速度过渡期间精确计算行驶距离
// 算法说明：
//   - p<0.5: ∫4x³dx = p⁴
//   - p>=0.5: p + (2-2p)⁴/16 - 1/2，与前一段在p=0.5处连续
//
// 说明：F(1)=0.5，即完整过渡的平均缓动值为一半
func EaseInOutCubicIntegral(p float64) float64 {
	p = lo.Clamp(p, 0, 1)
	if p < .5 {
		return math.Pow(p, 4)
	}
	return p + math.Pow(2-2*p, 4)/16 - .5
}
