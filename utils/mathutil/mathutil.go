// 数学工具：多项式、缓动函数、角度与插值
package mathutil

import (
	"math"

	"golang.org/x/exp/constraints"
)

const (
	INF = math.MaxFloat64 // 无穷大的有限表示
	EPS = 1e-9            // 通用浮点比较容差
)

// Lerp 线性插值 a+(b-a)·k
func Lerp[T constraints.Float](a, b, k T) T {
	return a + (b-a)*k
}

// NormalizeAngle 将角度规范到(-π, π]
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// AlmostEqual 判断两个浮点数在容差内相等
func AlmostEqual[T constraints.Float](a, b, tol T) bool {
	d := a - b
	return d <= tol && d >= -tol
}
