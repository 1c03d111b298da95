package mathutil_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/scenario-player/utils/mathutil"
)

func TestCubicPolynomialAtZero(t *testing.T) {
	cases := [][4]float64{
		{0, 0, 0, 0},
		{3.5, 0, 0, 0},
		{-1.25, 7, -3, 0.5},
		{1e6, -1e3, 12, -0.001},
	}
	for _, c := range cases {
		assert.Equal(t, c[0], mathutil.CubicPolynomial(c[0], c[1], c[2], c[3], 0))
	}
}

func TestCubicPolynomial(t *testing.T) {
	// 1 + 2t + 3t² + 4t³ at t=2
	assert.InDelta(t, 1+4+12+32, mathutil.CubicPolynomial(1, 2, 3, 4, 2), 1e-12)
	// 2 + 6t + 12t² at t=2
	assert.InDelta(t, 2+12+48, mathutil.CubicDerivative(2, 3, 4, 2), 1e-12)
}

func TestResolvePolynomial(t *testing.T) {
	records := []mathutil.PolyRecord{
		{SOffset: 0, A: 3},
		{SOffset: 10, A: 4, B: 0.1},
	}
	assert.Equal(t, 7.0, mathutil.ResolvePolynomial(nil, 5, 7))
	assert.InDelta(t, 3, mathutil.ResolvePolynomial(records, 0, 0), 1e-12)
	assert.InDelta(t, 3, mathutil.ResolvePolynomial(records, 9.99, 0), 1e-12)
	assert.InDelta(t, 4, mathutil.ResolvePolynomial(records, 10, 0), 1e-12)
	assert.InDelta(t, 4.5, mathutil.ResolvePolynomial(records, 15, 0), 1e-12)
	// 早于首条记录时使用首条记录
	assert.InDelta(t, 3, mathutil.ResolvePolynomial(records, -2, 0), 1e-12)
}

func TestEaseInOutCubic(t *testing.T) {
	assert.Equal(t, 0.0, mathutil.EaseInOutCubic(0))
	assert.Equal(t, 0.5, mathutil.EaseInOutCubic(0.5))
	assert.Equal(t, 1.0, mathutil.EaseInOutCubic(1))
	assert.Equal(t, 1.0, mathutil.EaseInOutCubic(3))
	assert.Equal(t, 0.0, mathutil.EaseInOutCubic(-1))
	prev := -1.0
	for i := 0; i <= 100; i++ {
		v := mathutil.EaseInOutCubic(float64(i) / 100)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}

func TestEaseInOutCubicIntegral(t *testing.T) {
	assert.Equal(t, 0.0, mathutil.EaseInOutCubicIntegral(0))
	assert.InDelta(t, 0.5, mathutil.EaseInOutCubicIntegral(1), 1e-12)
	assert.InDelta(t, 0.0625, mathutil.EaseInOutCubicIntegral(0.5), 1e-12)
	// 超出[0,1]时按边界处理
	assert.Equal(t, 0.0, mathutil.EaseInOutCubicIntegral(-1))
	assert.InDelta(t, 0.5, mathutil.EaseInOutCubicIntegral(2), 1e-12)
	// 与数值积分对比
	const n = 10000
	sum := 0.0
	for i := 0; i < n; i++ {
		p := (float64(i) + .5) / n * .8
		sum += mathutil.EaseInOutCubic(p) * .8 / n
	}
	assert.InDelta(t, sum, mathutil.EaseInOutCubicIntegral(.8), 1e-6)
}

func TestNormalizeAngle(t *testing.T) {
	assert.InDelta(t, 0, mathutil.NormalizeAngle(2*math.Pi), 1e-12)
	assert.InDelta(t, math.Pi, mathutil.NormalizeAngle(-math.Pi), 1e-12)
	assert.InDelta(t, -math.Pi/2, mathutil.NormalizeAngle(3*math.Pi/2), 1e-12)
	assert.InDelta(t, 2.5, mathutil.Lerp(2.0, 3.0, 0.5), 1e-12)
}
