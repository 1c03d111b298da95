package geometry

import (
	"fmt"
	"math"

	"github.com/tsinghua-fib-lab/scenario-player/utils/mathutil"
)

// CurvatureEpsilon 曲率绝对值低于该值的圆弧按直线求值
const CurvatureEpsilon = 1e-10

// EvaluationError 几何求值中可恢复的错误（未知类型、曲率过小）
// 说明：只用于日志记录，求值函数总会返回一个安全的回退结果
type EvaluationError struct {
	Kind   string
	Reason string
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("geometry %s: %s", e.Kind, e.Reason)
}

// Evaluate 计算几何段在局部弧长sLocal处的位姿
// 功能：按几何段类型分别求值
// 参数：seg-几何段，sLocal-相对几何段起点的弧长
// 返回：世界坐标系下的位姿
// 算法说明：
// 1. line：沿起点航向直线外推
// 2. arc：曲率过小时退化为直线，否则按圆心与扫过角 sLocal·k 计算
// 3. spiral：用中点曲率 (curvStart+curvEnd)/2 的单段圆弧近似
// 4. poly3：局部坐标u=sLocal，v为三次多项式，按起点航向旋转
// 5. paramPoly3：u、v分别为参数p的三次多项式，按起点航向旋转
// 6. 未知类型：记录警告并返回起点
func Evaluate(seg Segment, sLocal float64) Pose {
	switch g := seg.(type) {
	case *Line:
		return evalLine(g.Header, sLocal)
	case *Arc:
		return evalArc(g.Header, g.Curvature, sLocal)
	case *Spiral:
		return evalArc(g.Header, (g.CurvStart+g.CurvEnd)/2, sLocal)
	case *Poly3:
		return evalPoly3(g, sLocal)
	case *ParamPoly3:
		return evalParamPoly3(g, sLocal)
	case *Unknown:
		log.Warn(&EvaluationError{Kind: g.Kind, Reason: "unknown geometry kind, origin returned"})
		return Pose{X: g.X, Y: g.Y, Hdg: g.Hdg}
	default:
		log.Panicf("unexpected segment type %T", seg)
		return Pose{}
	}
}

func evalLine(h Header, s float64) Pose {
	return Pose{
		X:   h.X + s*math.Cos(h.Hdg),
		Y:   h.Y + s*math.Sin(h.Hdg),
		Hdg: h.Hdg,
	}
}

func evalArc(h Header, k, s float64) Pose {
	if math.Abs(k) < CurvatureEpsilon {
		log.Debug(&EvaluationError{Kind: "arc", Reason: "near-zero curvature, evaluated as line"})
		return evalLine(h, s)
	}
	// 圆心位于起点左法向1/k处
	sweep := s * k
	return Pose{
		X:   h.X + (math.Sin(h.Hdg+sweep)-math.Sin(h.Hdg))/k,
		Y:   h.Y + (math.Cos(h.Hdg)-math.Cos(h.Hdg+sweep))/k,
		Hdg: h.Hdg + sweep,
	}
}

func rotate(h Header, u, v float64) (float64, float64) {
	sin, cos := math.Sincos(h.Hdg)
	return h.X + u*cos - v*sin, h.Y + u*sin + v*cos
}

func evalPoly3(g *Poly3, s float64) Pose {
	v := mathutil.CubicPolynomial(g.A, g.B, g.C, g.D, s)
	dv := mathutil.CubicDerivative(g.B, g.C, g.D, s)
	x, y := rotate(g.Header, s, v)
	return Pose{X: x, Y: y, Hdg: g.Hdg + math.Atan(dv)}
}

func evalParamPoly3(g *ParamPoly3, s float64) Pose {
	p := s
	if g.Normalized {
		if g.Length > 0 {
			p = s / g.Length
		} else {
			p = 0
		}
	}
	u := mathutil.CubicPolynomial(g.AU, g.BU, g.CU, g.DU, p)
	v := mathutil.CubicPolynomial(g.AV, g.BV, g.CV, g.DV, p)
	du := mathutil.CubicDerivative(g.BU, g.CU, g.DU, p)
	dv := mathutil.CubicDerivative(g.BV, g.CV, g.DV, p)
	x, y := rotate(g.Header, u, v)
	hdg := g.Hdg
	if du != 0 || dv != 0 {
		hdg += math.Atan2(dv, du)
	}
	return Pose{X: x, Y: y, Hdg: hdg}
}
