// 道路参考线几何段及其求值
package geometry

// Segment 参考线几何段
// 功能：封闭的变体集合（Line/Arc/Spiral/Poly3/ParamPoly3/Unknown），只能在本包内扩展
// 说明：新增变体时Evaluate中的类型分支必须同步处理
type Segment interface {
	header() *Header
	isSegment()
}

// Header 所有几何段共有的起点参数
type Header struct {
	S      float64 // 起点在道路参考线上的弧长
	X, Y   float64 // 起点坐标
	Hdg    float64 // 起点航向
	Length float64 // 段长度
}

func (h *Header) header() *Header { return h }

// Head 返回几何段的公共参数
func Head(seg Segment) Header {
	return *seg.header()
}

// Line 直线段
type Line struct {
	Header
}

// Arc 定曲率圆弧
type Arc struct {
	Header
	Curvature float64
}

// Spiral 曲率线性变化的螺旋线（回旋线）
type Spiral struct {
	Header
	CurvStart, CurvEnd float64
}

// Poly3 局部坐标系下的三次多项式 v(u) = a + b·u + c·u² + d·u³
type Poly3 struct {
	Header
	A, B, C, D float64
}

// ParamPoly3 参数三次曲线 u(p)、v(p)
// Normalized为true时参数p在[0,1]内，否则p取值与弧长相同
type ParamPoly3 struct {
	Header
	AU, BU, CU, DU float64
	AV, BV, CV, DV float64
	Normalized     bool
}

// Unknown 无法识别的几何类型，保留原始类型名用于日志
type Unknown struct {
	Header
	Kind string
}

func (Line) isSegment()       {}
func (Arc) isSegment()        {}
func (Spiral) isSegment()     {}
func (Poly3) isSegment()      {}
func (ParamPoly3) isSegment() {}
func (Unknown) isSegment()    {}

// Kind 几何段类型名
func Kind(seg Segment) string {
	switch g := seg.(type) {
	case *Line:
		return "line"
	case *Arc:
		return "arc"
	case *Spiral:
		return "spiral"
	case *Poly3:
		return "poly3"
	case *ParamPoly3:
		return "paramPoly3"
	case *Unknown:
		return g.Kind
	default:
		return "unknown"
	}
}
