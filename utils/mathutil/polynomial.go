package mathutil

import "sort"

// CubicPolynomial 三次多项式求值
// 功能：计算 a + b·t + c·t² + d·t³
// 说明：使用秦九韶（Horner）形式，t=0时严格返回a
func CubicPolynomial(a, b, c, d, t float64) float64 {
	return a + t*(b+t*(c+t*d))
}

// CubicDerivative 三次多项式一阶导数 b + 2c·t + 3d·t²
func CubicDerivative(b, c, d, t float64) float64 {
	return b + t*(2*c+3*d*t)
}

// PolyRecord 以sOffset为起点的三次多项式记录
// 功能：描述车道宽度、车道偏移、高程等沿弧长变化的量
// 说明：同一个拥有者内的记录按SOffset升序排列
type PolyRecord struct {
	SOffset    float64 // 记录起点（相对拥有者的起点）
	A, B, C, D float64 // 多项式系数
}

// Eval 在相对起点ds处求值
func (r PolyRecord) Eval(ds float64) float64 {
	return CubicPolynomial(r.A, r.B, r.C, r.D, ds)
}

// Derivative 在相对起点ds处求导
func (r PolyRecord) Derivative(ds float64) float64 {
	return CubicDerivative(r.B, r.C, r.D, ds)
}

// SortRecords 按SOffset稳定排序
func SortRecords(records []PolyRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SOffset < records[j].SOffset
	})
}

// ResolvePolynomial 分段三次多项式求值
// 功能：在有序记录中查找最后一个SOffset<=s的记录，并在s-SOffset处求值
// 参数：records-按SOffset升序排列的记录，s-查询位置，def-记录为空时的默认值
// 返回：多项式的值
// 算法说明：
// 1. 记录为空时直接返回默认值
// 2. 二分查找第一个SOffset>s的位置，其前一个即为生效记录
// 3. s小于首条记录的SOffset时使用首条记录（外推）
func ResolvePolynomial(records []PolyRecord, s, def float64) float64 {
	if len(records) == 0 {
		return def
	}
	i := sort.Search(len(records), func(i int) bool {
		return records[i].SOffset > s
	})
	if i > 0 {
		i--
	}
	r := records[i]
	return r.Eval(s - r.SOffset)
}
