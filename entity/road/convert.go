package road

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tsinghua-fib-lab/scenario-player/document"
	"github.com/tsinghua-fib-lab/scenario-player/document/xodr"
	"github.com/tsinghua-fib-lab/scenario-player/entity/lane"
	"github.com/tsinghua-fib-lab/scenario-player/geometry"
	"github.com/tsinghua-fib-lab/scenario-player/utils/mathutil"
)

// convertSegment 将planView/geometry转换为几何段
// 说明：无法识别的子元素保留为Unknown，求值时返回起点
func convertSegment(g xodr.Geometry, r *document.AttrReader) geometry.Segment {
	h := geometry.Header{
		S:      r.RequiredFloat("s", g.S),
		X:      r.RequiredFloat("x", g.X),
		Y:      r.RequiredFloat("y", g.Y),
		Hdg:    r.RequiredFloat("hdg", g.Hdg),
		Length: r.RequiredFloat("length", g.Length),
	}
	if h.Length < 0 {
		r.Fail(fmt.Errorf("geometry s=%v has negative length %v", h.S, h.Length))
	}
	switch {
	case g.Line != nil:
		return &geometry.Line{Header: h}
	case g.Arc != nil:
		return &geometry.Arc{Header: h, Curvature: r.RequiredFloat("curvature", g.Arc.Curvature)}
	case g.Spiral != nil:
		return &geometry.Spiral{
			Header:    h,
			CurvStart: r.RequiredFloat("curvStart", g.Spiral.CurvStart),
			CurvEnd:   r.RequiredFloat("curvEnd", g.Spiral.CurvEnd),
		}
	case g.Poly3 != nil:
		p := g.Poly3
		return &geometry.Poly3{
			Header: h,
			A:      r.Float("a", p.A, 0),
			B:      r.Float("b", p.B, 0),
			C:      r.Float("c", p.C, 0),
			D:      r.Float("d", p.D, 0),
		}
	case g.ParamPoly3 != nil:
		p := g.ParamPoly3
		return &geometry.ParamPoly3{
			Header:     h,
			AU:         r.Float("aU", p.AU, 0),
			BU:         r.Float("bU", p.BU, 0),
			CU:         r.Float("cU", p.CU, 0),
			DU:         r.Float("dU", p.DU, 0),
			AV:         r.Float("aV", p.AV, 0),
			BV:         r.Float("bV", p.BV, 0),
			CV:         r.Float("cV", p.CV, 0),
			DV:         r.Float("dV", p.DV, 0),
			Normalized: p.PRange != "arcLength",
		}
	default:
		kind := "missing"
		if len(g.Other) > 0 {
			kind = g.Other[0].Local
		}
		return &geometry.Unknown{Header: h, Kind: kind}
	}
}

// convertRecords 转换多项式记录并按起点排序
func convertRecords(ps []xodr.Polynomial, r *document.AttrReader) []mathutil.PolyRecord {
	records := make([]mathutil.PolyRecord, 0, len(ps))
	for _, p := range ps {
		name, start := p.Start()
		records = append(records, mathutil.PolyRecord{
			SOffset: r.Float(name, start, 0),
			A:       r.Float("a", p.A, 0),
			B:       r.Float("b", p.B, 0),
			C:       r.Float("c", p.C, 0),
			D:       r.Float("d", p.D, 0),
		})
	}
	mathutil.SortRecords(records)
	return records
}

func convertLanes(ls []xodr.Lane, r *document.AttrReader) []*lane.Lane {
	out := make([]*lane.Lane, 0, len(ls))
	for _, l := range ls {
		id, err := strconv.Atoi(strings.TrimSpace(l.ID))
		if err != nil {
			r.Fail(fmt.Errorf("lane id %q: %w", l.ID, err))
			continue
		}
		out = append(out, &lane.Lane{
			ID:     id,
			Type:   l.Type,
			Widths: convertRecords(l.Widths, r),
		})
	}
	return out
}

func convertSection(sec xodr.Section, r *document.AttrReader) *lane.Section {
	var center *lane.Lane
	if cs := convertLanes(sec.Center, r); len(cs) > 0 {
		center = cs[0]
	}
	left := convertLanes(sec.Left, r)
	right := convertLanes(sec.Right, r)
	for _, l := range left {
		if l.ID <= 0 {
			r.Fail(fmt.Errorf("left lane with non-positive id %d", l.ID))
		}
	}
	for _, l := range right {
		if l.ID >= 0 {
			r.Fail(fmt.Errorf("right lane with non-negative id %d", l.ID))
		}
	}
	return lane.NewSection(r.Float("s", sec.S, 0), left, center, right)
}
