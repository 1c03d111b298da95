package geometry_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/scenario-player/geometry"
)

func chord(seg geometry.Segment) float64 {
	h := geometry.Head(seg)
	a := geometry.Evaluate(seg, 0)
	b := geometry.Evaluate(seg, h.Length)
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func TestArcChordLength(t *testing.T) {
	for _, k := range []float64{0.5, -0.5, 0.01, -0.2, 1.0 / 30} {
		for _, l := range []float64{1, 5, 12.5} {
			seg := &geometry.Arc{
				Header:    geometry.Header{X: 3, Y: -2, Hdg: 0.7, Length: l},
				Curvature: k,
			}
			want := math.Abs(2 * math.Sin(k*l/2) / k)
			assert.InDelta(t, want, chord(seg), 1e-9, "k=%v l=%v", k, l)
		}
	}
}

func TestArcLineFallback(t *testing.T) {
	h := geometry.Header{X: 1, Y: 1, Hdg: math.Pi / 4, Length: 10}
	arc := &geometry.Arc{Header: h, Curvature: 1e-12}
	line := &geometry.Line{Header: h}
	assert.InDelta(t, 10, chord(arc), 1e-9)
	assert.Equal(t, geometry.Evaluate(line, 7), geometry.Evaluate(arc, 7))
	// 小曲率时弦长趋近于弧长
	small := &geometry.Arc{Header: h, Curvature: 1e-6}
	assert.InDelta(t, 10, chord(small), 1e-6)
}

func TestArcHeading(t *testing.T) {
	seg := &geometry.Arc{Header: geometry.Header{Length: math.Pi}, Curvature: 1}
	end := geometry.Evaluate(seg, math.Pi)
	assert.InDelta(t, 0, end.X, 1e-9)
	assert.InDelta(t, 2, end.Y, 1e-9)
	assert.InDelta(t, math.Pi, end.Hdg, 1e-12)
}

func TestSpiralUsesMidpointCurvature(t *testing.T) {
	h := geometry.Header{Length: 8, Hdg: 0.3}
	spiral := &geometry.Spiral{Header: h, CurvStart: 0, CurvEnd: 0.1}
	arc := &geometry.Arc{Header: h, Curvature: 0.05}
	assert.Equal(t, geometry.Evaluate(arc, 5), geometry.Evaluate(spiral, 5))
}

func TestPoly3(t *testing.T) {
	seg := &geometry.Poly3{Header: geometry.Header{X: 10, Y: 0, Hdg: math.Pi / 2, Length: 5}, A: 1}
	p := geometry.Evaluate(seg, 2)
	// u沿+y，v=1沿-x
	assert.InDelta(t, 9, p.X, 1e-12)
	assert.InDelta(t, 2, p.Y, 1e-12)
	assert.InDelta(t, math.Pi/2, p.Hdg, 1e-12)
}

func TestParamPoly3Normalized(t *testing.T) {
	seg := &geometry.ParamPoly3{
		Header:     geometry.Header{Length: 20},
		BU:         20,
		Normalized: true,
	}
	p := geometry.Evaluate(seg, 10)
	assert.InDelta(t, 10, p.X, 1e-12)
	assert.InDelta(t, 0, p.Y, 1e-12)

	raw := &geometry.ParamPoly3{Header: geometry.Header{Length: 20}, BU: 1, CV: 0.01}
	q := geometry.Evaluate(raw, 10)
	assert.InDelta(t, 10, q.X, 1e-12)
	assert.InDelta(t, 1, q.Y, 1e-12)
	assert.InDelta(t, math.Atan2(0.2, 1), q.Hdg, 1e-12)
}

func TestUnknownReturnsOrigin(t *testing.T) {
	seg := &geometry.Unknown{Header: geometry.Header{X: 4, Y: 5, Length: 10}, Kind: "clothoid3d"}
	assert.Equal(t, geometry.Pose{X: 4, Y: 5}, geometry.Evaluate(seg, 3))
	pts := geometry.Collect(geometry.Points(seg, 1))
	require.Len(t, pts, 1)
	assert.Equal(t, 4.0, pts[0].X)
	assert.Equal(t, "clothoid3d", geometry.Kind(seg))
}

func TestPointsCount(t *testing.T) {
	zero := &geometry.Line{Header: geometry.Header{Length: 0}}
	assert.Len(t, geometry.Collect(geometry.Points(zero, 2)), 1)

	short := &geometry.Line{Header: geometry.Header{Length: 0.1}}
	assert.Len(t, geometry.Collect(geometry.Points(short, 1)), 2)

	seg := &geometry.Line{Header: geometry.Header{Length: 10}}
	pts := geometry.Collect(geometry.Points(seg, 2))
	require.Len(t, pts, 21)
	assert.Equal(t, 0.0, pts[0].S)
	assert.Equal(t, 10.0, pts[20].S)
	assert.InDelta(t, 10, pts[20].X, 1e-12)
}

func TestPointsRestartable(t *testing.T) {
	seg := &geometry.Arc{Header: geometry.Header{Length: 6}, Curvature: 0.1}
	seq := geometry.Points(seg, 1)
	first := geometry.Collect(seq)
	second := geometry.Collect(seq)
	assert.Equal(t, first, second)
	// 提前终止
	count := 0
	for range seq {
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
}

func TestOffsetAndTangents(t *testing.T) {
	s := geometry.Sample{X: 1, Y: 1, Hdg: 0}
	left := geometry.Offset(s, 2)
	assert.InDelta(t, 1, left.X, 1e-12)
	assert.InDelta(t, 3, left.Y, 1e-12)
	right := geometry.Offset(s, -2)
	assert.InDelta(t, -1, right.Y, 1e-12)

	samples := []geometry.Sample{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 0}}
	tan := geometry.Tangents(samples)
	assert.InDelta(t, math.Pi/4, tan[0], 1e-12)
	assert.InDelta(t, 0, tan[1], 1e-12)
	assert.InDelta(t, -math.Pi/4, tan[2], 1e-12)

	single := geometry.Tangents([]geometry.Sample{{Hdg: 1.5}})
	assert.Equal(t, []float64{1.5}, single)
}
