package geom

import (
	"errors"
	"math"
	"testing"
)

const testTol = 1e-7

func near(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func nearVec(a, b Vec, eps float64) bool { return Dist(a, b) <= eps }

func TestLineLineCrossing(t *testing.T) {
	a := NewLine(Vec{}, Vec{X: 2})
	b := NewLine(Vec{X: 1, Y: -1}, Vec{X: 1, Y: 1})
	cs, err := Analytic{}.FindIntersections(a, b, Range{0, 2}, Range{0, 2}, testTol)
	if err != nil {
		t.Fatalf("FindIntersections failed: %v", err)
	}
	if len(cs) != 1 || cs[0].Kind != CandPoint {
		t.Fatalf("got %+v, want one point", cs)
	}
	if !near(cs[0].TA, 1, 1e-12) || !near(cs[0].TB, 1, 1e-12) {
		t.Errorf("params = (%g, %g), want (1, 1)", cs[0].TA, cs[0].TB)
	}
}

func TestLineLineOverlap(t *testing.T) {
	a := NewLine(Vec{}, Vec{X: 1})
	b := NewLine(Vec{X: 1.5}, Vec{X: 0.5})
	cs, err := Analytic{}.FindIntersections(a, b, Range{0, 1}, Range{0, 1}, testTol)
	if err != nil {
		t.Fatalf("FindIntersections failed: %v", err)
	}
	if len(cs) != 1 || cs[0].Kind != CandOverlap {
		t.Fatalf("got %+v, want one overlap", cs)
	}
	c := cs[0]
	if !near(c.RangeA.First, 0.5, 1e-12) || !near(c.RangeA.Last, 1, 1e-12) {
		t.Errorf("RangeA = %+v, want [0.5, 1]", c.RangeA)
	}
	if !near(c.RangeB.First, 0.5, 1e-12) || !near(c.RangeB.Last, 1, 1e-12) {
		t.Errorf("RangeB = %+v, want [0.5, 1]", c.RangeB)
	}
	if c.Same {
		t.Error("opposite directions reported as same")
	}
}

func TestLineLineDisjointParallel(t *testing.T) {
	a := NewLine(Vec{}, Vec{X: 1})
	b := NewLine(Vec{Y: 1}, Vec{X: 1, Y: 1})
	cs, _ := Analytic{}.FindIntersections(a, b, Range{0, 1}, Range{0, 1}, testTol)
	if len(cs) != 0 {
		t.Errorf("got %d candidates, want 0", len(cs))
	}
}

func TestPointOnCurve(t *testing.T) {
	c := NewCircle(Vec{}, Vec{Z: 1}, 2)
	p := Point{P: c.Value(1.25)}
	cs, err := Analytic{}.FindIntersections(p, c, Range{}, Range{0, 2 * math.Pi}, testTol)
	if err != nil {
		t.Fatalf("FindIntersections failed: %v", err)
	}
	if len(cs) != 1 || !near(cs[0].TB, 1.25, 1e-9) {
		t.Fatalf("got %+v, want param 1.25", cs)
	}
	// Swapped order reports the parameter on the first operand.
	cs, _ = Analytic{}.FindIntersections(c, p, Range{0, 2 * math.Pi}, Range{}, testTol)
	if len(cs) != 1 || !near(cs[0].TA, 1.25, 1e-9) {
		t.Fatalf("swapped: got %+v, want TA 1.25", cs)
	}
}

func TestCirclePlane(t *testing.T) {
	c := NewCircle(Vec{}, Vec{Y: 1}, 1)
	pl := NewPlane(Vec{Z: 0.5}, Vec{Z: 1})
	cs, err := Analytic{}.FindIntersections(c, pl, Range{0, 2 * math.Pi}, Range{}, testTol)
	if err != nil {
		t.Fatalf("FindIntersections failed: %v", err)
	}
	if len(cs) != 2 {
		t.Fatalf("got %d points, want 2", len(cs))
	}
	for _, k := range cs {
		if !near(k.Point.Z, 0.5, 1e-9) || !near(k.Point.Length(), 1, 1e-9) {
			t.Errorf("point %v is not on both carriers", k.Point)
		}
	}
}

func TestPlanePlaneLine(t *testing.T) {
	a := NewPlane(Vec{}, Vec{Z: 1})
	b := NewPlane(Vec{X: 0.5}, Vec{X: 1})
	cs, err := Analytic{}.FindIntersections(a, b, Range{}, Range{}, testTol)
	if err != nil {
		t.Fatalf("FindIntersections failed: %v", err)
	}
	if len(cs) != 1 || cs[0].Kind != CandCurve {
		t.Fatalf("got %+v, want a curve", cs)
	}
	l, ok := cs[0].Curve.(Line)
	if !ok {
		t.Fatalf("curve is %T, want Line", cs[0].Curve)
	}
	for _, s := range []float64{-3, 0, 2} {
		p := l.Value(s)
		if !near(p.X, 0.5, 1e-12) || !near(p.Z, 0, 1e-12) {
			t.Errorf("line point %v not on both planes", p)
		}
	}
}

func TestPlanePlaneCoincident(t *testing.T) {
	a := NewPlane(Vec{}, Vec{Z: 1})
	b := NewPlane(Vec{X: 3, Y: 1}, Vec{Z: -1})
	cs, _ := Analytic{}.FindIntersections(a, b, Range{}, Range{}, testTol)
	if len(cs) != 1 || cs[0].Kind != CandCoincident || cs[0].Same {
		t.Fatalf("got %+v, want opposite coincidence", cs)
	}
}

func TestSphereSphere(t *testing.T) {
	tests := []struct {
		name string
		b    Sphere
		kind CandidateKind
		n    int
	}{
		{"overlap", Sphere{Center: Vec{X: 1}, Radius: 1}, CandCurve, 1},
		{"tangent", Sphere{Center: Vec{X: 2}, Radius: 1}, CandTangent, 1},
		{"disjoint", Sphere{Center: Vec{X: 3}, Radius: 1}, 0, 0},
		{"same", Sphere{Radius: 1}, CandCoincident, 1},
	}
	a := Sphere{Radius: 1}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, err := Analytic{}.FindIntersections(a, tt.b, Range{}, Range{}, testTol)
			if err != nil {
				t.Fatalf("FindIntersections failed: %v", err)
			}
			if len(cs) != tt.n {
				t.Fatalf("got %d candidates, want %d", len(cs), tt.n)
			}
			if tt.n > 0 && cs[0].Kind != tt.kind {
				t.Errorf("kind = %v, want %v", cs[0].Kind, tt.kind)
			}
		})
	}
}

func TestSphereSphereCircle(t *testing.T) {
	a := Sphere{Radius: 1}
	b := Sphere{Center: Vec{X: 1}, Radius: 1}
	cs, _ := Analytic{}.FindIntersections(a, b, Range{}, Range{}, testTol)
	c := cs[0].Curve.(Circle)
	if !near(c.Center.X, 0.5, 1e-12) || !near(c.Radius, math.Sqrt(0.75), 1e-12) {
		t.Errorf("circle = %+v, want centre x=0.5 radius sqrt(0.75)", c)
	}
	for _, th := range []float64{0, 1, 2.5, 4} {
		p := c.Value(th)
		if !near(Dist(p, a.Center), 1, 1e-9) || !near(Dist(p, b.Center), 1, 1e-9) {
			t.Errorf("circle point %v not on both spheres", p)
		}
	}
}

func TestDegenerate(t *testing.T) {
	bad := NewLine(Vec{X: 1}, Vec{X: 1})
	_, err := Analytic{}.FindIntersections(bad, NewPlane(Vec{}, Vec{Z: 1}), Range{0, 0}, Range{}, testTol)
	if !errors.Is(err, ErrDegenerate) {
		t.Errorf("err = %v, want ErrDegenerate", err)
	}
}

func TestStereoChartRoundTrip(t *testing.T) {
	s := Sphere{Center: Vec{X: 1, Y: -2, Z: 0.5}, Radius: 2}
	ch := NewStereoChart(s, s.Value(0.3, 1.1))
	for _, uv := range [][2]float64{{0, 0}, {1, -0.5}, {2.5, 0.3}, {-1, -1.2}} {
		p := s.Value(uv[0], uv[1])
		q := ch.To(p)
		back := ch.From(q)
		if !nearVec(p, back, 1e-9) {
			t.Errorf("round trip %v -> %v -> %v", p, q, back)
		}
	}
}

func TestStereoChartOrientation(t *testing.T) {
	s := Sphere{Radius: 1}
	ch := NewStereoChart(s, Vec{Z: 1})
	// Small loop around the south pole, counter-clockwise seen from outside
	// (from -Z), i.e. clockwise seen from +Z.
	var poly []P2
	for i := 0; i < 16; i++ {
		a := -2 * math.Pi * float64(i) / 16
		poly = append(poly, ch.To(s.Value(a, -1.2)))
	}
	if SignedArea(poly) <= 0 {
		t.Errorf("signed area = %g, want positive", SignedArea(poly))
	}
}

func TestWindingAndArea(t *testing.T) {
	sq := []P2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	if got := SignedArea(sq); !near(got, 1, 1e-12) {
		t.Errorf("area = %g, want 1", got)
	}
	if Winding(sq, P2{X: 0.5, Y: 0.5}) != 1 {
		t.Error("centre not inside square")
	}
	if Winding(sq, P2{X: 1.5, Y: 0.5}) != 0 {
		t.Error("outside point reported inside")
	}
}

func TestAdjust(t *testing.T) {
	c := NewCircle(Vec{}, Vec{Z: 1}, 1)
	tests := []struct {
		r    Range
		t    float64
		want float64
	}{
		{Range{0, math.Pi}, 2*math.Pi - 1e-12, 0},
		{Range{-1, 1}, 2*math.Pi - 0.5, -0.5},
		{Range{1, 4}, 0.5, 0.5 + 2*math.Pi},
	}
	for _, tt := range tests {
		if got := Adjust(c, tt.r, tt.t, 1e-9); !near(got, tt.want, 1e-9) {
			t.Errorf("Adjust(%+v, %g) = %g, want %g", tt.r, tt.t, got, tt.want)
		}
	}
}

func TestRaySphere(t *testing.T) {
	s := Sphere{Radius: 1}
	hits := RaySurface(s, Vec{X: -3}, Vec{X: 1})
	if len(hits) != 2 || !near(hits[0].S, 2, 1e-12) || !near(hits[1].S, 4, 1e-12) {
		t.Errorf("hits = %+v, want s=2 and s=4", hits)
	}
	if hits := RaySurface(s, Vec{}, Vec{Y: 1}); len(hits) != 1 {
		t.Errorf("from centre: %d hits, want 1", len(hits))
	}
}

func TestEvaluate(t *testing.T) {
	c := NewCircle(Vec{X: 1}, Vec{Z: 1}, 2)
	tests := []struct {
		name   string
		g      Geometry
		params []float64
		point  Vec
	}{
		{"point", Point{P: Vec{X: 3}}, nil, Vec{X: 3}},
		{"line", NewLine(Vec{}, Vec{X: 2}), []float64{1.5}, Vec{X: 1.5}},
		{"circle", c, []float64{0}, c.Value(0)},
		{"plane", NewPlane(Vec{Z: 1}, Vec{Z: 1}), []float64{0, 0}, Vec{Z: 1}},
		{"sphere pole", Sphere{Radius: 2}, []float64{0, math.Pi / 2}, Vec{Z: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Analytic{}.Evaluate(tt.g, tt.params...)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if !nearVec(ev.Point, tt.point, 1e-12) {
				t.Errorf("point = %v, want %v", ev.Point, tt.point)
			}
			if !(ev.Err <= 1e-12) {
				t.Errorf("err estimate = %g, want near zero", ev.Err)
			}
		})
	}

	ev, err := Analytic{}.Evaluate(c, math.NaN())
	if err != nil {
		t.Fatalf("Evaluate(NaN): %v", err)
	}
	if !math.IsNaN(ev.Err) && !math.IsInf(ev.Err, 0) {
		t.Errorf("err estimate at NaN = %g, want NaN or Inf", ev.Err)
	}
	if _, err := (Analytic{}).Evaluate(c, 1, 2); err == nil {
		t.Error("curve with two parameters evaluated")
	}
	if _, err := (Analytic{}).Evaluate(Sphere{}, 0, 0); !errors.Is(err, ErrDegenerate) {
		t.Errorf("err = %v, want ErrDegenerate", err)
	}
}
