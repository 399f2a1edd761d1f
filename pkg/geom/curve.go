package geom

import "math"

// Geometry is the closed set of geometric carriers: Point, Line, Circle,
// Plane and Sphere.
type Geometry interface {
	geometry()
}

// Curve is a parametric 3D curve.
type Curve interface {
	Geometry
	// Value returns the point at parameter t.
	Value(t float64) Vec
	// Deriv returns the first derivative at t.
	Deriv(t float64) Vec
	// Project returns the parameter of the closest point to p. Periodic
	// curves return a value in [0, 2*pi).
	Project(p Vec) float64
	// Periodic reports whether the curve closes on itself with period 2*pi.
	Periodic() bool
	// Resolution converts a 3D tolerance into a parameter tolerance.
	Resolution(tol float64) float64
}

// Point is a 0-dimensional geometry carrier.
type Point struct {
	P Vec
}

func (Point) geometry() {}

// Line is an infinite line parametrised by arc length from Origin.
type Line struct {
	Origin Vec
	Dir    Vec // unit
}

// NewLine returns the line through a and b, parametrised so that a is at
// 0 and b at |b-a|.
func NewLine(a, b Vec) Line {
	return Line{Origin: a, Dir: b.Sub(a).Normalize()}
}

func (Line) geometry() {}

func (l Line) Value(t float64) Vec { return l.Origin.Add(l.Dir.MulScalar(t)) }
func (l Line) Deriv(float64) Vec   { return l.Dir }
func (l Line) Project(p Vec) float64 {
	return p.Sub(l.Origin).Dot(l.Dir)
}
func (Line) Periodic() bool                   { return false }
func (Line) Resolution(tol float64) float64 { return tol }

// Circle is parametrised by angle: Center + Radius*(cos t*X + sin t*Y)
// where Y = Normal x XAxis.
type Circle struct {
	Center Vec
	Normal Vec // unit
	XAxis  Vec // unit, orthogonal to Normal
	Radius float64
}

// NewCircle builds a circle with a deterministic reference axis.
func NewCircle(center, normal Vec, radius float64) Circle {
	n := normal.Normalize()
	return Circle{Center: center, Normal: n, XAxis: Perpendicular(n), Radius: radius}
}

func (Circle) geometry() {}

// YAxis returns Normal x XAxis.
func (c Circle) YAxis() Vec { return c.Normal.Cross(c.XAxis) }

func (c Circle) Value(t float64) Vec {
	return c.Center.Add(c.XAxis.MulScalar(c.Radius * math.Cos(t))).Add(c.YAxis().MulScalar(c.Radius * math.Sin(t)))
}

func (c Circle) Deriv(t float64) Vec {
	return c.XAxis.MulScalar(-c.Radius * math.Sin(t)).Add(c.YAxis().MulScalar(c.Radius * math.Cos(t)))
}

func (c Circle) Project(p Vec) float64 {
	d := p.Sub(c.Center)
	t := math.Atan2(d.Dot(c.YAxis()), d.Dot(c.XAxis))
	if t < 0 {
		t += 2 * math.Pi
	}
	return t
}

func (Circle) Periodic() bool { return true }

func (c Circle) Resolution(tol float64) float64 {
	if c.Radius < Eps {
		return tol
	}
	return tol / c.Radius
}

// Range is a closed parameter interval.
type Range struct {
	First, Last float64
}

// Len returns Last-First.
func (r Range) Len() float64 { return r.Last - r.First }

// Mid returns the middle parameter.
func (r Range) Mid() float64 { return (r.First + r.Last) / 2 }

// Contains reports whether t lies in the range widened by res.
func (r Range) Contains(t, res float64) bool {
	return t >= r.First-res && t <= r.Last+res
}

// Adjust maps t into the period window [r.First, r.First+2*pi) when c is
// periodic. Values within res below r.First are clamped to r.First.
func Adjust(c Curve, r Range, t, res float64) float64 {
	if !c.Periodic() {
		return t
	}
	const period = 2 * math.Pi
	for t < r.First-res {
		t += period
	}
	for t >= r.First+period-res {
		t -= period
	}
	if t < r.First {
		t = r.First
	}
	return t
}

// CurveLength returns the length of c over r.
func CurveLength(c Curve, r Range) float64 {
	switch cc := c.(type) {
	case Line:
		return math.Abs(r.Len())
	case Circle:
		return math.Abs(r.Len()) * cc.Radius
	}
	return 0
}

// SampleCurve returns n+1 points along c over r, including both ends.
func SampleCurve(c Curve, r Range, n int) []Vec {
	if n < 1 {
		n = 1
	}
	pts := make([]Vec, n+1)
	for i := 0; i <= n; i++ {
		pts[i] = c.Value(r.First + r.Len()*float64(i)/float64(n))
	}
	return pts
}

// SegmentsFor returns the polyline segment count used to approximate c
// over r.
func SegmentsFor(c Curve, r Range) int {
	if _, ok := c.(Circle); ok {
		n := int(math.Ceil(math.Abs(r.Len()) / (math.Pi / 64)))
		if n < 4 {
			n = 4
		}
		return n
	}
	return 1
}

// CurveBox returns a box around c over r.
func CurveBox(c Curve, r Range) Box {
	switch cc := c.(type) {
	case Line:
		return BoxOfPoints(cc.Value(r.First), cc.Value(r.Last))
	case Circle:
		n := SegmentsFor(c, r)
		b := BoxOfPoints(SampleCurve(c, r, n)...)
		sag := cc.Radius * (1 - math.Cos(math.Abs(r.Len())/float64(n)/2))
		return EnlargeBox(b, sag)
	}
	return Box{}
}
