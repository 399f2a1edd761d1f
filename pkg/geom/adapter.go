package geom

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerate reports a geometric primitive the adapter cannot work with
// (zero-length direction, zero radius). Callers skip the entity.
var ErrDegenerate = errors.New("degenerate geometry")

// ErrUnsupported reports a pair of carriers the adapter has no
// intersection routine for.
var ErrUnsupported = errors.New("unsupported geometry pair")

// Evaluation is the result of evaluating a geometry at parameters.
// For curves D1 is the first derivative; for surfaces D1 and D2 are the
// partial derivatives along u and v and Normal is the unit normal.
// Err bounds the distance from Point to the carrier; NaN or Inf marks an
// evaluation that cannot be used.
type Evaluation struct {
	Point  Vec
	D1, D2 Vec
	Normal Vec
	Err    float64
}

// CandidateKind enumerates what an intersection candidate describes.
type CandidateKind int

const (
	// CandPoint is an isolated intersection point.
	CandPoint CandidateKind = iota
	// CandOverlap is a parameter range of a curve lying on the other
	// geometry.
	CandOverlap
	// CandCurve is an intersection curve between two surfaces.
	CandCurve
	// CandTangent is an isolated tangential contact point between surfaces.
	CandTangent
	// CandCoincident means two surfaces are the same carrier.
	CandCoincident
)

func (k CandidateKind) String() string {
	switch k {
	case CandPoint:
		return "point"
	case CandOverlap:
		return "overlap"
	case CandCurve:
		return "curve"
	case CandTangent:
		return "tangent"
	case CandCoincident:
		return "coincident"
	default:
		return fmt.Sprintf("CandidateKind(%d)", int(k))
	}
}

// Candidate is one raw intersection result from FindIntersections.
type Candidate struct {
	Kind  CandidateKind
	Point Vec
	// TA and TB are curve parameters of Point on a and b (when they are
	// curves).
	TA, TB float64
	// RangeA and RangeB are the overlapping parameter ranges for CandOverlap.
	// RangeB is only meaningful when b is a curve.
	RangeA, RangeB Range
	// Curve is the intersection carrier for CandCurve. Lines are unbounded;
	// circles are closed.
	Curve Curve
	// Same reports matching orientation for CandOverlap (curve tangents) and
	// CandCoincident (surface normals).
	Same bool
}

// Adapter is the boundary between the Boolean engine and curve/surface
// mathematics.
type Adapter interface {
	// Evaluate returns the point and derivatives of g at params (one for
	// curves, two for surfaces, none for points) with an estimate of the
	// point's error.
	Evaluate(g Geometry, params ...float64) (Evaluation, error)
	// FindIntersections returns the intersections of a and b within tol.
	// da and db bound curve parameters and are ignored for other carriers.
	FindIntersections(a, b Geometry, da, db Range, tol float64) ([]Candidate, error)
}

// Analytic is the exact Adapter for points, lines, circles, planes and
// spheres.
type Analytic struct{}

var _ Adapter = Analytic{}

// Evaluate implements Adapter. Err is the residual of Point against the
// carrier's implicit form, so it stays near rounding for finite params.
func (Analytic) Evaluate(g Geometry, params ...float64) (Evaluation, error) {
	if err := checkDegenerate(g); err != nil {
		return Evaluation{}, err
	}
	switch gg := g.(type) {
	case Point:
		return Evaluation{Point: gg.P}, nil
	case Curve:
		if len(params) != 1 {
			return Evaluation{}, fmt.Errorf("evaluate curve: want 1 parameter, got %d", len(params))
		}
		t := params[0]
		ev := Evaluation{Point: gg.Value(t), D1: gg.Deriv(t)}
		if c, ok := gg.(Circle); ok {
			ev.D2 = ev.Point.Sub(c.Center).MulScalar(-1)
		}
		ev.Err = Dist(gg.Value(gg.Project(ev.Point)), ev.Point)
		return ev, nil
	case Plane:
		if len(params) != 2 {
			return Evaluation{}, fmt.Errorf("evaluate surface: want 2 parameters, got %d", len(params))
		}
		p := gg.Value(params[0], params[1])
		return Evaluation{Point: p, D1: gg.XAxis, D2: gg.YAxis(), Normal: gg.Normal, Err: math.Abs(gg.SignedDistance(p))}, nil
	case Sphere:
		if len(params) != 2 {
			return Evaluation{}, fmt.Errorf("evaluate surface: want 2 parameters, got %d", len(params))
		}
		u, v := params[0], params[1]
		p := gg.Value(u, v)
		su, cu := math.Sincos(u)
		sv, cv := math.Sincos(v)
		du := Vec{X: -cv * su, Y: cv * cu}.MulScalar(gg.Radius)
		dv := Vec{X: -sv * cu, Y: -sv * su, Z: cv}.MulScalar(gg.Radius)
		ev := Evaluation{Point: p, D1: du, D2: dv, Normal: gg.NormalAt(p)}
		ev.Err = math.Abs(Dist(p, gg.Center) - gg.Radius)
		return ev, nil
	}
	return Evaluation{}, fmt.Errorf("evaluate %T: %w", g, ErrUnsupported)
}

// FindIntersections implements Adapter.
func (Analytic) FindIntersections(a, b Geometry, da, db Range, tol float64) ([]Candidate, error) {
	if err := checkDegenerate(a); err != nil {
		return nil, err
	}
	if err := checkDegenerate(b); err != nil {
		return nil, err
	}
	if rank(a) > rank(b) {
		cs, err := Analytic{}.FindIntersections(b, a, db, da, tol)
		for i := range cs {
			cs[i].TA, cs[i].TB = cs[i].TB, cs[i].TA
			cs[i].RangeA, cs[i].RangeB = cs[i].RangeB, cs[i].RangeA
		}
		return cs, err
	}
	switch ga := a.(type) {
	case Point:
		return pointWith(ga, b, db, tol), nil
	case Curve:
		switch gb := b.(type) {
		case Curve:
			return curveCurve(ga, gb, da, db, tol), nil
		case Surface:
			return curveSurface(ga, gb, da, tol), nil
		}
	case Surface:
		if gb, ok := b.(Surface); ok {
			return surfaceSurface(ga, gb, tol), nil
		}
	}
	return nil, fmt.Errorf("intersect %T with %T: %w", a, b, ErrUnsupported)
}

// rank orders carriers by dimension so that pair routines only handle
// (lower, higher) combinations.
func rank(g Geometry) int {
	switch g.(type) {
	case Point:
		return 0
	case Curve:
		return 1
	default:
		return 2
	}
}

func checkDegenerate(g Geometry) error {
	switch gg := g.(type) {
	case Line:
		if !(gg.Dir.Length() > Eps) {
			return fmt.Errorf("line with zero direction: %w", ErrDegenerate)
		}
	case Circle:
		if !(gg.Radius > Eps) || !(gg.Normal.Length() > Eps) {
			return fmt.Errorf("circle with radius %g: %w", gg.Radius, ErrDegenerate)
		}
	case Plane:
		if !(gg.Normal.Length() > Eps) {
			return fmt.Errorf("plane with zero normal: %w", ErrDegenerate)
		}
	case Sphere:
		if !(gg.Radius > Eps) {
			return fmt.Errorf("sphere with radius %g: %w", gg.Radius, ErrDegenerate)
		}
	case nil:
		return fmt.Errorf("missing geometry: %w", ErrDegenerate)
	}
	return nil
}
