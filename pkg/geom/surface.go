package geom

import "math"

// Surface is a parametric surface carrying a natural (outward) normal.
type Surface interface {
	Geometry
	// Value returns the point at (u, v).
	Value(u, v float64) Vec
	// Normal returns the unit natural normal at the surface point closest to p.
	NormalAt(p Vec) Vec
	// Project returns the closest surface point to p.
	Project(p Vec) Vec
	// Params returns the (u, v) of the closest surface point to p.
	Params(p Vec) (u, v float64)
}

// Plane is parametrised by Origin + u*XAxis + v*YAxis, YAxis = Normal x XAxis.
type Plane struct {
	Origin Vec
	Normal Vec // unit
	XAxis  Vec // unit, orthogonal to Normal
}

// NewPlane builds a plane with a deterministic reference axis.
func NewPlane(origin, normal Vec) Plane {
	n := normal.Normalize()
	return Plane{Origin: origin, Normal: n, XAxis: Perpendicular(n)}
}

func (Plane) geometry() {}

// YAxis returns Normal x XAxis.
func (p Plane) YAxis() Vec { return p.Normal.Cross(p.XAxis) }

func (p Plane) Value(u, v float64) Vec {
	return p.Origin.Add(p.XAxis.MulScalar(u)).Add(p.YAxis().MulScalar(v))
}

func (p Plane) NormalAt(Vec) Vec { return p.Normal }

// SignedDistance returns the distance of q above the plane along Normal.
func (p Plane) SignedDistance(q Vec) float64 {
	return q.Sub(p.Origin).Dot(p.Normal)
}

func (p Plane) Project(q Vec) Vec {
	return q.Sub(p.Normal.MulScalar(p.SignedDistance(q)))
}

func (p Plane) Params(q Vec) (u, v float64) {
	d := q.Sub(p.Origin)
	return d.Dot(p.XAxis), d.Dot(p.YAxis())
}

// Sphere is parametrised by longitude u and latitude v:
// Center + Radius*(cos v cos u, cos v sin u, sin v).
type Sphere struct {
	Center Vec
	Radius float64
}

func (Sphere) geometry() {}

func (s Sphere) Value(u, v float64) Vec {
	cv := math.Cos(v)
	return s.Center.Add(Vec{X: cv * math.Cos(u), Y: cv * math.Sin(u), Z: math.Sin(v)}.MulScalar(s.Radius))
}

func (s Sphere) NormalAt(p Vec) Vec {
	d := p.Sub(s.Center)
	if d.Length() < Eps {
		return Vec{Z: 1}
	}
	return d.Normalize()
}

func (s Sphere) Project(p Vec) Vec {
	return s.Center.Add(s.NormalAt(p).MulScalar(s.Radius))
}

func (s Sphere) Params(p Vec) (u, v float64) {
	n := s.NormalAt(p)
	return math.Atan2(n.Y, n.X), math.Asin(math.Max(-1, math.Min(1, n.Z)))
}

// SurfaceDistance returns the unsigned distance from p to s.
func SurfaceDistance(s Surface, p Vec) float64 {
	return Dist(p, s.Project(p))
}

// RayHit is one crossing of a ray with a surface.
type RayHit struct {
	S       float64 // ray parameter
	Point   Vec
	Grazing bool // the ray is (nearly) tangent to the surface at the hit
}

// grazeCos is the |cos| between ray and normal below which a hit is treated
// as tangential.
const grazeCos = 1e-3

// RaySurface returns the hits of the ray o + s*d (s > 0, d unit) with surf.
func RaySurface(surf Surface, o, d Vec) []RayHit {
	switch s := surf.(type) {
	case Plane:
		den := d.Dot(s.Normal)
		num := -s.SignedDistance(o)
		if math.Abs(den) < Eps {
			if math.Abs(num) < Eps {
				return []RayHit{{S: 0, Point: o, Grazing: true}}
			}
			return nil
		}
		t := num / den
		if t < 0 {
			return nil
		}
		return []RayHit{{S: t, Point: o.Add(d.MulScalar(t)), Grazing: math.Abs(den) < grazeCos}}
	case Sphere:
		oc := o.Sub(s.Center)
		b := oc.Dot(d)
		c := oc.Dot(oc) - s.Radius*s.Radius
		disc := b*b - c
		if disc < 0 {
			return nil
		}
		sq := math.Sqrt(disc)
		graze := sq < grazeCos*s.Radius
		var hits []RayHit
		for _, t := range []float64{-b - sq, -b + sq} {
			if t < 0 {
				continue
			}
			hits = append(hits, RayHit{S: t, Point: o.Add(d.MulScalar(t)), Grazing: graze})
		}
		return hits
	}
	return nil
}
