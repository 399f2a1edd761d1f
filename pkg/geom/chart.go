package geom

import (
	"fmt"
	"math"
)

// Chart maps a surface to the plane. Charts preserve orientation: a loop
// that runs counter-clockwise around a region in the chart runs
// counter-clockwise around it when seen from the side the surface normal
// points to.
type Chart interface {
	To(p Vec) P2
	From(q P2) Vec
	// Jacobian is the ratio of surface area to chart area at q.
	Jacobian(q P2) float64
}

// PlaneChart is the identity chart of a plane in its own frame.
type PlaneChart struct {
	Plane Plane
}

func (c PlaneChart) To(p Vec) P2 {
	u, v := c.Plane.Params(p)
	return P2{X: u, Y: v}
}

func (c PlaneChart) From(q P2) Vec { return c.Plane.Value(q.X, q.Y) }

func (PlaneChart) Jacobian(P2) float64 { return 1 }

// StereoChart projects a sphere from Pole onto the plane tangent at the
// antipode of Pole. Every point but the pole has an image; circles not
// passing through the pole map to circles.
type StereoChart struct {
	Sphere Sphere
	Pole   Vec
	axis   Vec // unit, from pole towards centre
	anti   Vec
	e1, e2 Vec
}

// NewStereoChart builds the chart of s that sends pole to infinity. pole is
// projected onto the sphere first.
func NewStereoChart(s Sphere, pole Vec) StereoChart {
	pole = s.Project(pole)
	axis := s.Center.Sub(pole).Normalize()
	e1 := Perpendicular(axis)
	e2 := axis.Cross(e1)
	return StereoChart{
		Sphere: s,
		Pole:   pole,
		axis:   axis,
		anti:   s.Center.Add(axis.MulScalar(s.Radius)),
		e1:     e1,
		e2:     e2,
	}
}

func (c StereoChart) To(p Vec) P2 {
	d := p.Sub(c.Pole)
	den := d.Dot(c.axis)
	if den < Eps {
		return P2{X: math.Inf(1), Y: math.Inf(1)}
	}
	lam := 2 * c.Sphere.Radius / den
	x := c.Pole.Add(d.MulScalar(lam)).Sub(c.anti)
	return P2{X: x.Dot(c.e1), Y: x.Dot(c.e2)}
}

func (c StereoChart) From(q P2) Vec {
	x := c.anti.Add(c.e1.MulScalar(q.X)).Add(c.e2.MulScalar(q.Y))
	d := x.Sub(c.Pole)
	lam := -2 * c.Pole.Sub(c.Sphere.Center).Dot(d) / d.Dot(d)
	return c.Pole.Add(d.MulScalar(lam))
}

func (c StereoChart) Jacobian(q P2) float64 {
	s2 := (q.X*q.X + q.Y*q.Y) / (4 * c.Sphere.Radius * c.Sphere.Radius)
	return 1 / ((1 + s2) * (1 + s2))
}

// NewChart returns the chart used to split and classify faces on surf.
// Spheres need a pole that lies outside the region being charted.
func NewChart(surf Surface, pole *Vec) (Chart, error) {
	switch s := surf.(type) {
	case Plane:
		return PlaneChart{Plane: s}, nil
	case Sphere:
		if pole == nil {
			return nil, fmt.Errorf("sphere chart without pole: %w", ErrDegenerate)
		}
		return NewStereoChart(s, *pole), nil
	}
	return nil, fmt.Errorf("chart for %T: %w", surf, ErrUnsupported)
}
