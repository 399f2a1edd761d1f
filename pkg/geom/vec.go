// Package geom holds the analytic geometry used by the Boolean engine:
// points, lines, circles, planes and spheres, 2D charts of surfaces, and
// the Adapter through which the engine evaluates and intersects them.
package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Vec is a point or direction in model space.
type Vec = v3.Vec

// P2 is a point in a 2D surface chart.
type P2 = v2.Vec

// Box is an axis-aligned bounding box.
type Box = sdf.Box3

// Eps is the floating point noise floor used for degeneracy tests
// (zero-length directions, parallel checks).
const Eps = 1e-12

// Dist returns the distance between two points.
func Dist(a, b Vec) float64 {
	return a.Sub(b).Length()
}

// Lerp interpolates between a and b.
func Lerp(a, b Vec, t float64) Vec {
	return a.Add(b.Sub(a).MulScalar(t))
}

// Perpendicular returns a unit vector orthogonal to n. The choice is
// deterministic so that rebuilt frames are reproducible.
func Perpendicular(n Vec) Vec {
	n = n.Normalize()
	ax := Vec{X: 1}
	if math.Abs(n.X) > 0.6 {
		ax = Vec{Y: 1}
	}
	return ax.Sub(n.MulScalar(ax.Dot(n))).Normalize()
}

// BoxOfPoints returns the tight box around pts.
func BoxOfPoints(pts ...Vec) Box {
	if len(pts) == 0 {
		return Box{}
	}
	b := Box{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		b.Min = Vec{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)}
		b.Max = Vec{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)}
	}
	return b
}

// UnionBox returns the smallest box containing a and b.
func UnionBox(a, b Box) Box {
	return BoxOfPoints(a.Min, a.Max, b.Min, b.Max)
}

// EnlargeBox grows b by d on every side.
func EnlargeBox(b Box, d float64) Box {
	e := Vec{X: d, Y: d, Z: d}
	return Box{Min: b.Min.Sub(e), Max: b.Max.Add(e)}
}

// BoxesOverlap reports whether two closed boxes share at least one point.
func BoxesOverlap(a, b Box) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X &&
		a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y &&
		a.Min.Z <= b.Max.Z && b.Min.Z <= a.Max.Z
}

// BoxContains reports whether p lies in b.
func BoxContains(b Box, p Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// BoxDiagonal returns the length of the box diagonal.
func BoxDiagonal(b Box) float64 {
	return Dist(b.Min, b.Max)
}

// Dist2 returns the distance between two chart points.
func Dist2(a, b P2) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Cross2 returns the z component of (b-a) x (c-a).
func Cross2(a, b, c P2) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// SignedArea returns the shoelace area of a closed polygon. Counter-clockwise
// polygons have positive area.
func SignedArea(poly []P2) float64 {
	n := len(poly)
	if n < 3 {
		return 0
	}
	var a float64
	for i := 0; i < n; i++ {
		p, q := poly[i], poly[(i+1)%n]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}

// Winding returns the winding number of the closed polygon around p.
func Winding(poly []P2, p P2) int {
	w := 0
	n := len(poly)
	for i := 0; i < n; i++ {
		a, b := poly[i], poly[(i+1)%n]
		if a.Y <= p.Y {
			if b.Y > p.Y && Cross2(a, b, p) > 0 {
				w++
			}
		} else if b.Y <= p.Y && Cross2(a, b, p) < 0 {
			w--
		}
	}
	return w
}

// SegmentDist2 returns the distance from p to the segment ab in a chart.
func SegmentDist2(p, a, b P2) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 < Eps*Eps {
		return Dist2(p, a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return Dist2(p, P2{X: a.X + t*dx, Y: a.Y + t*dy})
}
