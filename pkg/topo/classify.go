package topo

import (
	"github.com/chazu/boolkit/pkg/geom"
)

// rayDirs are the ray directions tried in order when a ray is ambiguous
// (it grazes a surface or passes through a face boundary).
var rayDirs = []geom.Vec{
	{X: 0.5773502691896258, Y: 0.5773502691896258 + 0.1234, Z: 0.5773502691896258 - 0.0871},
	{X: -0.3713906763541037, Y: 0.7427813527082074, Z: 0.5570860145311556},
	{X: 0.2672612419124244, Y: -0.5345224838248488, Z: 0.8017837257372732},
	{X: -0.8164965809277261, Y: -0.4082482904638631, Z: 0.4082482904638631 + 0.0577},
	{X: 0.6987, Y: 0.1123, Z: -0.7066},
	{X: -0.1361, Y: -0.9231, Z: -0.3596},
	{X: 0.9102, Y: -0.3089, Z: 0.2761},
}

// ClassifyPoint reports whether p is inside, outside or on the boundary of
// the solids in s. Faces that are not part of a solid are ignored.
func ClassifyPoint(s Shape, p geom.Vec, tol float64) State {
	var faces []Shape
	for _, so := range Explode(s, Solid) {
		faces = append(faces, Explode(so, Face)...)
	}
	if len(faces) == 0 {
		return Out
	}
	for _, f := range faces {
		if geom.SurfaceDistance(f.T.Surface, p) <= tol+f.T.Tol && PointInFace(f.T, p, tol) != Out {
			return On
		}
	}
	first := -1
	for _, d := range rayDirs {
		n, ok := castRay(faces, p, d.Normalize(), tol)
		if ok {
			return parity(n)
		}
		if first < 0 {
			first = n
		}
	}
	return parity(first)
}

func parity(n int) State {
	if n%2 == 1 {
		return In
	}
	return Out
}

// castRay counts face crossings of the ray p + s*d. ok is false when the
// ray is ambiguous.
func castRay(faces []Shape, p, d geom.Vec, tol float64) (n int, ok bool) {
	for _, f := range faces {
		ftol := tol + f.T.Tol
		for _, h := range geom.RaySurface(f.T.Surface, p, d) {
			if h.S <= ftol {
				continue
			}
			st := PointInFace(f.T, h.Point, ftol)
			switch st {
			case On, Unknown:
				return n, false
			case In:
				if h.Grazing {
					return n, false
				}
				n++
			}
		}
	}
	return n, true
}
