package topo

import (
	"fmt"
	"math"

	"github.com/chazu/boolkit/pkg/geom"
)

// State is the position of a point relative to a face or a solid.
type State int

const (
	Unknown State = iota
	In
	Out
	On
)

func (s State) String() string {
	switch s {
	case In:
		return "in"
	case Out:
		return "out"
	case On:
		return "on"
	default:
		return "unknown"
	}
}

// EdgePoints samples an oriented edge use from its start to its end vertex.
// The first and last samples are the vertex points.
func EdgePoints(e Shape) []geom.Vec {
	t := e.T
	pts := geom.SampleCurve(t.Curve, t.Range, geom.SegmentsFor(t.Curve, t.Range))
	pts[0] = t.FirstVertex().Point
	pts[len(pts)-1] = t.LastVertex().Point
	if e.Orient == Reversed {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	return pts
}

// FaceChart returns the chart a face is split and classified in.
func FaceChart(f *TShape) (geom.Chart, error) {
	pole := f.Pole
	if pole == nil {
		if s, ok := f.Surface.(geom.Sphere); ok && len(f.Sub) == 0 {
			p := s.Value(0, math.Pi/2)
			pole = &p
		}
	}
	return geom.NewChart(f.Surface, pole)
}

// WireLoop returns the closed chart polygon of a wire (last point not
// repeated).
func WireLoop(ch geom.Chart, w Shape) []geom.P2 {
	var loop []geom.P2
	for _, e := range w.T.Sub {
		use := Shape{T: e.T, Orient: e.Orient.Compose(w.Orient)}
		pts := EdgePoints(use)
		for _, p := range pts[:len(pts)-1] {
			loop = append(loop, ch.To(p))
		}
	}
	return loop
}

// FaceLoops returns the chart polygons of all wires of f.
func FaceLoops(ch geom.Chart, f *TShape) [][]geom.P2 {
	loops := make([][]geom.P2, 0, len(f.Sub))
	for _, w := range f.Sub {
		loops = append(loops, WireLoop(ch, w))
	}
	return loops
}

// EdgeDistance returns the distance from p to the bounded edge.
func EdgeDistance(e *TShape, p geom.Vec) float64 {
	c := e.Curve
	res := c.Resolution(e.Tol)
	t := geom.Adjust(c, e.Range, c.Project(p), res)
	d := math.Min(geom.Dist(p, e.FirstVertex().Point), geom.Dist(p, e.LastVertex().Point))
	if e.Range.Contains(t, 0) {
		d = math.Min(d, geom.Dist(p, c.Value(t)))
	}
	return d
}

// PointInFace classifies a point lying on the face's surface against the
// face boundary. Points within tol of a boundary edge are On.
func PointInFace(f *TShape, p geom.Vec, tol float64) State {
	for _, w := range f.Sub {
		for _, e := range w.T.Sub {
			if EdgeDistance(e.T, p) <= tol+e.T.Tol {
				return On
			}
		}
	}
	if len(f.Sub) == 0 {
		return In
	}
	ch, err := FaceChart(f)
	if err != nil {
		return Unknown
	}
	q := ch.To(p)
	if math.IsInf(q.X, 0) {
		return Out
	}
	w := 0
	for _, loop := range FaceLoops(ch, f) {
		w += geom.Winding(loop, q)
	}
	if w != 0 {
		return In
	}
	return Out
}

// FaceNormal returns the outward normal of an oriented face at p.
func FaceNormal(f Shape, p geom.Vec) geom.Vec {
	n := f.T.Surface.NormalAt(p)
	if f.Orient == Reversed {
		return n.Neg()
	}
	return n
}

// FaceBox returns a box around the face.
func FaceBox(f *TShape) geom.Box {
	if s, ok := f.Surface.(geom.Sphere); ok {
		r := geom.Vec{X: s.Radius, Y: s.Radius, Z: s.Radius}
		return geom.Box{Min: s.Center.Sub(r), Max: s.Center.Add(r)}
	}
	var b geom.Box
	first := true
	for _, w := range f.Sub {
		for _, e := range w.T.Sub {
			eb := geom.CurveBox(e.T.Curve, e.T.Range)
			if first {
				b, first = eb, false
				continue
			}
			b = geom.UnionBox(b, eb)
		}
	}
	return b
}

// InteriorPoint returns a point of the face's surface strictly inside its
// boundary, away from the boundary edges.
func InteriorPoint(f *TShape) (geom.Vec, error) {
	if len(f.Sub) == 0 {
		return f.Surface.Value(0, 0), nil
	}
	ch, err := FaceChart(f)
	if err != nil {
		return geom.Vec{}, err
	}
	loops := FaceLoops(ch, f)
	inside := func(q geom.P2, clear float64) bool {
		w := 0
		for _, l := range loops {
			w += geom.Winding(l, q)
			for i := range l {
				if geom.SegmentDist2(q, l[i], l[(i+1)%len(l)]) < clear {
					return false
				}
			}
		}
		return w != 0
	}
	var scale float64
	for _, l := range loops {
		scale = math.Max(scale, math.Sqrt(math.Abs(geom.SignedArea(l))))
	}
	for _, frac := range []float64{0.25, 0.1, 1e-2, 1e-3, 1e-4} {
		delta := frac * scale
		for _, l := range loops {
			for i := range l {
				a, b := l[i], l[(i+1)%len(l)]
				dx, dy := b.X-a.X, b.Y-a.Y
				n := math.Hypot(dx, dy)
				if n < geom.Eps {
					continue
				}
				// left of the boundary is inside the face
				q := geom.P2{X: (a.X+b.X)/2 - dy/n*delta, Y: (a.Y+b.Y)/2 + dx/n*delta}
				if inside(q, delta/2) {
					return ch.From(q), nil
				}
			}
		}
	}
	return geom.Vec{}, fmt.Errorf("no interior point found for face with %d wires", len(f.Sub))
}
