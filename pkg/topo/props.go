package topo

import (
	"math"

	"github.com/chazu/boolkit/pkg/geom"
)

// gridCells is the per-axis resolution used to integrate over charted
// regions that have no closed form.
const gridCells = 256

// Volume returns the enclosed volume of the solids in s, computed from the
// divergence theorem over their faces.
func Volume(s Shape) float64 {
	var v float64
	for _, so := range Explode(s, Solid) {
		for _, sh := range so.T.Sub {
			shell := Shape{T: sh.T, Orient: sh.Orient.Compose(so.Orient)}
			v += ShellFlux(shell)
		}
	}
	return v
}

// ShellFlux returns (1/3) * integral of p.n over the faces of a shell. For
// a closed shell this is the signed enclosed volume.
func ShellFlux(shell Shape) float64 {
	var v float64
	for _, f := range Explode(shell, Face) {
		v += faceFlux(f)
	}
	return v
}

func faceFlux(f Shape) float64 {
	sign := 1.0
	if f.Orient == Reversed {
		sign = -1
	}
	switch s := f.T.Surface.(type) {
	case geom.Plane:
		return sign * s.Origin.Dot(s.Normal) * planarArea(f.T) / 3
	case geom.Sphere:
		if len(f.T.Sub) == 0 {
			return sign * 4 * math.Pi * s.Radius * s.Radius * s.Radius / 3
		}
		return sign * integrate(f.T, func(p geom.Vec) float64 {
			return (s.Center.Dot(s.NormalAt(p)) + s.Radius) / 3
		})
	}
	return 0
}

// Area returns the area of a face.
func Area(f Shape) float64 {
	switch s := f.T.Surface.(type) {
	case geom.Plane:
		return planarArea(f.T)
	case geom.Sphere:
		if len(f.T.Sub) == 0 {
			return 4 * math.Pi * s.Radius * s.Radius
		}
		return integrate(f.T, func(geom.Vec) float64 { return 1 })
	}
	return 0
}

func planarArea(f *TShape) float64 {
	ch, err := FaceChart(f)
	if err != nil {
		return 0
	}
	var a float64
	for _, loop := range FaceLoops(ch, f) {
		a += geom.SignedArea(loop)
	}
	return a
}

// integrate returns the integral of fn over a bounded charted face using a
// midpoint rule on a grid over the chart box.
func integrate(f *TShape, fn func(geom.Vec) float64) float64 {
	ch, err := FaceChart(f)
	if err != nil {
		return 0
	}
	loops := FaceLoops(ch, f)
	lo := geom.P2{X: math.Inf(1), Y: math.Inf(1)}
	hi := geom.P2{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, l := range loops {
		for _, q := range l {
			lo.X, lo.Y = math.Min(lo.X, q.X), math.Min(lo.Y, q.Y)
			hi.X, hi.Y = math.Max(hi.X, q.X), math.Max(hi.Y, q.Y)
		}
	}
	if !(hi.X > lo.X && hi.Y > lo.Y) {
		return 0
	}
	dx := (hi.X - lo.X) / gridCells
	dy := (hi.Y - lo.Y) / gridCells
	var sum float64
	for i := 0; i < gridCells; i++ {
		for j := 0; j < gridCells; j++ {
			q := geom.P2{X: lo.X + (float64(i)+0.5)*dx, Y: lo.Y + (float64(j)+0.5)*dy}
			w := 0
			for _, l := range loops {
				w += geom.Winding(l, q)
			}
			if w == 0 {
				continue
			}
			sum += fn(ch.From(q)) * ch.Jacobian(q)
		}
	}
	return sum * dx * dy
}
