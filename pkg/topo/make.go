package topo

import (
	"fmt"

	"github.com/chazu/boolkit/pkg/geom"
)

// boxFaces lists, per face, the outward normal and the (u, v) axes with
// u x v = normal. Corner offsets are taken along u and v from the face's
// low corner.
var boxFaces = []struct {
	normal, u, v geom.Vec
}{
	{geom.Vec{X: -1}, geom.Vec{Z: 1}, geom.Vec{Y: 1}},
	{geom.Vec{X: 1}, geom.Vec{Y: 1}, geom.Vec{Z: 1}},
	{geom.Vec{Y: -1}, geom.Vec{X: 1}, geom.Vec{Z: 1}},
	{geom.Vec{Y: 1}, geom.Vec{Z: 1}, geom.Vec{X: 1}},
	{geom.Vec{Z: -1}, geom.Vec{Y: 1}, geom.Vec{X: 1}},
	{geom.Vec{Z: 1}, geom.Vec{X: 1}, geom.Vec{Y: 1}},
}

// MakeBox builds the axis-aligned box solid spanning lo..hi.
func MakeBox(lo, hi geom.Vec) (Shape, error) {
	if !(hi.X-lo.X > DefaultTolerance && hi.Y-lo.Y > DefaultTolerance && hi.Z-lo.Z > DefaultTolerance) {
		return Shape{}, fmt.Errorf("box %v..%v has a non-positive extent", lo, hi)
	}
	size := hi.Sub(lo)
	corner := func(bits int) geom.Vec {
		p := lo
		if bits&1 != 0 {
			p.X += size.X
		}
		if bits&2 != 0 {
			p.Y += size.Y
		}
		if bits&4 != 0 {
			p.Z += size.Z
		}
		return p
	}
	bitsOf := func(p geom.Vec) int {
		b := 0
		if p.X > lo.X {
			b |= 1
		}
		if p.Y > lo.Y {
			b |= 2
		}
		if p.Z > lo.Z {
			b |= 4
		}
		return b
	}
	var verts [8]*TShape
	for i := range verts {
		verts[i] = NewVertex(corner(i), DefaultTolerance).T
	}
	edges := map[[2]int]*TShape{}
	edgeUse := func(a, b int) Shape {
		key := [2]int{a, b}
		o := Forward
		if a > b {
			key = [2]int{b, a}
			o = Reversed
		}
		e, ok := edges[key]
		if !ok {
			e = NewLineEdge(verts[key[0]], verts[key[1]]).T
			edges[key] = e
		}
		return Shape{T: e, Orient: o}
	}

	faces := make([]Shape, 0, 6)
	for _, bf := range boxFaces {
		// the low corner of the face: on the max side for a positive normal
		base := lo
		if bf.normal.X > 0 {
			base.X = hi.X
		}
		if bf.normal.Y > 0 {
			base.Y = hi.Y
		}
		if bf.normal.Z > 0 {
			base.Z = hi.Z
		}
		du := geom.Vec{X: bf.u.X * size.X, Y: bf.u.Y * size.Y, Z: bf.u.Z * size.Z}
		dv := geom.Vec{X: bf.v.X * size.X, Y: bf.v.Y * size.Y, Z: bf.v.Z * size.Z}
		ring := []int{
			bitsOf(base),
			bitsOf(base.Add(du)),
			bitsOf(base.Add(du).Add(dv)),
			bitsOf(base.Add(dv)),
		}
		wire := make([]Shape, 4)
		for i := range ring {
			wire[i] = edgeUse(ring[i], ring[(i+1)%4])
		}
		pl := geom.Plane{Origin: base, Normal: bf.normal, XAxis: bf.u}
		faces = append(faces, NewFace(pl, DefaultTolerance, NewWire(wire...)))
	}
	return NewSolid(NewShell(faces...)), nil
}

// MakeSphere builds a sphere solid made of one closed face.
func MakeSphere(center geom.Vec, radius float64) (Shape, error) {
	if !(radius > DefaultTolerance) {
		return Shape{}, fmt.Errorf("sphere radius %g is not positive", radius)
	}
	f := NewFace(geom.Sphere{Center: center, Radius: radius}, DefaultTolerance)
	return NewSolid(NewShell(f)), nil
}
