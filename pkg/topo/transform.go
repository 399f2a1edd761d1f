package topo

import (
	"math"

	"github.com/chazu/boolkit/pkg/geom"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Translate returns a copy of s moved by d. Shared payloads stay shared.
func Translate(s Shape, d geom.Vec) Shape {
	return Transform(s, sdf.Translate3d(d))
}

// Rotate returns a copy of s rotated by Euler angles in degrees, applied
// about X, then Y, then Z, around the origin.
func Rotate(s Shape, x, y, z float64) Shape {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0
	m := sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
	return Transform(s, m)
}

// Transform returns a copy of s under the rigid motion m.
func Transform(s Shape, m sdf.M44) Shape {
	x := xform{m: m, origin: m.MulPosition(v3.Vec{}), memo: map[*TShape]*TShape{}}
	return Shape{T: x.apply(s.T), Orient: s.Orient}
}

type xform struct {
	m      sdf.M44
	origin geom.Vec
	memo   map[*TShape]*TShape
}

func (x *xform) point(p geom.Vec) geom.Vec { return x.m.MulPosition(p) }

func (x *xform) dir(d geom.Vec) geom.Vec { return x.m.MulPosition(d).Sub(x.origin) }

func (x *xform) apply(t *TShape) *TShape {
	if n, ok := x.memo[t]; ok {
		return n
	}
	n := &TShape{Kind: t.Kind, Tol: t.Tol, Range: t.Range}
	x.memo[t] = n
	n.Point = x.point(t.Point)
	if t.Pole != nil {
		p := x.point(*t.Pole)
		n.Pole = &p
	}
	switch c := t.Curve.(type) {
	case geom.Line:
		n.Curve = geom.Line{Origin: x.point(c.Origin), Dir: x.dir(c.Dir)}
	case geom.Circle:
		n.Curve = geom.Circle{Center: x.point(c.Center), Normal: x.dir(c.Normal), XAxis: x.dir(c.XAxis), Radius: c.Radius}
	}
	switch s := t.Surface.(type) {
	case geom.Plane:
		n.Surface = geom.Plane{Origin: x.point(s.Origin), Normal: x.dir(s.Normal), XAxis: x.dir(s.XAxis)}
	case geom.Sphere:
		n.Surface = geom.Sphere{Center: x.point(s.Center), Radius: s.Radius}
	}
	n.Sub = make([]Shape, len(t.Sub))
	for i, sub := range t.Sub {
		n.Sub[i] = Shape{T: x.apply(sub.T), Orient: sub.Orient}
	}
	return n
}
