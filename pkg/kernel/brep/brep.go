// Package brep implements kernel.Kernel on top of the exact B-Rep Boolean
// engine in package bop.
package brep

import (
	"context"
	"fmt"

	"github.com/chazu/boolkit/pkg/bop"
	"github.com/chazu/boolkit/pkg/geom"
	"github.com/chazu/boolkit/pkg/kernel"
	"github.com/chazu/boolkit/pkg/report"
	"github.com/chazu/boolkit/pkg/topo"
)

var _ kernel.Kernel = (*Kernel)(nil)

// Solid is a B-Rep shape together with the warnings raised while building
// it, its own and those of the solids it was made from.
type Solid struct {
	Shape    topo.Shape
	Warnings []report.Warning
}

// BoundingBox returns the box around the faces of the shape.
func (s *Solid) BoundingBox() (min, max [3]float64) {
	faces := topo.Explode(s.Shape, topo.Face)
	if len(faces) == 0 {
		return min, max
	}
	b := topo.FaceBox(faces[0].T)
	for _, f := range faces[1:] {
		b = geom.UnionBox(b, topo.FaceBox(f.T))
	}
	return [3]float64{b.Min.X, b.Min.Y, b.Min.Z}, [3]float64{b.Max.X, b.Max.Y, b.Max.Z}
}

// Classify casts rays against the solids of the shape.
func (s *Solid) Classify(p [3]float64, tol float64) kernel.Location {
	switch topo.ClassifyPoint(s.Shape, geom.Vec{X: p[0], Y: p[1], Z: p[2]}, tol) {
	case topo.In:
		return kernel.Inside
	case topo.On:
		return kernel.Boundary
	default:
		return kernel.Outside
	}
}

// Kernel runs every Boolean operation through bop with fixed options.
type Kernel struct {
	ctx  context.Context
	opts bop.Options
}

// New returns a Kernel whose operations run under ctx.
func New(ctx context.Context, opts bop.Options) *Kernel {
	return &Kernel{ctx: ctx, opts: opts}
}

func unwrap(s kernel.Solid) (*Solid, error) {
	so, ok := s.(*Solid)
	if !ok {
		return nil, fmt.Errorf("brep: foreign solid %T", s)
	}
	return so, nil
}

// Box creates a box with its minimum corner at the origin.
func (k *Kernel) Box(x, y, z float64) (kernel.Solid, error) {
	s, err := topo.MakeBox(geom.Vec{}, geom.Vec{X: x, Y: y, Z: z})
	if err != nil {
		return nil, err
	}
	return &Solid{Shape: s}, nil
}

// Sphere creates a sphere centered on the origin.
func (k *Kernel) Sphere(radius float64) (kernel.Solid, error) {
	s, err := topo.MakeSphere(geom.Vec{}, radius)
	if err != nil {
		return nil, err
	}
	return &Solid{Shape: s}, nil
}

func (k *Kernel) run(op bop.Operation, a, b kernel.Solid) (kernel.Solid, error) {
	sa, err := unwrap(a)
	if err != nil {
		return nil, err
	}
	sb, err := unwrap(b)
	if err != nil {
		return nil, err
	}
	bs := sb.Shape
	if shares(sa.Shape, bs) {
		// Results keep unchanged input faces, so a solid can meet its own
		// descendants. Operands must not share payloads.
		bs = topo.Translate(bs, geom.Vec{})
	}
	res, err := bop.Perform(k.ctx, op, []topo.Shape{sa.Shape}, []topo.Shape{bs}, k.opts)
	if err != nil {
		return nil, err
	}
	warnings := append(append(append([]report.Warning(nil), sa.Warnings...), sb.Warnings...), res.Warnings...)
	return &Solid{Shape: res.Shape, Warnings: warnings}, nil
}

func shares(a, b topo.Shape) bool {
	seen := make(map[*topo.TShape]bool)
	topo.Walk(a, func(s topo.Shape) { seen[s.T] = true })
	found := false
	topo.Walk(b, func(s topo.Shape) { found = found || seen[s.T] })
	return found
}

// Union returns the union of two solids.
func (k *Kernel) Union(a, b kernel.Solid) (kernel.Solid, error) { return k.run(bop.Union, a, b) }

// Difference returns the difference a - b.
func (k *Kernel) Difference(a, b kernel.Solid) (kernel.Solid, error) { return k.run(bop.Cut, a, b) }

// Intersection returns the intersection of two solids.
func (k *Kernel) Intersection(a, b kernel.Solid) (kernel.Solid, error) {
	return k.run(bop.Common, a, b)
}

// Section returns the edges, vertices and shared faces where the
// boundaries of a and b meet.
func (k *Kernel) Section(a, b kernel.Solid) (kernel.Solid, error) { return k.run(bop.Section, a, b) }

// Translate moves a solid by (x, y, z).
func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	so := s.(*Solid)
	return &Solid{Shape: topo.Translate(so.Shape, geom.Vec{X: x, Y: y, Z: z}), Warnings: so.Warnings}
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *Kernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	so := s.(*Solid)
	return &Solid{Shape: topo.Rotate(so.Shape, x, y, z), Warnings: so.Warnings}
}
