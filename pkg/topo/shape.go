// Package topo is the boundary-representation shape model: vertices,
// edges, wires, faces, shells, solids and compounds sharing reference
// identified payloads.
//
// A TShape is never mutated once it is reachable from a Shape handed to
// the Boolean engine. Operations that change geometry or structure build
// new TShapes.
package topo

import (
	"fmt"

	"github.com/chazu/boolkit/pkg/geom"
)

// DefaultTolerance is the tolerance given to shapes built by the
// constructors in this package.
const DefaultTolerance = 1e-7

// Kind is the topological type of a shape.
type Kind int

const (
	Compound Kind = iota
	Solid
	Shell
	Face
	Wire
	Edge
	Vertex
)

func (k Kind) String() string {
	switch k {
	case Compound:
		return "compound"
	case Solid:
		return "solid"
	case Shell:
		return "shell"
	case Face:
		return "face"
	case Wire:
		return "wire"
	case Edge:
		return "edge"
	case Vertex:
		return "vertex"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Orientation is the orientation of a shape use relative to its TShape.
type Orientation int

const (
	Forward Orientation = iota
	Reversed
)

func (o Orientation) String() string {
	if o == Reversed {
		return "reversed"
	}
	return "forward"
}

// Reverse returns the opposite orientation.
func (o Orientation) Reverse() Orientation {
	if o == Forward {
		return Reversed
	}
	return Forward
}

// Compose returns the orientation of a sub-shape use o seen through a parent
// use with orientation parent.
func (o Orientation) Compose(parent Orientation) Orientation {
	if parent == Reversed {
		return o.Reverse()
	}
	return o
}

// TShape is the shared payload of a shape. Which geometry fields are set
// depends on Kind.
type TShape struct {
	Kind Kind
	Tol  float64
	Sub  []Shape

	// Vertex
	Point geom.Vec

	// Edge: Sub[0] is the vertex at Range.First, Sub[1] the vertex at
	// Range.Last. Closed edges use the same vertex twice.
	Curve geom.Curve
	Range geom.Range

	// Face: wires are oriented so that the face lies to their left seen
	// from the side the natural surface normal points to.
	Surface geom.Surface
	// Pole is a surface point outside the face, used to chart faces on
	// closed surfaces. Nil for unbounded carriers.
	Pole *geom.Vec
}

// Shape is a use of a TShape with an orientation.
type Shape struct {
	T      *TShape
	Orient Orientation
}

// IsNull reports whether the shape has no payload.
func (s Shape) IsNull() bool { return s.T == nil }

// Kind returns the payload kind.
func (s Shape) Kind() Kind { return s.T.Kind }

// Reversed returns the shape with the opposite orientation.
func (s Shape) Reversed() Shape { return Shape{T: s.T, Orient: s.Orient.Reverse()} }

// Oriented returns the shape with orientation o.
func (s Shape) Oriented(o Orientation) Shape { return Shape{T: s.T, Orient: o} }

// IsSame reports whether both shapes use the same payload.
func (s Shape) IsSame(o Shape) bool { return s.T == o.T }

// Tolerance returns the payload tolerance.
func (s Shape) Tolerance() float64 { return s.T.Tol }

func (s Shape) String() string {
	if s.T == nil {
		return "null"
	}
	return fmt.Sprintf("%s(%p,%s)", s.T.Kind, s.T, s.Orient)
}

// FirstVertex returns the vertex at the start of the edge's range.
func (t *TShape) FirstVertex() *TShape { return t.Sub[0].T }

// LastVertex returns the vertex at the end of the edge's range.
func (t *TShape) LastVertex() *TShape { return t.Sub[1].T }

// IsClosedEdge reports whether the edge starts and ends at one vertex.
func (t *TShape) IsClosedEdge() bool {
	return t.Kind == Edge && t.Sub[0].T == t.Sub[1].T
}

// StartVertex returns the vertex an oriented edge use starts from.
func StartVertex(e Shape) *TShape {
	if e.Orient == Reversed {
		return e.T.LastVertex()
	}
	return e.T.FirstVertex()
}

// EndVertex returns the vertex an oriented edge use ends at.
func EndVertex(e Shape) *TShape {
	if e.Orient == Reversed {
		return e.T.FirstVertex()
	}
	return e.T.LastVertex()
}

// ----------------------------------------------------------------------------
// Constructors
// ----------------------------------------------------------------------------

// NewVertex builds a vertex.
func NewVertex(p geom.Vec, tol float64) Shape {
	return Shape{T: &TShape{Kind: Vertex, Tol: tol, Point: p}}
}

// NewEdge builds an edge on c over r bounded by v1 and v2.
func NewEdge(c geom.Curve, r geom.Range, v1, v2 *TShape, tol float64) Shape {
	return Shape{T: &TShape{
		Kind:  Edge,
		Tol:   tol,
		Curve: c,
		Range: r,
		Sub:   []Shape{{T: v1}, {T: v2, Orient: Reversed}},
	}}
}

// NewLineEdge builds the straight edge from v1 to v2.
func NewLineEdge(v1, v2 *TShape) Shape {
	l := geom.NewLine(v1.Point, v2.Point)
	return NewEdge(l, geom.Range{First: 0, Last: geom.Dist(v1.Point, v2.Point)}, v1, v2, maxf(v1.Tol, v2.Tol))
}

// NewWire builds a wire from oriented edges in traversal order.
func NewWire(edges ...Shape) Shape {
	return Shape{T: &TShape{Kind: Wire, Sub: edges}}
}

// NewFace builds a face on surf bounded by wires.
func NewFace(surf geom.Surface, tol float64, wires ...Shape) Shape {
	return Shape{T: &TShape{Kind: Face, Tol: tol, Surface: surf, Sub: wires}}
}

// NewShell builds a shell from oriented faces.
func NewShell(faces ...Shape) Shape {
	return Shape{T: &TShape{Kind: Shell, Sub: faces}}
}

// NewSolid builds a solid from shells. The first shell is the outer one.
func NewSolid(shells ...Shape) Shape {
	return Shape{T: &TShape{Kind: Solid, Sub: shells}}
}

// NewCompound groups arbitrary shapes.
func NewCompound(shapes ...Shape) Shape {
	return Shape{T: &TShape{Kind: Compound, Sub: shapes}}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
