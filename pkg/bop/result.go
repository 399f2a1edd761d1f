package bop

import (
	"github.com/chazu/boolkit/pkg/builder"
	"github.com/chazu/boolkit/pkg/report"
	"github.com/chazu/boolkit/pkg/topo"
	"github.com/samber/lo"
)

// Result is the outcome of one Build.
type Result struct {
	Shape    topo.Shape
	Warnings []report.Warning

	b       *builder.Builder
	present map[*topo.TShape]bool
}

func newResult(shape topo.Shape, b *builder.Builder, warnings []report.Warning) *Result {
	r := &Result{Shape: shape, Warnings: warnings, b: b, present: map[*topo.TShape]bool{}}
	topo.Walk(shape, func(s topo.Shape) { r.present[s.T] = true })
	return r
}

// images returns what input shape s became: the pieces of a face, the
// split parts of an edge, the merged vertex of a vertex. Shapes that are
// not vertices, edges or faces of an operand have no images.
func (r *Result) images(s topo.Shape) []topo.Shape {
	d := r.b.DS()
	i, ok := d.Index(s.T)
	if !ok || d.Rank(i) < 0 {
		return nil
	}
	switch s.Kind() {
	case topo.Vertex:
		return []topo.Shape{{T: r.b.VertexImage(i)}}
	case topo.Edge:
		return r.b.EdgeImages(i)
	case topo.Face:
		return lo.Map(r.b.FacePieces(i), func(p *builder.Piece, _ int) topo.Shape { return p.Face })
	}
	return nil
}

// Modified returns the shapes of the result that input shape s was
// replaced by. It is empty when s is in the result unchanged or was
// deleted.
func (r *Result) Modified(s topo.Shape) []topo.Shape {
	return lo.Filter(r.images(s), func(img topo.Shape, _ int) bool {
		return img.T != s.T && r.present[img.T]
	})
}

// IsDeleted reports whether nothing of input shape s is in the result.
func (r *Result) IsDeleted(s topo.Shape) bool {
	imgs := r.images(s)
	if len(imgs) == 0 {
		return !r.present[s.T]
	}
	return !lo.SomeBy(imgs, func(img topo.Shape) bool { return r.present[img.T] })
}

// HasWarning reports whether a warning of the given code was raised.
func (r *Result) HasWarning(code report.Code) bool {
	return lo.SomeBy(r.Warnings, func(w report.Warning) bool { return w.Code == code })
}
