package bop

import (
	"github.com/chazu/boolkit/pkg/builder"
	"github.com/chazu/boolkit/pkg/ds"
	"github.com/chazu/boolkit/pkg/topo"
	"github.com/samber/lo"
)

type selector struct {
	ds *ds.DS
	b  *builder.Builder
}

// keepsCopy reports whether an on-boundary piece is the copy kept for its
// coincident pair: the one of lower rank.
func (s *selector) keepsCopy(p *builder.Piece) bool {
	return p.Partner >= 0 && p.Rank < s.ds.Rank(p.Partner)
}

// choose returns the pieces taken into the result of op and whether each
// one is reversed.
func (s *selector) choose(op Operation) []builder.Choice {
	var out []builder.Choice
	for _, p := range s.b.Pieces() {
		object := p.Rank == 0
		take, rev := false, false
		switch op {
		case Union:
			take = p.State == builder.Out || (p.State == builder.OnSame && s.keepsCopy(p))
		case Common:
			take = p.State == builder.In || (p.State == builder.OnSame && s.keepsCopy(p))
		case Cut:
			switch {
			case object:
				take = p.State == builder.Out || p.State == builder.OnOpposite
			default:
				take, rev = p.State == builder.In, true
			}
		case CutReversed:
			switch {
			case object:
				take, rev = p.State == builder.In, true
			default:
				take = p.State == builder.Out || p.State == builder.OnOpposite
			}
		case Section:
			take = (p.State == builder.OnSame || p.State == builder.OnOpposite) && s.keepsCopy(p)
		}
		if take {
			out = append(out, builder.Choice{Piece: p, Reverse: rev})
		}
	}
	return out
}

func (s *selector) result(op Operation) (topo.Shape, error) {
	choices := s.choose(op)
	if op != Section {
		return s.b.Assemble(choices)
	}
	faces, err := s.b.Emit(choices)
	if err != nil {
		return topo.Shape{}, err
	}
	parts := append(faces, s.sectionEdges()...)
	parts = append(parts, s.contactVertices()...)
	return topo.NewCompound(parts...), nil
}

// sectionEdges returns the images of the edge parts lying where the
// operand boundaries meet: section edges of face/face intersections and
// edges of one operand running inside a face of the other.
func (s *selector) sectionEdges() []topo.Shape {
	var imgs []topo.Shape
	for _, f := range s.ds.Indices(topo.Face) {
		if s.ds.Rank(f) == ds.NoRank {
			continue
		}
		for _, pb := range s.ds.InternalBlocks(f) {
			if img := s.b.BlockImage(pb); !img.IsNull() {
				imgs = append(imgs, img)
			}
		}
	}
	return lo.UniqBy(imgs, func(e topo.Shape) *topo.TShape { return e.T })
}

// contactVertices returns the vertices where faces touch without a section
// curve.
func (s *selector) contactVertices() []topo.Shape {
	var vs []topo.Shape
	for _, rec := range s.ds.InterferencesOf(ds.KindFF) {
		ff := rec.(*ds.FF)
		vs = append(vs, lo.Map(ff.Points, func(v int, _ int) topo.Shape {
			return topo.Shape{T: s.b.VertexImage(v)}
		})...)
	}
	return lo.UniqBy(vs, func(v topo.Shape) *topo.TShape { return v.T })
}
