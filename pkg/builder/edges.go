package builder

import (
	"context"

	"github.com/chazu/boolkit/pkg/ds"
	"github.com/chazu/boolkit/pkg/geom"
	"github.com/chazu/boolkit/pkg/topo"
)

// splitEdges builds the image of every pave block. Same-domain vertex
// groups get one merged vertex; the blocks of a common block share the
// image of its representative; an edge that is neither split nor touched
// by a vertex merge keeps its payload.
func (b *Builder) splitEdges(ctx context.Context) error {
	d := b.ds
	for c, group := range d.SameDomainGroups() {
		b.vertices[c] = mergeVertices(d, group)
	}
	for _, shapes := range d.Operands() {
		for _, s := range shapes {
			for _, f := range topo.Explode(s, topo.Face) {
				if i, ok := d.Index(f.T); ok {
					if _, seen := b.faceUse[i]; !seen {
						b.faceUse[i] = f.Orient
					}
				}
			}
		}
	}

	pbs := d.AllPaveBlocks()
	images := make([]topo.Shape, len(pbs))
	err := b.parallel(ctx, len(pbs), func(i int) error {
		pb := pbs[i]
		if cb := d.CommonBlockOf(pb); cb != nil && cb.Representative() != pb {
			return nil
		}
		images[i] = b.blockEdge(pb)
		return nil
	})
	if err != nil {
		return err
	}
	for i, pb := range pbs {
		if !images[i].IsNull() {
			b.blocks[pb] = images[i]
		}
	}
	for _, pb := range pbs {
		cb := d.CommonBlockOf(pb)
		if cb == nil || cb.Representative() == pb {
			continue
		}
		rep := cb.Representative()
		img := b.blocks[rep]
		if !b.sameDirection(pb, rep) {
			img = img.Reversed()
		}
		b.blocks[pb] = img
	}
	return nil
}

func mergeVertices(d *ds.DS, group []int) *topo.TShape {
	var sum geom.Vec
	for _, v := range group {
		sum = sum.Add(d.Point(v))
	}
	p := sum.MulScalar(1 / float64(len(group)))
	var tol float64
	for _, v := range group {
		tol = max(tol, geom.Dist(p, d.Point(v))+d.Tol(v))
	}
	return topo.NewVertex(p, tol).T
}

// vertexImage returns the result vertex standing for vertex v.
func (b *Builder) vertexImage(v int) *topo.TShape {
	c := b.ds.Canonical(v)
	b.vmu.Lock()
	t, ok := b.vertices[c]
	b.vmu.Unlock()
	if ok {
		return t
	}
	return b.ds.Info(c).T
}

func (b *Builder) blockEdge(pb *ds.PaveBlock) topo.Shape {
	d := b.ds
	et := d.Info(pb.Edge).T
	v1 := b.vertexImage(pb.Pave1.Vertex)
	v2 := b.vertexImage(pb.Pave2.Vertex)
	if len(d.PaveBlocks(pb.Edge)) == 1 && v1 == et.FirstVertex() && v2 == et.LastVertex() {
		return topo.Shape{T: et}
	}
	tol := d.Tol(pb.Edge)
	if cb := d.CommonBlockOf(pb); cb != nil {
		tol = max(tol, cb.Tol)
	}
	for _, end := range []struct {
		t float64
		v *topo.TShape
	}{{pb.Pave1.Param, v1}, {pb.Pave2.Param, v2}} {
		tol = max(tol, geom.Dist(et.Curve.Value(end.t), end.v.Point)-end.v.Tol)
	}
	return topo.NewEdge(et.Curve, pb.Range(), v1, v2, tol)
}

// sameDirection reports whether block a runs the same way as r, another
// member of its common block.
func (b *Builder) sameDirection(a, r *ds.PaveBlock) bool {
	d := b.ds
	a1, a2 := d.Canonical(a.Pave1.Vertex), d.Canonical(a.Pave2.Vertex)
	r1 := d.Canonical(r.Pave1.Vertex)
	if a1 != a2 {
		return a1 == r1
	}
	ta := d.Info(a.Edge).T.Curve.Deriv(a.Range().Mid())
	tr := d.Info(r.Edge).T.Curve.Deriv(r.Range().Mid())
	return ta.Dot(tr) >= 0
}

// BlockImage returns the result edge of a pave block, oriented along the
// block's edge.
func (b *Builder) BlockImage(pb *ds.PaveBlock) topo.Shape {
	return b.blocks[pb]
}

// EdgeImages returns the images of the blocks of edge e in parameter
// order. A degenerate edge is its own image.
func (b *Builder) EdgeImages(e int) []topo.Shape {
	pbs := b.ds.PaveBlocks(e)
	if len(pbs) == 0 {
		return []topo.Shape{{T: b.ds.Info(e).T}}
	}
	out := make([]topo.Shape, 0, len(pbs))
	for _, pb := range pbs {
		out = append(out, b.blocks[pb])
	}
	return out
}

// VertexImage returns the result vertex of input vertex v.
func (b *Builder) VertexImage(v int) *topo.TShape { return b.vertexImage(v) }
