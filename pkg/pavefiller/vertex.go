package pavefiller

import (
	"context"

	"github.com/chazu/boolkit/pkg/ds"
	"github.com/chazu/boolkit/pkg/geom"
	"github.com/chazu/boolkit/pkg/topo"
)

// performVV merges vertices of different operands that lie within tolerance
// of each other.
func (f *Filler) performVV(ctx context.Context) error {
	d := f.ds
	ps := f.pairs(topo.Vertex, topo.Vertex)
	hits := make([]bool, len(ps))
	err := f.parallel(ctx, len(ps), func(i int) error {
		p := ps[i]
		hits[i] = geom.Dist(d.Point(p.A), d.Point(p.B)) <= d.PairTol(p.A, p.B)
		return nil
	})
	if err != nil {
		return err
	}
	for i, p := range ps {
		if !hits[i] {
			continue
		}
		d.SameDomain(p.A, p.B)
		d.AddInterference(&ds.VV{Header: ds.Header{A: p.A, B: p.B, New: d.Canonical(p.A), Tol: d.PairTol(p.A, p.B)}})
	}
	return nil
}

// performVE puts vertices on the edges of other operands that pass through
// them.
func (f *Filler) performVE(ctx context.Context) error {
	d := f.ds
	ps := f.pairs(topo.Vertex, topo.Edge)
	type hit struct {
		ok bool
		t  float64
	}
	hits := make([]hit, len(ps))
	err := f.parallel(ctx, len(ps), func(i int) error {
		p := ps[i]
		e := d.Info(p.B).T
		cs, err := f.intersect(p.A, p.B, geom.Point{P: d.Point(p.A)}, e.Curve, geom.Range{}, e.Range, d.PairTol(p.A, p.B))
		if err != nil {
			return err
		}
		for _, c := range cs {
			if c.Kind == geom.CandPoint {
				hits[i] = hit{ok: true, t: c.TB}
				break
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for i, p := range ps {
		if !hits[i].ok {
			continue
		}
		stored, _ := d.AddPave(p.B, hits[i].t, p.A)
		d.AddInterference(&ds.VE{
			Header: ds.Header{A: p.A, B: p.B, New: d.Canonical(p.A), Tol: d.PairTol(p.A, p.B)},
			Param:  stored.Param,
		})
	}
	return nil
}

// performVF records vertices lying inside faces of other operands. Vertices
// on the face boundary are left to the VV and VE passes.
func (f *Filler) performVF(ctx context.Context) error {
	d := f.ds
	ps := f.pairs(topo.Vertex, topo.Face)
	hits := make([]bool, len(ps))
	err := f.parallel(ctx, len(ps), func(i int) error {
		p := ps[i]
		face := d.Info(p.B).T
		tol := d.PairTol(p.A, p.B)
		pt := d.Point(p.A)
		cs, err := f.intersect(p.A, p.B, geom.Point{P: pt}, face.Surface, geom.Range{}, geom.Range{}, tol)
		if err != nil || len(cs) == 0 {
			return err
		}
		hits[i] = topo.PointInFace(face, pt, tol) == topo.In
		return nil
	})
	if err != nil {
		return err
	}
	for i, p := range ps {
		if !hits[i] || f.onFaceBoundary(p.A, p.B) {
			continue
		}
		d.AddVertexIn(p.B, p.A)
		d.AddInterference(&ds.VF{Header: ds.Header{A: p.A, B: p.B, New: d.Canonical(p.A), Tol: d.PairTol(p.A, p.B)}})
	}
	return nil
}

// onFaceBoundary reports whether vertex v already sits on a boundary edge
// of face fi as a pave.
func (f *Filler) onFaceBoundary(v, fi int) bool {
	cv := f.ds.Canonical(v)
	for _, e := range f.faceEdges[fi] {
		for _, p := range f.ds.Paves(e) {
			if f.ds.Canonical(p.Vertex) == cv {
				return true
			}
		}
	}
	return false
}
