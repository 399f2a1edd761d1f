package pavefiller

import (
	"context"

	"github.com/chazu/boolkit/pkg/ds"
	"github.com/chazu/boolkit/pkg/geom"
	"github.com/chazu/boolkit/pkg/topo"
)

// performEE intersects edges of different operands. Crossing points become
// paves on both edges; overlaps put paves at both overlap ends and are
// logged so that common blocks can be formed.
func (f *Filler) performEE(ctx context.Context) error {
	d := f.ds
	ps := f.pairs(topo.Edge, topo.Edge)
	found := make([][]geom.Candidate, len(ps))
	err := f.parallel(ctx, len(ps), func(i int) error {
		p := ps[i]
		a, b := d.Info(p.A).T, d.Info(p.B).T
		cs, err := f.intersect(p.A, p.B, a.Curve, b.Curve, a.Range, b.Range, d.PairTol(p.A, p.B))
		found[i] = cs
		return err
	})
	if err != nil {
		return err
	}
	for i, p := range ps {
		tol := d.PairTol(p.A, p.B)
		ca, cb := d.Info(p.A).T.Curve, d.Info(p.B).T.Curve
		for _, c := range found[i] {
			switch c.Kind {
			case geom.CandPoint:
				v := f.pointOnEdges(c.Point, tol, p.A, c.TA, p.B, c.TB)
				d.AddInterference(&ds.EE{
					Header: ds.Header{A: p.A, B: p.B, New: v, Tol: tol},
					ParamA: c.TA,
					ParamB: c.TB,
				})
			case geom.CandOverlap:
				b1, b2 := c.RangeB.First, c.RangeB.Last
				if !c.Same {
					b1, b2 = b2, b1
				}
				for _, end := range [][2]float64{{c.RangeA.First, b1}, {c.RangeA.Last, b2}} {
					pa, err := f.curvePoint(ca, end[0], tol, p.A)
					if err != nil {
						return err
					}
					pb, err := f.curvePoint(cb, end[1], tol, p.B)
					if err != nil {
						return err
					}
					f.pointOnEdges(geom.Lerp(pa, pb, 0.5), tol, p.A, end[0], p.B, end[1])
				}
				d.AddInterference(&ds.EE{
					Header:  ds.Header{A: p.A, B: p.B, New: -1, Tol: tol},
					Overlap: true,
					RangeA:  c.RangeA,
					RangeB:  c.RangeB,
					Same:    c.Same,
				})
			}
		}
	}
	return nil
}

type efHit struct {
	points   []geom.Candidate
	overlaps []geom.Range
}

// performEF intersects edges with faces of other operands. Points strictly
// inside the face become paves; parts of the edge lying inside the face are
// recorded on the face as In spans. Contacts on the face boundary belong to
// the edge/edge pass.
func (f *Filler) performEF(ctx context.Context) error {
	d := f.ds
	ps := f.pairs(topo.Edge, topo.Face)
	hits := make([]efHit, len(ps))
	err := f.parallel(ctx, len(ps), func(i int) error {
		p := ps[i]
		e, face := d.Info(p.A).T, d.Info(p.B).T
		tol := d.PairTol(p.A, p.B)
		cs, err := f.intersect(p.A, p.B, e.Curve, face.Surface, e.Range, geom.Range{}, tol)
		if err != nil {
			return err
		}
		res := e.Curve.Resolution(tol)
		for _, c := range cs {
			switch c.Kind {
			case geom.CandPoint:
				if f.faceState(p.B, c.Point, tol) == topo.In {
					hits[i].points = append(hits[i].points, c)
				}
			case geom.CandOverlap:
				params, err := f.crossings(e.Curve, c.RangeA, []int{p.B}, tol)
				if err != nil {
					return err
				}
				for _, iv := range intervals(e.Curve, c.RangeA, params, res) {
					m, err := f.curvePoint(e.Curve, iv.Mid(), tol, p.A, p.B)
					if err != nil {
						return err
					}
					if f.faceState(p.B, m, tol) == topo.In {
						hits[i].overlaps = append(hits[i].overlaps, iv)
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for i, p := range ps {
		tol := d.PairTol(p.A, p.B)
		c := d.Info(p.A).T.Curve
		for _, pt := range hits[i].points {
			v := f.paveAt(p.A, pt.TA, pt.Point, tol, p.B)
			d.AddVertexIn(p.B, v)
			d.AddInterference(&ds.EF{Header: ds.Header{A: p.A, B: p.B, New: v, Tol: tol}, Param: pt.TA})
		}
		for _, iv := range hits[i].overlaps {
			for _, t := range []float64{iv.First, iv.Last} {
				pt, err := f.curvePoint(c, t, tol, p.A, p.B)
				if err != nil {
					return err
				}
				f.paveAt(p.A, t, pt, tol, p.B)
			}
			d.AddInSpan(p.B, ds.EdgeSpan{Edge: p.A, Range: iv})
			d.AddInterference(&ds.EF{Header: ds.Header{A: p.A, B: p.B, New: -1, Tol: tol}, Overlap: true, Range: iv})
		}
	}
	return nil
}

// paveAt makes sure edge e has a pave at t and returns its canonical
// vertex. A new pave reuses a vertex already known on face fi when one is
// within tol.
func (f *Filler) paveAt(e int, t float64, p geom.Vec, tol float64, fi int) int {
	if pv, ok := f.ds.FindPave(e, t); ok {
		return f.ds.Canonical(pv.Vertex)
	}
	v, _ := f.vertexAt(p, tol, f.faceVertices(fi))
	stored, _ := f.ds.AddPave(e, t, v)
	return f.ds.Canonical(stored.Vertex)
}
