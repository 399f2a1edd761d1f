package pavefiller

import (
	"context"
	"errors"

	"github.com/chazu/boolkit/pkg/ds"
	"github.com/chazu/boolkit/pkg/geom"
	"github.com/chazu/boolkit/pkg/report"
	"github.com/chazu/boolkit/pkg/topo"
)

// postTreat completes the section edges: vertices known on their faces that
// lie on them become paves, and section edges crossing each other or the
// In edges of a shared face are split at the crossing.
func (f *Filler) postTreat(context.Context) error {
	d := f.ds
	faces := map[int][]int{}
	for _, rec := range d.InterferencesOf(ds.KindFF) {
		ff := rec.(*ds.FF)
		for _, e := range ff.Curves {
			if d.Rank(e) == ds.NoRank {
				faces[e] = append(faces[e], ff.A, ff.B)
			}
		}
	}

	for _, e := range f.SectionEdges() {
		et := d.Info(e).T
		first, _ := d.Index(et.FirstVertex())
		last, _ := d.Index(et.LastVertex())
		var cands []int
		for _, fi := range uniqueInts(faces[e]) {
			cands = append(cands, f.faceVertices(fi)...)
		}
		for _, v := range uniqueInts(cands) {
			cv := d.Canonical(v)
			if cv == d.Canonical(first) || cv == d.Canonical(last) {
				continue
			}
			tol := d.PairTol(v, e)
			cs, err := f.adapter.FindIntersections(geom.Point{P: d.Point(v)}, et.Curve, geom.Range{}, et.Range, tol)
			if err != nil && !errors.Is(err, geom.ErrDegenerate) {
				return report.Errorf(report.IntersectionFailure, []topo.Shape{d.Info(e).Shape()}, "vertex %d on section edge %d: %w", v, e, err)
			}
			for _, c := range cs {
				if c.Kind == geom.CandPoint {
					d.AddPave(e, c.TB, v)
				}
			}
		}
	}

	for _, fi := range d.Indices(topo.Face) {
		info := d.FaceInfo(fi)
		if len(info.Sc) == 0 {
			continue
		}
		var edges []int
		for _, s := range info.Sc {
			edges = append(edges, s.Edge)
		}
		for _, s := range info.In {
			edges = append(edges, s.Edge)
		}
		edges = uniqueInts(edges)
		for i := 0; i < len(edges); i++ {
			for j := i + 1; j < len(edges); j++ {
				a, b := edges[i], edges[j]
				if d.Rank(a) != ds.NoRank && d.Rank(b) != ds.NoRank {
					continue
				}
				if err := f.splitCrossing(a, b); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// splitCrossing puts a shared pave on edges a and b wherever they cross.
func (f *Filler) splitCrossing(a, b int) error {
	d := f.ds
	ta, tb := d.Info(a).T, d.Info(b).T
	if !geom.BoxesOverlap(d.Info(a).Box, d.Info(b).Box) {
		return nil
	}
	tol := d.PairTol(a, b)
	cs, err := f.intersect(a, b, ta.Curve, tb.Curve, ta.Range, tb.Range, tol)
	if err != nil {
		return err
	}
	for _, c := range cs {
		if c.Kind == geom.CandPoint {
			f.pointOnEdges(c.Point, tol, a, c.TA, b, c.TB)
		}
	}
	return nil
}
