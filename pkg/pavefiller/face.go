package pavefiller

import (
	"context"
	"math"

	"github.com/chazu/boolkit/pkg/ds"
	"github.com/chazu/boolkit/pkg/geom"
	"github.com/chazu/boolkit/pkg/topo"
)

// segment is a bounded piece of an intersection curve lying in both faces.
type segment struct {
	curve geom.Curve
	r     geom.Range
}

type ffHit struct {
	coincident bool
	same       bool
	tangents   []geom.Vec
	segments   []segment
}

// performFF intersects faces of different operands. Intersection curves
// are clipped to both faces and turned into section edges (or matched to
// existing edges); tangent contacts become section vertices; coincident
// carriers are recorded for the builder.
func (f *Filler) performFF(ctx context.Context) error {
	d := f.ds
	ps := f.pairs(topo.Face, topo.Face)
	hits := make([]ffHit, len(ps))
	err := f.parallel(ctx, len(ps), func(i int) error {
		h, err := f.faceFace(ps[i])
		hits[i] = h
		return err
	})
	if err != nil {
		return err
	}
	for i, p := range ps {
		h := hits[i]
		tol := d.PairTol(p.A, p.B)
		if h.coincident {
			d.AddCoincident(p.A, p.B)
			d.AddInterference(&ds.FF{Header: ds.Header{A: p.A, B: p.B, New: -1, Tol: tol}, Coincident: true, Same: h.same})
			continue
		}
		rec := &ds.FF{Header: ds.Header{A: p.A, B: p.B, New: -1, Tol: tol}}
		for _, pt := range h.tangents {
			v, _ := f.vertexAt(pt, tol, f.pairVertices(p))
			d.AddSectionVertex(p.A, v)
			d.AddSectionVertex(p.B, v)
			rec.Points = append(rec.Points, v)
		}
		for _, s := range h.segments {
			e, ok, err := f.commitSegment(p, s, tol)
			if err != nil {
				return err
			}
			if ok {
				rec.Curves = append(rec.Curves, e)
			}
		}
		if len(rec.Points) > 0 || len(rec.Curves) > 0 {
			d.AddInterference(rec)
		}
	}
	return nil
}

func (f *Filler) faceFace(p pair) (ffHit, error) {
	var h ffHit
	d := f.ds
	fa, fb := d.Info(p.A).T, d.Info(p.B).T
	tol := d.PairTol(p.A, p.B)
	cs, err := f.intersect(p.A, p.B, fa.Surface, fb.Surface, geom.Range{}, geom.Range{}, tol)
	if err != nil {
		return h, err
	}
	for _, c := range cs {
		switch c.Kind {
		case geom.CandCoincident:
			h.coincident, h.same = true, c.Same
			return h, nil
		case geom.CandTangent:
			if f.faceState(p.A, c.Point, tol) != topo.Out && f.faceState(p.B, c.Point, tol) != topo.Out {
				h.tangents = append(h.tangents, c.Point)
			}
		case geom.CandCurve:
			dom := f.curveDomain(c.Curve, p, tol)
			res := c.Curve.Resolution(tol)
			params, err := f.crossings(c.Curve, dom, []int{p.A, p.B}, tol)
			if err != nil {
				return h, err
			}
			for _, iv := range intervals(c.Curve, dom, params, res) {
				if iv.Len() <= res {
					continue
				}
				m, err := f.curvePoint(c.Curve, iv.Mid(), tol, p.A, p.B)
				if err != nil {
					return h, err
				}
				sa, sb := f.faceState(p.A, m, tol), f.faceState(p.B, m, tol)
				if sa == topo.Out || sb == topo.Out || sa == topo.Unknown || sb == topo.Unknown {
					continue
				}
				if sa == topo.On && sb == topo.On {
					continue
				}
				h.segments = append(h.segments, segment{curve: c.Curve, r: iv})
			}
		}
	}
	return h, nil
}

// curveDomain bounds an intersection curve to the region both faces can
// reach. Lines are cut to the overlap of the face boxes; circles keep their
// full period.
func (f *Filler) curveDomain(c geom.Curve, p pair, tol float64) geom.Range {
	l, ok := c.(geom.Line)
	if !ok {
		return geom.Range{First: 0, Last: 2 * math.Pi}
	}
	ba, bb := f.ds.Info(p.A).Box, f.ds.Info(p.B).Box
	lo := geom.Vec{X: math.Max(ba.Min.X, bb.Min.X), Y: math.Max(ba.Min.Y, bb.Min.Y), Z: math.Max(ba.Min.Z, bb.Min.Z)}
	hi := geom.Vec{X: math.Min(ba.Max.X, bb.Max.X), Y: math.Min(ba.Max.Y, bb.Max.Y), Z: math.Min(ba.Max.Z, bb.Max.Z)}
	tmin, tmax := math.Inf(1), math.Inf(-1)
	for i := 0; i < 8; i++ {
		corner := lo
		if i&1 != 0 {
			corner.X = hi.X
		}
		if i&2 != 0 {
			corner.Y = hi.Y
		}
		if i&4 != 0 {
			corner.Z = hi.Z
		}
		t := l.Project(corner)
		tmin, tmax = math.Min(tmin, t), math.Max(tmax, t)
	}
	return geom.Range{First: tmin - tol, Last: tmax + tol}
}

// pairVertices returns the vertices known on either face of p.
func (f *Filler) pairVertices(p pair) []int {
	return uniqueInts(append(f.faceVertices(p.A), f.faceVertices(p.B)...))
}

// commitSegment binds the ends of s to vertices and either reuses an
// existing pave block with the same ends and midpoint or appends a new
// section edge. The chosen span is recorded on both faces.
func (f *Filler) commitSegment(p pair, s segment, tol float64) (int, bool, error) {
	d := f.ds
	cands := f.pairVertices(p)
	closed := s.curve.Periodic() && s.r.Len() >= 2*math.Pi-s.curve.Resolution(tol)
	first, err := f.curvePoint(s.curve, s.r.First, tol, p.A, p.B)
	if err != nil {
		return 0, false, err
	}
	v1, _ := f.vertexAt(first, tol, cands)
	v2 := v1
	if !closed {
		last, err := f.curvePoint(s.curve, s.r.Last, tol, p.A, p.B)
		if err != nil {
			return 0, false, err
		}
		v2, _ = f.vertexAt(last, tol, append(cands, v1))
		if d.Canonical(v1) == d.Canonical(v2) {
			return 0, false, nil
		}
	}
	s.r = snapRange(s.curve, s.r, d.Point(v1), d.Point(v2), closed)
	mid, err := f.curvePoint(s.curve, s.r.Mid(), tol, p.A, p.B)
	if err != nil {
		return 0, false, err
	}

	span, ok, err := f.matchBlock(p, v1, v2, mid, tol)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		e := topo.NewEdge(s.curve, s.r, d.Info(v1).T, d.Info(v2).T, tol).T
		idx := d.Append(e)
		span = ds.EdgeSpan{Edge: idx, Range: s.r}
	}
	for _, fi := range []int{p.A, p.B} {
		d.AddSectionSpan(fi, span)
		d.AddSectionVertex(fi, v1)
		d.AddSectionVertex(fi, v2)
	}
	return span.Edge, true, nil
}

// snapRange moves the ends of r to the parameters of p1 and p2, the points
// of the vertices the segment ends were bound to. A closed range keeps its
// period. Ends that would cross over leave r unchanged.
func snapRange(c geom.Curve, r geom.Range, p1, p2 geom.Vec, closed bool) geom.Range {
	t1, t2 := c.Project(p1), c.Project(p2)
	if c.Periodic() {
		t1 = r.First + math.Remainder(t1-r.First, 2*math.Pi)
		if closed {
			return geom.Range{First: t1, Last: t1 + 2*math.Pi}
		}
		t2 = r.Last + math.Remainder(t2-r.Last, 2*math.Pi)
	}
	if t2 <= t1 {
		return r
	}
	return geom.Range{First: t1, Last: t2}
}

// matchBlock looks for an existing pave block (boundary, In or section) of
// either face joining v1 and v2 through mid.
func (f *Filler) matchBlock(p pair, v1, v2 int, mid geom.Vec, tol float64) (ds.EdgeSpan, bool, error) {
	d := f.ds
	c1, c2 := d.Canonical(v1), d.Canonical(v2)
	var edges []int
	for _, fi := range []int{p.A, p.B} {
		edges = append(edges, f.faceEdges[fi]...)
		info := d.FaceInfo(fi)
		for _, s := range info.In {
			edges = append(edges, s.Edge)
		}
	}
	edges = append(edges, f.SectionEdges()...)
	for _, e := range uniqueInts(edges) {
		if d.Rank(e) == ds.NoRank {
			// Section edges from this pass have no blocks yet.
			et := d.Info(e).T
			a, _ := d.Index(et.FirstVertex())
			b, _ := d.Index(et.LastVertex())
			if endsMatch(d.Canonical(a), d.Canonical(b), c1, c2) &&
				geom.Dist(et.Curve.Value(et.Range.Mid()), mid) <= tol+et.Tol {
				return ds.EdgeSpan{Edge: e, Range: et.Range}, true, nil
			}
			continue
		}
		for _, pb := range d.PaveBlocks(e) {
			a, b := d.Canonical(pb.Pave1.Vertex), d.Canonical(pb.Pave2.Vertex)
			if !endsMatch(a, b, c1, c2) {
				continue
			}
			m, err := f.curvePoint(d.Info(e).T.Curve, pb.Range().Mid(), tol+d.Tol(e), e)
			if err != nil {
				return ds.EdgeSpan{}, false, err
			}
			if geom.Dist(m, mid) <= tol+d.Tol(e) {
				return ds.EdgeSpan{Edge: e, Range: pb.Range()}, true, nil
			}
		}
	}
	return ds.EdgeSpan{}, false, nil
}

func endsMatch(a, b, c1, c2 int) bool {
	return (a == c1 && b == c2) || (a == c2 && b == c1)
}
