package ds

import (
	"sort"

	"github.com/chazu/boolkit/pkg/geom"
	"github.com/chazu/boolkit/pkg/topo"
)

// PaveBlock is the part of an edge between two consecutive paves.
type PaveBlock struct {
	Edge         int
	Pave1, Pave2 Pave
}

// Range returns the parameter range of the block.
func (pb *PaveBlock) Range() geom.Range {
	return geom.Range{First: pb.Pave1.Param, Last: pb.Pave2.Param}
}

// CommonBlock is a set of pave blocks from different edges that are the same
// curve segment within tolerance. Faces lists faces the segment lies in.
type CommonBlock struct {
	Blocks []*PaveBlock
	Faces  []int
	Tol    float64
}

// Representative returns the block of the lowest edge index.
func (cb *CommonBlock) Representative() *PaveBlock {
	return cb.Blocks[0]
}

// Contains reports whether pb is a member.
func (cb *CommonBlock) Contains(pb *PaveBlock) bool {
	for _, m := range cb.Blocks {
		if m == pb {
			return true
		}
	}
	return false
}

// BuildPaveBlocks rebuilds the blocks of every edge from its current paves.
// Blocks from earlier builds are discarded together with the common blocks
// that referenced them.
func (d *DS) BuildPaveBlocks() {
	pbs := map[int][]*PaveBlock{}
	for _, e := range d.Indices(topo.Edge) {
		paves := d.collapse(e, d.Paves(e))
		if len(paves) < 2 {
			continue
		}
		blocks := make([]*PaveBlock, 0, len(paves)-1)
		for i := 0; i+1 < len(paves); i++ {
			blocks = append(blocks, &PaveBlock{Edge: e, Pave1: paves[i], Pave2: paves[i+1]})
		}
		pbs[e] = blocks
	}
	d.fmu.Lock()
	d.pbs = pbs
	d.cbs = nil
	d.cbOf = map[*PaveBlock]*CommonBlock{}
	d.fmu.Unlock()
}

// collapse drops paves that would bound a micro block: a neighbor of the
// previous pave bound to the same vertex group, closer than twice their
// tolerance along the whole block. The edge's end paves keep their parameters, so the blocks still
// tile the whole range.
func (d *DS) collapse(e int, paves []Pave) []Pave {
	if len(paves) < 3 {
		return paves
	}
	c := d.Info(e).T.Curve
	kept := paves[:1:1]
	for i, p := range paves[1:] {
		last := kept[len(kept)-1]
		tol := 2 * d.PairTol(e, p.Vertex)
		a, mid := c.Value(last.Param), c.Value((last.Param+p.Param)/2)
		micro := d.Canonical(last.Vertex) == d.Canonical(p.Vertex) &&
			geom.Dist(a, c.Value(p.Param)) <= tol && geom.Dist(a, mid) <= tol
		switch {
		case !micro:
			kept = append(kept, p)
		case i == len(paves)-2 && len(kept) > 1:
			kept[len(kept)-1] = p
		}
	}
	return kept
}

// PaveBlocks returns the blocks of an edge in parameter order.
func (d *DS) PaveBlocks(edge int) []*PaveBlock {
	d.fmu.Lock()
	defer d.fmu.Unlock()
	return d.pbs[edge]
}

// AllPaveBlocks returns every block, by edge index then parameter.
func (d *DS) AllPaveBlocks() []*PaveBlock {
	d.fmu.Lock()
	defer d.fmu.Unlock()
	edges := make([]int, 0, len(d.pbs))
	for e := range d.pbs {
		edges = append(edges, e)
	}
	sort.Ints(edges)
	var out []*PaveBlock
	for _, e := range edges {
		out = append(out, d.pbs[e]...)
	}
	return out
}

// SpanBlocks returns the blocks of span.Edge lying within span.Range.
func (d *DS) SpanBlocks(span EdgeSpan) []*PaveBlock {
	res := d.Resolution(span.Edge)
	var out []*PaveBlock
	for _, pb := range d.PaveBlocks(span.Edge) {
		r := pb.Range()
		if r.First >= span.Range.First-res && r.Last <= span.Range.Last+res {
			out = append(out, pb)
		}
	}
	return out
}

// BlockMidpoint returns the curve point in the middle of the block.
func (d *DS) BlockMidpoint(pb *PaveBlock) geom.Vec {
	t := d.Info(pb.Edge).T
	return t.Curve.Value(pb.Range().Mid())
}

// CommonBlockOf returns the common block pb belongs to, or nil.
func (d *DS) CommonBlockOf(pb *PaveBlock) *CommonBlock {
	d.fmu.Lock()
	defer d.fmu.Unlock()
	return d.cbOf[pb]
}

// CommonBlocks returns all common blocks in build order.
func (d *DS) CommonBlocks() []*CommonBlock {
	d.fmu.Lock()
	defer d.fmu.Unlock()
	out := make([]*CommonBlock, len(d.cbs))
	copy(out, d.cbs)
	return out
}

// BuildCommonBlocks groups the current pave blocks of edges with logged
// overlaps. Two blocks are joined when their end vertices match pairwise,
// by same-domain group or by position, and their midpoints lie within the
// larger edge tolerance. Faces come from logged edge/face overlaps.
func (d *DS) BuildCommonBlocks() {
	parent := map[*PaveBlock]*PaveBlock{}
	var find func(pb *PaveBlock) *PaveBlock
	find = func(pb *PaveBlock) *PaveBlock {
		p, ok := parent[pb]
		if !ok || p == pb {
			return pb
		}
		r := find(p)
		parent[pb] = r
		return r
	}
	union := func(a, b *PaveBlock) {
		for _, pb := range []*PaveBlock{a, b} {
			if _, ok := parent[pb]; !ok {
				parent[pb] = pb
			}
		}
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		if less(rb, ra) {
			ra, rb = rb, ra
		}
		parent[rb] = ra
	}

	for _, rec := range d.InterferencesOf(KindEE) {
		ee := rec.(*EE)
		if !ee.Overlap {
			continue
		}
		tol := maxf(d.Tol(ee.A), d.Tol(ee.B)) + d.Fuzzy
		as := d.SpanBlocks(EdgeSpan{Edge: ee.A, Range: ee.RangeA})
		bs := d.SpanBlocks(EdgeSpan{Edge: ee.B, Range: ee.RangeB})
		for _, pa := range as {
			for _, pb := range bs {
				if d.sameEnds(pa, pb, tol) && geom.Dist(d.BlockMidpoint(pa), d.BlockMidpoint(pb)) <= tol {
					union(pa, pb)
				}
			}
		}
	}

	groups := map[*PaveBlock][]*PaveBlock{}
	var roots []*PaveBlock
	for _, pb := range d.AllPaveBlocks() {
		if _, ok := parent[pb]; !ok {
			continue
		}
		r := find(pb)
		if _, ok := groups[r]; !ok {
			roots = append(roots, r)
		}
		groups[r] = append(groups[r], pb)
	}
	var cbs []*CommonBlock
	cbOf := map[*PaveBlock]*CommonBlock{}
	for _, r := range roots {
		if len(groups[r]) < 2 {
			continue
		}
		members := groups[r]
		sort.SliceStable(members, func(i, j int) bool { return less(members[i], members[j]) })
		cb := &CommonBlock{Blocks: members}
		for _, m := range members {
			cb.Tol = maxf(cb.Tol, d.Tol(m.Edge))
			cbOf[m] = cb
		}
		cbs = append(cbs, cb)
	}

	for _, rec := range d.InterferencesOf(KindEF) {
		ef := rec.(*EF)
		if !ef.Overlap {
			continue
		}
		for _, pb := range d.SpanBlocks(EdgeSpan{Edge: ef.A, Range: ef.Range}) {
			if cb := cbOf[pb]; cb != nil && !containsInt(cb.Faces, ef.B) {
				cb.Faces = append(cb.Faces, ef.B)
			}
		}
	}

	d.fmu.Lock()
	d.cbs = cbs
	d.cbOf = cbOf
	d.fmu.Unlock()
}

// sameEnds reports whether the end vertices of a and b match pairwise, in
// either direction. Two vertices match when they share a same-domain group
// or lie within tol of each other.
func (d *DS) sameEnds(a, b *PaveBlock, tol float64) bool {
	match := func(v, w int) bool {
		return d.Canonical(v) == d.Canonical(w) || geom.Dist(d.Point(v), d.Point(w)) <= tol
	}
	a1, a2 := a.Pave1.Vertex, a.Pave2.Vertex
	b1, b2 := b.Pave1.Vertex, b.Pave2.Vertex
	return (match(a1, b1) && match(a2, b2)) || (match(a1, b2) && match(a2, b1))
}

func less(a, b *PaveBlock) bool {
	if a.Edge != b.Edge {
		return a.Edge < b.Edge
	}
	return a.Pave1.Param < b.Pave1.Param
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
