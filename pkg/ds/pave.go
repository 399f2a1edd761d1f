package ds

import (
	"math"
	"sort"
	"sync"

	"github.com/chazu/boolkit/pkg/topo"
)

// Pave is a split point on an edge: a curve parameter bound to a vertex.
type Pave struct {
	Param  float64
	Vertex int
}

// paveList is the sorted pave set of one edge.
type paveList struct {
	mu    sync.Mutex
	paves []Pave
	res   float64
	added int
}

func (d *DS) initPaves() {
	for _, i := range d.Indices(topo.Edge) {
		d.initEdgePaves(i)
	}
}

func (d *DS) initEdgePaves(i int) {
	si := d.Info(i)
	if si.Degenerate {
		return
	}
	t := si.T
	res := t.Curve.Resolution(si.Tol + d.Fuzzy)
	pl := &paveList{res: res}
	v1, _ := d.Index(t.FirstVertex())
	v2, _ := d.Index(t.LastVertex())
	pl.paves = []Pave{{Param: t.Range.First, Vertex: v1}, {Param: t.Range.Last, Vertex: v2}}
	d.mu.Lock()
	d.paves[i] = pl
	d.mu.Unlock()
}

func (d *DS) paveList(edge int) *paveList {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.paves[edge]
}

// HasPaves reports whether the edge takes part in splitting (it is not
// degenerate).
func (d *DS) HasPaves(edge int) bool {
	return d.paveList(edge) != nil
}

// Resolution returns the parameter distance below which two paves of the
// edge are merged.
func (d *DS) Resolution(edge int) float64 {
	if pl := d.paveList(edge); pl != nil {
		return pl.res
	}
	return 0
}

// AddPave records vertex v at parameter t on edge. If a stored pave lies
// within the edge's resolution, the nearest one (lower parameter on ties)
// is kept, v joins its vertex's same-domain group, and snapped is true.
// A stored pave of a vertex already in v's group is kept the same way at
// any distance: the nearest such pave wins. The stored pave is returned
// either way.
func (d *DS) AddPave(edge int, t float64, v int) (stored Pave, snapped bool) {
	pl := d.paveList(edge)
	if pl == nil {
		return Pave{Param: t, Vertex: v}, false
	}
	cv := d.Canonical(v)
	pl.mu.Lock()
	best, bestDist := -1, math.Inf(1)
	for i, p := range pl.paves {
		dist := math.Abs(p.Param - t)
		if dist <= pl.res && dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best < 0 {
		for i, p := range pl.paves {
			dist := math.Abs(p.Param - t)
			if dist < bestDist && d.Canonical(p.Vertex) == cv {
				best, bestDist = i, dist
			}
		}
	}
	if best >= 0 {
		stored = pl.paves[best]
		pl.mu.Unlock()
		if stored.Vertex != v {
			d.SameDomain(stored.Vertex, v)
		}
		return stored, true
	}
	stored = Pave{Param: t, Vertex: v}
	k := sort.Search(len(pl.paves), func(i int) bool { return pl.paves[i].Param > t })
	pl.paves = append(pl.paves, Pave{})
	copy(pl.paves[k+1:], pl.paves[k:])
	pl.paves[k] = stored
	pl.added++
	pl.mu.Unlock()

	d.mu.Lock()
	d.addedPaves++
	d.mu.Unlock()
	return stored, false
}

// FindPave returns the stored pave nearest to t within the resolution.
func (d *DS) FindPave(edge int, t float64) (Pave, bool) {
	pl := d.paveList(edge)
	if pl == nil {
		return Pave{}, false
	}
	pl.mu.Lock()
	defer pl.mu.Unlock()
	best, bestDist := -1, math.Inf(1)
	for i, p := range pl.paves {
		dist := math.Abs(p.Param - t)
		if dist <= pl.res && dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best < 0 {
		return Pave{}, false
	}
	return pl.paves[best], true
}

// Paves returns a copy of the sorted paves of an edge.
func (d *DS) Paves(edge int) []Pave {
	pl := d.paveList(edge)
	if pl == nil {
		return nil
	}
	pl.mu.Lock()
	defer pl.mu.Unlock()
	out := make([]Pave, len(pl.paves))
	copy(out, pl.paves)
	return out
}
