package pavefiller

import (
	"sort"

	"github.com/chazu/boolkit/pkg/ds"
	"github.com/chazu/boolkit/pkg/geom"
	"github.com/chazu/boolkit/pkg/topo"
	"github.com/dhconnelly/rtreego"
)

// pair is a candidate pair of entity indices. A has the lower dimension
// (or the lower index for same-kind pairs).
type pair struct {
	A, B int
}

// boxed adapts a dataset entry to the R-tree.
type boxed struct {
	idx  int
	rect rtreego.Rect
}

func (b *boxed) Bounds() rtreego.Rect { return b.rect }

// boxPad keeps zero-extent boxes (axis-aligned edges, planar faces) valid
// for the tree.
const boxPad = 1e-9

func rectOf(b geom.Box, pad float64) rtreego.Rect {
	p := pad + boxPad
	r, _ := rtreego.NewRectFromPoints(
		rtreego.Point{b.Min.X - p, b.Min.Y - p, b.Min.Z - p},
		rtreego.Point{b.Max.X + p, b.Max.Y + p, b.Max.Z + p},
	)
	return r
}

// pairs returns the candidate pairs of kinds ka and kb: entries of
// different operands whose boxes, grown by the fuzzy value, overlap.
// Entries created during the operation, degenerate entries and pairs that
// already carry an interference are left out. Pairs come sorted.
func (f *Filler) pairs(ka, kb topo.Kind) []pair {
	d := f.ds
	usable := func(i int) bool {
		si := d.Info(i)
		return si.Rank != ds.NoRank && !si.Degenerate
	}
	var objs []rtreego.Spatial
	for _, j := range d.Indices(kb) {
		if usable(j) {
			objs = append(objs, &boxed{idx: j, rect: rectOf(d.Info(j).Box, d.Fuzzy)})
		}
	}
	if len(objs) == 0 {
		return nil
	}
	tree := rtreego.NewTree(3, 25, 50, objs...)

	done := map[pair]bool{}
	for _, rec := range d.Interferences() {
		a, b := rec.Pair()
		done[pair{a, b}] = true
		done[pair{b, a}] = true
	}

	var out []pair
	for _, i := range d.Indices(ka) {
		if !usable(i) {
			continue
		}
		ri := d.Rank(i)
		for _, hit := range tree.SearchIntersect(rectOf(d.Info(i).Box, d.Fuzzy)) {
			j := hit.(*boxed).idx
			if d.Rank(j) == ri || (ka == kb && j < i) || done[pair{i, j}] {
				continue
			}
			out = append(out, pair{i, j})
		}
	}
	sort.Slice(out, func(x, y int) bool {
		if out[x].A != out[y].A {
			return out[x].A < out[y].A
		}
		return out[x].B < out[y].B
	})
	return out
}
