// Package ds is the intersection dataset of one Boolean operation: an arena
// of the operands' sub-shapes addressed by stable integer indices, together
// with everything the intersection stage discovers about them (paves, pave
// blocks, common blocks, interferences, same-domain vertices and per-face
// information).
//
// The dataset is safe for the access pattern of the pave filler: parallel
// readers of shape information, per-edge locked pave updates and a locked
// append-only interference log.
package ds

import (
	"fmt"
	"sync"

	"github.com/chazu/boolkit/pkg/geom"
	"github.com/chazu/boolkit/pkg/report"
	"github.com/chazu/boolkit/pkg/topo"
	"github.com/google/uuid"
)

// NoRank marks shapes created during the operation.
const NoRank = -1

// Tolerances overrides the working tolerance of individual input shapes.
type Tolerances map[*topo.TShape]float64

// ShapeInfo is the dataset entry of one shape.
type ShapeInfo struct {
	T          *topo.TShape
	Kind       topo.Kind
	Rank       int
	Sub        []int
	Tol        float64
	Box        geom.Box
	Degenerate bool
}

// Shape returns the forward use of the entry's payload.
func (si *ShapeInfo) Shape() topo.Shape { return topo.Shape{T: si.T} }

// DS is the intersection dataset.
type DS struct {
	// RunID correlates log lines of one operation.
	RunID string
	// Fuzzy is added to every tolerance comparison.
	Fuzzy float64

	operands [][]topo.Shape

	mu    sync.RWMutex
	infos []*ShapeInfo
	index map[*topo.TShape]int

	paves map[int]*paveList

	imu    sync.Mutex
	interf []Interference

	sdmu   sync.Mutex
	parent map[int]int

	pbs        map[int][]*PaveBlock
	cbs        []*CommonBlock
	cbOf       map[*PaveBlock]*CommonBlock
	fmu        sync.Mutex
	faceInfo   map[int]*FaceInfo
	addedPaves int

	wmu      sync.Mutex
	warnings []report.Warning
}

// New builds the dataset of the given operands. Operand i gets rank i.
func New(operands [][]topo.Shape, tols Tolerances, fuzzy float64) (*DS, error) {
	d := &DS{
		RunID:    uuid.NewString(),
		Fuzzy:    fuzzy,
		operands: operands,
		index:    map[*topo.TShape]int{},
		paves:    map[int]*paveList{},
		parent:   map[int]int{},
		pbs:      map[int][]*PaveBlock{},
		cbOf:     map[*PaveBlock]*CommonBlock{},
		faceInfo: map[int]*FaceInfo{},
	}
	for rank, shapes := range operands {
		for _, s := range shapes {
			if s.IsNull() {
				continue
			}
			if _, err := d.intern(s.T, rank, tols); err != nil {
				return nil, err
			}
		}
	}
	d.initPaves()
	return d, nil
}

// intern adds t and its sub-shapes depth first (parents before children)
// and returns t's index.
func (d *DS) intern(t *topo.TShape, rank int, tols Tolerances) (int, error) {
	if i, ok := d.index[t]; ok {
		if r := d.infos[i].Rank; r != rank {
			return 0, report.Errorf(report.DuplicateConflict, []topo.Shape{{T: t}},
				"%s #%d is shared by operands %d and %d", t.Kind, i, r, rank)
		}
		return i, nil
	}
	tol := t.Tol
	if o, ok := tols[t]; ok && o > tol {
		tol = o
	}
	si := &ShapeInfo{T: t, Kind: t.Kind, Rank: rank, Tol: tol}
	i := len(d.infos)
	d.infos = append(d.infos, si)
	d.index[t] = i
	for _, sub := range t.Sub {
		j, err := d.intern(sub.T, rank, tols)
		if err != nil {
			return 0, err
		}
		si.Sub = append(si.Sub, j)
	}
	d.computeBox(si)
	return i, nil
}

func (d *DS) computeBox(si *ShapeInfo) {
	t := si.T
	switch si.Kind {
	case topo.Vertex:
		si.Box = geom.BoxOfPoints(t.Point)
	case topo.Edge:
		if t.Curve == nil || len(t.Sub) != 2 || !(geom.CurveLength(t.Curve, t.Range) > si.Tol) {
			si.Degenerate = true
			if len(t.Sub) > 0 {
				si.Box = geom.BoxOfPoints(t.Sub[0].T.Point)
			}
			break
		}
		si.Box = geom.CurveBox(t.Curve, t.Range)
	case topo.Face:
		if t.Surface == nil {
			si.Degenerate = true
		}
		if _, ok := t.Surface.(geom.Sphere); !ok && len(t.Sub) == 0 {
			si.Degenerate = true
		}
		if si.Degenerate {
			break
		}
		si.Box = topo.FaceBox(t)
	default:
		first := true
		for _, j := range si.Sub {
			b := d.infos[j].Box
			if first {
				si.Box, first = b, false
				continue
			}
			si.Box = geom.UnionBox(si.Box, b)
		}
	}
	si.Box = geom.EnlargeBox(si.Box, si.Tol)
}

// Append adds a shape created during the operation and returns its index.
func (d *DS) Append(t *topo.TShape) int {
	d.mu.Lock()
	si := &ShapeInfo{T: t, Kind: t.Kind, Rank: NoRank, Tol: t.Tol}
	i := len(d.infos)
	d.infos = append(d.infos, si)
	d.index[t] = i
	for _, sub := range t.Sub {
		if j, ok := d.index[sub.T]; ok {
			si.Sub = append(si.Sub, j)
		}
	}
	d.computeBox(si)
	d.mu.Unlock()
	if t.Kind == topo.Edge {
		d.initEdgePaves(i)
	}
	return i
}

// Len returns the number of entries.
func (d *DS) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.infos)
}

// Info returns the entry at index i.
func (d *DS) Info(i int) *ShapeInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.infos[i]
}

// Index returns the index of a payload.
func (d *DS) Index(t *topo.TShape) (int, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i, ok := d.index[t]
	return i, ok
}

// AddWarnings records recoverable problems met while filling the dataset.
func (d *DS) AddWarnings(ws ...report.Warning) {
	d.wmu.Lock()
	defer d.wmu.Unlock()
	d.warnings = append(d.warnings, ws...)
}

// Warnings returns the problems recorded with AddWarnings.
func (d *DS) Warnings() []report.Warning {
	d.wmu.Lock()
	defer d.wmu.Unlock()
	return append([]report.Warning(nil), d.warnings...)
}

// Operands returns the input shapes grouped by rank.
func (d *DS) Operands() [][]topo.Shape { return d.operands }

// NumRanks returns the number of operands.
func (d *DS) NumRanks() int { return len(d.operands) }

// Indices returns the indices of all entries of kind k, ascending.
func (d *DS) Indices(k topo.Kind) []int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []int
	for i, si := range d.infos {
		if si.Kind == k {
			out = append(out, i)
		}
	}
	return out
}

// Tol returns the working tolerance of entry i.
func (d *DS) Tol(i int) float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.infos[i].Tol
}

// PairTol returns the tolerance used to compare entries i and j.
func (d *DS) PairTol(i, j int) float64 {
	return d.Tol(i) + d.Tol(j) + d.Fuzzy
}

// UpdateTolerance grows the working tolerance of entry i to tol. Tolerances
// never shrink.
func (d *DS) UpdateTolerance(i int, tol float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	si := d.infos[i]
	if tol > si.Tol {
		si.Box = geom.EnlargeBox(si.Box, tol-si.Tol)
		si.Tol = tol
	}
}

// Point returns the position of vertex i.
func (d *DS) Point(i int) geom.Vec {
	return d.Info(i).T.Point
}

// Rank returns the operand rank of entry i.
func (d *DS) Rank(i int) int {
	return d.Info(i).Rank
}

func (d *DS) String() string {
	s := d.Stats()
	return fmt.Sprintf("ds %s: %d shapes, %d paves (%d added), %d interferences, %d pave blocks, %d common blocks",
		d.RunID, s.Shapes, s.Paves, s.AddedPaves, s.Interferences, s.PaveBlocks, s.CommonBlocks)
}
