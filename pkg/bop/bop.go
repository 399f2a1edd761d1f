// Package bop is the entry point of the Boolean engine. Intersect fills an
// intersection dataset from the operands; Build turns a filled dataset into
// the result of one operation. The same dataset can serve several Build
// calls.
//
//	d, err := bop.Intersect(ctx, a, b, nil, opts)
//	res, err := bop.Build(ctx, d, bop.Union, opts)
package bop

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chazu/boolkit/pkg/builder"
	"github.com/chazu/boolkit/pkg/ds"
	"github.com/chazu/boolkit/pkg/pavefiller"
	"github.com/chazu/boolkit/pkg/topo"
)

// Operation selects which pieces make up the result.
type Operation int

const (
	Union Operation = iota
	Common
	// Cut removes the tool (rank 1) from the object (rank 0).
	Cut
	// CutReversed removes the object from the tool.
	CutReversed
	// Section keeps where the operand boundaries meet: section edges,
	// tangent contact vertices and the shared parts of coincident faces.
	Section
)

var opNames = [...]string{"union", "common", "cut", "cut-reversed", "section"}

func (op Operation) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return fmt.Sprintf("Operation(%d)", int(op))
	}
	return opNames[op]
}

// ParseOperation maps a name such as "union" or "cut" to its operation.
// "intersection" and "difference" are accepted as aliases.
func ParseOperation(name string) (Operation, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "intersection":
		return Common, nil
	case "difference":
		return Cut, nil
	default:
		for i, s := range opNames {
			if s == n {
				return Operation(i), nil
			}
		}
	}
	return 0, fmt.Errorf("unknown operation %q", name)
}

// Intersect builds the dataset of two operand groups and runs the
// intersection stage over it. On error, including cancellation, no dataset
// is returned.
func Intersect(ctx context.Context, a, b []topo.Shape, tols PerShapeTolerance, opts Options) (*ds.DS, error) {
	return IntersectAll(ctx, [][]topo.Shape{a, b}, tols, opts)
}

// IntersectAll is Intersect for any number of operand groups; group i gets
// rank i and every pair of entities of distinct rank is tested.
func IntersectAll(ctx context.Context, operands [][]topo.Shape, tols PerShapeTolerance, opts Options) (*ds.DS, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	ctx, cancel := opts.budget(ctx)
	defer cancel()

	start := time.Now()
	d, err := ds.New(operands, tols, opts.Fuzzy)
	if err != nil {
		return nil, fmt.Errorf("building dataset: %w", err)
	}
	log := opts.Logger.With("run", d.RunID)
	log.Debug("intersect started", "operands", len(operands), "shapes", d.Len())

	f := pavefiller.New(d, opts.filler())
	if err := f.Perform(ctx); err != nil {
		log.Debug("intersect aborted", "err", err)
		return nil, err
	}
	d.AddWarnings(f.Warnings()...)
	st := d.Stats()
	log.Debug("intersect done",
		"elapsed", time.Since(start),
		"interferences", st.Interferences,
		"common_blocks", st.CommonBlocks,
		"warnings", len(f.Warnings()))
	return d, nil
}

// Build runs the topology builder over a filled dataset and selects the
// result of op. Union accepts any number of ranks; the other operations
// need exactly two.
func Build(ctx context.Context, d *ds.DS, op Operation, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if op < Union || op > Section {
		return nil, fmt.Errorf("unknown operation %d", int(op))
	}
	if n := d.NumRanks(); op != Union && n != 2 {
		return nil, fmt.Errorf("%s needs two operands, dataset has %d", op, n)
	}
	opts = opts.withDefaults()
	ctx, cancel := opts.budget(ctx)
	defer cancel()

	start := time.Now()
	log := opts.Logger.With("run", d.RunID, "op", op.String())
	b := builder.New(d, opts.builder())
	if err := b.Perform(ctx); err != nil {
		log.Debug("build aborted", "err", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &selector{ds: d, b: b}
	shape, err := s.result(op)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res := newResult(shape, b, append(d.Warnings(), b.Warnings()...))
	log.Debug("build done",
		"elapsed", time.Since(start),
		"solids", topo.Count(shape, topo.Solid),
		"faces", topo.Count(shape, topo.Face),
		"warnings", len(res.Warnings))
	return res, nil
}

// Perform is Intersect followed by Build.
func Perform(ctx context.Context, op Operation, a, b []topo.Shape, opts Options) (*Result, error) {
	d, err := Intersect(ctx, a, b, nil, opts)
	if err != nil {
		return nil, err
	}
	return Build(ctx, d, op, opts)
}

// Fuse is the union of any number of shapes.
func Fuse(ctx context.Context, shapes []topo.Shape, opts Options) (*Result, error) {
	operands := make([][]topo.Shape, len(shapes))
	for i, s := range shapes {
		operands[i] = []topo.Shape{s}
	}
	d, err := IntersectAll(ctx, operands, nil, opts)
	if err != nil {
		return nil, err
	}
	return Build(ctx, d, Union, opts)
}
