// Package builder turns a filled intersection dataset into new topology:
// it splits edges at their paves, splits faces along the edges lying inside
// them, classifies every face piece against the other operands and
// assembles selected pieces into shells and solids.
//
// Edge and face splitting and classification run on a worker pool; shell
// assembly is sequential.
package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/chazu/boolkit/pkg/ds"
	"github.com/chazu/boolkit/pkg/report"
	"github.com/chazu/boolkit/pkg/topo"
	"golang.org/x/sync/errgroup"
)

// State is the classification of a face piece against the operands of
// other ranks.
type State int

const (
	Unclassified State = iota
	In
	Out
	// OnSame marks a piece lying on a face of another operand whose outward
	// normal agrees with its own.
	OnSame
	// OnOpposite marks a piece lying on a face of another operand whose
	// outward normal is opposite.
	OnOpposite
)

func (s State) String() string {
	switch s {
	case In:
		return "in"
	case Out:
		return "out"
	case OnSame:
		return "on-same"
	case OnOpposite:
		return "on-opposite"
	default:
		return "unclassified"
	}
}

// Stage tracks a face through the build.
type Stage int

const (
	Untrimmed Stage = iota
	Retrimmed
	Classified
	Emitted
)

func (s Stage) String() string {
	switch s {
	case Untrimmed:
		return "untrimmed"
	case Retrimmed:
		return "retrimmed"
	case Classified:
		return "classified"
	case Emitted:
		return "emitted"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Piece is one part of a split input face.
type Piece struct {
	// Face is the piece oriented as its source face is used in the operand.
	Face topo.Shape
	// Source is the dataset index of the input face.
	Source int
	Rank   int
	State  State
	// Partner is the coincident face of another operand for On pieces, or
	// -1.
	Partner int
}

// Options configures a Builder.
type Options struct {
	Workers int
	Logger  *slog.Logger
}

// Builder holds the split and classified topology of one operation.
type Builder struct {
	ds      *ds.DS
	workers int
	log     *slog.Logger

	faceUse map[int]topo.Orientation

	vmu      sync.Mutex
	vertices map[int]*topo.TShape

	blocks map[*ds.PaveBlock]topo.Shape

	mu     sync.Mutex
	faces  map[int][]*Piece
	stages map[int]Stage

	wmu      sync.Mutex
	warnings []report.Warning
}

// New returns a Builder over a dataset filled by the pave filler.
func New(d *ds.DS, opts Options) *Builder {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Builder{
		ds:       d,
		workers:  opts.Workers,
		log:      opts.Logger.With("run", d.RunID, "stage", "builder"),
		faceUse:  map[int]topo.Orientation{},
		vertices: map[int]*topo.TShape{},
		blocks:   map[*ds.PaveBlock]topo.Shape{},
		faces:    map[int][]*Piece{},
		stages:   map[int]Stage{},
	}
}

// DS returns the dataset the builder works on.
func (b *Builder) DS() *ds.DS { return b.ds }

// Warnings returns the recoverable problems met so far.
func (b *Builder) Warnings() []report.Warning {
	b.wmu.Lock()
	defer b.wmu.Unlock()
	return append([]report.Warning(nil), b.warnings...)
}

func (b *Builder) warn(w report.Warning) {
	b.wmu.Lock()
	b.warnings = append(b.warnings, w)
	b.wmu.Unlock()
	b.log.Warn("build warning", "code", w.Code.String(), "msg", w.Message)
}

// dropFace turns a failure to rebuild face f into a warning and reports
// whether it did. Only TopologyBuildFailure is recoverable; the face then
// contributes no pieces.
func (b *Builder) dropFace(f int, err error) bool {
	var re *report.Error
	if !errors.As(err, &re) || re.Code != report.TopologyBuildFailure {
		return false
	}
	shapes := re.Shapes
	if len(shapes) == 0 {
		shapes = []topo.Shape{b.ds.Info(f).Shape()}
	}
	b.warn(report.Warnf(report.TopologyBuildFailure, shapes, "face %d dropped: %s", f, re.Message))
	return true
}

// Perform splits edges and faces and classifies the face pieces. The
// context is checked between stages.
func (b *Builder) Perform(ctx context.Context) error {
	steps := []struct {
		name string
		run  func(ctx context.Context) error
	}{
		{"edges", b.splitEdges},
		{"faces", b.splitFaces},
		{"classify", b.classifyPieces},
	}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		if err := s.run(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		b.log.Debug("stage done", "step", s.name, "elapsed", time.Since(start))
	}
	return ctx.Err()
}

// parallel runs fn for i in [0, n) on the worker pool.
func (b *Builder) parallel(ctx context.Context, n int, fn func(i int) error) error {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i := 0; i < n; i++ {
		g.Go(func() error { return fn(i) })
	}
	return g.Wait()
}

// advance moves face f to stage to. Stages only move forward one step at a
// time, except that Emitted may be reached again by later assemblies.
func (b *Builder) advance(f int, to Stage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	from := b.stages[f]
	if to != from+1 && !(to == Emitted && from == Emitted) {
		return report.Errorf(report.TopologyBuildFailure, []topo.Shape{b.ds.Info(f).Shape()},
			"face %d: cannot move from %s to %s", f, from, to)
	}
	b.stages[f] = to
	return nil
}

// Stage returns the build stage of input face f.
func (b *Builder) Stage(f int) Stage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stages[f]
}

// Pieces returns every classified piece, ordered by source face.
func (b *Builder) Pieces() []*Piece {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*Piece
	for _, f := range b.ds.Indices(topo.Face) {
		out = append(out, b.faces[f]...)
	}
	return out
}

// FacePieces returns the pieces of input face f.
func (b *Builder) FacePieces(f int) []*Piece {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Piece(nil), b.faces[f]...)
}
