// Package pavefiller is the intersection stage of the Boolean engine. It
// tests every candidate pair of entities from different operands, in
// increasing dimension (vertex/vertex, vertex/edge, edge/edge, vertex/face,
// edge/face, face/face), and records what it finds in the dataset: paves on
// edges, same-domain vertices, common blocks, section edges and face
// information.
//
// Each pass evaluates its pairs in parallel into per-pair slots and then
// commits the results sequentially in pair order, so the dataset comes out
// the same for any worker count.
package pavefiller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/chazu/boolkit/pkg/ds"
	"github.com/chazu/boolkit/pkg/geom"
	"github.com/chazu/boolkit/pkg/report"
	"github.com/chazu/boolkit/pkg/topo"
	"golang.org/x/sync/errgroup"
)

// Options configures a Filler.
type Options struct {
	// Adapter evaluates and intersects geometry. Defaults to geom.Analytic.
	Adapter geom.Adapter
	// Workers bounds the parallelism of each pass. Zero means GOMAXPROCS.
	Workers int
	// Logger receives pass progress. Nil means slog.Default().
	Logger *slog.Logger
}

// Filler runs the intersection passes over a dataset.
type Filler struct {
	ds      *ds.DS
	adapter geom.Adapter
	workers int
	log     *slog.Logger

	faceEdges map[int][]int

	wmu      sync.Mutex
	warnings []report.Warning
}

// New returns a Filler over d.
func New(d *ds.DS, opts Options) *Filler {
	if opts.Adapter == nil {
		opts.Adapter = geom.Analytic{}
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Filler{
		ds:        d,
		adapter:   opts.Adapter,
		workers:   opts.Workers,
		log:       opts.Logger.With("run", d.RunID, "stage", "pavefiller"),
		faceEdges: map[int][]int{},
	}
}

// DS returns the dataset the filler works on.
func (f *Filler) DS() *ds.DS { return f.ds }

// Warnings returns the recoverable problems met so far.
func (f *Filler) Warnings() []report.Warning {
	f.wmu.Lock()
	defer f.wmu.Unlock()
	return append([]report.Warning(nil), f.warnings...)
}

// SectionEdges returns the indices of the section edges in the dataset,
// ascending.
func (f *Filler) SectionEdges() []int {
	var out []int
	for _, e := range f.ds.Indices(topo.Edge) {
		if f.ds.Rank(e) == ds.NoRank {
			out = append(out, e)
		}
	}
	return out
}

func (f *Filler) warn(w report.Warning) {
	f.wmu.Lock()
	f.warnings = append(f.warnings, w)
	f.wmu.Unlock()
	f.log.Warn("intersection warning", "code", w.Code.String(), "msg", w.Message)
}

type step struct {
	name string
	run  func(ctx context.Context) error
}

// Perform runs all passes. The context is checked between passes; on
// cancellation the dataset must be discarded.
func (f *Filler) Perform(ctx context.Context) error {
	steps := []step{
		{"init", f.prepare},
		{"vv", f.performVV},
		{"ve", f.performVE},
		{"ee", f.performEE},
		{"pave blocks", f.buildBlocks},
		{"vf", f.performVF},
		{"ef", f.performEF},
		{"pave blocks", f.buildBlocks},
		{"ff", f.performFF},
		{"section", f.postTreat},
		{"pave blocks", f.buildBlocks},
	}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		if err := s.run(ctx); err != nil {
			return fmt.Errorf("%s pass: %w", s.name, err)
		}
		f.log.Debug("pass done", "pass", s.name, "elapsed", time.Since(start), "interferences", len(f.ds.Interferences()))
	}
	return ctx.Err()
}

func (f *Filler) prepare(context.Context) error {
	for _, k := range []topo.Kind{topo.Edge, topo.Face} {
		for _, i := range f.ds.Indices(k) {
			si := f.ds.Info(i)
			if si.Rank == ds.NoRank || !si.Degenerate {
				continue
			}
			f.warn(report.Warnf(report.DegenerateInput, []topo.Shape{si.Shape()}, "%s #%d is degenerate and was skipped", k, i))
		}
	}
	for _, fi := range f.ds.Indices(topo.Face) {
		var edges []int
		for _, w := range f.ds.Info(fi).Sub {
			edges = append(edges, f.ds.Info(w).Sub...)
		}
		f.faceEdges[fi] = uniqueInts(edges)
	}
	return nil
}

func (f *Filler) buildBlocks(context.Context) error {
	f.ds.BuildPaveBlocks()
	f.ds.BuildCommonBlocks()
	return nil
}

// parallel runs fn for i in [0, n) on the worker pool.
func (f *Filler) parallel(ctx context.Context, n int, fn func(i int) error) error {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for i := 0; i < n; i++ {
		g.Go(func() error { return fn(i) })
	}
	return g.Wait()
}

// intersect calls the adapter and sorts its failures: degenerate geometry
// is skipped with a warning (nil result, nil error); anything else is a
// fatal IntersectionFailure.
func (f *Filler) intersect(a, b int, ga, gb geom.Geometry, ra, rb geom.Range, tol float64) ([]geom.Candidate, error) {
	cs, err := f.adapter.FindIntersections(ga, gb, ra, rb, tol)
	if err == nil {
		geom.SortCandidates(cs)
		return cs, nil
	}
	shapes := []topo.Shape{f.ds.Info(a).Shape(), f.ds.Info(b).Shape()}
	if errors.Is(err, geom.ErrDegenerate) {
		f.warn(report.Warnf(report.DegenerateInput, shapes, "pair %d/%d skipped: %v", a, b, err))
		return nil, nil
	}
	return nil, report.Errorf(report.IntersectionFailure, shapes, "pair %d/%d: %w", a, b, err)
}

// curvePoint evaluates c at t through the adapter. An evaluation whose
// error estimate is not within tol is a fatal IntersectionFailure on the
// given shapes.
func (f *Filler) curvePoint(c geom.Curve, t, tol float64, shapes ...int) (geom.Vec, error) {
	ev, err := f.adapter.Evaluate(c, t)
	if err == nil && !(ev.Err <= tol) {
		err = fmt.Errorf("point at %g has error %g, tolerance %g", t, ev.Err, tol)
	}
	if err != nil {
		ss := make([]topo.Shape, len(shapes))
		for i, s := range shapes {
			ss[i] = f.ds.Info(s).Shape()
		}
		return geom.Vec{}, report.Errorf(report.IntersectionFailure, ss, "evaluate: %w", err)
	}
	return ev.Point, nil
}

// vertexAt returns a vertex for point p: an existing one among candidates
// within tol (nearest wins, canonical index returned), or a new vertex.
func (f *Filler) vertexAt(p geom.Vec, tol float64, candidates []int) (v int, created bool) {
	best, bestDist := -1, tol
	for _, c := range candidates {
		d := geom.Dist(f.ds.Point(c), p)
		if d <= bestDist && (best < 0 || d < bestDist || c < best) {
			best, bestDist = c, d
		}
	}
	if best >= 0 {
		return f.ds.Canonical(best), false
	}
	nv := topo.NewVertex(p, tol).T
	return f.ds.Append(nv), true
}

// pointOnEdges returns the vertex to use at p given the paves found near it
// on edges ea and eb (at ta and tb), then makes sure both edges carry a pave
// bound to it.
func (f *Filler) pointOnEdges(p geom.Vec, tol float64, ea int, ta float64, eb int, tb float64) int {
	pa, okA := f.ds.FindPave(ea, ta)
	pb, okB := f.ds.FindPave(eb, tb)
	var v int
	switch {
	case okA && okB:
		v = pa.Vertex
		if f.ds.Canonical(pb.Vertex) != f.ds.Canonical(pa.Vertex) {
			f.ds.SameDomain(pa.Vertex, pb.Vertex)
		}
	case okA:
		v = pa.Vertex
		f.ds.AddPave(eb, tb, v)
	case okB:
		v = pb.Vertex
		f.ds.AddPave(ea, ta, v)
	default:
		v, _ = f.vertexAt(p, tol, nil)
		f.ds.AddPave(ea, ta, v)
		f.ds.AddPave(eb, tb, v)
	}
	return f.ds.Canonical(v)
}

// faceVertices returns every vertex known on face fi: the paves of its
// boundary edges, and the vertices recorded in its face info.
func (f *Filler) faceVertices(fi int) []int {
	var out []int
	for _, e := range f.faceEdges[fi] {
		for _, p := range f.ds.Paves(e) {
			out = append(out, p.Vertex)
		}
	}
	info := f.ds.FaceInfo(fi)
	out = append(out, info.VertsIn...)
	out = append(out, info.VertsSc...)
	for _, s := range append(append([]ds.EdgeSpan(nil), info.In...), info.Sc...) {
		for _, p := range f.ds.Paves(s.Edge) {
			out = append(out, p.Vertex)
		}
	}
	return uniqueInts(out)
}

func uniqueInts(s []int) []int {
	seen := map[int]bool{}
	out := s[:0:0]
	for _, v := range s {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
