package main

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/chazu/boolkit/pkg/bop"
	"github.com/chazu/boolkit/pkg/csg"
	"github.com/chazu/boolkit/pkg/engine"
	"github.com/chazu/boolkit/pkg/graph"
	"github.com/chazu/boolkit/pkg/kernel"
	"github.com/chazu/boolkit/pkg/kernel/brep"
	"github.com/chazu/boolkit/pkg/kernel/sdfx"
	"github.com/chazu/boolkit/pkg/report"
	"github.com/chazu/boolkit/pkg/topo"
	"github.com/samber/lo"
)

// DefaultSamples is the number of reference check samples per axis.
const DefaultSamples = 8

// Config selects how scenes are evaluated.
type Config struct {
	Fuzzy   float64       // minimum fuzzy value; a scene may ask for more
	Workers int           // parallelism of the Boolean engine, 0 for GOMAXPROCS
	Budget  time.Duration // wall-clock limit per Boolean operation, 0 for none
	Check   bool          // compare every part against the sdfx reference kernel
	Samples int           // reference samples per axis
	Mesh    bool          // report the size of the reference preview mesh
	Logger  *slog.Logger
}

// App evaluates scene sources into part reports.
type App struct {
	engine *engine.Engine
	ref    *sdfx.Kernel
	cfg    Config
}

// PartReport describes one evaluated part.
type PartReport struct {
	Name      string         `json:"name"`
	Solids    int            `json:"solids"`
	Faces     int            `json:"faces"`
	Edges     int            `json:"edges"`
	Vertices  int            `json:"vertices"`
	Volume    float64        `json:"volume"`
	Bounds    [2][3]float64  `json:"bounds"`
	Warnings  []string       `json:"warnings"`
	Problems  []string       `json:"problems"`
	Reference *ReferenceData `json:"reference,omitempty"`
	Triangles int            `json:"triangles,omitempty"`
}

// ReferenceData is the outcome of the sdfx cross-check of a part.
type ReferenceData struct {
	Samples    int `json:"samples"`
	Compared   int `json:"compared"`
	Mismatches int `json:"mismatches"`
}

// EvalErrorData is a JSON-serializable eval error.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of one evaluation.
type EvalResult struct {
	Parts    []PartReport    `json:"parts"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// NewApp creates a new App with an engine and the reference kernel.
func NewApp(cfg Config) *App {
	if cfg.Samples <= 0 {
		cfg.Samples = DefaultSamples
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &App{
		engine: engine.NewEngine(),
		ref:    &sdfx.Kernel{MeshCells: 64},
		cfg:    cfg,
	}
}

func (a *App) options(g *graph.DesignGraph) bop.Options {
	return bop.Options{
		Fuzzy:   math.Max(a.cfg.Fuzzy, g.Defaults.Fuzzy),
		Workers: a.cfg.Workers,
		Budget:  a.cfg.Budget,
		Logger:  a.cfg.Logger,
	}
}

// Evaluate takes Lisp source and returns one report per part, plus errors
// and warnings.
func (a *App) Evaluate(ctx context.Context, source string) EvalResult {
	result := EvalResult{
		Parts:    []PartReport{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}
	fail := func(msg string) EvalResult {
		result.Errors = append(result.Errors, EvalErrorData{Message: msg})
		return result
	}

	// Step 1: Evaluate and validate the Lisp source into a design graph.
	res, err := a.engine.Check(ctx, source)
	if err != nil {
		a.cfg.Logger.Error("evaluate fatal error", "err", err)
		return fail(err.Error())
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Line: w.Line, Col: w.Col, Message: w.Message})
	}
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}
	g := res.Graph

	// Step 2: Build every part with the exact kernel.
	parts, err := csg.Evaluate(g, brep.New(ctx, a.options(g)))
	if err != nil {
		a.cfg.Logger.Error("boolean evaluation failed", "err", err)
		return fail("evaluation failed: " + err.Error())
	}
	for _, p := range parts {
		result.Parts = append(result.Parts, describe(p))
	}

	// Step 3: Optionally rebuild with the reference kernel.
	if !a.cfg.Check && !a.cfg.Mesh {
		return result
	}
	refParts, err := csg.Evaluate(g, a.ref)
	if errors.Is(err, kernel.ErrUnsupported) {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: "reference check skipped: " + err.Error()})
		return result
	}
	if err != nil {
		return fail("reference evaluation failed: " + err.Error())
	}
	if a.cfg.Check {
		for i := range result.Parts {
			ref := compare(parts[i].Solid, refParts[i].Solid, a.cfg.Samples)
			result.Parts[i].Reference = &ref
			if ref.Mismatches > 0 {
				a.cfg.Logger.Warn("part differs from reference", "part", parts[i].Name, "mismatches", ref.Mismatches)
			}
		}
	}
	if a.cfg.Mesh {
		meshes, err := csg.Tessellate(refParts, a.ref)
		if err != nil {
			return fail(err.Error())
		}
		for i, m := range meshes {
			result.Parts[i].Triangles = m.TriangleCount()
		}
	}
	return result
}

// describe summarizes the B-Rep solid of a part.
func describe(p csg.Part) PartReport {
	so := p.Solid.(*brep.Solid)
	min, max := so.BoundingBox()
	return PartReport{
		Name:     p.Name,
		Solids:   topo.Count(so.Shape, topo.Solid),
		Faces:    topo.Count(so.Shape, topo.Face),
		Edges:    topo.Count(so.Shape, topo.Edge),
		Vertices: topo.Count(so.Shape, topo.Vertex),
		Volume:   topo.Volume(so.Shape),
		Bounds:   [2][3]float64{min, max},
		Warnings: lo.Uniq(lo.Map(so.Warnings, func(w report.Warning, _ int) string { return w.String() })),
		Problems: lo.Map(topo.Check(so.Shape), func(pr topo.Problem, _ int) string { return pr.String() }),
	}
}

// compare classifies a grid of points, cell centers over the padded union
// of both bounding boxes, with both solids. Points either solid puts on
// its boundary are not compared.
func compare(exact, ref kernel.Solid, n int) ReferenceData {
	emin, emax := exact.BoundingBox()
	rmin, rmax := ref.BoundingBox()
	var lo3, hi3 [3]float64
	diag := 0.0
	for i := 0; i < 3; i++ {
		lo3[i] = math.Min(emin[i], rmin[i])
		hi3[i] = math.Max(emax[i], rmax[i])
		diag += (hi3[i] - lo3[i]) * (hi3[i] - lo3[i])
	}
	diag = math.Sqrt(diag)
	pad := 0.05 * diag
	tol := 1e-6 * math.Max(diag, 1)

	out := ReferenceData{Samples: n * n * n}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				var p [3]float64
				for axis, c := range [3]int{i, j, k} {
					span := hi3[axis] - lo3[axis] + 2*pad
					p[axis] = lo3[axis] - pad + (float64(c)+0.5)/float64(n)*span
				}
				a, b := exact.Classify(p, tol), ref.Classify(p, tol)
				if a == kernel.Boundary || b == kernel.Boundary {
					continue
				}
				out.Compared++
				if a != b {
					out.Mismatches++
				}
			}
		}
	}
	return out
}
