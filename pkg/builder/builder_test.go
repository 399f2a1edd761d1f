package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/chazu/boolkit/pkg/ds"
	"github.com/chazu/boolkit/pkg/geom"
	"github.com/chazu/boolkit/pkg/pavefiller"
	"github.com/chazu/boolkit/pkg/report"
	"github.com/chazu/boolkit/pkg/topo"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func mustBox(t *testing.T, lo, hi geom.Vec) topo.Shape {
	t.Helper()
	s, err := topo.MakeBox(lo, hi)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func mustSphere(t *testing.T, c geom.Vec, r float64) topo.Shape {
	t.Helper()
	s, err := topo.MakeSphere(c, r)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func build(t *testing.T, a, b topo.Shape) *Builder {
	t.Helper()
	d, err := ds.New([][]topo.Shape{{a}, {b}}, nil, 0)
	if err != nil {
		t.Fatalf("ds.New failed: %v", err)
	}
	if err := pavefiller.New(d, pavefiller.Options{Logger: quiet}).Perform(context.Background()); err != nil {
		t.Fatalf("pave filler failed: %v", err)
	}
	bld := New(d, Options{Logger: quiet})
	if err := bld.Perform(context.Background()); err != nil {
		t.Fatalf("builder failed: %v", err)
	}
	return bld
}

func overlappingCubes(t *testing.T) *Builder {
	return build(t,
		mustBox(t, geom.Vec{}, geom.Vec{X: 1, Y: 1, Z: 1}),
		mustBox(t, geom.Vec{X: 0.5}, geom.Vec{X: 1.5, Y: 1, Z: 1}))
}

// findEdge returns the index of the rank-r straight edge joining p and q.
func findEdge(t *testing.T, d *ds.DS, r int, p, q geom.Vec) int {
	t.Helper()
	for _, e := range d.Indices(topo.Edge) {
		et := d.Info(e).T
		if d.Rank(e) != r {
			continue
		}
		a, b := et.FirstVertex().Point, et.LastVertex().Point
		if (geom.Dist(a, p) < 1e-9 && geom.Dist(b, q) < 1e-9) || (geom.Dist(a, q) < 1e-9 && geom.Dist(b, p) < 1e-9) {
			return e
		}
	}
	t.Fatalf("no rank %d edge %v-%v", r, p, q)
	return -1
}

// findFace returns the index of the rank-r planar face with outward normal n.
func findFace(t *testing.T, d *ds.DS, r int, n geom.Vec) int {
	t.Helper()
	for _, f := range d.Indices(topo.Face) {
		pl, ok := d.Info(f).T.Surface.(geom.Plane)
		if ok && d.Rank(f) == r && geom.Dist(pl.Normal, n) < 1e-9 {
			return f
		}
	}
	t.Fatalf("no rank %d face with normal %v", r, n)
	return -1
}

func TestSplitEdgesShareCommonBlockImage(t *testing.T) {
	bld := overlappingCubes(t)
	d := bld.DS()
	ea := findEdge(t, d, 0, geom.Vec{}, geom.Vec{X: 1})
	eb := findEdge(t, d, 1, geom.Vec{X: 0.5}, geom.Vec{X: 1.5})
	ia, ib := bld.EdgeImages(ea), bld.EdgeImages(eb)
	if len(ia) != 2 || len(ib) != 2 {
		t.Fatalf("images = %d and %d, want 2 and 2", len(ia), len(ib))
	}
	if ia[1].T != ib[0].T {
		t.Error("overlapping halves do not share one image edge")
	}
	if ia[0].T == d.Info(ea).T {
		t.Error("split edge kept its original payload")
	}
	untouched := findEdge(t, d, 0, geom.Vec{}, geom.Vec{Y: 1})
	if img := bld.EdgeImages(untouched); len(img) != 1 || img[0].T != d.Info(untouched).T {
		t.Error("edge without new paves was rebuilt")
	}
}

func TestSplitFaceAlongInsideEdge(t *testing.T) {
	bld := overlappingCubes(t)
	d := bld.DS()
	f := findFace(t, d, 0, geom.Vec{Y: -1})
	pieces := bld.FacePieces(f)
	if len(pieces) != 2 {
		t.Fatalf("pieces = %d, want 2", len(pieces))
	}
	for _, p := range pieces {
		if a := topo.Area(p.Face); math.Abs(a-0.5) > 1e-9 {
			t.Errorf("piece area = %g, want 0.5", a)
		}
	}
}

func TestClassifyOverlappingCubes(t *testing.T) {
	bld := overlappingCubes(t)
	for rank := 0; rank < 2; rank++ {
		counts := map[State]int{}
		for _, p := range bld.Pieces() {
			if p.Rank == rank {
				counts[p.State]++
			}
		}
		want := map[State]int{In: 1, Out: 5, OnSame: 4}
		for s, n := range want {
			if counts[s] != n {
				t.Errorf("rank %d: %s pieces = %d, want %d (all: %v)", rank, s, counts[s], n, counts)
			}
		}
	}
	for _, p := range bld.Pieces() {
		if p.State == OnSame && p.Partner < 0 {
			t.Error("on-boundary piece without partner face")
		}
	}
}

func TestSphereSplitByCircle(t *testing.T) {
	bld := build(t, mustSphere(t, geom.Vec{}, 1), mustSphere(t, geom.Vec{X: 1}, 1))
	d := bld.DS()
	var total float64
	states := map[State]int{}
	for _, f := range d.Indices(topo.Face) {
		if d.Rank(f) != 0 {
			continue
		}
		pieces := bld.FacePieces(f)
		if len(pieces) != 2 {
			t.Fatalf("pieces = %d, want 2", len(pieces))
		}
		for _, p := range pieces {
			total += topo.Area(p.Face)
			states[p.State]++
			if p.State == In {
				if a := topo.Area(p.Face); math.Abs(a-math.Pi) > 0.01*math.Pi {
					t.Errorf("cap area = %g, want pi", a)
				}
			}
		}
	}
	if math.Abs(total-4*math.Pi) > 0.01*4*math.Pi {
		t.Errorf("pieces cover %g, want 4pi", total)
	}
	if states[In] != 1 || states[Out] != 1 {
		t.Errorf("states = %v, want one in and one out", states)
	}
}

func TestStagesOnlyMoveForward(t *testing.T) {
	bld := overlappingCubes(t)
	f := findFace(t, bld.DS(), 0, geom.Vec{X: -1})
	if got := bld.Stage(f); got != Classified {
		t.Fatalf("stage = %s, want classified", got)
	}
	err := bld.advance(f, Retrimmed)
	if !errors.Is(err, report.ErrTopologyBuildFailure) {
		t.Errorf("err = %v, want TopologyBuildFailure", err)
	}
	if err := bld.advance(f, Emitted); err != nil {
		t.Errorf("advance to emitted: %v", err)
	}
}

func TestAssembleDisjointPieces(t *testing.T) {
	bld := build(t,
		mustBox(t, geom.Vec{}, geom.Vec{X: 1, Y: 1, Z: 1}),
		mustBox(t, geom.Vec{X: 2}, geom.Vec{X: 3, Y: 1, Z: 1}))
	var choices []Choice
	for _, p := range bld.Pieces() {
		if p.State != Out {
			t.Fatalf("piece of face %d is %s, want out", p.Source, p.State)
		}
		choices = append(choices, Choice{Piece: p})
	}
	res, err := bld.Assemble(choices)
	if err != nil {
		t.Fatal(err)
	}
	if n := topo.Count(res, topo.Solid); n != 2 {
		t.Errorf("solids = %d, want 2", n)
	}
	if v := topo.Volume(res); math.Abs(v-2) > 1e-9 {
		t.Errorf("volume = %g, want 2", v)
	}
	if probs := topo.Check(res); len(probs) != 0 {
		t.Errorf("check: %v", probs)
	}
}

func TestConnectShells(t *testing.T) {
	a := mustBox(t, geom.Vec{}, geom.Vec{X: 1, Y: 1, Z: 1})
	b := mustBox(t, geom.Vec{X: 5}, geom.Vec{X: 6, Y: 1, Z: 1})
	faces := append(topo.Explode(a, topo.Face), topo.Explode(b, topo.Face)...)
	shells := connectShells(faces)
	if len(shells) != 2 {
		t.Fatalf("shells = %d, want 2", len(shells))
	}
	for _, s := range shells {
		if n := len(s.T.Sub); n != 6 {
			t.Errorf("shell has %d faces, want 6", n)
		}
	}
}

// addStrayLoop records a square of new edges in the plane z=1 but outside
// face f as edges lying inside f. Splitting f then yields pieces covering
// more than the face.
func addStrayLoop(t *testing.T, d *ds.DS, f int) {
	t.Helper()
	corners := []geom.Vec{{X: 3, Y: 0, Z: 1}, {X: 4, Y: 0, Z: 1}, {X: 4, Y: 1, Z: 1}, {X: 3, Y: 1, Z: 1}}
	vs := make([]*topo.TShape, len(corners))
	for i, c := range corners {
		vs[i] = topo.NewVertex(c, topo.DefaultTolerance).T
		d.Append(vs[i])
	}
	for i := range corners {
		a, b := corners[i], corners[(i+1)%len(corners)]
		r := geom.Range{First: 0, Last: geom.Dist(a, b)}
		e := topo.NewEdge(geom.NewLine(a, b), r, vs[i], vs[(i+1)%len(vs)], topo.DefaultTolerance).T
		d.AddInSpan(f, ds.EdgeSpan{Edge: d.Append(e), Range: r})
	}
	d.BuildPaveBlocks()
}

func TestFaceThatCannotBeRebuiltIsDropped(t *testing.T) {
	d, err := ds.New([][]topo.Shape{
		{mustBox(t, geom.Vec{}, geom.Vec{X: 1, Y: 1, Z: 1})},
		{mustBox(t, geom.Vec{X: 10}, geom.Vec{X: 11, Y: 1, Z: 1})},
	}, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := pavefiller.New(d, pavefiller.Options{Logger: quiet}).Perform(context.Background()); err != nil {
		t.Fatal(err)
	}
	top := findFace(t, d, 0, geom.Vec{Z: 1})
	addStrayLoop(t, d, top)

	bld := New(d, Options{Logger: quiet})
	if err := bld.Perform(context.Background()); err != nil {
		t.Fatalf("Perform: %v", err)
	}
	if n := len(bld.FacePieces(top)); n != 0 {
		t.Errorf("dropped face has %d pieces", n)
	}
	if got := bld.Stage(top); got != Retrimmed {
		t.Errorf("dropped face stage = %s, want retrimmed", got)
	}
	found := false
	for _, w := range bld.Warnings() {
		if w.Code == report.TopologyBuildFailure && strings.HasPrefix(w.Message, fmt.Sprintf("face %d dropped", top)) {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want the dropped face", bld.Warnings())
	}
	for _, f := range d.Indices(topo.Face) {
		if f == top || d.Rank(f) < 0 {
			continue
		}
		if len(bld.FacePieces(f)) != 1 || bld.Stage(f) != Classified {
			t.Errorf("face %d: %d pieces at %s, want 1 classified", f, len(bld.FacePieces(f)), bld.Stage(f))
		}
	}
}

func TestStageString(t *testing.T) {
	tests := []struct {
		s    Stage
		want string
	}{
		{Untrimmed, "untrimmed"},
		{Emitted, "emitted"},
		{Stage(9), "Stage(9)"},
		{Stage(-1), "Stage(-1)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Stage(%d).String() = %q, want %q", int(tt.s), got, tt.want)
		}
	}
}
