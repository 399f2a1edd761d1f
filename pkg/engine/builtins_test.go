package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/chazu/boolkit/pkg/graph"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(sphere :radius 2)`,
			expect: `(sphere "__kw_radius" 2)`,
		},
		{
			name:   "multiple keywords",
			input:  `(translate s :by v :extra 1)`,
			expect: `(translate s "__kw_by" v "__kw_extra" 1)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(def drill-hole :corner-a ref)`,
			expect: `(def drill_hole "__kw_corner-a" ref)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative number preserved",
			input:  `(vec3 -1 0 -2.5)`,
			expect: `(vec3 -1 0 -2.5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:cut-depth`,
			expect: `"__kw_cut-depth"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func mustEvaluate(t *testing.T, source string) *graph.DesignGraph {
	t.Helper()
	g, evalErrs, err := NewEngine().Evaluate(context.Background(), source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if g == nil {
		t.Fatal("expected non-nil graph")
	}
	return g
}

func mustFail(t *testing.T, source, want string) {
	t.Helper()
	g, evalErrs, err := NewEngine().Evaluate(context.Background(), source)
	if err != nil {
		t.Fatalf("expected eval error, got fatal: %v", err)
	}
	if g != nil {
		t.Error("expected nil graph on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected an eval error")
	}
	if !strings.Contains(evalErrs[0].Message, want) {
		t.Errorf("error = %q, want it to mention %q", evalErrs[0].Message, want)
	}
}

// ---------------------------------------------------------------------------
// Primitive tests
// ---------------------------------------------------------------------------

func TestNamedBox(t *testing.T) {
	g := mustEvaluate(t, `(defshape "plate" (box 400 200 19))`)

	if g.NodeCount() != 1 {
		t.Fatalf("expected 1 node, got %d", g.NodeCount())
	}
	plate := g.Lookup("plate")
	if plate == nil {
		t.Fatal("expected node named 'plate'")
	}
	if plate.Kind != graph.NodePrimitive {
		t.Errorf("expected NodePrimitive, got %s", plate.Kind)
	}
	bd, ok := plate.Data.(graph.BoxData)
	if !ok {
		t.Fatalf("expected BoxData, got %T", plate.Data)
	}
	if bd.Size != (graph.Vec3{X: 400, Y: 200, Z: 19}) {
		t.Errorf("size = %+v, want 400x200x19", bd.Size)
	}
	if len(g.Roots) != 1 || g.Roots[0] != plate.ID {
		t.Errorf("roots = %v, want [plate]", g.Roots)
	}
}

func TestBoxForms(t *testing.T) {
	g := mustEvaluate(t, `
(box 1 2 3)
(box (vec3 1 2 3))
(box :size (vec3 1 2 3))
`)
	// All three spell the same box, which is stored once.
	if g.NodeCount() != 1 {
		t.Errorf("expected 1 shared node, got %d", g.NodeCount())
	}
	if len(g.Roots) != 1 {
		t.Errorf("expected 1 root, got %d", len(g.Roots))
	}
}

func TestVariableReference(t *testing.T) {
	g := mustEvaluate(t, `
(def r 2.5)
(defshape "ball" (sphere r))
`)
	ball := g.Lookup("ball")
	if ball == nil {
		t.Fatal("expected node named 'ball'")
	}
	sd, ok := ball.Data.(graph.SphereData)
	if !ok {
		t.Fatalf("expected SphereData, got %T", ball.Data)
	}
	if sd.Radius != 2.5 {
		t.Errorf("expected radius=2.5 (from variable), got %f", sd.Radius)
	}
}

func TestSphereKeyword(t *testing.T) {
	g := mustEvaluate(t, `(defshape "ball" (sphere :radius 3))`)
	if sd := g.MustLookup("ball").Data.(graph.SphereData); sd.Radius != 3 {
		t.Errorf("radius = %f, want 3", sd.Radius)
	}
}

func TestVec3(t *testing.T) {
	mustFail(t, `(vec3 1 2)`, "exactly 3")
	mustFail(t, `(vec3 1 2 "z")`, "vec3: z")
}

// ---------------------------------------------------------------------------
// Transform tests
// ---------------------------------------------------------------------------

func TestTranslateForms(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"vec3", `(translate (box 1 1 1) (vec3 1 2 3))`},
		{"numbers", `(translate (box 1 1 1) 1 2 3)`},
		{"keyword", `(translate (box 1 1 1) :by (vec3 1 2 3))`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustEvaluate(t, `(defshape "moved" `+tt.expr+`)`)
			moved := g.MustLookup("moved")
			if moved.Kind != graph.NodeTransform {
				t.Fatalf("kind = %s, want transform", moved.Kind)
			}
			td := moved.Data.(graph.TransformData)
			if td.Translation == nil || *td.Translation != (graph.Vec3{X: 1, Y: 2, Z: 3}) {
				t.Errorf("translation = %v, want (1,2,3)", td.Translation)
			}
			if td.Rotation != nil {
				t.Errorf("rotation = %v, want none", td.Rotation)
			}
			if len(moved.Children) != 1 || g.Get(moved.Children[0]).Kind != graph.NodePrimitive {
				t.Errorf("expected one primitive child")
			}
		})
	}
}

func TestRotate(t *testing.T) {
	g := mustEvaluate(t, `(defshape "turned" (rotate (box 2 1 1) (vec3 0 0 90)))`)
	td := g.MustLookup("turned").Data.(graph.TransformData)
	if td.Rotation == nil || *td.Rotation != (graph.Vec3{Z: 90}) {
		t.Errorf("rotation = %v, want (0,0,90)", td.Rotation)
	}
}

func TestTransformErrors(t *testing.T) {
	mustFail(t, `(translate)`, "requires a shape")
	mustFail(t, `(translate 5 (vec3 1 0 0))`, "translate: shape")
	mustFail(t, `(rotate (box 1 1 1) 1 2)`, "rotate: by")
}

// ---------------------------------------------------------------------------
// Boolean tests
// ---------------------------------------------------------------------------

func TestCutScene(t *testing.T) {
	g := mustEvaluate(t, `
;; a plate with a spherical pocket
(def plate (box 4 4 1))
(def hole (translate (sphere 1) (vec3 2 2 1)))
(defshape "drilled" (cut plate hole))
(scene "part" (shape "drilled"))
`)

	// box, sphere, transform, named cut, scene
	if g.NodeCount() != 5 {
		t.Errorf("node count = %d, want 5", g.NodeCount())
	}
	scene := g.MustLookup("part")
	if len(g.Roots) != 1 || g.Roots[0] != scene.ID {
		t.Fatalf("roots = %v, want [part]", g.Roots)
	}
	if scene.Kind != graph.NodeGroup {
		t.Errorf("scene kind = %s, want group", scene.Kind)
	}

	drilled := g.MustLookup("drilled")
	if drilled.Kind != graph.NodeBoolean {
		t.Fatalf("drilled kind = %s, want boolean", drilled.Kind)
	}
	if op := drilled.Data.(graph.BooleanData).Op; op != graph.OpCut {
		t.Errorf("op = %s, want cut", op)
	}
	kids := g.Children(drilled)
	if len(kids) != 2 {
		t.Fatalf("operands = %d, want 2", len(kids))
	}
	if _, ok := kids[0].Data.(graph.BoxData); !ok {
		t.Errorf("object = %T, want BoxData", kids[0].Data)
	}
	if kids[1].Kind != graph.NodeTransform {
		t.Errorf("tool kind = %s, want transform", kids[1].Kind)
	}

	for _, e := range graph.Validate(g) {
		t.Errorf("unexpected validation finding: %s", e)
	}
}

func TestBooleanOps(t *testing.T) {
	tests := []struct {
		fn   string
		want graph.BoolOp
	}{
		{"union", graph.OpUnion},
		{"common", graph.OpCommon},
		{"cut", graph.OpCut},
		{"section", graph.OpSection},
	}
	for _, tt := range tests {
		t.Run(tt.fn, func(t *testing.T) {
			g := mustEvaluate(t, `(defshape "r" (`+tt.fn+` (box 2 2 2) (sphere 1)))`)
			if op := g.MustLookup("r").Data.(graph.BooleanData).Op; op != tt.want {
				t.Errorf("op = %s, want %s", op, tt.want)
			}
		})
	}
}

func TestUnionFlattensLists(t *testing.T) {
	g := mustEvaluate(t, `
(def parts (list (box 1 1 1) (translate (box 1 1 1) 2 0 0)))
(defshape "row" (union parts (translate (box 1 1 1) 4 0 0)))
`)
	if n := len(g.MustLookup("row").Children); n != 3 {
		t.Errorf("operands = %d, want 3", n)
	}
}

func TestBooleanArity(t *testing.T) {
	mustFail(t, `(union (box 1 1 1))`, "at least 2")
	mustFail(t, `(section (box 1 1 1) (sphere 1) (sphere 2))`, "exactly 2")
	mustFail(t, `(cut (box 1 1 1) 3)`, "operand 2")
}

// ---------------------------------------------------------------------------
// Naming and roots
// ---------------------------------------------------------------------------

func TestShapeLookupError(t *testing.T) {
	mustFail(t, `(cut (shape "missing") (sphere 1))`, "missing")
}

func TestDefshapeDuplicate(t *testing.T) {
	mustFail(t, `
(defshape "a" (box 1 1 1))
(defshape "a" (sphere 1))
`, "already defined")
}

func TestDefshapeSameShapeTwice(t *testing.T) {
	g := mustEvaluate(t, `
(defshape "a" (box 1 1 1))
(defshape "b" (box 1 1 1))
`)
	if g.Lookup("a") == nil || g.Lookup("b") == nil {
		t.Fatal("both names should resolve")
	}
	if g.Lookup("a").ID == g.Lookup("b").ID {
		t.Error("named shapes should be distinct nodes")
	}
}

func TestImplicitRoots(t *testing.T) {
	g := mustEvaluate(t, `
(def a (box 1 1 1))
(def b (translate (box 1 1 1) 0.5 0 0))
(union a b)
(sphere 3)
`)
	// The box is shared by a and the transform.
	if g.NodeCount() != 4 {
		t.Errorf("node count = %d, want 4", g.NodeCount())
	}
	if len(g.Roots) != 2 {
		t.Fatalf("roots = %d, want 2", len(g.Roots))
	}
	if k := g.Get(g.Roots[0]).Kind; k != graph.NodeBoolean {
		t.Errorf("first root = %s, want the union", k)
	}
	if _, ok := g.Get(g.Roots[1]).Data.(graph.SphereData); !ok {
		t.Errorf("second root = %T, want the sphere", g.Get(g.Roots[1]).Data)
	}
}

func TestFuzzy(t *testing.T) {
	g := mustEvaluate(t, `(fuzzy 0.01) (box 1 1 1)`)
	if g.Defaults.Fuzzy != 0.01 {
		t.Errorf("fuzzy = %g, want 0.01", g.Defaults.Fuzzy)
	}
	mustFail(t, `(fuzzy -1)`, "negative")
}

// ---------------------------------------------------------------------------
// Check
// ---------------------------------------------------------------------------

func TestCheckReportsValidationErrors(t *testing.T) {
	res, err := NewEngine().Check(context.Background(), `(box 0 1 1)`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if res.Graph != nil {
		t.Error("expected no graph when validation fails")
	}
	if len(res.Errors) == 0 || !strings.Contains(res.Errors[0].Message, "box size X") {
		t.Errorf("errors = %v, want a box size error", res.Errors)
	}
}

func TestCheckReportsWarnings(t *testing.T) {
	res, err := NewEngine().Check(context.Background(), `(cut (box 1 1 1) (translate (sphere 1) 10 0 0))`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(res.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if res.Graph == nil {
		t.Fatal("expected a graph")
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0].Message, "does not reach") {
		t.Errorf("warnings = %v, want one disjoint operand warning", res.Warnings)
	}
}

func TestCheckPassesEvalErrors(t *testing.T) {
	res, err := NewEngine().Check(context.Background(), `(+ 1`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if res.Graph != nil || len(res.Errors) == 0 {
		t.Errorf("expected eval errors and no graph, got %+v", res)
	}
}

// ---------------------------------------------------------------------------
// Regressions
// ---------------------------------------------------------------------------

func TestBlankSourceGivesEmptyGraph(t *testing.T) {
	for _, src := range []string{"", "   \n\t  \n  "} {
		if g := mustEvaluate(t, src); g.NodeCount() != 0 {
			t.Errorf("%q: expected empty graph, got %d nodes", src, g.NodeCount())
		}
	}
}

func TestArithmeticStillWorks(t *testing.T) {
	mustEvaluate(t, "(+ 1 2)")
}
