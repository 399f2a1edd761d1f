package graph

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestNewDesignGraph(t *testing.T) {
	g := New()
	if g.Nodes == nil {
		t.Fatal("Nodes map should be initialized")
	}
	if g.NameIndex == nil {
		t.Fatal("NameIndex map should be initialized")
	}
	if g.Defaults.Fuzzy != DefaultFuzzy {
		t.Errorf("default fuzzy = %f, want %f", g.Defaults.Fuzzy, DefaultFuzzy)
	}
	if g.Defaults.Units != "mm" {
		t.Errorf("default units = %q, want %q", g.Defaults.Units, "mm")
	}
	if g.NodeCount() != 0 {
		t.Errorf("empty graph should have 0 nodes, got %d", g.NodeCount())
	}
}

func TestAddNodeAndLookup(t *testing.T) {
	g := New()

	id := NewNodeID("defshape/plate")
	g.AddNode(&Node{
		ID:   id,
		Kind: NodePrimitive,
		Name: "plate",
		Data: BoxData{Size: Vec3{400, 200, 19}},
	})
	g.AddRoot(id)
	g.AddRoot(id)

	if g.NodeCount() != 1 {
		t.Errorf("node count = %d, want 1", g.NodeCount())
	}

	found := g.Lookup("plate")
	if found == nil {
		t.Fatal("Lookup('plate') returned nil")
	}
	if found.ID != id {
		t.Errorf("lookup returned wrong node")
	}
	if must := g.MustLookup("plate"); must.ID != id {
		t.Errorf("MustLookup returned wrong node")
	}
	if g.Lookup("nonexistent") != nil {
		t.Error("Lookup should return nil for missing name")
	}
	if got := g.Get(id); got == nil || got.Name != "plate" {
		t.Errorf("Get by ID failed")
	}
	if len(g.Roots) != 1 || g.Roots[0] != id {
		t.Errorf("roots = %v, want [%s]", g.Roots, id.Short())
	}
}

func TestMustLookupPanics(t *testing.T) {
	g := New()
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustLookup should panic on missing name")
		}
	}()
	g.MustLookup("missing")
}

func TestByKindAndChildren(t *testing.T) {
	g := buildValidScene()

	if n := len(g.ByKind(NodePrimitive)); n != 2 {
		t.Errorf("primitives = %d, want 2", n)
	}
	if n := len(g.ByKind(NodeBoolean)); n != 1 {
		t.Errorf("booleans = %d, want 1", n)
	}

	cut := g.MustLookup("drilled")
	kids := g.Children(cut)
	if len(kids) != 2 {
		t.Fatalf("children = %d, want 2", len(kids))
	}
	if kids[0].Name != "plate" {
		t.Errorf("first operand = %q, want plate", kids[0].Name)
	}
	if kids[1].Kind != NodeTransform {
		t.Errorf("second operand kind = %s, want transform", kids[1].Kind)
	}
}

func TestNodeIDDeterministic(t *testing.T) {
	a := NewNodeID("defshape/plate")
	b := NewNodeID("defshape/plate")
	c := NewNodeID("defshape/other")
	if a != b {
		t.Error("same path should give the same ID")
	}
	if a == c {
		t.Error("different paths should give different IDs")
	}
	if len(a.Short()) != 8 || !strings.HasPrefix(a.String(), a.Short()) {
		t.Errorf("Short() = %q is not a prefix of %q", a.Short(), a.String())
	}
}

func TestContentID(t *testing.T) {
	x := NewNodeID("x")
	a := ContentID(NodePrimitive, BoxData{Size: Vec3{1, 2, 3}}, nil)
	b := ContentID(NodePrimitive, BoxData{Size: Vec3{1, 2, 3}}, nil)
	c := ContentID(NodePrimitive, BoxData{Size: Vec3{1, 2, 4}}, nil)
	d := ContentID(NodeBoolean, BooleanData{Op: OpUnion}, []NodeID{x})
	e := ContentID(NodeBoolean, BooleanData{Op: OpCommon}, []NodeID{x})
	if a != b {
		t.Error("equal content should give equal IDs")
	}
	if a == c || d == e {
		t.Error("different content should give different IDs")
	}
}

func TestNodeIDZero(t *testing.T) {
	var id NodeID
	if !id.IsZero() {
		t.Error("zero value should be zero")
	}
	if NewNodeID("a").IsZero() {
		t.Error("derived ID should not be zero")
	}
}

func TestNodeIDJSON(t *testing.T) {
	id := NewNodeID("defshape/plate")
	out, err := json.Marshal(map[string]NodeID{"id": id})
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"id":"` + id.String() + `"}`; string(out) != want {
		t.Errorf("json = %s, want %s", out, want)
	}
}

func TestStringers(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{NodePrimitive.String(), "primitive"},
		{NodeTransform.String(), "transform"},
		{NodeBoolean.String(), "boolean"},
		{NodeGroup.String(), "group"},
		{NodeKind(42).String(), "unknown"},
		{OpUnion.String(), "union"},
		{OpCommon.String(), "common"},
		{OpCut.String(), "cut"},
		{OpSection.String(), "section"},
		{BoolOp(9).String(), "BoolOp(9)"},
		{SeverityError.String(), "error"},
		{SeverityWarning.String(), "warning"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestRotatePoint(t *testing.T) {
	tests := []struct {
		name string
		p, r Vec3
		want Vec3
	}{
		{"none", Vec3{1, 2, 3}, Vec3{}, Vec3{1, 2, 3}},
		{"z90", Vec3{1, 0, 0}, Vec3{0, 0, 90}, Vec3{0, 1, 0}},
		{"x90", Vec3{0, 1, 0}, Vec3{90, 0, 0}, Vec3{0, 0, 1}},
		{"y90", Vec3{0, 0, 1}, Vec3{0, 90, 0}, Vec3{1, 0, 0}},
		{"x then z", Vec3{0, 1, 0}, Vec3{90, 0, 90}, Vec3{0, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RotatePoint(tt.p, tt.r)
			if math.Abs(got.X-tt.want.X) > 1e-12 || math.Abs(got.Y-tt.want.Y) > 1e-12 || math.Abs(got.Z-tt.want.Z) > 1e-12 {
				t.Errorf("RotatePoint = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBounds(t *testing.T) {
	g := buildValidScene()

	tests := []struct {
		name string
		want Box
	}{
		{"plate", Box{Max: Vec3{4, 4, 1}}},
		{"drilled", Box{Max: Vec3{4, 4, 1}}},
		{"scene", Box{Max: Vec3{4, 4, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := g.Bounds(g.MustLookup(tt.name).ID)
			if !ok {
				t.Fatal("no bounds")
			}
			if got != tt.want {
				t.Errorf("Bounds = %+v, want %+v", got, tt.want)
			}
		})
	}

	ball := g.MustLookup("drilled").Children[1]
	got, ok := g.Bounds(ball)
	if !ok {
		t.Fatal("no bounds for moved ball")
	}
	if got != (Box{Min: Vec3{1, 1, 0}, Max: Vec3{3, 3, 2}}) {
		t.Errorf("moved ball bounds = %+v", got)
	}

	if _, ok := g.Bounds(NewNodeID("missing")); ok {
		t.Error("missing node should have no bounds")
	}
}

func TestBoundsRotated(t *testing.T) {
	g := New()
	boxID := NewNodeID("box")
	rotID := NewNodeID("rot")
	g.AddNode(&Node{ID: boxID, Kind: NodePrimitive, Data: BoxData{Size: Vec3{2, 1, 1}}})
	g.AddNode(&Node{
		ID: rotID, Kind: NodeTransform, Children: []NodeID{boxID},
		Data: TransformData{Rotation: &Vec3{0, 0, 90}},
	})
	got, ok := g.Bounds(rotID)
	if !ok {
		t.Fatal("no bounds")
	}
	want := Box{Min: Vec3{-1, 0, 0}, Max: Vec3{0, 2, 1}}
	for _, d := range []float64{
		got.Min.X - want.Min.X, got.Min.Y - want.Min.Y, got.Min.Z - want.Min.Z,
		got.Max.X - want.Max.X, got.Max.Y - want.Max.Y, got.Max.Z - want.Max.Z,
	} {
		if math.Abs(d) > 1e-12 {
			t.Fatalf("Bounds = %+v, want %+v", got, want)
		}
	}
}

func TestBoxOverlaps(t *testing.T) {
	a := Box{Max: Vec3{1, 1, 1}}
	tests := []struct {
		name string
		b    Box
		tol  float64
		want bool
	}{
		{"inside", Box{Min: Vec3{0.2, 0.2, 0.2}, Max: Vec3{0.5, 0.5, 0.5}}, 0, true},
		{"touching", Box{Min: Vec3{1, 0, 0}, Max: Vec3{2, 1, 1}}, 0, true},
		{"gap", Box{Min: Vec3{1.1, 0, 0}, Max: Vec3{2, 1, 1}}, 0, false},
		{"gap within tolerance", Box{Min: Vec3{1.1, 0, 0}, Max: Vec3{2, 1, 1}}, 0.2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Overlaps(tt.b, tt.tol); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContentIDTransformByValue(t *testing.T) {
	child := []NodeID{NewNodeID("x")}
	a := ContentID(NodeTransform, TransformData{Translation: &Vec3{1, 2, 3}}, child)
	b := ContentID(NodeTransform, TransformData{Translation: &Vec3{1, 2, 3}}, child)
	c := ContentID(NodeTransform, TransformData{Rotation: &Vec3{1, 2, 3}}, child)
	if a != b {
		t.Error("equal translations should give equal IDs")
	}
	if a == c {
		t.Error("translation and rotation by the same vector should differ")
	}
}
