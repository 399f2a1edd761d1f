package graph

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// buildValidScene creates a valid scene: a plate with a sphere cut out of
// its top, all reachable from a group root.
//
//	scene (group)
//	└── drilled (cut)
//	    ├── plate (box 4x4x1)
//	    └── transform (+2,+2,+1)
//	        └── ball (sphere r=1)
func buildValidScene() *DesignGraph {
	g := New()

	plateID := NewNodeID("defshape/plate")
	ballID := NewNodeID("defshape/ball")
	moveID := NewNodeID("translate/ball")
	cutID := NewNodeID("defshape/drilled")
	sceneID := NewNodeID("scene/scene")

	g.AddNode(&Node{
		ID: plateID, Kind: NodePrimitive, Name: "plate",
		Data: BoxData{Size: Vec3{4, 4, 1}},
	})
	g.AddNode(&Node{
		ID: ballID, Kind: NodePrimitive, Name: "ball",
		Data: SphereData{Radius: 1},
	})
	g.AddNode(&Node{
		ID: moveID, Kind: NodeTransform,
		Children: []NodeID{ballID},
		Data:     TransformData{Translation: &Vec3{2, 2, 1}},
	})
	g.AddNode(&Node{
		ID: cutID, Kind: NodeBoolean, Name: "drilled",
		Children: []NodeID{plateID, moveID},
		Data:     BooleanData{Op: OpCut},
	})
	g.AddNode(&Node{
		ID: sceneID, Kind: NodeGroup, Name: "scene",
		Children: []NodeID{cutID},
		Data:     GroupData{Description: "drilled plate"},
	})
	g.AddRoot(sceneID)

	return g
}

// hasError returns true if errs contains at least one error-severity finding
// whose message contains substr.
func hasError(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityError && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// hasWarning returns true if errs contains at least one warning-severity
// finding whose message contains substr.
func hasWarning(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityWarning && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func errorCount(errs []ValidationError) int {
	n := 0
	for _, e := range errs {
		if e.Severity == SeverityError {
			n++
		}
	}
	return n
}

func logAll(t *testing.T, errs []ValidationError) {
	t.Helper()
	for _, e := range errs {
		t.Logf("  %s", e)
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestValidate_ValidGraph(t *testing.T) {
	g := buildValidScene()
	for _, e := range Validate(g) {
		t.Errorf("unexpected validation error: %s", e)
	}
}

func TestValidate_EmptyGraph(t *testing.T) {
	for _, e := range Validate(New()) {
		t.Errorf("unexpected validation error on empty graph: %s", e)
	}
}

func TestValidate_CycleDetection(t *testing.T) {
	g := New()

	aID := NewNodeID("a")
	bID := NewNodeID("b")
	cID := NewNodeID("c")

	// a -> b -> c -> a
	g.AddNode(&Node{ID: aID, Kind: NodeGroup, Name: "a", Children: []NodeID{bID}, Data: GroupData{}})
	g.AddNode(&Node{ID: bID, Kind: NodeGroup, Name: "b", Children: []NodeID{cID}, Data: GroupData{}})
	g.AddNode(&Node{ID: cID, Kind: NodeGroup, Name: "c", Children: []NodeID{aID}, Data: GroupData{}})
	g.AddRoot(aID)

	errs := Validate(g)
	if !hasError(errs, "cycle") {
		t.Error("expected cycle detection error, got none")
		logAll(t, errs)
	}
}

func TestValidate_DanglingReference(t *testing.T) {
	g := New()

	parentID := NewNodeID("parent")
	missingID := NewNodeID("missing-child")

	g.AddNode(&Node{
		ID: parentID, Kind: NodeGroup, Name: "parent",
		Children: []NodeID{missingID},
		Data:     GroupData{},
	})
	g.AddRoot(parentID)

	errs := Validate(g)
	if !hasError(errs, "does not exist") {
		t.Error("expected dangling reference error")
		logAll(t, errs)
	}
}

func TestValidate_DuplicateName(t *testing.T) {
	g := buildValidScene()

	// A second node claiming the name "plate", bypassing AddNode's index.
	dupID := NewNodeID("defshape/plate-2")
	g.Nodes[dupID] = &Node{ID: dupID, Kind: NodePrimitive, Name: "plate", Data: BoxData{Size: Vec3{1, 1, 1}}}
	g.Nodes[g.Roots[0]].Children = append(g.Nodes[g.Roots[0]].Children, dupID)

	errs := Validate(g)
	if !hasError(errs, `duplicate name "plate"`) {
		t.Error("expected duplicate name error")
		logAll(t, errs)
	}
}

func TestValidate_NameIndexPointsToMissingNode(t *testing.T) {
	g := buildValidScene()
	g.NameIndex["ghost"] = NewNodeID("ghost")

	errs := Validate(g)
	if !hasError(errs, "non-existent node") {
		t.Error("expected name index error")
		logAll(t, errs)
	}
}

func TestValidate_RootReferencesNonExistentNode(t *testing.T) {
	g := buildValidScene()
	g.AddRoot(NewNodeID("ghost"))

	errs := Validate(g)
	if !hasError(errs, "root reference") {
		t.Error("expected root reference error")
		logAll(t, errs)
	}
}

func TestValidate_OrphanNode(t *testing.T) {
	g := buildValidScene()
	orphanID := NewNodeID("defshape/orphan")
	g.AddNode(&Node{ID: orphanID, Kind: NodePrimitive, Name: "orphan", Data: SphereData{Radius: 1}})

	errs := Validate(g)
	if !hasWarning(errs, `"orphan" is not reachable`) {
		t.Error("expected orphan warning")
		logAll(t, errs)
	}
	if errorCount(errs) != 0 {
		t.Errorf("orphan should not be an error, got %d errors", errorCount(errs))
	}
}

func TestValidate_Arity(t *testing.T) {
	leaf := func(g *DesignGraph, name string) NodeID {
		id := NewNodeID("leaf/" + name)
		g.AddNode(&Node{ID: id, Kind: NodePrimitive, Name: name, Data: BoxData{Size: Vec3{1, 1, 1}}})
		return id
	}

	tests := []struct {
		name     string
		kind     NodeKind
		data     NodeData
		children int
		want     string
	}{
		{"primitive with child", NodePrimitive, SphereData{Radius: 1}, 1, "want none"},
		{"transform without child", NodeTransform, TransformData{}, 0, "transform has 0 children"},
		{"transform with two", NodeTransform, TransformData{}, 2, "transform has 2 children"},
		{"union of one", NodeBoolean, BooleanData{Op: OpUnion}, 1, "want at least 2"},
		{"section of three", NodeBoolean, BooleanData{Op: OpSection}, 3, "section has 3 operands"},
		{"missing data", NodeGroup, nil, 0, "has no data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			var kids []NodeID
			for i := 0; i < tt.children; i++ {
				kids = append(kids, leaf(g, string(rune('a'+i))))
			}
			id := NewNodeID("node")
			g.AddNode(&Node{ID: id, Kind: tt.kind, Children: kids, Data: tt.data})
			g.AddRoot(id)

			errs := Validate(g)
			if !hasError(errs, tt.want) {
				t.Errorf("expected error containing %q", tt.want)
				logAll(t, errs)
			}
		})
	}
}

func TestValidate_ArityAccepted(t *testing.T) {
	g := New()
	var kids []NodeID
	for _, name := range []string{"a", "b", "c"} {
		id := NewNodeID("leaf/" + name)
		g.AddNode(&Node{ID: id, Kind: NodePrimitive, Name: name, Data: BoxData{Size: Vec3{1, 1, 1}}})
		kids = append(kids, id)
	}
	id := NewNodeID("fuse")
	g.AddNode(&Node{ID: id, Kind: NodeBoolean, Children: kids, Data: BooleanData{Op: OpUnion}})
	g.AddRoot(id)

	for _, e := range Validate(g) {
		t.Errorf("unexpected validation error: %s", e)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	g := buildValidScene()
	g.NameIndex["ghost"] = NewNodeID("ghost")
	g.AddRoot(NewNodeID("ghost-root"))

	errs := Validate(g)
	if n := errorCount(errs); n < 2 {
		t.Errorf("error count = %d, want at least 2", n)
		logAll(t, errs)
	}
}

func TestValidationError_String(t *testing.T) {
	id := NewNodeID("x")
	e := ValidationError{NodeID: id, Message: "bad", Severity: SeverityError}
	if got, want := e.Error(), "[error] node "+id.Short()+": bad"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	e = ValidationError{Message: "graph-level", Severity: SeverityWarning}
	if got, want := e.Error(), "[warning] graph-level"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
