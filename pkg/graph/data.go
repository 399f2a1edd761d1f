package graph

import "fmt"

// Vec3 is a point or displacement in scene units.
type Vec3 struct {
	X, Y, Z float64
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// PrimitiveKind distinguishes between primitive shapes.
type PrimitiveKind int

const (
	PrimBox    PrimitiveKind = iota // axis-aligned box with its minimum corner at the origin
	PrimSphere                      // sphere centered on the origin
)

// BoxData is a box of the given size.
type BoxData struct {
	Size Vec3 `json:"size"`
}

func (BoxData) nodeData() {}

// SphereData is a sphere of the given radius.
type SphereData struct {
	Radius float64 `json:"radius"`
}

func (SphereData) nodeData() {}

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

// TransformData moves its single child. Rotation is applied first, about
// the origin, then translation.
type TransformData struct {
	Translation *Vec3 `json:"translation,omitempty"`
	Rotation    *Vec3 `json:"rotation,omitempty"` // Euler angles in degrees
}

func (TransformData) nodeData() {}

// ---------------------------------------------------------------------------
// Boolean
// ---------------------------------------------------------------------------

// BoolOp enumerates the Boolean operations.
type BoolOp int

const (
	OpUnion BoolOp = iota
	OpCommon
	OpCut     // first child minus the union of the others
	OpSection // where the boundaries of exactly two children meet
)

func (op BoolOp) String() string {
	switch op {
	case OpUnion:
		return "union"
	case OpCommon:
		return "common"
	case OpCut:
		return "cut"
	case OpSection:
		return "section"
	default:
		return fmt.Sprintf("BoolOp(%d)", int(op))
	}
}

// BooleanData combines the children of its node.
type BooleanData struct {
	Op BoolOp `json:"op"`
}

func (BooleanData) nodeData() {}

// ---------------------------------------------------------------------------
// Group
// ---------------------------------------------------------------------------

// GroupData is a named collection of parts evaluated independently.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}
