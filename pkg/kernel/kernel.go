// Package kernel defines the solid modeling interface the CSG evaluator
// works against. Two implementations exist: brep, the exact boundary
// representation engine, and sdfx, a signed distance field kernel used as
// a reference and for preview meshes.
package kernel

import "errors"

// ErrUnsupported is returned by kernels that lack an operation.
var ErrUnsupported = errors.New("operation not supported by this kernel")

// Location is where a point lies relative to a solid.
type Location int

const (
	Outside Location = iota
	Inside
	Boundary
)

func (l Location) String() string {
	switch l {
	case Inside:
		return "inside"
	case Boundary:
		return "boundary"
	default:
		return "outside"
	}
}

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
	// Classify locates p relative to the solid. Points within tol of the
	// boundary are Boundary.
	Classify(p [3]float64, tol float64) Location
}

// Kernel builds and combines solids.
type Kernel interface {
	// Primitives. A box has its minimum corner at the origin; a sphere is
	// centered on it.
	Box(x, y, z float64) (Solid, error)
	Sphere(radius float64) (Solid, error)

	// Boolean operations
	Union(a, b Solid) (Solid, error)
	Difference(a, b Solid) (Solid, error)
	Intersection(a, b Solid) (Solid, error)
	// Section returns where the boundaries of a and b meet.
	Section(a, b Solid) (Solid, error)

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees
}

// Mesher is implemented by kernels that can tessellate their solids.
type Mesher interface {
	ToMesh(s Solid) (*Mesh, error)
}
