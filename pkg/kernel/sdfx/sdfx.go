// Package sdfx implements kernel.Kernel with the github.com/deadsy/sdfx
// signed distance field library. It is exact for point classification and
// approximate for meshes, and serves as the reference the B-Rep results
// are checked against.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/boolkit/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var (
	_ kernel.Kernel = (*Kernel)(nil)
	_ kernel.Mesher = (*Kernel)(nil)
)

// DefaultMeshCells controls marching cubes tessellation resolution.
const DefaultMeshCells = 200

type solid struct {
	s sdf.SDF3
}

func (s *solid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// Classify uses the sign of the distance field.
func (s *solid) Classify(p [3]float64, tol float64) kernel.Location {
	d := s.s.Evaluate(v3.Vec{X: p[0], Y: p[1], Z: p[2]})
	switch {
	case d < -tol:
		return kernel.Inside
	case d > tol:
		return kernel.Outside
	default:
		return kernel.Boundary
	}
}

// Kernel implements kernel.Kernel using sdfx.
type Kernel struct {
	// MeshCells is the marching cubes resolution along the longest axis.
	MeshCells int
}

// New returns a Kernel with the default mesh resolution.
func New() *Kernel {
	return &Kernel{MeshCells: DefaultMeshCells}
}

func unwrap(s kernel.Solid) (sdf.SDF3, error) {
	so, ok := s.(*solid)
	if !ok {
		return nil, fmt.Errorf("sdfx: foreign solid %T", s)
	}
	return so.s, nil
}

func wrap(s sdf.SDF3) kernel.Solid {
	return &solid{s: s}
}

// Box creates a box with its minimum corner at the origin. sdf.Box3D
// centers the box, so it is shifted by half its size.
func (k *Kernel) Box(x, y, z float64) (kernel.Solid, error) {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx box: %w", err)
	}
	m := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return wrap(sdf.Transform3D(s, m)), nil
}

// Sphere creates a sphere centered on the origin.
func (k *Kernel) Sphere(radius float64) (kernel.Solid, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sdfx sphere: %w", err)
	}
	return wrap(s), nil
}

func (k *Kernel) binary(a, b kernel.Solid, fn func(a, b sdf.SDF3) sdf.SDF3) (kernel.Solid, error) {
	sa, err := unwrap(a)
	if err != nil {
		return nil, err
	}
	sb, err := unwrap(b)
	if err != nil {
		return nil, err
	}
	return wrap(fn(sa, sb)), nil
}

// Union returns the union of two solids.
func (k *Kernel) Union(a, b kernel.Solid) (kernel.Solid, error) {
	return k.binary(a, b, func(a, b sdf.SDF3) sdf.SDF3 { return sdf.Union3D(a, b) })
}

// Difference returns the difference a - b.
func (k *Kernel) Difference(a, b kernel.Solid) (kernel.Solid, error) {
	return k.binary(a, b, sdf.Difference3D)
}

// Intersection returns the intersection of two solids.
func (k *Kernel) Intersection(a, b kernel.Solid) (kernel.Solid, error) {
	return k.binary(a, b, sdf.Intersect3D)
}

// Section has no volume to represent as a distance field.
func (k *Kernel) Section(a, b kernel.Solid) (kernel.Solid, error) {
	return nil, fmt.Errorf("sdfx section: %w", kernel.ErrUnsupported)
}

// Translate moves a solid by (x, y, z).
func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	so := s.(*solid)
	return wrap(sdf.Transform3D(so.s, sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *Kernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0

	m := sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
	return wrap(sdf.Transform3D(s.(*solid).s, m))
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	sdf3, err := unwrap(s)
	if err != nil {
		return nil, err
	}
	cells := k.MeshCells
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	triangles := render.ToTriangles(sdf3, render.NewMarchingCubesUniform(cells))

	numVerts := len(triangles) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		n := tri.Normal()
		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, float32(n.X), float32(n.Y), float32(n.Z))
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}
