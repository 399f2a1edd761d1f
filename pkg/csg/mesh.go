package csg

import (
	"fmt"

	"github.com/chazu/boolkit/pkg/kernel"
)

// Tessellate produces one triangle mesh per part. The parts must have been
// evaluated with the kernel behind m.
func Tessellate(parts []Part, m kernel.Mesher) ([]*kernel.Mesh, error) {
	meshes := make([]*kernel.Mesh, 0, len(parts))
	for _, p := range parts {
		mesh, err := m.ToMesh(p.Solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for part %s: %w", p.Name, err)
		}
		mesh.PartName = p.Name
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}
