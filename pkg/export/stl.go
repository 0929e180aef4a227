package export

import (
	"fmt"

	"github.com/chazu/seam/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Triangles flattens meshes into sdfx triangles.
func Triangles(meshes []*kernel.Mesh) []*sdf.Triangle3 {
	var out []*sdf.Triangle3
	for _, m := range meshes {
		at := func(i uint32) v3.Vec {
			return v3.Vec{
				X: float64(m.Vertices[3*i]),
				Y: float64(m.Vertices[3*i+1]),
				Z: float64(m.Vertices[3*i+2]),
			}
		}
		for t := 0; t < m.TriangleCount(); t++ {
			out = append(out, &sdf.Triangle3{
				at(m.Indices[3*t]), at(m.Indices[3*t+1]), at(m.Indices[3*t+2]),
			})
		}
	}
	return out
}

// WriteSTL writes every triangle of meshes to one STL file at path.
func WriteSTL(path string, meshes []*kernel.Mesh) error {
	tris := Triangles(meshes)
	if len(tris) == 0 {
		return fmt.Errorf("write stl: %w", ErrNoShapes)
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("write stl: %w", err)
	}
	return nil
}
