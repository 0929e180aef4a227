// Package sdfx renders B-rep solids through the github.com/deadsy/sdfx
// signed distance toolkit. It produces smooth preview meshes independent of
// the face structure, which makes gaps or overlaps between glued solids
// visible.
package sdfx

import (
	"fmt"

	"github.com/chazu/seam/pkg/disasm"
	"github.com/chazu/seam/pkg/kernel"
	"github.com/chazu/seam/pkg/kernel/ortho"
	"github.com/chazu/seam/pkg/topo"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ sdf.SDF3 = (*solidSDF)(nil)

// defaultMeshCells controls marching cubes tessellation resolution.
const defaultMeshCells = 200

// solidSDF is the signed distance to the boundary of one B-rep solid,
// negative inside.
type solidSDF struct {
	c  *ortho.Classifier
	bb sdf.Box3
}

func (s *solidSDF) Evaluate(p v3.Vec) float64 {
	d := s.c.Distance(p)
	if s.c.Contains(p) {
		return -d
	}
	return d
}

func (s *solidSDF) BoundingBox() sdf.Box3 {
	return s.bb
}

// SDF returns the signed distance function of s. A shape with several
// solids gives their union.
func SDF(s topo.Shape) (sdf.SDF3, error) {
	if s.IsNull() {
		return nil, fmt.Errorf("sdf: %w: null shape", topo.ErrWrongType)
	}
	var solids []topo.Shape
	if s.Type() == topo.Solid {
		solids = []topo.Shape{s}
	} else {
		solids = disasm.Disassemble(s).Solids()
	}
	if len(solids) == 0 {
		return nil, fmt.Errorf("sdf: %w: %s has no solids", topo.ErrWrongType, s.Type())
	}

	parts := make([]sdf.SDF3, 0, len(solids))
	for _, solid := range solids {
		c, err := ortho.NewClassifier(solid)
		if err != nil {
			return nil, fmt.Errorf("sdf: solid %d: %w", solid.ID(), err)
		}
		bb := kernel.BoundingBox(solid)
		// Pad so marching cubes sees the surface cross zero.
		size := bb.Max.Sub(bb.Min)
		pad := max(size.X, size.Y, size.Z) * 0.05
		bb.Min = bb.Min.Sub(v3.Vec{X: pad, Y: pad, Z: pad})
		bb.Max = bb.Max.Add(v3.Vec{X: pad, Y: pad, Z: pad})
		parts = append(parts, &solidSDF{c: c, bb: bb})
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return sdf.Union3D(parts...), nil
}

// Mesher builds preview meshes with marching cubes.
type Mesher struct {
	cells int
}

// Option configures a Mesher.
type Option func(*Mesher)

// WithCells sets the number of marching cubes cells along the longest axis.
func WithCells(n int) Option {
	return func(m *Mesher) {
		if n > 0 {
			m.cells = n
		}
	}
}

// New returns a new Mesher.
func New(opts ...Option) *Mesher {
	m := &Mesher{cells: defaultMeshCells}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ToMesh converts every solid under s to one triangle mesh using marching
// cubes.
func (m *Mesher) ToMesh(s topo.Shape) (*kernel.Mesh, error) {
	sdf3, err := SDF(s)
	if err != nil {
		return nil, err
	}

	renderer := render.NewMarchingCubesUniform(m.cells)
	triangles := render.ToTriangles(sdf3, renderer)

	numTri := len(triangles)
	numVerts := numTri * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
		PartName: "preview",
	}, nil
}
