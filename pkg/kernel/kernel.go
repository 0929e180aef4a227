// Package kernel defines the geometry kernel interface the gluing algorithms
// depend on. Implementations build solids, run boolean operations, sew loose
// faces into shells and promote shells to solids. The kernel abstraction
// allows swapping backends without changing the rest of the system.
package kernel

import (
	"errors"
	"math"

	"github.com/chazu/seam/pkg/topo"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var (
	// ErrSewing is returned when faces do not close into a single watertight
	// shell.
	ErrSewing = errors.New("kernel: sewing did not produce a closed shell")
	// ErrNotAxisAligned is returned by kernels restricted to axis-aligned
	// planar faces when given anything else.
	ErrNotAxisAligned = errors.New("kernel: face is not an axis-aligned plane")
	// ErrEmptyResult is returned when a boolean operation leaves no volume.
	ErrEmptyResult = errors.New("kernel: boolean result is empty")
)

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives
	Box(points [8]v3.Vec) (topo.Shape, error)
	BoxMinMax(min, max v3.Vec) (topo.Shape, error)

	// Boolean operations
	Cut(a, b topo.Shape) (topo.Shape, error)
	Common(a, b topo.Shape) (topo.Shape, error)
	Fuse(a, b topo.Shape) (topo.Shape, error)

	// Transforms
	Translate(s topo.Shape, d v3.Vec) topo.Shape

	// Sewing
	Sew(faces []topo.Shape, tolerance float64) (topo.Shape, error)
	MakeSolid(shell topo.Shape) (topo.Shape, error)
}

// BoundingBox returns the axis-aligned bounds of every vertex under s.
func BoundingBox(s topo.Shape) sdf.Box3 {
	pts := topo.Points(s)
	if len(pts) == 0 {
		return sdf.Box3{}
	}
	bb := sdf.Box3{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		bb.Min = v3.Vec{X: math.Min(bb.Min.X, p.X), Y: math.Min(bb.Min.Y, p.Y), Z: math.Min(bb.Min.Z, p.Z)}
		bb.Max = v3.Vec{X: math.Max(bb.Max.X, p.X), Y: math.Max(bb.Max.Y, p.Y), Z: math.Max(bb.Max.Z, p.Z)}
	}
	return bb
}
