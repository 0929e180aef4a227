// Package ortho implements kernel.Kernel for solids bounded by axis-aligned
// planar faces. Boolean operations classify the cells of the grid spanned by
// all input coordinates and rebuild the boundary of the result; sewing
// merges loose faces into a closed shell within a tolerance.
package ortho

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/chazu/seam/pkg/kernel"
	"github.com/chazu/seam/pkg/topo"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// DefaultSewingTolerance is the tolerance Box uses to sew its faces.
const DefaultSewingTolerance = 0.01

// Kernel implements kernel.Kernel for axis-aligned solids.
type Kernel struct {
	logger *slog.Logger
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(k *Kernel) {
		if l != nil {
			k.logger = l
		}
	}
}

// New returns a new Kernel.
func New(opts ...Option) *Kernel {
	k := &Kernel{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Box builds a hexahedron from eight corner points: points[0:4] are the
// bottom loop and points[4:8] the top loop above them. Each side is a
// bilinear B-spline patch; the six faces are sewn into a shell and promoted
// to a solid.
func (k *Kernel) Box(points [8]v3.Vec) (topo.Shape, error) {
	quads := [6][4]int{
		{0, 3, 2, 1},
		{0, 4, 7, 3},
		{0, 4, 5, 1},
		{1, 5, 6, 2},
		{2, 6, 7, 3},
		{4, 7, 6, 5},
	}
	faces := make([]topo.Shape, 0, len(quads))
	for _, q := range quads {
		faces = append(faces, quadFace(points[q[0]], points[q[1]], points[q[2]], points[q[3]]))
	}
	shell, err := k.Sew(faces, DefaultSewingTolerance)
	if err != nil {
		return topo.Shape{}, fmt.Errorf("box: %w", err)
	}
	return k.MakeSolid(shell)
}

// BoxMinMax builds the axis-aligned box spanned by min and max.
func (k *Kernel) BoxMinMax(min, max v3.Vec) (topo.Shape, error) {
	if min.X >= max.X || min.Y >= max.Y || min.Z >= max.Z {
		return topo.Shape{}, fmt.Errorf("box: degenerate extent %v..%v", min, max)
	}
	return k.Box([8]v3.Vec{
		{X: min.X, Y: min.Y, Z: min.Z},
		{X: max.X, Y: min.Y, Z: min.Z},
		{X: max.X, Y: max.Y, Z: min.Z},
		{X: min.X, Y: max.Y, Z: min.Z},
		{X: min.X, Y: min.Y, Z: max.Z},
		{X: max.X, Y: min.Y, Z: max.Z},
		{X: max.X, Y: max.Y, Z: max.Z},
		{X: min.X, Y: max.Y, Z: max.Z},
	})
}

// quadFace builds an unsewn face with its own vertices and edges on the
// bilinear patch through a, b, c, d.
func quadFace(a, b, c, d v3.Vec) topo.Shape {
	vs := []topo.Shape{topo.MakeVertex(a), topo.MakeVertex(b), topo.MakeVertex(c), topo.MakeVertex(d)}
	edges := make([]topo.Shape, 4)
	for i := range vs {
		edges[i] = topo.MakeEdge(vs[i], vs[(i+1)%4])
	}
	return topo.MakeFace(topo.BilinearPatch(a, b, c, d), topo.MakeWire(edges...))
}

// Translate returns a copy of s moved by d.
func (k *Kernel) Translate(s topo.Shape, d v3.Vec) topo.Shape {
	return topo.Translate(s, d)
}

// MakeSolid promotes a closed shell to a solid.
func (k *Kernel) MakeSolid(shell topo.Shape) (topo.Shape, error) {
	if err := topo.Check(shell, topo.Shell); err != nil {
		return topo.Shape{}, fmt.Errorf("make solid: %w", err)
	}
	return topo.MakeSolid(shell), nil
}
