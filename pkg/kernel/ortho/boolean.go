package ortho

import (
	"fmt"
	"sort"

	"github.com/chazu/seam/pkg/kernel"
	"github.com/chazu/seam/pkg/topo"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Cut returns a minus b.
func (k *Kernel) Cut(a, b topo.Shape) (topo.Shape, error) {
	return k.boolean("cut", a, b, func(inA, inB bool) bool { return inA && !inB })
}

// Common returns the intersection of a and b.
func (k *Kernel) Common(a, b topo.Shape) (topo.Shape, error) {
	return k.boolean("common", a, b, func(inA, inB bool) bool { return inA && inB })
}

// Fuse returns the union of a and b.
func (k *Kernel) Fuse(a, b topo.Shape) (topo.Shape, error) {
	return k.boolean("fuse", a, b, func(inA, inB bool) bool { return inA || inB })
}

func (k *Kernel) boolean(name string, a, b topo.Shape, op func(inA, inB bool) bool) (topo.Shape, error) {
	ma, err := newModel(a)
	if err != nil {
		return topo.Shape{}, fmt.Errorf("%s: first operand: %w", name, err)
	}
	mb, err := newModel(b)
	if err != nil {
		return topo.Shape{}, fmt.Errorf("%s: second operand: %w", name, err)
	}

	g := newGrid(ma, mb)
	filled := 0
	g.classify(func(c v3.Vec) bool {
		in := op(ma.contains(c), mb.contains(c))
		if in {
			filled++
		}
		return in
	})
	if filled == 0 {
		return topo.Shape{}, fmt.Errorf("%s: %w", name, kernel.ErrEmptyResult)
	}

	out := g.boundary()
	k.logger.Debug("boolean",
		"op", name, "cells", len(g.in), "filled", filled,
		"faces", len(topo.Explore(out, topo.Face)))
	return out, nil
}

// ---------------------------------------------------------------------------
// Solid model for point classification
// ---------------------------------------------------------------------------

type planarFace struct {
	axis  int
	coord float64
	loops [][]pt2
}

type model struct {
	faces  []planarFace
	coords [3][]float64
}

func newModel(s topo.Shape) (*model, error) {
	if s.IsNull() {
		return nil, fmt.Errorf("%w: null shape", topo.ErrWrongType)
	}
	faces := topo.Unique(topo.Explore(s, topo.Face))
	if len(faces) == 0 {
		return nil, fmt.Errorf("%w: %s has no faces", topo.ErrWrongType, s.Type())
	}
	m := &model{}
	for _, f := range faces {
		loops := topo.FaceLoops(f)
		var all []v3.Vec
		for _, l := range loops {
			if !axisParallel(l) {
				return nil, fmt.Errorf("%w: face %d has a slanted edge", kernel.ErrNotAxisAligned, f.ID())
			}
			all = append(all, l...)
		}
		axis, coord, ok := kernel.PlaneAxis(all)
		if !ok {
			return nil, fmt.Errorf("%w: face %d", kernel.ErrNotAxisAligned, f.ID())
		}
		pf := planarFace{axis: axis, coord: coord, loops: kernel.ProjectLoops(f, axis)}
		for _, p := range all {
			for ax := 0; ax < 3; ax++ {
				m.coords[ax] = append(m.coords[ax], kernel.Component(p, ax))
			}
		}
		m.faces = append(m.faces, pf)
	}
	return m, nil
}

// contains casts a ray from c towards +X and counts crossings with faces
// normal to X. c must not lie on any face.
func (m *model) contains(c v3.Vec) bool {
	p := kernel.Project(c, 0)
	in := false
	for _, f := range m.faces {
		if f.axis != 0 || f.coord <= c.X {
			continue
		}
		if kernel.InsideLoops(p, f.loops) {
			in = !in
		}
	}
	return in
}

// ---------------------------------------------------------------------------
// Cell grid
// ---------------------------------------------------------------------------

type grid struct {
	ax [3][]float64
	n  [3]int
	in []bool
}

func newGrid(models ...*model) *grid {
	g := &grid{}
	for axis := 0; axis < 3; axis++ {
		var all []float64
		for _, m := range models {
			all = append(all, m.coords[axis]...)
		}
		sort.Float64s(all)
		var uniq []float64
		for i, x := range all {
			if i == 0 || x != all[i-1] {
				uniq = append(uniq, x)
			}
		}
		g.ax[axis] = uniq
		g.n[axis] = len(uniq) - 1
	}
	g.in = make([]bool, g.n[0]*g.n[1]*g.n[2])
	return g
}

func (g *grid) index(c [3]int) int {
	return c[0] + g.n[0]*(c[1]+g.n[1]*c[2])
}

// filled reports whether cell c is inside the result; cells outside the
// grid are empty.
func (g *grid) filled(c [3]int) bool {
	for axis := 0; axis < 3; axis++ {
		if c[axis] < 0 || c[axis] >= g.n[axis] {
			return false
		}
	}
	return g.in[g.index(c)]
}

func (g *grid) classify(inside func(v3.Vec) bool) {
	for z := 0; z < g.n[2]; z++ {
		for y := 0; y < g.n[1]; y++ {
			for x := 0; x < g.n[0]; x++ {
				c := v3.Vec{
					X: (g.ax[0][x] + g.ax[0][x+1]) / 2,
					Y: (g.ax[1][y] + g.ax[1][y+1]) / 2,
					Z: (g.ax[2][z] + g.ax[2][z+1]) / 2,
				}
				g.in[g.index([3]int{x, y, z})] = inside(c)
			}
		}
	}
}

func (g *grid) point(c [3]int) v3.Vec {
	return v3.Vec{X: g.ax[0][c[0]], Y: g.ax[1][c[1]], Z: g.ax[2][c[2]]}
}
