// Package tessellate triangulates the faces of B-rep shapes. One mesh is
// produced per solid.
package tessellate

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/seam/pkg/kernel"
	"github.com/chazu/seam/pkg/topo"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Tessellate walks s and produces one triangle mesh per solid. Shells and
// faces that are not part of a solid get a mesh of their own. The
// tessellator is read-only and never mutates s.
func Tessellate(s topo.Shape) ([]*kernel.Mesh, error) {
	if s.IsNull() {
		return nil, nil
	}
	t := &tessellator{}
	if err := t.walk(s); err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}
	return t.meshes, nil
}

type tessellator struct {
	meshes []*kernel.Mesh
	count  map[topo.ShapeType]int
}

// walk dispatches on the shape type, recursing through containers.
func (t *tessellator) walk(s topo.Shape) error {
	switch s.Type() {
	case topo.Compound, topo.CompSolid:
		for _, c := range s.Children() {
			if err := t.walk(c); err != nil {
				return err
			}
		}
		return nil

	case topo.Solid, topo.Shell, topo.Face:
		return t.handlePart(s)

	default:
		return fmt.Errorf("cannot tessellate a %s", s.Type())
	}
}

// handlePart meshes every face under s into one mesh.
func (t *tessellator) handlePart(s topo.Shape) error {
	if t.count == nil {
		t.count = make(map[topo.ShapeType]int)
	}
	t.count[s.Type()]++

	m := &kernel.Mesh{PartName: fmt.Sprintf("%s-%d", typeName(s.Type()), t.count[s.Type()])}
	for _, f := range topo.Explore(s, topo.Face) {
		if err := addFace(m, f); err != nil {
			return fmt.Errorf("%s face %d: %w", m.PartName, f.ID(), err)
		}
	}
	t.meshes = append(t.meshes, m)
	return nil
}

func typeName(typ topo.ShapeType) string {
	switch typ {
	case topo.Solid:
		return "solid"
	case topo.Shell:
		return "shell"
	default:
		return "face"
	}
}

// addFace appends the triangles of f, wound so that they face along the
// face's orientation.
func addFace(m *kernel.Mesh, f topo.Shape) error {
	loops := topo.FaceLoops(f)
	if len(loops) == 0 || len(loops[0]) < 3 {
		return fmt.Errorf("face has no boundary")
	}
	n := newell(loops[0])
	if n.Length() == 0 {
		return fmt.Errorf("face has zero area")
	}
	n = n.Normalize()

	if axis, ok := normalAxis(n); ok {
		addGridFace(m, loops, axis, n)
		return nil
	}
	addFan(m, loops[0], n)
	return nil
}

// newell returns the area-weighted normal of a closed loop.
func newell(loop []v3.Vec) v3.Vec {
	var n v3.Vec
	for i := range loop {
		a, b := loop[i], loop[(i+1)%len(loop)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n
}

// normalAxis reports the coordinate axis n points along, if any.
func normalAxis(n v3.Vec) (int, bool) {
	const eps = 1e-12
	switch {
	case math.Abs(n.Y) < eps && math.Abs(n.Z) < eps:
		return 0, true
	case math.Abs(n.X) < eps && math.Abs(n.Z) < eps:
		return 1, true
	case math.Abs(n.X) < eps && math.Abs(n.Y) < eps:
		return 2, true
	}
	return 0, false
}

func comp(p v3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

func setComp(p *v3.Vec, axis int, x float64) {
	switch axis {
	case 0:
		p.X = x
	case 1:
		p.Y = x
	default:
		p.Z = x
	}
}

// addGridFace splits an axis-aligned face into the rectangles of the grid
// spanned by its own vertex coordinates and keeps those inside the face.
// Holes are handled by the even-odd rule.
func addGridFace(m *kernel.Mesh, loops [][]v3.Vec, axis int, n v3.Vec) {
	u, v := (axis+1)%3, (axis+2)%3
	plane := comp(loops[0][0], axis)
	us, vs := coords(loops, u), coords(loops, v)
	flip := comp(n, axis) < 0

	at := func(a, b float64) v3.Vec {
		var p v3.Vec
		setComp(&p, axis, plane)
		setComp(&p, u, a)
		setComp(&p, v, b)
		return p
	}
	for i := 0; i+1 < len(us); i++ {
		for j := 0; j+1 < len(vs); j++ {
			cu, cv := (us[i]+us[i+1])/2, (vs[j]+vs[j+1])/2
			if !inside(cu, cv, loops, u, v) {
				continue
			}
			p00, p10 := at(us[i], vs[j]), at(us[i+1], vs[j])
			p11, p01 := at(us[i+1], vs[j+1]), at(us[i], vs[j+1])
			if flip {
				p10, p01 = p01, p10
			}
			addTriangle(m, p00, p10, p11, n)
			addTriangle(m, p00, p11, p01, n)
		}
	}
}

func coords(loops [][]v3.Vec, axis int) []float64 {
	seen := make(map[float64]bool)
	var out []float64
	for _, l := range loops {
		for _, p := range l {
			c := comp(p, axis)
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	sort.Float64s(out)
	return out
}

// inside is an even-odd point-in-polygon test across all loops.
func inside(pu, pv float64, loops [][]v3.Vec, u, v int) bool {
	in := false
	for _, loop := range loops {
		for i, j := 0, len(loop)-1; i < len(loop); j, i = i, i+1 {
			au, av := comp(loop[i], u), comp(loop[i], v)
			bu, bv := comp(loop[j], u), comp(loop[j], v)
			if (av > pv) != (bv > pv) && pu < (bu-au)*(pv-av)/(bv-av)+au {
				in = !in
			}
		}
	}
	return in
}

// addFan triangulates a convex outer loop around its first point.
func addFan(m *kernel.Mesh, loop []v3.Vec, n v3.Vec) {
	for i := 1; i+1 < len(loop); i++ {
		addTriangle(m, loop[0], loop[i], loop[i+1], n)
	}
}

func addTriangle(m *kernel.Mesh, a, b, c, n v3.Vec) {
	m.AddTriangle(f32(a), f32(b), f32(c), f32(n))
}

func f32(p v3.Vec) [3]float32 {
	return [3]float32{float32(p.X), float32(p.Y), float32(p.Z)}
}
