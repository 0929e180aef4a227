package kernel

import (
	"sort"

	"github.com/chazu/seam/pkg/topo"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Component returns the coordinate of p along axis: 0 is X, 1 is Y and
// anything else is Z.
func Component(p v3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

// SetComponent sets the coordinate of p along axis.
func SetComponent(p *v3.Vec, axis int, x float64) {
	switch axis {
	case 0:
		p.X = x
	case 1:
		p.Y = x
	default:
		p.Z = x
	}
}

// PlaneAxes returns the in-plane axes of a plane normal to axis, ordered so
// that u x v points along +axis.
func PlaneAxes(axis int) (u, v int) {
	return (axis + 1) % 3, (axis + 2) % 3
}

// PlaneAxis reports the axis whose coordinate is shared by every point.
func PlaneAxis(pts []v3.Vec) (axis int, coord float64, ok bool) {
	if len(pts) < 3 {
		return 0, 0, false
	}
	for axis = 0; axis < 3; axis++ {
		c := Component(pts[0], axis)
		same := true
		for _, p := range pts[1:] {
			if Component(p, axis) != c {
				same = false
				break
			}
		}
		if same {
			return axis, c, true
		}
	}
	return 0, 0, false
}

// Point2 is a point in the plane of an axis-aligned face.
type Point2 struct{ U, V float64 }

// Project drops the axis coordinate of p.
func Project(p v3.Vec, axis int) Point2 {
	u, v := PlaneAxes(axis)
	return Point2{Component(p, u), Component(p, v)}
}

// ProjectLoops returns the boundary loops of face f projected onto the
// plane normal to axis.
func ProjectLoops(f topo.Shape, axis int) [][]Point2 {
	var out [][]Point2
	for _, l := range topo.FaceLoops(f) {
		pl := make([]Point2, len(l))
		for i, p := range l {
			pl[i] = Project(p, axis)
		}
		out = append(out, pl)
	}
	return out
}

// InsideLoops is an even-odd point-in-polygon test across all loops.
func InsideLoops(p Point2, loops [][]Point2) bool {
	in := false
	for _, loop := range loops {
		n := len(loop)
		for i, j := 0, n-1; i < n; j, i = i, i+1 {
			a, b := loop[i], loop[j]
			if (a.V > p.V) != (b.V > p.V) &&
				p.U < (b.U-a.U)*(p.V-a.V)/(b.V-a.V)+a.U {
				in = !in
			}
		}
	}
	return in
}

// LoopsOverlap reports whether two regions, each given as even-odd loops,
// share an area of positive size. The plane is cut into cells along every
// vertex coordinate of both regions and the centre of each cell is tested
// against both. That is exact when every edge is axis-parallel.
func LoopsOverlap(a, b [][]Point2) bool {
	var us, vs []float64
	for _, loops := range [][][]Point2{a, b} {
		for _, l := range loops {
			for _, p := range l {
				us = append(us, p.U)
				vs = append(vs, p.V)
			}
		}
	}
	us, vs = sortedDistinct(us), sortedDistinct(vs)
	for i := 0; i+1 < len(us); i++ {
		for j := 0; j+1 < len(vs); j++ {
			c := Point2{(us[i] + us[i+1]) / 2, (vs[j] + vs[j+1]) / 2}
			if InsideLoops(c, a) && InsideLoops(c, b) {
				return true
			}
		}
	}
	return false
}

func sortedDistinct(xs []float64) []float64 {
	sort.Float64s(xs)
	out := xs[:0]
	for i, x := range xs {
		if i == 0 || x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}
