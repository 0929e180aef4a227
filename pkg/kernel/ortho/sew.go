package ortho

import (
	"fmt"
	"sort"

	"github.com/chazu/seam/pkg/kernel"
	"github.com/chazu/seam/pkg/topo"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Sew joins faces into one closed shell. Vertices closer than tolerance are
// unified, edges are split at vertices lying on them, and coincident edges
// are merged. Faces are reoriented consistently with outward normals. The
// result is built from fresh entities; the inputs are not modified.
//
// ErrSewing is returned when the faces leave free or non-manifold edges,
// cannot be oriented consistently, or fall apart into several shells.
func (k *Kernel) Sew(faces []topo.Shape, tolerance float64) (topo.Shape, error) {
	if len(faces) == 0 {
		return topo.Shape{}, fmt.Errorf("%w: no faces", kernel.ErrSewing)
	}
	s := &sewer{tol: tolerance}
	for _, f := range faces {
		if err := topo.Check(f, topo.Face); err != nil {
			return topo.Shape{}, fmt.Errorf("sew: %w", err)
		}
		s.addFace(f)
	}
	s.splitEdges()
	s.buildEdges()

	flip, err := s.orient()
	if err != nil {
		return topo.Shape{}, err
	}

	shellFaces := make([]topo.Shape, len(s.faces))
	for i, f := range s.faces {
		shellFaces[i] = f.build(s)
		if flip[i] {
			shellFaces[i] = shellFaces[i].Reversed()
		}
	}
	k.logger.Debug("sewed shell",
		"faces", len(shellFaces), "vertices", len(s.points), "edges", len(s.edges))
	return topo.MakeShell(shellFaces...), nil
}

type sewer struct {
	tol    float64
	points []v3.Vec
	verts  []topo.Shape
	faces  []*sewFace

	edges     map[[2]int]*sewEdge
	edgeOrder []*sewEdge
}

type sewFace struct {
	surf  topo.Surface
	loops [][]int
	uses  []edgeUse
	shape topo.Shape
}

type sewEdge struct {
	shape topo.Shape
	uses  []edgeUse
}

type edgeUse struct {
	face    int
	edge    *sewEdge
	forward bool
}

// vertex returns the index of the unified vertex at p.
func (s *sewer) vertex(p v3.Vec) int {
	for i, q := range s.points {
		if p.Sub(q).Length() <= s.tol {
			return i
		}
	}
	s.points = append(s.points, p)
	s.verts = append(s.verts, topo.MakeVertex(p))
	return len(s.points) - 1
}

func (s *sewer) addFace(f topo.Shape) {
	sf := &sewFace{surf: topo.SurfaceOf(f)}
	for _, w := range f.Children() {
		var loop []int
		for _, v := range topo.WireVertices(w) {
			i := s.vertex(topo.Point(v))
			if len(loop) > 0 && loop[len(loop)-1] == i {
				continue
			}
			loop = append(loop, i)
		}
		for len(loop) > 1 && loop[0] == loop[len(loop)-1] {
			loop = loop[:len(loop)-1]
		}
		if len(loop) >= 3 {
			sf.loops = append(sf.loops, loop)
		}
	}
	s.faces = append(s.faces, sf)
}

// splitEdges inserts every unified vertex lying strictly inside a loop
// segment into that loop.
func (s *sewer) splitEdges() {
	for _, f := range s.faces {
		for li, loop := range f.loops {
			var out []int
			for i, a := range loop {
				b := loop[(i+1)%len(loop)]
				out = append(out, a)
				out = append(out, s.between(a, b)...)
			}
			f.loops[li] = out
		}
	}
}

func (s *sewer) between(a, b int) []int {
	seg := topo.Segment{A: s.points[a], B: s.points[b]}
	length := s.points[b].Sub(s.points[a]).Length()
	if length == 0 {
		return nil
	}
	type hit struct {
		t float64
		i int
	}
	var hits []hit
	eps := s.tol / length
	for i, p := range s.points {
		if i == a || i == b {
			continue
		}
		t, d := seg.Project(p)
		if d <= s.tol && t > eps && t < 1-eps {
			hits = append(hits, hit{t, i})
		}
	}
	sort.Slice(hits, func(x, y int) bool { return hits[x].t < hits[y].t })
	out := make([]int, len(hits))
	for i, h := range hits {
		out[i] = h.i
	}
	return out
}

func (s *sewer) buildEdges() {
	s.edges = make(map[[2]int]*sewEdge)
	for fi, f := range s.faces {
		for _, loop := range f.loops {
			for i, a := range loop {
				b := loop[(i+1)%len(loop)]
				key := [2]int{a, b}
				if b < a {
					key = [2]int{b, a}
				}
				e, ok := s.edges[key]
				if !ok {
					e = &sewEdge{shape: topo.MakeEdge(s.verts[key[0]], s.verts[key[1]])}
					s.edges[key] = e
					s.edgeOrder = append(s.edgeOrder, e)
				}
				u := edgeUse{face: fi, edge: e, forward: a == key[0]}
				e.uses = append(e.uses, u)
				f.uses = append(f.uses, u)
			}
		}
	}
}

// orient chooses a flip per face so every manifold edge is traversed once
// in each direction, then flips everything when the enclosed volume is
// negative.
func (s *sewer) orient() ([]bool, error) {
	var free, nonManifold int
	for _, e := range s.edgeOrder {
		switch {
		case len(e.uses) == 1:
			free++
		case len(e.uses) > 2:
			nonManifold++
		}
	}
	if free > 0 || nonManifold > 0 {
		return nil, fmt.Errorf("%w: %d free edges, %d non-manifold edges",
			kernel.ErrSewing, free, nonManifold)
	}

	flip := make([]bool, len(s.faces))
	visited := make([]bool, len(s.faces))
	shells := 0
	conflicts := 0
	for start := range s.faces {
		if visited[start] {
			continue
		}
		shells++
		visited[start] = true
		queue := []int{start}
		for len(queue) > 0 {
			f := queue[0]
			queue = queue[1:]
			for _, u := range s.faces[f].uses {
				eff := u.forward != flip[f]
				for _, o := range u.edge.uses {
					if o.face == f {
						continue
					}
					if !visited[o.face] {
						visited[o.face] = true
						flip[o.face] = o.forward == eff
						queue = append(queue, o.face)
					} else if (o.forward != flip[o.face]) == eff {
						conflicts++
					}
				}
			}
		}
	}
	if shells > 1 {
		return nil, fmt.Errorf("%w: faces form %d separate shells", kernel.ErrSewing, shells)
	}
	if conflicts > 0 {
		return nil, fmt.Errorf("%w: faces cannot be oriented consistently", kernel.ErrSewing)
	}

	var vol float64
	for i, f := range s.faces {
		for _, loop := range f.loops {
			pts := make([]v3.Vec, len(loop))
			for j, vi := range loop {
				pts[j] = s.points[vi]
			}
			if flip[i] {
				reversePoints(pts)
			}
			vol += loopVolume6(pts)
		}
	}
	if vol == 0 {
		return nil, fmt.Errorf("%w: shell encloses no volume", kernel.ErrSewing)
	}
	if vol < 0 {
		for i := range flip {
			flip[i] = !flip[i]
		}
	}
	return flip, nil
}

func (f *sewFace) build(s *sewer) topo.Shape {
	var wires []topo.Shape
	k := 0
	for _, loop := range f.loops {
		edges := make([]topo.Shape, len(loop))
		for i := range loop {
			u := f.uses[k]
			k++
			if u.forward {
				edges[i] = u.edge.shape
			} else {
				edges[i] = u.edge.shape.Reversed()
			}
		}
		wires = append(wires, topo.MakeWire(edges...))
	}
	f.shape = topo.MakeFace(f.surf, wires...)
	return f.shape
}

func reversePoints(pts []v3.Vec) {
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
}
