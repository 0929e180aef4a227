package ortho

import (
	"github.com/chazu/seam/pkg/kernel"
	"github.com/chazu/seam/pkg/topo"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

type cell2 [2]int

type cell3 [3]int

func less3(a, b cell3) bool {
	for i := 0; i < 3; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// gridFace is one face of the result in grid coordinates. loops[0] is the
// outer loop, oriented counter-clockwise about the outward normal.
type gridFace struct {
	axis  int
	plane int
	sign  int
	loops [][]cell3
}

// boundary rebuilds the B-rep of the filled cells.
func (g *grid) boundary() topo.Shape {
	var faces []gridFace
	for axis := 0; axis < 3; axis++ {
		u, v := kernel.PlaneAxes(axis)
		for p := 0; p <= g.n[axis]; p++ {
			for _, sign := range []int{1, -1} {
				mask := make([][]bool, g.n[u])
				any := false
				for i := range mask {
					mask[i] = make([]bool, g.n[v])
					for j := range mask[i] {
						below := g.filled(g.cell(axis, p-1, i, j))
						above := g.filled(g.cell(axis, p, i, j))
						if (sign > 0 && below && !above) || (sign < 0 && above && !below) {
							mask[i][j] = true
							any = true
						}
					}
				}
				if any {
					faces = append(faces, g.planeFaces(mask, axis, p, sign)...)
				}
			}
		}
	}
	return g.build(faces, cornerSet(faces))
}

func (g *grid) cell(axis, p, i, j int) cell3 {
	u, v := kernel.PlaneAxes(axis)
	var c cell3
	c[axis], c[u], c[v] = p, i, j
	return c
}

// planeFaces splits the facets of one plane into connected regions and
// traces the loops of each region.
func (g *grid) planeFaces(mask [][]bool, axis, p, sign int) []gridFace {
	var out []gridFace
	seen := make([][]bool, len(mask))
	for i := range seen {
		seen[i] = make([]bool, len(mask[i]))
	}
	for i := range mask {
		for j := range mask[i] {
			if !mask[i][j] || seen[i][j] {
				continue
			}
			region := flood(mask, seen, cell2{i, j})
			out = append(out, g.regionFaces(region, axis, p, sign)...)
		}
	}
	return out
}

func flood(mask, seen [][]bool, start cell2) [][]bool {
	region := make([][]bool, len(mask))
	for i := range region {
		region[i] = make([]bool, len(mask[i]))
	}
	stack := []cell2{start}
	seen[start[0]][start[1]] = true
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		region[c[0]][c[1]] = true
		for _, d := range []cell2{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			n := cell2{c[0] + d[0], c[1] + d[1]}
			if n[0] < 0 || n[0] >= len(mask) || n[1] < 0 || n[1] >= len(mask[n[0]]) {
				continue
			}
			if mask[n[0]][n[1]] && !seen[n[0]][n[1]] {
				seen[n[0]][n[1]] = true
				stack = append(stack, n)
			}
		}
	}
	return region
}

type dedge struct{ from, to cell2 }

func (e dedge) dir() cell2 { return cell2{e.to[0] - e.from[0], e.to[1] - e.from[1]} }

// turnRank orders a candidate direction after incoming direction d:
// left turn first, then straight, then right.
func turnRank(d, nd cell2) int {
	switch nd {
	case cell2{-d[1], d[0]}:
		return 0
	case d:
		return 1
	case cell2{d[1], -d[0]}:
		return 2
	}
	return 3
}

// traceLoops returns the boundary loops of a region counter-clockwise
// around the region (the region lies to the left). At pinch points the
// left-most turn is taken so loops never cross.
func traceLoops(region [][]bool) [][]cell2 {
	in := func(i, j int) bool {
		return i >= 0 && i < len(region) && j >= 0 && j < len(region[i]) && region[i][j]
	}
	var edges []dedge
	out := make(map[cell2][]int)
	add := func(a, b cell2) {
		out[a] = append(out[a], len(edges))
		edges = append(edges, dedge{a, b})
	}
	for i := range region {
		for j := range region[i] {
			if !region[i][j] {
				continue
			}
			if !in(i, j-1) {
				add(cell2{i, j}, cell2{i + 1, j})
			}
			if !in(i+1, j) {
				add(cell2{i + 1, j}, cell2{i + 1, j + 1})
			}
			if !in(i, j+1) {
				add(cell2{i + 1, j + 1}, cell2{i, j + 1})
			}
			if !in(i-1, j) {
				add(cell2{i, j + 1}, cell2{i, j})
			}
		}
	}

	used := make([]bool, len(edges))
	var loops [][]cell2
	for start := range edges {
		if used[start] {
			continue
		}
		var loop []cell2
		cur := start
		for steps := 0; steps <= len(edges); steps++ {
			used[cur] = true
			e := edges[cur]
			loop = append(loop, e.from)
			next, best := -1, 4
			for _, c := range out[e.to] {
				if r := turnRank(e.dir(), edges[c].dir()); r < best {
					next, best = c, r
				}
			}
			if next < 0 || next == start || used[next] {
				break
			}
			cur = next
		}
		loops = append(loops, loop)
	}
	return loops
}

func toPt2(loop []cell2) []pt2 {
	out := make([]pt2, len(loop))
	for i, c := range loop {
		out[i] = pt2{U: float64(c[0]), V: float64(c[1])}
	}
	return out
}

// regionFaces turns the loops of one connected region into faces, pairing
// each hole with the outer loop around it.
func (g *grid) regionFaces(region [][]bool, axis, p, sign int) []gridFace {
	var outers, holes [][]cell2
	for _, l := range traceLoops(region) {
		if area2(toPt2(l)) > 0 {
			outers = append(outers, l)
		} else {
			holes = append(holes, l)
		}
	}

	faces := make([]gridFace, len(outers))
	for i, o := range outers {
		faces[i] = gridFace{axis: axis, plane: p, sign: sign}
		faces[i].loops = append(faces[i].loops, g.lift(o, axis, p, sign))
	}
	for _, h := range holes {
		d := dedge{h[0], h[1%len(h)]}.dir()
		inner := pt2{
			U: float64(h[0][0]+h[1%len(h)][0])/2 - 0.25*float64(d[1]),
			V: float64(h[0][1]+h[1%len(h)][1])/2 + 0.25*float64(d[0]),
		}
		for i, o := range outers {
			if kernel.InsideLoops(inner, [][]pt2{toPt2(o)}) {
				faces[i].loops = append(faces[i].loops, g.lift(h, axis, p, sign))
				break
			}
		}
	}
	return faces
}

// lift maps a plane loop to grid points, reversing it for faces whose
// outward normal points along -axis.
func (g *grid) lift(loop []cell2, axis, p, sign int) []cell3 {
	out := make([]cell3, len(loop))
	for i, c := range loop {
		out[i] = g.cell(axis, p, c[0], c[1])
	}
	if sign < 0 {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// cornerSet collects every loop point where the loop changes direction.
// Keeping exactly these points on every loop makes adjacent faces split
// their common edges at the same places.
func cornerSet(faces []gridFace) map[cell3]bool {
	set := make(map[cell3]bool)
	for _, f := range faces {
		for _, loop := range f.loops {
			n := len(loop)
			for i := range loop {
				prev, cur, next := loop[(i+n-1)%n], loop[i], loop[(i+1)%n]
				if sub3(cur, prev) != sub3(next, cur) {
					set[cur] = true
				}
			}
		}
	}
	return set
}

func sub3(a, b cell3) cell3 {
	return cell3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

type edgeKey [2]cell3

func (g *grid) build(faces []gridFace, corners map[cell3]bool) topo.Shape {
	verts := make(map[cell3]topo.Shape)
	edges := make(map[edgeKey]topo.Shape)
	vertex := func(c cell3) topo.Shape {
		v, ok := verts[c]
		if !ok {
			v = topo.MakeVertex(g.point(c))
			verts[c] = v
		}
		return v
	}
	edge := func(a, b cell3) (topo.Shape, edgeKey) {
		key, fwd := edgeKey{a, b}, true
		if less3(b, a) {
			key, fwd = edgeKey{b, a}, false
		}
		e, ok := edges[key]
		if !ok {
			e = topo.MakeEdge(vertex(key[0]), vertex(key[1]))
			edges[key] = e
		}
		if !fwd {
			return e.Reversed(), key
		}
		return e, key
	}

	shapes := make([]topo.Shape, len(faces))
	volumes := make([]float64, len(faces))
	owners := make(map[edgeKey][]int)
	for fi, f := range faces {
		var wires []topo.Shape
		for _, loop := range f.loops {
			var kept []cell3
			for _, c := range loop {
				if corners[c] {
					kept = append(kept, c)
				}
			}
			pts := make([]v3.Vec, len(kept))
			es := make([]topo.Shape, len(kept))
			for i, c := range kept {
				pts[i] = g.point(c)
				e, key := edge(c, kept[(i+1)%len(kept)])
				es[i] = e
				owners[key] = append(owners[key], fi)
			}
			volumes[fi] += loopVolume6(pts)
			wires = append(wires, topo.MakeWire(es...))
		}
		shapes[fi] = topo.MakeFace(g.plane(f), wires...)
	}

	return assemble(shapes, volumes, owners)
}

func (g *grid) plane(f gridFace) topo.Plane {
	u, v := kernel.PlaneAxes(f.axis)
	xd, yd := unit(u), unit(v)
	if f.sign < 0 {
		xd, yd = yd, xd
	}
	return topo.Plane{Origin: g.point(f.loops[0][0]), XDir: xd, YDir: yd}
}

// assemble groups edge-connected faces into shells. Shells enclosing a
// positive volume become solids; negative ones are cavities and are added
// to the first solid whose bounds contain them.
func assemble(faces []topo.Shape, volumes []float64, owners map[edgeKey][]int) topo.Shape {
	parent := make([]int, len(faces))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for _, fs := range owners {
		for _, f := range fs[1:] {
			parent[find(f)] = find(fs[0])
		}
	}

	var roots []int
	groups := make(map[int][]int)
	for i := range faces {
		r := find(i)
		if _, ok := groups[r]; !ok {
			roots = append(roots, r)
		}
		groups[r] = append(groups[r], i)
	}

	type shellInfo struct {
		shell  topo.Shape
		volume float64
		min    v3.Vec
		max    v3.Vec
	}
	var outer, cavities []shellInfo
	for _, r := range roots {
		var fs []topo.Shape
		var vol float64
		for _, i := range groups[r] {
			fs = append(fs, faces[i])
			vol += volumes[i]
		}
		sh := topo.MakeShell(fs...)
		info := shellInfo{shell: sh, volume: vol}
		pts := topo.Points(sh)
		info.min, info.max = pts[0], pts[0]
		for _, p := range pts[1:] {
			info.min = v3.Vec{X: min(info.min.X, p.X), Y: min(info.min.Y, p.Y), Z: min(info.min.Z, p.Z)}
			info.max = v3.Vec{X: max(info.max.X, p.X), Y: max(info.max.Y, p.Y), Z: max(info.max.Z, p.Z)}
		}
		if vol < 0 {
			cavities = append(cavities, info)
		} else {
			outer = append(outer, info)
		}
	}

	shells := make([][]topo.Shape, len(outer))
	for i, o := range outer {
		shells[i] = []topo.Shape{o.shell}
	}
	for _, c := range cavities {
		placed := false
		for i, o := range outer {
			if o.min.X <= c.min.X && o.min.Y <= c.min.Y && o.min.Z <= c.min.Z &&
				c.max.X <= o.max.X && c.max.Y <= o.max.Y && c.max.Z <= o.max.Z {
				shells[i] = append(shells[i], c.shell)
				placed = true
				break
			}
		}
		if !placed {
			shells = append(shells, []topo.Shape{c.shell})
		}
	}

	solids := make([]topo.Shape, len(shells))
	for i, s := range shells {
		solids[i] = topo.MakeSolid(s...)
	}
	if len(solids) == 1 {
		return solids[0]
	}
	return topo.MakeCompound(solids...)
}
