package topo

import v3 "github.com/deadsy/sdfx/vec/v3"

// Explore returns every occurrence of sub-shapes of type typ under s in
// depth-first order, with orientations composed along the path. A sub-shape
// reached through several parents is returned once per path; use Unique or
// pkg/disasm when distinct entities are wanted. When s itself has type typ
// the result is just s.
func Explore(s Shape, typ ShapeType) []Shape {
	var out []Shape
	Walk(s, typ, func(sub Shape) bool {
		out = append(out, sub)
		return true
	})
	return out
}

// Walk calls fn for every occurrence Explore would return, stopping early
// when fn returns false.
func Walk(s Shape, typ ShapeType, fn func(Shape) bool) {
	if s.IsNull() {
		return
	}
	walk(s, typ, fn)
}

func walk(s Shape, typ ShapeType, fn func(Shape) bool) bool {
	if s.t.typ == typ {
		return fn(s)
	}
	if s.t.typ > typ {
		return true
	}
	for _, c := range s.Children() {
		if !walk(c, typ, fn) {
			return false
		}
	}
	return true
}

// Unique drops later occurrences of the same TShape, keeping the first
// one's orientation.
func Unique(shapes []Shape) []Shape {
	seen := make(map[*TShape]bool, len(shapes))
	out := shapes[:0:0]
	for _, s := range shapes {
		if seen[s.t] {
			continue
		}
		seen[s.t] = true
		out = append(out, s)
	}
	return out
}

// EdgeVertices returns the start and end vertex of an edge, following the
// edge's orientation.
func EdgeVertices(e Shape) (first, last Shape) {
	mustBe(e, Edge)
	vs := e.t.children
	if len(vs) < 2 {
		return Shape{}, Shape{}
	}
	first, last = vs[0].Oriented(Forward), vs[1].Oriented(Forward)
	if e.o == Reversed {
		first, last = last, first
	}
	return first, last
}

// WireVertices returns the start vertex of every edge of w in traversal
// order, orientations composed. A reversed wire is walked backwards.
func WireVertices(w Shape) []Shape {
	mustBe(w, Wire)
	edges := w.Children()
	out := make([]Shape, 0, len(edges))
	for i := range edges {
		e := edges[i]
		if w.o == Reversed {
			e = edges[len(edges)-1-i]
		}
		first, _ := EdgeVertices(e)
		out = append(out, first)
	}
	return out
}

// WirePoints is WireVertices mapped through Point.
func WirePoints(w Shape) []v3.Vec {
	vs := WireVertices(w)
	out := make([]v3.Vec, len(vs))
	for i, v := range vs {
		out[i] = Point(v)
	}
	return out
}

// FaceLoops returns the boundary loops of a face as point lists, oriented
// as the face is. The first loop is the outer boundary.
func FaceLoops(f Shape) [][]v3.Vec {
	mustBe(f, Face)
	var out [][]v3.Vec
	for _, w := range f.Children() {
		out = append(out, WirePoints(w))
	}
	return out
}

// Points returns the distinct vertex points under s in traversal order.
func Points(s Shape) []v3.Vec {
	var out []v3.Vec
	for _, v := range Unique(Explore(s, Vertex)) {
		out = append(out, Point(v))
	}
	return out
}
