package topo

import v3 "github.com/deadsy/sdfx/vec/v3"

func newShape(typ ShapeType, children []Shape) Shape {
	return Shape{t: &TShape{id: nextID(), typ: typ, children: children}}
}

// MakeVertex builds a vertex at p.
func MakeVertex(p v3.Vec) Shape {
	s := newShape(Vertex, nil)
	s.t.point = p
	return s
}

// MakeEdge builds a straight edge from v1 to v2. The first vertex is stored
// Forward and the last Reversed.
func MakeEdge(v1, v2 Shape) Shape {
	mustBe(v1, Vertex)
	mustBe(v2, Vertex)
	s := newShape(Edge, []Shape{v1.Oriented(Forward), v2.Oriented(Reversed)})
	s.t.curve = Segment{A: Point(v1), B: Point(v2)}
	return s
}

// MakeWire builds a wire from edges in traversal order.
func MakeWire(edges ...Shape) Shape {
	return newShape(Wire, append([]Shape(nil), edges...))
}

// MakeFace builds a face on surf bounded by wires; the first wire is the
// outer boundary.
func MakeFace(surf Surface, wires ...Shape) Shape {
	s := newShape(Face, append([]Shape(nil), wires...))
	s.t.surface = surf
	return s
}

// MakeShell builds a shell from faces.
func MakeShell(faces ...Shape) Shape {
	return newShape(Shell, append([]Shape(nil), faces...))
}

// MakeSolid builds a solid from shells.
func MakeSolid(shells ...Shape) Shape {
	return newShape(Solid, append([]Shape(nil), shells...))
}

// MakeCompSolid builds a composite solid.
func MakeCompSolid(solids ...Shape) Shape {
	return newShape(CompSolid, append([]Shape(nil), solids...))
}

// MakeCompound groups arbitrary shapes.
func MakeCompound(shapes ...Shape) Shape {
	return newShape(Compound, append([]Shape(nil), shapes...))
}

// rebuild returns a fresh TShape carrying the geometry of t and the given
// children.
func rebuild(t *TShape, children []Shape) Shape {
	return Shape{t: &TShape{
		id:       nextID(),
		typ:      t.typ,
		children: children,
		point:    t.point,
		curve:    t.curve,
		surface:  t.surface,
	}}
}

// Transform returns a deep copy of s with every point passed through fn.
// Shared sub-shapes stay shared in the copy.
func Transform(s Shape, fn func(v3.Vec) v3.Vec) Shape {
	memo := make(map[*TShape]*TShape)
	var walk func(t *TShape) *TShape
	walk = func(t *TShape) *TShape {
		if n, ok := memo[t]; ok {
			return n
		}
		children := make([]Shape, len(t.children))
		for i, c := range t.children {
			children[i] = Shape{t: walk(c.t), o: c.o}
		}
		n := rebuild(t, children).t
		switch t.typ {
		case Vertex:
			n.point = fn(t.point)
		case Edge:
			if t.curve != nil {
				n.curve = t.curve.Map(fn)
			}
		case Face:
			if t.surface != nil {
				n.surface = t.surface.Map(fn)
			}
		}
		memo[t] = n
		return n
	}
	if s.IsNull() {
		return s
	}
	return Shape{t: walk(s.t), o: s.o}
}

// Translate returns a copy of s moved by d.
func Translate(s Shape, d v3.Vec) Shape {
	return Transform(s, func(p v3.Vec) v3.Vec { return p.Add(d) })
}
