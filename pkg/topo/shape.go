// Package topo defines the boundary-representation data model used by seam:
// shape handles with orientation, the shared topological entities they point
// to, traversal, construction and batch replacement.
//
// A Shape is a cheap value: a pointer to a shared TShape plus an Orientation.
// Two shapes are the "same" entity when they point at the same TShape, even
// when their orientations differ. Identities are process-local and are never
// comparable across independently built trees; use pkg/geokey for that.
package topo

import (
	"errors"
	"fmt"
	"sync/atomic"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrWrongType is returned when an operation receives a shape of the wrong
// ShapeType (for example a face where a shell is expected).
var ErrWrongType = errors.New("topo: wrong shape type")

// ShapeType enumerates the levels of the containment hierarchy. Lower values
// contain higher values.
type ShapeType int

const (
	Compound ShapeType = iota
	CompSolid
	Solid
	Shell
	Face
	Wire
	Edge
	Vertex
)

// Types lists every ShapeType from the outermost to the innermost.
var Types = []ShapeType{Compound, CompSolid, Solid, Shell, Face, Wire, Edge, Vertex}

func (t ShapeType) String() string {
	switch t {
	case Compound:
		return "COMPOUND"
	case CompSolid:
		return "COMPSOLID"
	case Solid:
		return "SOLID"
	case Shell:
		return "SHELL"
	case Face:
		return "FACE"
	case Wire:
		return "WIRE"
	case Edge:
		return "EDGE"
	case Vertex:
		return "VERTEX"
	default:
		return fmt.Sprintf("ShapeType(%d)", int(t))
	}
}

// Tag returns the two-letter record tag used in BREP text output.
func (t ShapeType) Tag() string {
	switch t {
	case Compound:
		return "Co"
	case CompSolid:
		return "CS"
	case Solid:
		return "So"
	case Shell:
		return "Sh"
	case Face:
		return "Fa"
	case Wire:
		return "Wi"
	case Edge:
		return "Ed"
	case Vertex:
		return "Ve"
	}
	return "??"
}

// ParseTag is the inverse of Tag.
func ParseTag(tag string) (ShapeType, bool) {
	for _, t := range Types {
		if t.Tag() == tag {
			return t, true
		}
	}
	return 0, false
}

// Orientation of a shape relative to its underlying TShape.
type Orientation int

const (
	Forward Orientation = iota
	Reversed
)

func (o Orientation) String() string {
	if o == Reversed {
		return "REVERSED"
	}
	return "FORWARD"
}

// Reverse returns the opposite orientation.
func (o Orientation) Reverse() Orientation {
	if o == Reversed {
		return Forward
	}
	return Reversed
}

// Compose returns the orientation of a child whose local orientation is c
// when seen through a parent with orientation o.
func (o Orientation) Compose(c Orientation) Orientation {
	if o == Reversed {
		return c.Reverse()
	}
	return c
}

// Sign returns "+" for Forward and "-" for Reversed.
func (o Orientation) Sign() string {
	if o == Reversed {
		return "-"
	}
	return "+"
}

var lastID atomic.Uint64

func nextID() uint64 { return lastID.Add(1) }

// TShape is the shared topological entity. Its children are stored with
// their local orientation. A TShape is immutable once built.
type TShape struct {
	id       uint64
	typ      ShapeType
	children []Shape

	point   v3.Vec  // Vertex
	curve   Curve   // Edge
	surface Surface // Face
}

// Shape is a handle onto a TShape with an orientation. The zero Shape is
// null.
type Shape struct {
	t *TShape
	o Orientation
}

// IsNull reports whether the shape has no underlying TShape.
func (s Shape) IsNull() bool { return s.t == nil }

// Type returns the shape's ShapeType. It panics on a null shape.
func (s Shape) Type() ShapeType { return s.t.typ }

// Orientation returns the handle's orientation.
func (s Shape) Orientation() Orientation { return s.o }

// Reversed returns the same TShape with the opposite orientation.
func (s Shape) Reversed() Shape { return Shape{t: s.t, o: s.o.Reverse()} }

// Oriented returns the same TShape with orientation o.
func (s Shape) Oriented(o Orientation) Shape { return Shape{t: s.t, o: o} }

// TShape exposes the shared entity, mainly for use as a map key.
func (s Shape) TShape() *TShape { return s.t }

// ID returns the process-local identity of the underlying TShape.
func (s Shape) ID() uint64 {
	if s.t == nil {
		return 0
	}
	return s.t.id
}

// HashCode is an alias of ID kept for readers used to kernel vocabulary.
func (s Shape) HashCode() uint64 { return s.ID() }

// IsSame reports whether both shapes share a TShape, ignoring orientation.
func (s Shape) IsSame(o Shape) bool { return s.t == o.t }

// IsEqual reports whether both shapes share a TShape and an orientation.
func (s Shape) IsEqual(o Shape) bool { return s.t == o.t && s.o == o.o }

// NumChildren returns the number of direct children.
func (s Shape) NumChildren() int {
	if s.t == nil {
		return 0
	}
	return len(s.t.children)
}

// Children returns the direct children with their orientation composed with
// this handle's orientation.
func (s Shape) Children() []Shape {
	if s.t == nil {
		return nil
	}
	out := make([]Shape, len(s.t.children))
	for i, c := range s.t.children {
		out[i] = Shape{t: c.t, o: s.o.Compose(c.o)}
	}
	return out
}

func (s Shape) String() string {
	if s.t == nil {
		return "<null>"
	}
	return fmt.Sprintf("%s#%d%s", s.t.typ, s.t.id, s.o.Sign())
}

// Point returns the location of a vertex. It panics when s is not a vertex.
func Point(s Shape) v3.Vec {
	mustBe(s, Vertex)
	return s.t.point
}

// CurveOf returns the curve carried by an edge.
func CurveOf(s Shape) Curve {
	mustBe(s, Edge)
	return s.t.curve
}

// SurfaceOf returns the surface carried by a face.
func SurfaceOf(s Shape) Surface {
	mustBe(s, Face)
	return s.t.surface
}

// Check returns a wrapped ErrWrongType when s is null or not of type want.
func Check(s Shape, want ShapeType) error {
	if s.IsNull() {
		return fmt.Errorf("%w: null shape, want %s", ErrWrongType, want)
	}
	if s.Type() != want {
		return fmt.Errorf("%w: got %s, want %s", ErrWrongType, s.Type(), want)
	}
	return nil
}

func mustBe(s Shape, want ShapeType) {
	if err := Check(s, want); err != nil {
		panic(err)
	}
}
