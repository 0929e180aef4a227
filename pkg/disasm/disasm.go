// Package disasm flattens shape trees into per-type tables of distinct
// sub-shapes.
package disasm

import (
	"github.com/chazu/seam/pkg/topo"
)

// Types are the shape types a Table indexes, outermost first.
var Types = []topo.ShapeType{
	topo.CompSolid, topo.Solid, topo.Shell, topo.Face, topo.Wire, topo.Edge, topo.Vertex,
}

// Bucket holds the distinct shapes of one type in first-seen order.
type Bucket struct {
	shapes []topo.Shape
	index  map[uint64]int
}

func newBucket() *Bucket {
	return &Bucket{index: make(map[uint64]int)}
}

func (b *Bucket) add(s topo.Shape) bool {
	if _, ok := b.index[s.ID()]; ok {
		return false
	}
	b.index[s.ID()] = len(b.shapes)
	b.shapes = append(b.shapes, s)
	return true
}

// Table maps each shape type to its bucket of distinct shapes, keyed by
// local identity.
type Table struct {
	buckets map[topo.ShapeType]*Bucket
}

// NewTable returns an empty table.
func NewTable() *Table {
	t := &Table{buckets: make(map[topo.ShapeType]*Bucket, len(Types))}
	for _, typ := range Types {
		t.buckets[typ] = newBucket()
	}
	return t
}

// Disassemble returns the table of every sub-shape of s.
func Disassemble(s topo.Shape) *Table {
	return NewTable().Add(s)
}

// DisassembleMany accumulates one table across shapes, so entities shared
// in memory between them appear once.
func DisassembleMany(shapes ...topo.Shape) *Table {
	t := NewTable()
	for _, s := range shapes {
		t.Add(s)
	}
	return t
}

// Add extends the table with the sub-shapes of s and returns the table.
// The first occurrence of each entity fixes its recorded orientation.
func (t *Table) Add(s topo.Shape) *Table {
	for _, typ := range Types {
		b := t.buckets[typ]
		topo.Walk(s, typ, func(sub topo.Shape) bool {
			b.add(sub)
			return true
		})
	}
	return t
}

// Shapes returns the distinct shapes of typ in first-seen order.
func (t *Table) Shapes(typ topo.ShapeType) []topo.Shape {
	b, ok := t.buckets[typ]
	if !ok {
		return nil
	}
	return b.shapes
}

// Len returns the number of distinct shapes of typ.
func (t *Table) Len(typ topo.ShapeType) int {
	return len(t.Shapes(typ))
}

// Lookup returns the shape of typ with local identity id.
func (t *Table) Lookup(typ topo.ShapeType, id uint64) (topo.Shape, bool) {
	b, ok := t.buckets[typ]
	if !ok {
		return topo.Shape{}, false
	}
	i, ok := b.index[id]
	if !ok {
		return topo.Shape{}, false
	}
	return b.shapes[i], true
}

// Solids returns the distinct solids.
func (t *Table) Solids() []topo.Shape { return t.Shapes(topo.Solid) }

// Faces returns the distinct faces.
func (t *Table) Faces() []topo.Shape { return t.Shapes(topo.Face) }

// Wires returns the distinct wires.
func (t *Table) Wires() []topo.Shape { return t.Shapes(topo.Wire) }

// Edges returns the distinct edges.
func (t *Table) Edges() []topo.Shape { return t.Shapes(topo.Edge) }

// Vertices returns the distinct vertices.
func (t *Table) Vertices() []topo.Shape { return t.Shapes(topo.Vertex) }
