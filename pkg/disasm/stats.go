package disasm

import (
	"fmt"
	"io"
	"strings"

	"github.com/chazu/seam/pkg/topo"
)

// TypeCount is the number of distinct entities of one type and how often
// they are reached in total.
type TypeCount struct {
	Type     string `json:"type" yaml:"type"`
	Distinct int    `json:"distinct" yaml:"distinct"`
	Total    int    `json:"total" yaml:"total"`
}

// Stats summarizes a shape tree per type, outermost type first. Types with
// no entities are omitted.
type Stats struct {
	Counts []TypeCount `json:"counts" yaml:"counts"`
}

// Get returns the count for typ.
func (s Stats) Get(typ topo.ShapeType) TypeCount {
	for _, c := range s.Counts {
		if c.Type == typ.String() {
			return c
		}
	}
	return TypeCount{Type: typ.String()}
}

// Collect counts distinct and total occurrences of every type under s.
func Collect(s topo.Shape) Stats {
	var out Stats
	for _, typ := range topo.Types {
		total := 0
		seen := make(map[uint64]bool)
		topo.Walk(s, typ, func(sub topo.Shape) bool {
			total++
			seen[sub.ID()] = true
			return true
		})
		if total == 0 {
			continue
		}
		out.Counts = append(out.Counts, TypeCount{Type: typ.String(), Distinct: len(seen), Total: total})
	}
	return out
}

// WriteStats prints one line per type as "TYPE : distinct x total".
func WriteStats(w io.Writer, s Stats) error {
	for _, c := range s.Counts {
		if _, err := fmt.Fprintf(w, "%-9s : %d x %d\n", c.Type, c.Distinct, c.Total); err != nil {
			return err
		}
	}
	return nil
}

// WriteTopology prints the tree under s, one entity per line, indented by
// depth. Each line shows the type, local identity, orientation and how
// often the entity occurs in the whole tree. Entities already printed are
// marked "checked" and not expanded again.
func WriteTopology(w io.Writer, s topo.Shape) error {
	if s.IsNull() {
		return nil
	}
	occurrences := make(map[uint64]int)
	for _, typ := range topo.Types {
		topo.Walk(s, typ, func(sub topo.Shape) bool {
			occurrences[sub.ID()]++
			return true
		})
	}
	printed := make(map[uint64]bool)

	var walk func(sh topo.Shape, depth int) error
	walk = func(sh topo.Shape, depth int) error {
		line := fmt.Sprintf("%s%s %d %s", strings.Repeat("  ", depth), sh.Type(), sh.ID(), sh.Orientation())
		if n := occurrences[sh.ID()]; n > 1 {
			line += fmt.Sprintf(" (x%d)", n)
		}
		if printed[sh.ID()] {
			_, err := fmt.Fprintln(w, line+" checked")
			return err
		}
		printed[sh.ID()] = true
		if sh.Type() == topo.Vertex {
			p := topo.Point(sh)
			line += fmt.Sprintf(" [%g %g %g]", p.X, p.Y, p.Z)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		for _, c := range sh.Children() {
			if err := walk(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(s, 0)
}
