package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chazu/seam/pkg/disasm"
	"github.com/chazu/seam/pkg/topo"
)

// Record is one TShape of a BREP file. Children hold signed record numbers:
// negative for a reversed occurrence.
type Record struct {
	Type     topo.ShapeType `json:"-" yaml:"-"`
	Tag      string         `json:"type" yaml:"type"`
	ID       int            `json:"id" yaml:"id"`
	Children []int          `json:"children,omitempty" yaml:"children,omitempty"`
}

func (r Record) String() string {
	if len(r.Children) == 0 {
		return fmt.Sprintf("%s: %d", r.Type, r.ID)
	}
	return fmt.Sprintf("%s: %d -> %v", r.Type, r.ID, r.Children)
}

// Index is the TShape table of a BREP file.
type Index struct {
	Declared int      `json:"declared" yaml:"declared"`
	Records  []Record `json:"records" yaml:"records"`
	byID     map[int]int
}

// Get returns the record numbered id.
func (ix *Index) Get(id int) (Record, bool) {
	i, ok := ix.byID[id]
	if !ok {
		return Record{}, false
	}
	return ix.Records[i], true
}

// Count returns the number of records of typ.
func (ix *Index) Count(typ topo.ShapeType) int {
	n := 0
	for _, r := range ix.Records {
		if r.Type == typ {
			n++
		}
	}
	return n
}

// Stats counts the records reachable from the root record 1 the way
// disasm.Collect counts a shape tree, so a written file and the shape it
// came from give the same figures.
func (ix *Index) Stats() disasm.Stats {
	var out disasm.Stats
	root, ok := ix.Get(1)
	if !ok {
		return out
	}
	for _, typ := range topo.Types {
		total := 0
		seen := make(map[int]bool)
		var walk func(r Record)
		walk = func(r Record) {
			if r.Type == typ {
				total++
				seen[r.ID] = true
				return
			}
			if r.Type > typ {
				return
			}
			for _, c := range r.Children {
				if child, ok := ix.Get(abs(c)); ok {
					walk(child)
				}
			}
		}
		walk(root)
		if total > 0 {
			out.Counts = append(out.Counts, disasm.TypeCount{Type: typ.String(), Distinct: len(seen), Total: total})
		}
	}
	return out
}

// ReadIndex parses the TShape table of a BREP file. Records before the
// "TShapes n" line are ignored. Geometry lines are skipped; only type tags
// and child reference lines are interpreted.
func ReadIndex(r io.Reader) (*Index, error) {
	ix := &Index{byID: make(map[int]int)}
	started := false
	next := 0
	var cur *Record

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		items := strings.Fields(sc.Text())
		if len(items) == 0 {
			continue
		}
		switch {
		case items[0] == "TShapes":
			if len(items) < 2 {
				return nil, fmt.Errorf("read index: line %d: missing TShapes count", line)
			}
			n, err := strconv.Atoi(items[1])
			if err != nil {
				return nil, fmt.Errorf("read index: line %d: %w", line, err)
			}
			ix.Declared, next, started = n, n, true

		case !started:
			continue

		case items[len(items)-1] == "*":
			if cur == nil {
				continue
			}
			for i := 0; i < len(items)-1; i += 2 {
				id, err := strconv.Atoi(items[i])
				if err != nil {
					return nil, fmt.Errorf("read index: line %d: bad reference %q", line, items[i])
				}
				// Children are written before their parents, so they carry
				// higher numbers; anything else would make the table cyclic.
				if a := abs(id); a <= cur.ID || a > ix.Declared {
					return nil, fmt.Errorf("read index: line %d: record %d references %d, want (%d,%d]",
						line, cur.ID, id, cur.ID, ix.Declared)
				}
				cur.Children = append(cur.Children, id)
			}
			cur = nil

		default:
			typ, ok := topo.ParseTag(items[0])
			if !ok || len(items) != 1 {
				continue
			}
			ix.byID[next] = len(ix.Records)
			ix.Records = append(ix.Records, Record{Type: typ, Tag: items[0], ID: next})
			cur = &ix.Records[len(ix.Records)-1]
			next--
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	if !started {
		return nil, fmt.Errorf("read index: no TShapes table")
	}
	if len(ix.Records) != ix.Declared {
		return nil, fmt.Errorf("read index: declared %d TShapes, found %d", ix.Declared, len(ix.Records))
	}
	return ix, nil
}

// ReadIndexFile parses the BREP file at path.
func ReadIndexFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadIndex(f)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
