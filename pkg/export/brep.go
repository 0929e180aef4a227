// Package export writes glued shapes for downstream tools: a text B-rep
// dump that keeps the shared-entity structure, and STL meshes.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chazu/seam/pkg/topo"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrNoShapes is returned by Compound when every argument is null.
var ErrNoShapes = errors.New("export: no shapes")

// Compound groups the non-null shapes into the compound handed to writers.
func Compound(shapes ...topo.Shape) (topo.Shape, error) {
	var kept []topo.Shape
	for _, s := range shapes {
		if !s.IsNull() {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return topo.Shape{}, ErrNoShapes
	}
	return topo.MakeCompound(kept...), nil
}

const brepHeader = "seam BREP Format Version 1"

// WriteBREP writes s as a table of distinct TShapes. Records are written
// children first and numbered downwards, so the root is record 1 and every
// reference points to a record written earlier. Each record is a type tag
// line, a geometry line, and a line of signed child references ended by
// "*":
//
//	TShapes 3
//	Ve
//	1e-07 0 0 0
//	*
//	...
//	Ed
//	segment 0 0 0 1 0 0
//	+3 0 -2 0 *
func WriteBREP(w io.Writer, s topo.Shape) error {
	if s.IsNull() {
		return fmt.Errorf("write brep: %w", ErrNoShapes)
	}
	var order []topo.Shape
	seen := make(map[uint64]bool)
	var visit func(sh topo.Shape)
	visit = func(sh topo.Shape) {
		if seen[sh.ID()] {
			return
		}
		seen[sh.ID()] = true
		fwd := sh.Oriented(topo.Forward)
		for _, c := range fwd.Children() {
			visit(c)
		}
		order = append(order, fwd)
	}
	visit(s)

	n := len(order)
	index := make(map[uint64]int, n)
	for i, sh := range order {
		index[sh.ID()] = n - i
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, brepHeader)
	fmt.Fprintf(bw, "TShapes %d\n", n)
	for _, sh := range order {
		fmt.Fprintln(bw, sh.Type().Tag())
		fmt.Fprintln(bw, geometry(sh))
		var refs []string
		for _, c := range sh.Children() {
			refs = append(refs, c.Orientation().Sign()+strconv.Itoa(index[c.ID()]), "0")
		}
		refs = append(refs, "*")
		fmt.Fprintln(bw, strings.Join(refs, " "))
	}
	fmt.Fprintf(bw, "%s%d\n", s.Orientation().Sign(), index[s.ID()])
	return bw.Flush()
}

// WriteBREPFile writes s to path.
func WriteBREPFile(path string, s topo.Shape) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteBREP(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func geometry(s topo.Shape) string {
	switch s.Type() {
	case topo.Vertex:
		return "1e-07 " + vec(topo.Point(s))
	case topo.Edge:
		if seg, ok := topo.CurveOf(s).(topo.Segment); ok {
			return "segment " + vec(seg.A) + " " + vec(seg.B)
		}
		return "curve"
	case topo.Face:
		switch surf := topo.SurfaceOf(s).(type) {
		case topo.Plane:
			return "plane " + vec(surf.Origin) + " " + vec(surf.XDir) + " " + vec(surf.YDir)
		case *topo.BSplineSurface:
			parts := []string{"bspline", strconv.Itoa(surf.UDegree), strconv.Itoa(surf.VDegree),
				strconv.Itoa(len(surf.Poles)), strconv.Itoa(len(surf.Poles[0]))}
			for _, row := range surf.Poles {
				for _, p := range row {
					parts = append(parts, vec(p))
				}
			}
			return strings.Join(parts, " ")
		}
		return "surface"
	}
	return "0"
}

func vec(p v3.Vec) string {
	f := func(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }
	return f(p.X) + " " + f(p.Y) + " " + f(p.Z)
}
