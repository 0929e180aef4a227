package glue

import (
	"errors"
	"fmt"
	"sort"

	"github.com/chazu/seam/pkg/disasm"
	"github.com/chazu/seam/pkg/geokey"
	"github.com/chazu/seam/pkg/topo"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultBorderTolerance is the projection tolerance used to decide that a
// hint vertex lies on a stale face's boundary.
const DefaultBorderTolerance = 1e-5

// FindReplacementFaces returns the faces of search that together replace
// the stale face: faces whose every vertex lies on the stale face's border.
//
// The border is the stale face's vertices plus, for each of its edges, the
// hint vertex nearest to that edge when it lies within tol. With no such
// intersection point the result is empty. Finding exactly one face is an
// ErrSingleReplacement.
func (r *Reconciler) FindReplacementFaces(stale topo.Shape, search []topo.Shape, hint topo.Shape, tol float64) ([]topo.Shape, error) {
	if err := topo.Check(stale, topo.Face); err != nil {
		return nil, fmt.Errorf("find replacement faces: stale: %w", err)
	}

	border := geokey.NewSet()
	staleTable := disasm.Disassemble(stale)
	for _, v := range staleTable.Vertices() {
		border.Add(r.keyer.Vertex(v))
	}

	var hints []v3.Vec
	if !hint.IsNull() {
		for _, v := range disasm.Disassemble(hint).Vertices() {
			hints = append(hints, topo.Point(v))
		}
	}

	intersections := 0
	for _, e := range staleTable.Edges() {
		p, ok := nearestOnCurve(topo.CurveOf(e), hints, tol)
		if !ok {
			continue
		}
		border.Add(r.keyer.Policy.Point(p))
		intersections++
	}
	if intersections == 0 {
		r.logger.Debug("no border intersections", "stale", stale.ID())
		return nil, nil
	}

	var found []topo.Shape
	for _, f := range disasm.DisassembleMany(search...).Faces() {
		if border.ContainsAll(r.keyer.FacePoints(f)) {
			found = append(found, f)
		}
	}
	r.logger.Debug("replacement faces",
		"stale", stale.ID(), "intersections", intersections, "faces", len(found))
	if len(found) == 1 {
		return nil, fmt.Errorf("%w: stale face %s", ErrSingleReplacement, r.keyer.Face(stale))
	}
	return found, nil
}

// nearestOnCurve returns the candidate closest to the curve when it lies
// within tol. Ties keep the first candidate.
func nearestOnCurve(c topo.Curve, candidates []v3.Vec, tol float64) (v3.Vec, bool) {
	best, bestDist := v3.Vec{}, -1.0
	for _, p := range candidates {
		_, d := c.Project(p)
		if bestDist < 0 || d < bestDist {
			best, bestDist = p, d
		}
	}
	if bestDist < 0 || bestDist > tol {
		return v3.Vec{}, false
	}
	return best, true
}

// Replacement pairs a stale face with the faces that cover it.
type Replacement struct {
	Stale topo.Shape
	Faces []topo.Shape
}

// ReplacementDictionary finds, for every stale face, the union of the
// replacement faces found with each hint face. Stale faces with no
// replacement are left out; a union of exactly one face is an
// ErrSingleReplacement.
func (r *Reconciler) ReplacementDictionary(stale, search, hints []topo.Shape, tol float64) ([]Replacement, error) {
	var out []Replacement
	for _, s := range stale {
		seen := make(map[uint64]bool)
		var faces []topo.Shape
		for _, h := range hints {
			found, err := r.FindReplacementFaces(s, search, h, tol)
			if err != nil {
				return nil, err
			}
			for _, f := range found {
				if !seen[f.ID()] {
					seen[f.ID()] = true
					faces = append(faces, f)
				}
			}
		}
		switch len(faces) {
		case 0:
			continue
		case 1:
			return nil, fmt.Errorf("%w: stale face %s", ErrSingleReplacement, r.keyer.Face(s))
		}
		out = append(out, Replacement{Stale: s, Faces: faces})
	}
	return out, nil
}

// ReplaceFaceWithSplitFaces rebuilds solid with the face matching stale's
// key swapped for split. The remaining faces and the split faces are sewn
// into a new shell and promoted to a solid. A sewing failure is returned,
// wrapping kernel.ErrSewing.
func (r *Reconciler) ReplaceFaceWithSplitFaces(solid, stale topo.Shape, split []topo.Shape) (topo.Shape, error) {
	if r.kernel == nil {
		return topo.Shape{}, errors.New("replace face: reconciler has no kernel")
	}
	staleKey := r.keyer.Face(stale)
	var faces []topo.Shape
	removed := 0
	for _, f := range disasm.Disassemble(solid).Faces() {
		if r.keyer.Face(f) == staleKey {
			removed++
			continue
		}
		faces = append(faces, f)
	}
	faces = append(faces, split...)

	shell, err := r.kernel.Sew(faces, r.sewTol)
	if err != nil {
		return topo.Shape{}, fmt.Errorf("replace face: %w", err)
	}
	out, err := r.kernel.MakeSolid(shell)
	if err != nil {
		return topo.Shape{}, fmt.Errorf("replace face: %w", err)
	}
	r.logger.Debug("replaced face",
		"removed", removed, "split", len(split), "faces", len(faces))
	return out, nil
}

// BorderingWires returns the wires of shape, other than face's own, that
// share an edge key with face, and the edge keys used by two or more of
// those wires.
func (r *Reconciler) BorderingWires(shape, face topo.Shape) ([]topo.Shape, []geokey.EdgeKey) {
	own := make(map[uint64]bool)
	faceEdges := make(map[geokey.EdgeKey]bool)
	for _, w := range topo.Explore(face, topo.Wire) {
		own[w.ID()] = true
	}
	for _, e := range topo.Explore(face, topo.Edge) {
		faceEdges[r.keyer.Edge(e)] = true
	}

	var wires []topo.Shape
	uses := make(map[geokey.EdgeKey]int)
	for _, w := range disasm.Disassemble(shape).Wires() {
		if own[w.ID()] {
			continue
		}
		touches := false
		for _, e := range topo.Unique(topo.Explore(w, topo.Edge)) {
			if faceEdges[r.keyer.Edge(e)] {
				touches = true
				break
			}
		}
		if !touches {
			continue
		}
		wires = append(wires, w)
		for _, e := range topo.Unique(topo.Explore(w, topo.Edge)) {
			uses[r.keyer.Edge(e)]++
		}
	}

	var common []geokey.EdgeKey
	for k, n := range uses {
		if n > 1 {
			common = append(common, k)
		}
	}
	sort.Slice(common, func(i, j int) bool { return common[i].String() < common[j].String() })
	return wires, common
}
