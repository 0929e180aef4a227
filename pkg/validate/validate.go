// Package validate checks glued compounds before they are handed to a
// mesher. Structural problems (open or non-manifold shells) are errors;
// geometric leftovers of an incomplete reconciliation are warnings.
package validate

import (
	"fmt"
	"sort"

	"github.com/chazu/seam/pkg/disasm"
	"github.com/chazu/seam/pkg/geokey"
	"github.com/chazu/seam/pkg/kernel"
	"github.com/chazu/seam/pkg/topo"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Severity indicates whether a finding makes the shape unusable or is
// merely informational.
type Severity int

const (
	SeverityError   Severity = iota // blocks meshing
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Finding describes a single validation result.
type Finding struct {
	ShapeID  uint64 // offending entity, zero for compound-level findings
	Type     topo.ShapeType
	Message  string
	Severity Severity
}

func (f Finding) Error() string {
	if f.ShapeID == 0 {
		return fmt.Sprintf("[%s] %s", f.Severity, f.Message)
	}
	return fmt.Sprintf("[%s] %s %d: %s", f.Severity, f.Type, f.ShapeID, f.Message)
}

// Result bundles errors and warnings from all checks.
type Result struct {
	Errors   []Finding
	Warnings []Finding
}

// Valid reports whether no errors were found. Warnings do not count.
func (r Result) Valid() bool { return len(r.Errors) == 0 }

// Validator runs checks with one key policy.
type Validator struct {
	keyer *geokey.Keyer
}

// New returns a Validator using keyer, or the default key policy when
// keyer is nil.
func New(keyer *geokey.Keyer) *Validator {
	if keyer == nil {
		keyer = geokey.Default
	}
	return &Validator{keyer: keyer}
}

// Validate runs every check on s with the default key policy.
func Validate(s topo.Shape) Result {
	return New(nil).Validate(s)
}

// Validate runs structural checks on every shell and geometric checks
// across the solids of s. It never mutates s.
func (v *Validator) Validate(s topo.Shape) Result {
	var r Result
	r.Errors = append(r.Errors, v.validateShells(s)...)
	r.Warnings = append(r.Warnings, v.validateCoincidentFaces(s)...)
	r.Warnings = append(r.Warnings, v.validateOverlappingFaces(s)...)
	return r
}

// ---------------------------------------------------------------------------
// Structural checks (errors)
// ---------------------------------------------------------------------------

// validateShells counts how often each edge is used by the faces of a
// shell. A closed 2-manifold shell uses every edge exactly twice.
func (v *Validator) validateShells(s topo.Shape) []Finding {
	var out []Finding
	for _, sh := range disasm.Disassemble(s).Shapes(topo.Shell) {
		uses := make(map[uint64]int)
		for _, e := range topo.Explore(sh, topo.Edge) {
			uses[e.ID()]++
		}
		var free, nonManifold int
		for _, n := range uses {
			switch {
			case n == 1:
				free++
			case n > 2:
				nonManifold++
			}
		}
		if free > 0 {
			out = append(out, Finding{
				ShapeID:  sh.ID(),
				Type:     topo.Shell,
				Message:  fmt.Sprintf("shell has %d free edges", free),
				Severity: SeverityError,
			})
		}
		if nonManifold > 0 {
			out = append(out, Finding{
				ShapeID:  sh.ID(),
				Type:     topo.Shell,
				Message:  fmt.Sprintf("shell has %d non-manifold edges", nonManifold),
				Severity: SeverityError,
			})
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Geometric checks (warnings)
// ---------------------------------------------------------------------------

// validateCoincidentFaces reports face keys carried by more than one face
// entity. After a successful reconciliation every key maps to one face.
func (v *Validator) validateCoincidentFaces(s topo.Shape) []Finding {
	byKey := make(map[geokey.FaceKey][]topo.Shape)
	var keys []geokey.FaceKey
	for _, f := range disasm.Disassemble(s).Faces() {
		k := v.keyer.Face(f)
		if _, ok := byKey[k]; !ok {
			keys = append(keys, k)
		}
		byKey[k] = append(byKey[k], f)
	}

	var out []Finding
	for _, k := range keys {
		faces := byKey[k]
		if len(faces) < 2 {
			continue
		}
		out = append(out, Finding{
			ShapeID:  faces[0].ID(),
			Type:     topo.Face,
			Message:  fmt.Sprintf("%d faces share key %s; they are coincident but not glued", len(faces), k),
			Severity: SeverityWarning,
		})
	}
	return out
}

type ownedFace struct {
	face  topo.Shape
	owner uint64
	key   geokey.FaceKey
	axis  int
	coord float64
	loops [][]kernel.Point2
}

// validateOverlappingFaces reports pairs of faces from different solids
// that lie in the same axis plane and cover a common area but have
// different keys: a face on one side that is covered by several faces on
// the other and was never replaced. Coordinates are compared under the
// validator's key policy.
func (v *Validator) validateOverlappingFaces(s topo.Shape) []Finding {
	var faces []ownedFace
	seen := make(map[uint64]bool)
	for _, solid := range disasm.Disassemble(s).Solids() {
		for _, f := range topo.Unique(topo.Explore(solid, topo.Face)) {
			if seen[f.ID()] {
				continue
			}
			seen[f.ID()] = true
			of, ok := v.planarFace(f)
			if !ok {
				continue
			}
			of.owner = solid.ID()
			faces = append(faces, of)
		}
	}

	var out []Finding
	for i := range faces {
		for j := i + 1; j < len(faces); j++ {
			a, b := faces[i], faces[j]
			if a.owner == b.owner || a.key == b.key || a.axis != b.axis || a.coord != b.coord {
				continue
			}
			if !kernel.LoopsOverlap(a.loops, b.loops) {
				continue
			}
			out = append(out, Finding{
				ShapeID:  a.face.ID(),
				Type:     topo.Face,
				Message:  fmt.Sprintf("face overlaps face %d of another solid without sharing its key", b.face.ID()),
				Severity: SeverityWarning,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ShapeID < out[j].ShapeID })
	return out
}

// planarFace quantizes the loops of f and reports the axis plane that
// contains all of them.
func (v *Validator) planarFace(f topo.Shape) (ownedFace, bool) {
	var loops [][]v3.Vec
	var all []v3.Vec
	for _, l := range topo.FaceLoops(f) {
		q := make([]v3.Vec, len(l))
		for i, p := range l {
			q[i] = v.keyer.Policy.Point(p).Vec()
		}
		loops = append(loops, q)
		all = append(all, q...)
	}
	axis, coord, ok := kernel.PlaneAxis(all)
	if !ok {
		return ownedFace{}, false
	}
	of := ownedFace{face: f, key: v.keyer.Face(f), axis: axis, coord: coord}
	for _, l := range loops {
		pl := make([]kernel.Point2, len(l))
		for i, p := range l {
			pl[i] = kernel.Project(p, axis)
		}
		of.loops = append(of.loops, pl)
	}
	return of, true
}
