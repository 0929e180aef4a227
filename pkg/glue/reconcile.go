// Package glue merges faces that occupy the same place in space across
// solids produced by independent operations, so that neighbouring solids
// share one face, its wires, edges and vertices.
//
// Reconcile handles the bijective case: faces with equal geometric keys.
// FindReplacementFaces and ReplaceFaceWithSplitFaces handle the case where
// one face on one side is covered by several smaller faces on the other.
package glue

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/chazu/seam/pkg/disasm"
	"github.com/chazu/seam/pkg/geokey"
	"github.com/chazu/seam/pkg/kernel"
	"github.com/chazu/seam/pkg/topo"
)

// DefaultSewingTolerance is used by ReplaceFaceWithSplitFaces unless
// configured otherwise.
const DefaultSewingTolerance = 0.01

// Reconciler runs reconciliation passes. Each pass is independent; a
// Reconciler holds configuration only.
type Reconciler struct {
	keyer  *geokey.Keyer
	logger *slog.Logger
	sewTol float64
	kernel kernel.Kernel
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithKeyer sets the key policy.
func WithKeyer(k *geokey.Keyer) Option {
	return func(r *Reconciler) { r.keyer = k }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithSewingTolerance sets the tolerance used when re-sewing solids.
func WithSewingTolerance(tol float64) Option {
	return func(r *Reconciler) { r.sewTol = tol }
}

// WithKernel sets the kernel used for sewing and booleans.
func WithKernel(k kernel.Kernel) Option {
	return func(r *Reconciler) { r.kernel = k }
}

// NewReconciler returns a Reconciler using the default key policy.
func NewReconciler(opts ...Option) *Reconciler {
	r := &Reconciler{
		keyer:  geokey.Default,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		sewTol: DefaultSewingTolerance,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Keyer returns the key policy in use.
func (r *Reconciler) Keyer() *geokey.Keyer { return r.keyer }

// FaceRegistry maps face keys to canonical faces in insertion order.
type FaceRegistry struct {
	keys  []geokey.FaceKey
	faces map[geokey.FaceKey]topo.Shape
}

// NewFaceRegistry returns an empty registry.
func NewFaceRegistry() *FaceRegistry {
	return &FaceRegistry{faces: make(map[geokey.FaceKey]topo.Shape)}
}

// Insert records f under key unless the key is taken; it reports whether
// f became canonical.
func (fr *FaceRegistry) Insert(key geokey.FaceKey, f topo.Shape) bool {
	if _, ok := fr.faces[key]; ok {
		return false
	}
	fr.keys = append(fr.keys, key)
	fr.faces[key] = f
	return true
}

// Lookup returns the canonical face for key.
func (fr *FaceRegistry) Lookup(key geokey.FaceKey) (topo.Shape, bool) {
	f, ok := fr.faces[key]
	return f, ok
}

// Len returns the number of canonical faces.
func (fr *FaceRegistry) Len() int { return len(fr.keys) }

// Keys returns the registered keys in insertion order.
func (fr *FaceRegistry) Keys() []geokey.FaceKey { return fr.keys }

// Reconcile glues every face of others that duplicates a face seen earlier
// (in base, or in an earlier shape of others) onto that canonical face.
//
// It returns base and others rebuilt with the replacements applied, base
// first, and the duplicate faces as they were before replacement. Faces of
// base are never duplicates. A face already sharing its entity with the
// canonical face is skipped, so reconciling a reconciled set finds nothing.
func (r *Reconciler) Reconcile(base topo.Shape, others ...topo.Shape) ([]topo.Shape, []topo.Shape, error) {
	registry := NewFaceRegistry()
	for _, f := range disasm.Disassemble(base).Faces() {
		registry.Insert(r.keyer.Face(f), f)
	}

	rs := topo.NewReShape()
	var duplicates []topo.Shape
	for i, other := range others {
		found := 0
		for _, f := range disasm.Disassemble(other).Faces() {
			key := r.keyer.Face(f)
			canonical, ok := registry.Lookup(key)
			if !ok {
				registry.Insert(key, f)
				continue
			}
			if canonical.IsSame(f) {
				continue
			}
			if err := r.unify(rs, canonical, f); err != nil {
				return nil, nil, fmt.Errorf("reconcile: shape %d: %w", i, err)
			}
			duplicates = append(duplicates, f)
			found++
		}
		r.logger.Debug("reconciled shape", "index", i, "duplicates", found)
	}

	out := rs.ApplyAll(append([]topo.Shape{base}, others...))
	r.logger.Info("reconcile",
		"shapes", len(out), "canonical_faces", registry.Len(),
		"duplicates", len(duplicates), "replacements", rs.Len())
	return out, duplicates, nil
}

// unify records replacements mapping every entity of dup onto its
// counterpart on canonical.
func (r *Reconciler) unify(rs *topo.ReShape, canonical, dup topo.Shape) error {
	canonVerts := make(map[geokey.VertexKey]topo.Shape)
	for _, v := range topo.Unique(topo.Explore(canonical, topo.Vertex)) {
		k := r.keyer.Vertex(v)
		if _, ok := canonVerts[k]; !ok {
			canonVerts[k] = v
		}
	}
	for _, v := range topo.Unique(topo.Explore(dup, topo.Vertex)) {
		k := r.keyer.Vertex(v)
		cv, ok := canonVerts[k]
		if !ok {
			return &EntityError{Kind: topo.Vertex, Key: k.String()}
		}
		rs.Replace(v, cv.Oriented(v.Orientation()))
	}

	canonEdges := make(map[geokey.EdgeKey]topo.Shape)
	for _, e := range topo.Unique(topo.Explore(canonical, topo.Edge)) {
		k := r.keyer.Edge(e)
		if _, ok := canonEdges[k]; !ok {
			canonEdges[k] = e
		}
	}
	for _, e := range topo.Unique(topo.Explore(dup, topo.Edge)) {
		k := r.keyer.Edge(e)
		ce, ok := canonEdges[k]
		if !ok {
			return &EntityError{Kind: topo.Edge, Key: k.String()}
		}
		rs.Replace(e, ce.Reversed())
	}

	canonWires := make(map[geokey.WireKey]topo.Shape)
	for _, w := range topo.Unique(topo.Explore(canonical, topo.Wire)) {
		k := r.keyer.Wire(w)
		if _, ok := canonWires[k]; !ok {
			canonWires[k] = w
		}
	}
	for _, w := range topo.Unique(topo.Explore(dup, topo.Wire)) {
		k := r.keyer.Wire(w)
		cw, ok := canonWires[k]
		if !ok {
			return &EntityError{Kind: topo.Wire, Key: string(k)}
		}
		rs.Replace(w, cw)
	}

	rs.Replace(dup, canonical.Reversed())
	return nil
}

// Reconcile runs a pass with a default Reconciler.
func Reconcile(base topo.Shape, others ...topo.Shape) ([]topo.Shape, []topo.Shape, error) {
	return NewReconciler().Reconcile(base, others...)
}
