// Package geokey computes geometric identity keys for vertices, edges, wires
// and faces. Keys let entities from independently built shape trees be
// compared by where they are in space rather than by local identity.
//
// Keys are built from sorted vertex coordinates, so they do not depend on
// traversal order or winding. Two keys are equal exactly when their vertex
// coordinates are equal after the key Policy is applied: Exact compares
// floats bitwise, Decimals(n) rounds to n decimal places first. The
// algorithms in pkg/glue only rely on key equality, so swapping the policy
// needs no algorithm change.
package geokey

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/chazu/seam/pkg/topo"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultDecimals is the rounding applied by the default policy.
const DefaultDecimals = 9

// MaxDecimals is the finest rounding a float64 can carry. Finer rounding
// no longer absorbs noise, and past 308 places the scale factor is +Inf
// and every coordinate keys as NaN.
const MaxDecimals = 15

// Policy quantizes coordinates before they are compared.
type Policy struct {
	exact    bool
	decimals int
	scale    float64
}

// Exact compares coordinates bitwise.
func Exact() Policy { return Policy{exact: true} }

// Decimals rounds coordinates to n decimal places. A negative n is Exact;
// n above MaxDecimals is clamped to it.
func Decimals(n int) Policy {
	if n < 0 {
		return Exact()
	}
	if n > MaxDecimals {
		n = MaxDecimals
	}
	return Policy{decimals: n, scale: math.Pow(10, float64(n))}
}

// DefaultPolicy rounds to DefaultDecimals places.
func DefaultPolicy() Policy { return Decimals(DefaultDecimals) }

func (p Policy) String() string {
	if p.exact {
		return "exact"
	}
	return fmt.Sprintf("decimals(%d)", p.decimals)
}

// Coord quantizes a single coordinate. Two coordinates are equal under p
// exactly when their Coord values are.
func (p Policy) Coord(x float64) float64 {
	if !p.exact {
		x = math.Round(x*p.scale) / p.scale
	}
	if x == 0 {
		return 0 // fold -0
	}
	return x
}

// Point returns the key of a raw point.
func (p Policy) Point(v v3.Vec) VertexKey {
	return VertexKey{X: p.Coord(v.X), Y: p.Coord(v.Y), Z: p.Coord(v.Z)}
}

// VertexKey is a quantized point. It is comparable and usable as a map key.
type VertexKey struct {
	X, Y, Z float64
}

// Less orders keys lexicographically by X, Y, Z.
func (k VertexKey) Less(o VertexKey) bool {
	if k.X != o.X {
		return k.X < o.X
	}
	if k.Y != o.Y {
		return k.Y < o.Y
	}
	return k.Z < o.Z
}

// Vec converts the key back to a point.
func (k VertexKey) Vec() v3.Vec { return v3.Vec{X: k.X, Y: k.Y, Z: k.Z} }

func (k VertexKey) String() string {
	return "(" + formatFloat(k.X) + "," + formatFloat(k.Y) + "," + formatFloat(k.Z) + ")"
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

// EdgeKey is the sorted pair of an edge's end point keys.
type EdgeKey [2]VertexKey

func (k EdgeKey) String() string { return k[0].String() + "-" + k[1].String() }

// FaceKey is the sorted tuple of distinct vertex keys of a face, encoded as
// a string so it is comparable.
type FaceKey string

// WireKey is the sorted set of a wire's edge keys, encoded as a string.
type WireKey string

// Keyer computes keys under one Policy.
type Keyer struct {
	Policy Policy
}

// NewKeyer returns a Keyer using p.
func NewKeyer(p Policy) *Keyer {
	return &Keyer{Policy: p}
}

// Default is the Keyer used by the package-level functions.
var Default = NewKeyer(DefaultPolicy())

// Vertex returns the key of a vertex.
func (k *Keyer) Vertex(v topo.Shape) VertexKey {
	return k.Policy.Point(topo.Point(v))
}

// Edge returns the key of an edge.
func (k *Keyer) Edge(e topo.Shape) EdgeKey {
	first, last := topo.EdgeVertices(e)
	a, b := k.Vertex(first), k.Vertex(last)
	if b.Less(a) {
		a, b = b, a
	}
	return EdgeKey{a, b}
}

// Wire returns the key of a wire.
func (k *Keyer) Wire(w topo.Shape) WireKey {
	var keys []string
	for _, e := range topo.Unique(topo.Explore(w, topo.Edge)) {
		keys = append(keys, k.Edge(e).String())
	}
	sort.Strings(keys)
	return WireKey(strings.Join(keys, ";"))
}

// FacePoints returns the sorted distinct vertex keys under s.
func (k *Keyer) FacePoints(s topo.Shape) []VertexKey {
	seen := make(map[VertexKey]bool)
	var out []VertexKey
	for _, v := range topo.Unique(topo.Explore(s, topo.Vertex)) {
		key := k.Vertex(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Face returns the key of a face.
func (k *Keyer) Face(f topo.Shape) FaceKey {
	return Join(k.FacePoints(f))
}

// Join encodes sorted vertex keys as a FaceKey.
func Join(points []VertexKey) FaceKey {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = p.String()
	}
	return FaceKey(strings.Join(parts, ";"))
}

// Set is a set of vertex keys.
type Set map[VertexKey]struct{}

// NewSet builds a set from keys.
func NewSet(keys ...VertexKey) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Add inserts keys.
func (s Set) Add(keys ...VertexKey) {
	for _, k := range keys {
		s[k] = struct{}{}
	}
}

// Has reports membership.
func (s Set) Has(k VertexKey) bool {
	_, ok := s[k]
	return ok
}

// ContainsAll reports whether every key is in the set.
func (s Set) ContainsAll(keys []VertexKey) bool {
	for _, k := range keys {
		if !s.Has(k) {
			return false
		}
	}
	return true
}

// Vertex returns the key of v under the default policy.
func Vertex(v topo.Shape) VertexKey { return Default.Vertex(v) }

// Edge returns the key of e under the default policy.
func Edge(e topo.Shape) EdgeKey { return Default.Edge(e) }

// Face returns the key of f under the default policy.
func Face(f topo.Shape) FaceKey { return Default.Face(f) }

// FacePoints returns the sorted distinct vertex keys of s under the
// default policy.
func FacePoints(s topo.Shape) []VertexKey { return Default.FacePoints(s) }
