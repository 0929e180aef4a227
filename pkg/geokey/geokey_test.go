package geokey

import (
	"math"
	"testing"

	"github.com/chazu/seam/pkg/topo"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(pts ...v3.Vec) topo.Shape {
	vs := make([]topo.Shape, len(pts))
	for i, p := range pts {
		vs[i] = topo.MakeVertex(p)
	}
	es := make([]topo.Shape, len(vs))
	for i := range vs {
		es[i] = topo.MakeEdge(vs[i], vs[(i+1)%len(vs)])
	}
	return topo.MakeFace(nil, topo.MakeWire(es...))
}

var (
	p00 = v3.Vec{}
	p10 = v3.Vec{X: 1}
	p11 = v3.Vec{X: 1, Y: 1}
	p01 = v3.Vec{Y: 1}
)

func TestFaceKeyIgnoresTraversalOrder(t *testing.T) {
	a := square(p00, p10, p11, p01)
	b := square(p11, p01, p00, p10)
	c := square(p00, p01, p11, p10)

	assert.Equal(t, Face(a), Face(b))
	assert.Equal(t, Face(a), Face(c))
	assert.Equal(t, Face(a), Face(a.Reversed()))
	assert.NotEqual(t, Face(a), Face(square(p00, p10, v3.Vec{X: 1, Y: 2}, p01)))
}

func TestFacePointsSortedDistinct(t *testing.T) {
	f := square(p11, p01, p00, p10)
	pts := FacePoints(f)
	require.Len(t, pts, 4)
	for i := 1; i < len(pts); i++ {
		assert.True(t, pts[i-1].Less(pts[i]))
	}
}

func TestEdgeKeyIsSymmetric(t *testing.T) {
	a, b := topo.MakeVertex(p00), topo.MakeVertex(p11)
	e1 := topo.MakeEdge(a, b)
	e2 := topo.MakeEdge(topo.MakeVertex(p11), topo.MakeVertex(p00))

	assert.Equal(t, Edge(e1), Edge(e2))
	assert.Equal(t, Edge(e1), Edge(e1.Reversed()))
}

func TestWireKeyMatchesAcrossTrees(t *testing.T) {
	a := square(p00, p10, p11, p01)
	b := square(p10, p11, p01, p00)
	k := NewKeyer(Exact())

	assert.Equal(t, k.Wire(a.Children()[0]), k.Wire(b.Children()[0]))
}

func TestPolicies(t *testing.T) {
	tenth, fifth := 0.1, 0.2
	tests := []struct {
		name   string
		policy Policy
		a, b   v3.Vec
		equal  bool
	}{
		{"exact equal", Exact(), v3.Vec{X: 0.5}, v3.Vec{X: 0.5}, true},
		{"exact differs", Exact(), v3.Vec{X: tenth + fifth}, v3.Vec{X: 0.3}, false},
		{"decimals absorbs noise", Decimals(9), v3.Vec{X: tenth + fifth}, v3.Vec{X: 0.3}, true},
		{"decimals keeps distinct", Decimals(9), v3.Vec{X: 0.3}, v3.Vec{X: 0.3000001}, false},
		{"negative zero folded", Exact(), v3.Vec{X: 0}, v3.Vec{X: math.Copysign(0, -1)}, true},
		{"coarse", Decimals(2), v3.Vec{Y: 1.001}, v3.Vec{Y: 1.004}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.Point(tt.a) == tt.policy.Point(tt.b)
			assert.Equal(t, tt.equal, got)
		})
	}
}

func TestDecimalsClampsToFloatPrecision(t *testing.T) {
	p := Decimals(400)
	assert.Equal(t, Decimals(MaxDecimals).String(), p.String())
	k := p.Point(v3.Vec{X: 0.1, Y: -2.5, Z: 1e6})
	assert.False(t, math.IsNaN(k.X) || math.IsNaN(k.Y) || math.IsNaN(k.Z))
	assert.Equal(t, p.Point(v3.Vec{X: 0.1, Y: -2.5, Z: 1e6}), k)
	assert.Equal(t, 1.25, p.Coord(1.25))
}

func TestNegativeDecimalsIsExact(t *testing.T) {
	assert.Equal(t, "exact", Decimals(-1).String())
	assert.Equal(t, "decimals(9)", DefaultPolicy().String())
}

func TestSet(t *testing.T) {
	s := NewSet(VertexKey{X: 1})
	s.Add(VertexKey{Y: 1})

	assert.True(t, s.Has(VertexKey{X: 1}))
	assert.True(t, s.ContainsAll([]VertexKey{{X: 1}, {Y: 1}}))
	assert.False(t, s.ContainsAll([]VertexKey{{X: 1}, {Z: 1}}))
	assert.True(t, s.ContainsAll(nil))
}

func TestVertexKeyString(t *testing.T) {
	assert.Equal(t, "(0.5,0,1)", VertexKey{X: 0.5, Z: 1}.String())
	assert.Equal(t, "(0,0,0)", Exact().Point(v3.Vec{X: math.Copysign(0, -1)}).String())
}
