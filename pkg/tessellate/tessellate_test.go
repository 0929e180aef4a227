package tessellate_test

import (
	"math"
	"testing"

	"github.com/chazu/seam/pkg/glue"
	"github.com/chazu/seam/pkg/kernel"
	"github.com/chazu/seam/pkg/kernel/ortho"
	"github.com/chazu/seam/pkg/tessellate"
	"github.com/chazu/seam/pkg/topo"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func makeBox(t *testing.T, k *ortho.Kernel, min, max v3.Vec) topo.Shape {
	t.Helper()
	s, err := k.BoxMinMax(min, max)
	if err != nil {
		t.Fatalf("BoxMinMax: %v", err)
	}
	return s
}

// checkOutward verifies that every triangle of m is wound along its normal
// and that the normal points away from center.
func checkOutward(t *testing.T, m *kernel.Mesh, center v3.Vec) {
	t.Helper()
	vert := func(i uint32) v3.Vec {
		return v3.Vec{X: float64(m.Vertices[3*i]), Y: float64(m.Vertices[3*i+1]), Z: float64(m.Vertices[3*i+2])}
	}
	for tri := 0; tri < m.TriangleCount(); tri++ {
		a, b, c := vert(m.Indices[3*tri]), vert(m.Indices[3*tri+1]), vert(m.Indices[3*tri+2])
		i := m.Indices[3*tri]
		n := v3.Vec{X: float64(m.Normals[3*i]), Y: float64(m.Normals[3*i+1]), Z: float64(m.Normals[3*i+2])}
		if math.Abs(n.Length()-1) > 1e-6 {
			t.Fatalf("%s triangle %d: normal %v is not unit length", m.PartName, tri, n)
		}
		if w := b.Sub(a).Cross(c.Sub(a)).Dot(n); w <= 0 {
			t.Fatalf("%s triangle %d: winding disagrees with normal %v", m.PartName, tri, n)
		}
		centroid := a.Add(b).Add(c).MulScalar(1.0 / 3)
		if centroid.Sub(center).Dot(n) <= 0 {
			t.Fatalf("%s triangle %d: normal %v points inwards", m.PartName, tri, n)
		}
	}
}

func area(m *kernel.Mesh) float64 {
	var sum float64
	for tri := 0; tri < m.TriangleCount(); tri++ {
		var p [3]v3.Vec
		for j := 0; j < 3; j++ {
			i := m.Indices[3*tri+j]
			p[j] = v3.Vec{X: float64(m.Vertices[3*i]), Y: float64(m.Vertices[3*i+1]), Z: float64(m.Vertices[3*i+2])}
		}
		sum += p[1].Sub(p[0]).Cross(p[2].Sub(p[0])).Length() / 2
	}
	return sum
}

func TestSingleBox(t *testing.T) {
	box := makeBox(t, ortho.New(), v3.Vec{}, v3.Vec{X: 2, Y: 1, Z: 1})

	meshes, err := tessellate.Tessellate(box)
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	m := meshes[0]
	if got := m.TriangleCount(); got != 12 {
		t.Errorf("TriangleCount() = %d, want 12", got)
	}
	if m.PartName != "solid-1" {
		t.Errorf("PartName = %q, want %q", m.PartName, "solid-1")
	}
	if len(m.Vertices) != len(m.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(m.Vertices), len(m.Normals))
	}
	if got := area(m); math.Abs(got-10) > 1e-6 {
		t.Errorf("area = %v, want 10", got)
	}
	checkOutward(t, m, v3.Vec{X: 1, Y: 0.5, Z: 0.5})
}

func TestNullShape(t *testing.T) {
	meshes, err := tessellate.Tessellate(topo.Shape{})
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	if meshes != nil {
		t.Errorf("expected nil meshes, got %d", len(meshes))
	}
}

func TestGluedAssembly(t *testing.T) {
	k := ortho.New()
	block := makeBox(t, k, v3.Vec{}, v3.Vec{X: 1, Y: 1, Z: 1})
	tool1 := makeBox(t, k, v3.Vec{X: 0.5, Y: -1, Z: -1}, v3.Vec{X: 2, Y: 2, Z: 2})
	tool2 := makeBox(t, k, v3.Vec{X: -1, Y: 0.7, Z: -1}, v3.Vec{X: 2, Y: 2, Z: 2})

	asm, err := glue.NewReconciler(glue.WithKernel(k)).SplitAndGlue(block, tool1, tool2, glue.DefaultBorderTolerance)
	if err != nil {
		t.Fatalf("SplitAndGlue: %v", err)
	}
	meshes, err := tessellate.Tessellate(asm.Compound)
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	if len(meshes) != 3 {
		t.Fatalf("expected 3 meshes, got %d", len(meshes))
	}

	centers := []v3.Vec{
		{X: 0.25, Y: 0.5, Z: 0.5},
		{X: 0.75, Y: 0.35, Z: 0.5},
		{X: 0.75, Y: 0.85, Z: 0.5},
	}
	wantArea := []float64{
		2*0.5 + 2*0.5 + 2*1,    // [0,.5]x[0,1]x[0,1]
		2*0.35 + 2*0.5 + 2*0.7, // [.5,1]x[0,.7]x[0,1]
		2*0.15 + 2*0.5 + 2*0.3, // [.5,1]x[.7,1]x[0,1]
	}
	for i, m := range meshes {
		checkOutward(t, m, centers[i])
		if got := area(m); math.Abs(got-wantArea[i]) > 1e-5 {
			t.Errorf("mesh %d area = %v, want %v", i, got, wantArea[i])
		}
	}
	// The first mold's split faces need extra rectangles.
	if got := meshes[0].TriangleCount(); got <= 12 {
		t.Errorf("first mold TriangleCount() = %d, want more than 12", got)
	}
}

func TestLShapedFaceWithoutExtraArea(t *testing.T) {
	k := ortho.New()
	a := makeBox(t, k, v3.Vec{}, v3.Vec{X: 2, Y: 2, Z: 1})
	b := makeBox(t, k, v3.Vec{X: 1, Y: 1, Z: -1}, v3.Vec{X: 3, Y: 3, Z: 2})
	l, err := k.Cut(a, b)
	if err != nil {
		t.Fatalf("Cut: %v", err)
	}
	meshes, err := tessellate.Tessellate(l)
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	// Two L faces of area 3 and sides along a perimeter of 8.
	if got := area(meshes[0]); math.Abs(got-14) > 1e-6 {
		t.Errorf("area = %v, want 14", got)
	}
}

func TestSlantedFaceUsesFan(t *testing.T) {
	a := topo.MakeVertex(v3.Vec{})
	b := topo.MakeVertex(v3.Vec{X: 1})
	c := topo.MakeVertex(v3.Vec{X: 1, Y: 1, Z: 1})
	d := topo.MakeVertex(v3.Vec{Y: 1, Z: 1})
	w := topo.MakeWire(topo.MakeEdge(a, b), topo.MakeEdge(b, c), topo.MakeEdge(c, d), topo.MakeEdge(d, a))
	f := topo.MakeFace(topo.BilinearPatch(v3.Vec{}, v3.Vec{X: 1}, v3.Vec{X: 1, Y: 1, Z: 1}, v3.Vec{Y: 1, Z: 1}), w)

	meshes, err := tessellate.Tessellate(f)
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	if len(meshes) != 1 || meshes[0].TriangleCount() != 2 {
		t.Fatalf("expected 1 mesh of 2 triangles, got %d meshes", len(meshes))
	}
	if meshes[0].PartName != "face-1" {
		t.Errorf("PartName = %q, want face-1", meshes[0].PartName)
	}
	if got := area(meshes[0]); math.Abs(got-math.Sqrt2) > 1e-6 {
		t.Errorf("area = %v, want %v", got, math.Sqrt2)
	}
}

func TestRejectsEdges(t *testing.T) {
	e := topo.MakeEdge(topo.MakeVertex(v3.Vec{}), topo.MakeVertex(v3.Vec{X: 1}))
	if _, err := tessellate.Tessellate(e); err == nil {
		t.Fatal("expected an error for an edge")
	}
}
