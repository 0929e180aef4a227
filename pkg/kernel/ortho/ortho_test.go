package ortho

import (
	"testing"

	"github.com/chazu/seam/pkg/kernel"
	"github.com/chazu/seam/pkg/topo"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vec(x, y, z float64) v3.Vec { return v3.Vec{X: x, Y: y, Z: z} }

func box(t *testing.T, k *Kernel, min, max v3.Vec) topo.Shape {
	t.Helper()
	s, err := k.BoxMinMax(min, max)
	require.NoError(t, err)
	return s
}

func count(s topo.Shape, typ topo.ShapeType) int {
	return len(topo.Unique(topo.Explore(s, typ)))
}

func volume(s topo.Shape) float64 {
	var v float64
	for _, f := range topo.Explore(s, topo.Face) {
		for _, l := range topo.FaceLoops(f) {
			v += loopVolume6(l)
		}
	}
	return v / 6
}

// requireClosed asserts every edge of every shell is used by exactly two
// face occurrences, once in each direction.
func requireClosed(t *testing.T, s topo.Shape) {
	t.Helper()
	for _, sh := range topo.Explore(s, topo.Shell) {
		uses := make(map[*topo.TShape][]topo.Orientation)
		for _, f := range topo.Explore(sh, topo.Face) {
			for _, e := range topo.Explore(f, topo.Edge) {
				uses[e.TShape()] = append(uses[e.TShape()], e.Orientation())
			}
		}
		for _, os := range uses {
			require.Len(t, os, 2)
			require.NotEqual(t, os[0], os[1])
		}
	}
}

func TestBoxTopology(t *testing.T) {
	k := New()
	s := box(t, k, vec(0, 0, 0), vec(1, 2, 3))

	assert.Equal(t, topo.Solid, s.Type())
	assert.Equal(t, 1, count(s, topo.Shell))
	assert.Equal(t, 6, count(s, topo.Face))
	assert.Equal(t, 6, count(s, topo.Wire))
	assert.Equal(t, 12, count(s, topo.Edge))
	assert.Equal(t, 8, count(s, topo.Vertex))
	assert.InDelta(t, 6.0, volume(s), 1e-12)
	requireClosed(t, s)

	bb := kernel.BoundingBox(s)
	assert.Equal(t, vec(0, 0, 0), bb.Min)
	assert.Equal(t, vec(1, 2, 3), bb.Max)
}

func TestBoxFromPointsUsesBSplineFaces(t *testing.T) {
	k := New()
	s, err := k.Box([8]v3.Vec{
		vec(0, 0, 0), vec(1, 0, 0), vec(1, 1, 0), vec(0, 1, 0),
		vec(0, 0, 1), vec(1, 0, 1), vec(1, 1, 1), vec(0, 1, 1),
	})
	require.NoError(t, err)
	for _, f := range topo.Explore(s, topo.Face) {
		_, ok := topo.SurfaceOf(f).(*topo.BSplineSurface)
		assert.True(t, ok)
	}
}

func TestBoxMinMaxRejectsDegenerate(t *testing.T) {
	_, err := New().BoxMinMax(vec(0, 0, 0), vec(1, 0, 1))
	assert.Error(t, err)
}

func TestSewMissingFaceFails(t *testing.T) {
	k := New()
	s := box(t, k, vec(0, 0, 0), vec(1, 1, 1))
	faces := topo.Explore(s, topo.Face)

	_, err := k.Sew(faces[:5], 0.01)
	require.ErrorIs(t, err, kernel.ErrSewing)
	assert.Contains(t, err.Error(), "4 free edges")
}

func TestSewSplitsEdgesAtTJunctions(t *testing.T) {
	k := New()
	s := box(t, k, vec(0, 0, 0), vec(1, 1, 1))
	var faces []topo.Shape
	for _, f := range topo.Explore(s, topo.Face) {
		pts := topo.Points(f)
		onRight := true
		for _, p := range pts {
			if p.X != 1 {
				onRight = false
			}
		}
		if !onRight {
			faces = append(faces, f)
		}
	}
	require.Len(t, faces, 5)
	faces = append(faces,
		quadFace(vec(1, 0, 0), vec(1, 0.5, 0), vec(1, 0.5, 1), vec(1, 0, 1)),
		quadFace(vec(1, 0.5, 0), vec(1, 1, 0), vec(1, 1, 1), vec(1, 0.5, 1)),
	)

	shell, err := k.Sew(faces, 0.01)
	require.NoError(t, err)
	assert.Equal(t, 7, count(shell, topo.Face))
	assert.Equal(t, 10, count(shell, topo.Vertex))
	assert.InDelta(t, 1.0, volume(shell), 1e-12)
	requireClosed(t, shell)

	solid, err := k.MakeSolid(shell)
	require.NoError(t, err)
	assert.Equal(t, topo.Solid, solid.Type())
}

func TestSewUnifiesWithinTolerance(t *testing.T) {
	k := New()
	s := box(t, k, vec(0, 0, 0), vec(1, 1, 1))
	faces := topo.Explore(s, topo.Face)
	nudged := make([]topo.Shape, len(faces))
	for i, f := range faces {
		d := float64(i) * 1e-4
		nudged[i] = topo.Translate(f, vec(d, 0, 0))
	}

	shell, err := k.Sew(nudged, 0.01)
	require.NoError(t, err)
	assert.Equal(t, 8, count(shell, topo.Vertex))
}

func TestMakeSolidRejectsFace(t *testing.T) {
	k := New()
	s := box(t, k, vec(0, 0, 0), vec(1, 1, 1))
	_, err := k.MakeSolid(topo.Explore(s, topo.Face)[0])
	assert.ErrorIs(t, err, topo.ErrWrongType)
}

func TestCutAndCommonShareOneFacePosition(t *testing.T) {
	k := New()
	a := box(t, k, vec(0, 0, 0), vec(1, 1, 1))
	b := box(t, k, vec(0.5, -1, -1), vec(2, 2, 2))

	cut, err := k.Cut(a, b)
	require.NoError(t, err)
	common, err := k.Common(a, b)
	require.NoError(t, err)

	for _, tc := range []struct {
		name     string
		s        topo.Shape
		min, max v3.Vec
	}{
		{"cut", cut, vec(0, 0, 0), vec(0.5, 1, 1)},
		{"common", common, vec(0.5, 0, 0), vec(1, 1, 1)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, topo.Solid, tc.s.Type())
			assert.Equal(t, 6, count(tc.s, topo.Face))
			assert.Equal(t, 12, count(tc.s, topo.Edge))
			assert.Equal(t, 8, count(tc.s, topo.Vertex))
			assert.InDelta(t, 0.5, volume(tc.s), 1e-12)
			bb := kernel.BoundingBox(tc.s)
			assert.Equal(t, tc.min, bb.Min)
			assert.Equal(t, tc.max, bb.Max)
			requireClosed(t, tc.s)
		})
	}

	// Inputs are untouched.
	assert.Equal(t, 6, count(a, topo.Face))
}

func TestCutIntoTwoPieces(t *testing.T) {
	k := New()
	a := box(t, k, vec(0, 0, 0), vec(3, 1, 1))
	b := box(t, k, vec(1, -1, -1), vec(2, 2, 2))

	out, err := k.Cut(a, b)
	require.NoError(t, err)
	assert.Equal(t, topo.Compound, out.Type())
	assert.Equal(t, 2, count(out, topo.Solid))
	assert.Equal(t, 12, count(out, topo.Face))
	assert.InDelta(t, 2.0, volume(out), 1e-12)
}

func TestFuseMergesCoplanarFacets(t *testing.T) {
	k := New()
	a := box(t, k, vec(0, 0, 0), vec(1, 1, 1))
	b := box(t, k, vec(1, 0, 0), vec(2, 1, 1))

	out, err := k.Fuse(a, b)
	require.NoError(t, err)
	assert.Equal(t, 6, count(out, topo.Face))
	assert.Equal(t, 8, count(out, topo.Vertex))
	assert.InDelta(t, 2.0, volume(out), 1e-12)
}

func TestFuseLShape(t *testing.T) {
	k := New()
	a := box(t, k, vec(0, 0, 0), vec(2, 1, 1))
	b := box(t, k, vec(0, 1, 0), vec(1, 2, 1))

	out, err := k.Fuse(a, b)
	require.NoError(t, err)
	assert.Equal(t, 8, count(out, topo.Face))
	assert.Equal(t, 12, count(out, topo.Vertex))
	assert.Equal(t, 18, count(out, topo.Edge))
	assert.InDelta(t, 3.0, volume(out), 1e-12)
	requireClosed(t, out)
}

func TestCutThroughHole(t *testing.T) {
	k := New()
	a := box(t, k, vec(0, 0, 0), vec(3, 3, 1))
	b := box(t, k, vec(1, 1, -1), vec(2, 2, 2))

	out, err := k.Cut(a, b)
	require.NoError(t, err)
	assert.Equal(t, topo.Solid, out.Type())
	assert.Equal(t, 10, count(out, topo.Face))
	assert.Equal(t, 12, count(out, topo.Wire))
	assert.InDelta(t, 8.0, volume(out), 1e-12)
	requireClosed(t, out)
}

func TestCutCavity(t *testing.T) {
	k := New()
	a := box(t, k, vec(0, 0, 0), vec(3, 3, 3))
	b := box(t, k, vec(1, 1, 1), vec(2, 2, 2))

	out, err := k.Cut(a, b)
	require.NoError(t, err)
	assert.Equal(t, topo.Solid, out.Type())
	assert.Equal(t, 2, count(out, topo.Shell))
	assert.InDelta(t, 26.0, volume(out), 1e-12)
}

func TestSplitFaceEdgesMatchNeighbours(t *testing.T) {
	// A step on the top: the x=1 wall of the low part meets the top face of
	// the tall part, so the shared vertical edges must be split alike.
	k := New()
	a := box(t, k, vec(0, 0, 0), vec(2, 1, 1))
	b := box(t, k, vec(1, 0, 1), vec(2, 1, 2))

	out, err := k.Fuse(a, b)
	require.NoError(t, err)
	requireClosed(t, out)
	assert.InDelta(t, 3.0, volume(out), 1e-12)
}

func TestCommonOfDisjointIsEmpty(t *testing.T) {
	k := New()
	a := box(t, k, vec(0, 0, 0), vec(1, 1, 1))
	b := box(t, k, vec(2, 2, 2), vec(3, 3, 3))

	_, err := k.Common(a, b)
	assert.ErrorIs(t, err, kernel.ErrEmptyResult)
}

func TestBooleanRejectsSlantedFaces(t *testing.T) {
	k := New()
	a := box(t, k, vec(0, 0, 0), vec(1, 1, 1))
	slanted, err := k.Box([8]v3.Vec{
		vec(0, 0, 0), vec(1, 0, 0), vec(1.5, 1, 0), vec(0, 1, 0),
		vec(0, 0, 1), vec(1, 0, 1), vec(1.5, 1, 1), vec(0, 1, 1),
	})
	require.NoError(t, err)

	_, err = k.Cut(a, slanted)
	assert.ErrorIs(t, err, kernel.ErrNotAxisAligned)
}

func TestBooleanIsDeterministic(t *testing.T) {
	k := New()
	a := box(t, k, vec(0, 0, 0), vec(1, 1, 1))
	b := box(t, k, vec(0.5, -1, -1), vec(2, 0.5, 2))

	first, err := k.Cut(a, b)
	require.NoError(t, err)
	second, err := k.Cut(a, b)
	require.NoError(t, err)

	fp, sp := topo.Points(first), topo.Points(second)
	assert.Equal(t, fp, sp)
}

func TestTranslateCopies(t *testing.T) {
	k := New()
	a := box(t, k, vec(0, 0, 0), vec(1, 1, 1))
	moved := k.Translate(a, vec(1, 0, 0))
	bb := kernel.BoundingBox(moved)
	assert.Equal(t, vec(1, 0, 0), bb.Min)
	assert.False(t, moved.IsSame(a))
}
