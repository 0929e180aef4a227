package topo

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Curve is the geometry carried by an edge.
type Curve interface {
	// Eval returns the point at parameter t in [0, 1].
	Eval(t float64) v3.Vec
	// Project returns the parameter and distance of the point on the curve
	// nearest to p.
	Project(p v3.Vec) (t, dist float64)
	// Map returns the curve with every control point passed through fn.
	Map(fn func(v3.Vec) v3.Vec) Curve
}

// Surface is the geometry carried by a face.
type Surface interface {
	Eval(u, v float64) v3.Vec
	Map(fn func(v3.Vec) v3.Vec) Surface
}

// Segment is a bounded straight line from A to B.
type Segment struct {
	A, B v3.Vec
}

func (s Segment) Eval(t float64) v3.Vec {
	return s.A.Add(s.B.Sub(s.A).MulScalar(t))
}

func (s Segment) Project(p v3.Vec) (float64, float64) {
	d := s.B.Sub(s.A)
	l2 := d.Dot(d)
	t := 0.0
	if l2 > 0 {
		t = clamp01(p.Sub(s.A).Dot(d) / l2)
	}
	return t, p.Sub(s.Eval(t)).Length()
}

func (s Segment) Map(fn func(v3.Vec) v3.Vec) Curve {
	return Segment{A: fn(s.A), B: fn(s.B)}
}

// Plane is an unbounded plane through Origin spanned by XDir and YDir.
type Plane struct {
	Origin, XDir, YDir v3.Vec
}

// Normal returns the unit normal XDir x YDir.
func (p Plane) Normal() v3.Vec {
	return p.XDir.Cross(p.YDir).Normalize()
}

func (p Plane) Eval(u, v float64) v3.Vec {
	return p.Origin.Add(p.XDir.MulScalar(u)).Add(p.YDir.MulScalar(v))
}

func (p Plane) Map(fn func(v3.Vec) v3.Vec) Surface {
	o := fn(p.Origin)
	return Plane{
		Origin: o,
		XDir:   fn(p.Origin.Add(p.XDir)).Sub(o),
		YDir:   fn(p.Origin.Add(p.YDir)).Sub(o),
	}
}

// BSplineSurface is a non-rational tensor-product B-spline patch. Poles is
// indexed [u][v]; the knot vectors are full (clamped) vectors.
type BSplineSurface struct {
	UDegree, VDegree int
	UKnots, VKnots   []float64
	Poles            [][]v3.Vec
}

// BilinearPatch returns the degree-1 patch through four corners, ordered
// p00, p10, p11, p01 around the boundary.
func BilinearPatch(p00, p10, p11, p01 v3.Vec) *BSplineSurface {
	return &BSplineSurface{
		UDegree: 1,
		VDegree: 1,
		UKnots:  []float64{0, 0, 1, 1},
		VKnots:  []float64{0, 0, 1, 1},
		Poles: [][]v3.Vec{
			{p00, p01},
			{p10, p11},
		},
	}
}

func (s *BSplineSurface) Eval(u, v float64) v3.Vec {
	us := knotSpan(s.UKnots, s.UDegree, u)
	vs := knotSpan(s.VKnots, s.VDegree, v)
	nu := basisFunctions(s.UKnots, us, s.UDegree, u)
	nv := basisFunctions(s.VKnots, vs, s.VDegree, v)

	var out v3.Vec
	for i := 0; i <= s.UDegree; i++ {
		row := s.Poles[us-s.UDegree+i]
		for j := 0; j <= s.VDegree; j++ {
			out = out.Add(row[vs-s.VDegree+j].MulScalar(nu[i] * nv[j]))
		}
	}
	return out
}

func (s *BSplineSurface) Map(fn func(v3.Vec) v3.Vec) Surface {
	out := &BSplineSurface{
		UDegree: s.UDegree,
		VDegree: s.VDegree,
		UKnots:  append([]float64(nil), s.UKnots...),
		VKnots:  append([]float64(nil), s.VKnots...),
		Poles:   make([][]v3.Vec, len(s.Poles)),
	}
	for i, row := range s.Poles {
		out.Poles[i] = make([]v3.Vec, len(row))
		for j, p := range row {
			out.Poles[i][j] = fn(p)
		}
	}
	return out
}

// ClampedKnots returns the clamped uniform knot vector on [0, 1] for n
// poles of the given degree. n must exceed degree.
func ClampedKnots(n, degree int) []float64 {
	inner := n - degree - 1
	knots := make([]float64, 0, n+degree+1)
	for i := 0; i <= degree; i++ {
		knots = append(knots, 0)
	}
	for i := 1; i <= inner; i++ {
		knots = append(knots, float64(i)/float64(inner+1))
	}
	for i := 0; i <= degree; i++ {
		knots = append(knots, 1)
	}
	return knots
}

// BasisRow returns the value at u of every basis function of the knot
// vector, one per pole. At most degree+1 entries are non-zero.
func BasisRow(knots []float64, degree int, u float64) []float64 {
	row := make([]float64, len(knots)-degree-1)
	span := knotSpan(knots, degree, u)
	for i, b := range basisFunctions(knots, span, degree, u) {
		row[span-degree+i] = b
	}
	return row
}

// knotSpan finds the span index of u (The NURBS Book, A2.1).
func knotSpan(knots []float64, degree int, u float64) int {
	n := len(knots) - degree - 2
	if u >= knots[n+1] {
		return n
	}
	if u < knots[degree] {
		return degree
	}
	low, high := degree, n+1
	mid := (low + high) / 2
	for u < knots[mid] || u >= knots[mid+1] {
		if u < knots[mid] {
			high = mid
		} else {
			low = mid
		}
		mid = (low + high) / 2
	}
	return mid
}

// basisFunctions computes the non-vanishing basis functions at u
// (The NURBS Book, A2.2).
func basisFunctions(knots []float64, span, degree int, u float64) []float64 {
	n := make([]float64, degree+1)
	left := make([]float64, degree+1)
	right := make([]float64, degree+1)
	n[0] = 1
	for j := 1; j <= degree; j++ {
		left[j] = u - knots[span+1-j]
		right[j] = knots[span+j] - u
		var saved float64
		for r := 0; r < j; r++ {
			tmp := n[r] / (right[r+1] + left[j-r])
			n[r] = saved + right[r+1]*tmp
			saved = left[j-r] * tmp
		}
		n[j] = saved
	}
	return n
}

func clamp01(t float64) float64 {
	return math.Max(0, math.Min(1, t))
}
