// Package fit approximates sampled profiles with cubic Bezier curves, used
// to build B-spline boundary curves from measured points, and scattered
// surface samples with tensor-product B-spline patches.
package fit

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrTooFewSamples is returned when fewer than four samples are given.
	ErrTooFewSamples = errors.New("fit: need at least 4 samples")
	// ErrLengthMismatch is returned when parameter and coordinate slices
	// differ in length.
	ErrLengthMismatch = errors.New("fit: sample slices differ in length")
)

// basis maps power coefficients [t³ t² t 1] to Bernstein control points.
var basis = mat.NewDense(4, 4, []float64{
	-1, 3, -3, 1,
	3, -6, 3, 0,
	-3, 3, 0, 0,
	1, 0, 0, 0,
})

// Curve2 is a planar cubic Bezier curve given by four control points.
type Curve2 struct {
	X [4]float64 `json:"x" yaml:"x"`
	Y [4]float64 `json:"y" yaml:"y"`
}

// Eval returns the point at parameter t in [0, 1].
func (c Curve2) Eval(t float64) (x, y float64) {
	s := 1 - t
	b := [4]float64{s * s * s, 3 * s * s * t, 3 * s * t * t, t * t * t}
	for i := range b {
		x += b[i] * c.X[i]
		y += b[i] * c.Y[i]
	}
	return x, y
}

// UniformParams returns n parameters spread evenly over [0, 1].
func UniformParams(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		if n > 1 {
			out[i] = float64(i) / float64(n-1)
		}
	}
	return out
}

// CubicBezier returns the control points minimizing the squared distance
// between the curve at ts[i] and (xs[i], ys[i]).
func CubicBezier(ts, xs, ys []float64) (Curve2, error) {
	if len(ts) != len(xs) || len(ts) != len(ys) {
		return Curve2{}, ErrLengthMismatch
	}
	n := len(ts)
	if n < 4 {
		return Curve2{}, ErrTooFewSamples
	}

	t := mat.NewDense(n, 4, nil)
	p := mat.NewDense(n, 2, nil)
	for i, ti := range ts {
		t.SetRow(i, []float64{ti * ti * ti, ti * ti, ti, 1})
		p.Set(i, 0, xs[i])
		p.Set(i, 1, ys[i])
	}

	// T·M·C ≈ P: solve the power coefficients in the least-squares sense,
	// then convert them to control points.
	var coef, ctrl mat.Dense
	if err := coef.Solve(t, p); err != nil {
		return Curve2{}, fmt.Errorf("fit: %w", err)
	}
	if err := ctrl.Solve(basis, &coef); err != nil {
		return Curve2{}, fmt.Errorf("fit: %w", err)
	}

	var c Curve2
	for i := 0; i < 4; i++ {
		c.X[i] = ctrl.At(i, 0)
		c.Y[i] = ctrl.At(i, 1)
	}
	return c, nil
}

// CubicBezierPinned fits like CubicBezier, then moves the end control
// points onto the first and last samples. The inner y control points are
// shifted by the mean of the two end offsets.
func CubicBezierPinned(ts, xs, ys []float64) (Curve2, error) {
	c, err := CubicBezier(ts, xs, ys)
	if err != nil {
		return Curve2{}, err
	}
	n := len(xs)
	dy := ((ys[0] - c.Y[0]) + (ys[n-1] - c.Y[3])) / 2

	c.X[0], c.X[3] = xs[0], xs[n-1]
	c.Y[0], c.Y[3] = ys[0], ys[n-1]
	c.Y[1] -= dy
	c.Y[2] -= dy
	return c, nil
}
