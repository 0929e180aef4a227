package fit

import (
	"errors"
	"fmt"

	"github.com/chazu/seam/pkg/topo"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrUnderdetermined is returned when a surface fit has fewer samples
	// than poles.
	ErrUnderdetermined = errors.New("fit: fewer samples than poles")
	// ErrDegree is returned when a degree is below 1 or not below the
	// pole count in its direction.
	ErrDegree = errors.New("fit: degree must be at least 1 and less than the pole count")
)

// SurfaceSample is a measured point P at surface parameters (U, V), both
// in [0, 1].
type SurfaceSample struct {
	U, V float64
	P    v3.Vec
}

// SurfaceGrid describes the control net of a surface fit.
type SurfaceGrid struct {
	UPoles, VPoles   int
	UDegree, VDegree int
}

// BSplineSurface returns the tensor-product B-spline patch on clamped
// uniform knots whose poles minimize the squared distance between the
// patch at (U, V) and P over all samples.
func BSplineSurface(samples []SurfaceSample, g SurfaceGrid) (*topo.BSplineSurface, error) {
	if g.UDegree < 1 || g.UDegree >= g.UPoles || g.VDegree < 1 || g.VDegree >= g.VPoles {
		return nil, fmt.Errorf("%w: %dx%d poles, degree %dx%d", ErrDegree, g.UPoles, g.VPoles, g.UDegree, g.VDegree)
	}
	poles := g.UPoles * g.VPoles
	if len(samples) < poles {
		return nil, fmt.Errorf("%w: %d samples, %d poles", ErrUnderdetermined, len(samples), poles)
	}

	uk := topo.ClampedKnots(g.UPoles, g.UDegree)
	vk := topo.ClampedKnots(g.VPoles, g.VDegree)

	// A[k][i*VPoles+j] = Nu_i(u_k)·Nv_j(v_k); solve A·C ≈ P column-wise.
	a := mat.NewDense(len(samples), poles, nil)
	p := mat.NewDense(len(samples), 3, nil)
	for k, s := range samples {
		nu := topo.BasisRow(uk, g.UDegree, s.U)
		nv := topo.BasisRow(vk, g.VDegree, s.V)
		for i, bu := range nu {
			if bu == 0 {
				continue
			}
			for j, bv := range nv {
				a.Set(k, i*g.VPoles+j, bu*bv)
			}
		}
		p.SetRow(k, []float64{s.P.X, s.P.Y, s.P.Z})
	}

	var c mat.Dense
	if err := c.Solve(a, p); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	out := &topo.BSplineSurface{
		UDegree: g.UDegree,
		VDegree: g.VDegree,
		UKnots:  uk,
		VKnots:  vk,
		Poles:   make([][]v3.Vec, g.UPoles),
	}
	for i := range out.Poles {
		out.Poles[i] = make([]v3.Vec, g.VPoles)
		for j := range out.Poles[i] {
			r := i*g.VPoles + j
			out.Poles[i][j] = v3.Vec{X: c.At(r, 0), Y: c.At(r, 1), Z: c.At(r, 2)}
		}
	}
	return out, nil
}

// GridSamples evaluates s on an n x m grid of uniform parameters.
func GridSamples(s topo.Surface, n, m int) []SurfaceSample {
	out := make([]SurfaceSample, 0, n*m)
	for _, u := range UniformParams(n) {
		for _, v := range UniformParams(m) {
			out = append(out, SurfaceSample{U: u, V: v, P: s.Eval(u, v)})
		}
	}
	return out
}
