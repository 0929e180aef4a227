package ortho

import (
	"github.com/chazu/seam/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

type pt2 = kernel.Point2

func unit(axis int) v3.Vec {
	var v v3.Vec
	kernel.SetComponent(&v, axis, 1)
	return v
}

// axisParallel reports whether every consecutive pair of loop points
// differs in exactly one coordinate.
func axisParallel(loop []v3.Vec) bool {
	for i := range loop {
		a, b := loop[i], loop[(i+1)%len(loop)]
		diff := 0
		for axis := 0; axis < 3; axis++ {
			if kernel.Component(a, axis) != kernel.Component(b, axis) {
				diff++
			}
		}
		if diff != 1 {
			return false
		}
	}
	return true
}

// area2 returns twice the signed area of a 2D loop.
func area2(loop []pt2) float64 {
	var s float64
	for i := range loop {
		a, b := loop[i], loop[(i+1)%len(loop)]
		s += a.U*b.V - b.U*a.V
	}
	return s
}

// loopVolume6 returns six times the signed volume contributed by a closed
// loop under the divergence theorem. Summed over every loop of a closed,
// consistently oriented shell it gives six times the enclosed volume.
func loopVolume6(loop []v3.Vec) float64 {
	var s float64
	for i := 1; i+1 < len(loop); i++ {
		s += loop[0].Dot(loop[i].Cross(loop[i+1]))
	}
	return s
}
