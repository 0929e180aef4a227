package ortho

import (
	"math"

	"github.com/chazu/seam/pkg/kernel"
	"github.com/chazu/seam/pkg/topo"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Classifier answers point queries against an axis-aligned solid.
type Classifier struct {
	m *model
}

// NewClassifier prepares s for point queries. It fails like the booleans
// do for shapes that are not bounded by axis-aligned faces.
func NewClassifier(s topo.Shape) (*Classifier, error) {
	m, err := newModel(s)
	if err != nil {
		return nil, err
	}
	return &Classifier{m: m}, nil
}

// Contains reports whether p lies inside the solid. Points on the boundary
// may be reported either way.
func (c *Classifier) Contains(p v3.Vec) bool {
	return c.m.contains(p)
}

// Distance returns the distance from p to the nearest face.
func (c *Classifier) Distance(p v3.Vec) float64 {
	best := math.Inf(1)
	for _, f := range c.m.faces {
		if d := f.distance(p); d < best {
			best = d
		}
	}
	return best
}

// distance returns the distance from p to the face polygon.
func (f planarFace) distance(p v3.Vec) float64 {
	h := kernel.Component(p, f.axis) - f.coord
	q := kernel.Project(p, f.axis)
	if kernel.InsideLoops(q, f.loops) {
		return math.Abs(h)
	}
	e := math.Inf(1)
	for _, loop := range f.loops {
		for i := range loop {
			if d := segmentDistance(q, loop[i], loop[(i+1)%len(loop)]); d < e {
				e = d
			}
		}
	}
	return math.Hypot(h, e)
}

func segmentDistance(p, a, b pt2) float64 {
	du, dv := b.U-a.U, b.V-a.V
	l2 := du*du + dv*dv
	t := 0.0
	if l2 > 0 {
		t = ((p.U-a.U)*du + (p.V-a.V)*dv) / l2
		t = math.Max(0, math.Min(1, t))
	}
	return math.Hypot(p.U-(a.U+t*du), p.V-(a.V+t*dv))
}
