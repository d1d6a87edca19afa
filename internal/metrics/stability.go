package metrics

import (
	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/vector"
)

// Stability is the fraction of observations that lie within radius of the
// target position.
type Stability struct {
	name       string
	target     vector.Vector3D
	radius     float64
	violations int
	samples    int
}

func NewStability(target vector.Vector3D, radius float64) *Stability {
	return &Stability{
		name:   "stability",
		target: target,
		radius: radius,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x dynamo.SystemState, thrust vector.Vector3D, t float64) {
	s.samples++
	if x.Position().Sub(s.target).Norm() > s.radius {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
