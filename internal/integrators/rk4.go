package integrators

import (
	"math"

	"github.com/san-kum/hoversim/internal/dynamo"
)

// RK4 is the classical fourth-order Runge-Kutta stepper. As a Propagator it
// walks each interval in equal steps no longer than Dt.
type RK4 struct {
	Dt float64

	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4(dt float64) *RK4 {
	return &RK4{Dt: dt}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) (dynamo.State, error) {
	n := len(x)
	r.ensureScratch(n)

	k1, err := sys.Derive(x, u, t)
	if err != nil {
		return nil, err
	}
	copy(r.k1, k1)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	k2, err := sys.Derive(r.scratch, u, t+dt*0.5)
	if err != nil {
		return nil, err
	}
	copy(r.k2, k2)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	k3, err := sys.Derive(r.scratch, u, t+dt*0.5)
	if err != nil {
		return nil, err
	}
	copy(r.k3, k3)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	k4, err := sys.Derive(r.scratch, u, t+dt)
	if err != nil {
		return nil, err
	}
	copy(r.k4, k4)

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	if !result.IsValid() {
		return nil, dynamo.ErrInvalidState
	}
	return result, nil
}

// Integrate steps from t0 to t1. On a fault the last accepted state is
// returned with the error.
func (r *RK4) Integrate(sys dynamo.System, x dynamo.State, u dynamo.Control, t0, t1 float64, obs func(dynamo.State, float64)) (dynamo.State, error) {
	if t1 <= t0 {
		return x, nil
	}
	steps := int(math.Ceil((t1-t0)/r.Dt - 1e-9))
	if steps < 1 {
		steps = 1
	}
	h := (t1 - t0) / float64(steps)

	for i := 0; i < steps; i++ {
		t := t0 + float64(i)*h
		next, err := r.Step(sys, x, u, t, h)
		if err != nil {
			return x, err
		}
		x = next
		if obs != nil {
			if i == steps-1 {
				obs(x, t1)
			} else {
				obs(x, t0+float64(i+1)*h)
			}
		}
	}
	return x, nil
}
