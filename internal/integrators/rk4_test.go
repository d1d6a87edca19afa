package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/hoversim/internal/dynamo"
)

type simpleDynamics struct{}

func (s *simpleDynamics) Derive(x dynamo.State, u dynamo.Control, t float64) (dynamo.State, error) {
	return dynamo.State{x[1], -x[0]}, nil
}

func (s *simpleDynamics) StateDim() int   { return 2 }
func (s *simpleDynamics) ControlDim() int { return 0 }

// wall faults once x[0] drops below Limit.
type wall struct {
	Limit float64
}

func (w *wall) Derive(x dynamo.State, u dynamo.Control, t float64) (dynamo.State, error) {
	if x[0] <= w.Limit {
		return nil, dynamo.ErrSurfaceCollision
	}
	return dynamo.State{x[1], 0}, nil
}

func (w *wall) StateDim() int   { return 2 }
func (w *wall) ControlDim() int { return 0 }

func TestRK4Accuracy(t *testing.T) {
	dyn := &simpleDynamics{}
	integ := NewRK4(0.01)

	x := dynamo.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	var err error
	for i := 0; i < steps; i++ {
		x, err = integ.Step(dyn, x, nil, float64(i)*dt, dt)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-8 {
		t.Errorf("position error too large: got %.10f, expected %.10f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-8 {
		t.Errorf("velocity error too large: got %.10f, expected %.10f", x[1], expectedV)
	}
}

func TestRK4IntegrateObserverTimes(t *testing.T) {
	integ := NewRK4(0.1)

	var times []float64
	x, err := integ.Integrate(&simpleDynamics{}, dynamo.State{1, 0}, nil, 2.0, 3.0, func(_ dynamo.State, tt float64) {
		times = append(times, tt)
	})
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	if len(times) != 10 {
		t.Fatalf("expected 10 observations, got %d", len(times))
	}
	for i, tt := range times {
		want := 2.0 + 0.1*float64(i+1)
		if math.Abs(tt-want) > 1e-12 {
			t.Errorf("observation %d at t=%v, want %v", i, tt, want)
		}
	}
	if times[len(times)-1] != 3.0 {
		t.Errorf("last observation must land on the interval end, got %v", times[len(times)-1])
	}
	if math.Abs(x[0]-math.Cos(1.0)) > 1e-5 {
		t.Errorf("x[0] = %v, want %v", x[0], math.Cos(1.0))
	}
}

func TestRK4IntegrateStopsOnFault(t *testing.T) {
	integ := NewRK4(0.1)
	sys := &wall{Limit: 0.5}

	var last float64
	x, err := integ.Integrate(sys, dynamo.State{1, -1}, nil, 0, 1, func(_ dynamo.State, tt float64) {
		last = tt
	})
	if err == nil {
		t.Fatal("expected a collision")
	}
	if x[0] <= sys.Limit {
		t.Errorf("returned state %v is past the wall", x)
	}
	if last > 0.5+1e-9 || last < 0.4-1e-9 {
		t.Errorf("last accepted time %v should be one step before the crossing", last)
	}
}
