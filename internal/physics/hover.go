package physics

import (
	"github.com/san-kum/hoversim/internal/asteroid"
	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/vector"
)

// StandardGravity is g0 in the rocket equation, m/s^2.
const StandardGravity = 9.80665

// Hover is the point-mass spacecraft near a rotating asteroid. The state is
// a dynamo.SystemState flattened; the control is the thrust vector in N.
//
//	r' = v
//	v' = p + g(r) + T/m - 2w x v - w' x r - w x (w x r)
//	m' = -|T| / (Isp (1 + n) g0)
//
// p and n are the perturbation and engine noise of the current control
// interval, set with SetDisturbance.
type Hover struct {
	Asteroid        *asteroid.Asteroid
	SpecificImpulse float64
	MinimumMass     float64
	FuelUsage       bool

	perturbation vector.Vector3D
	engineNoise  float64
}

func NewHover(ast *asteroid.Asteroid, specificImpulse, minimumMass float64, fuelUsage bool) *Hover {
	return &Hover{
		Asteroid:        ast,
		SpecificImpulse: specificImpulse,
		MinimumMass:     minimumMass,
		FuelUsage:       fuelUsage,
	}
}

func (h *Hover) StateDim() int   { return dynamo.SystemStateDim }
func (h *Hover) ControlDim() int { return 3 }

// SetDisturbance fixes the perturbation acceleration and relative engine
// noise until the next call.
func (h *Hover) SetDisturbance(perturbation vector.Vector3D, engineNoise float64) {
	h.perturbation = perturbation
	h.engineNoise = engineNoise
}

func (h *Hover) Perturbation() vector.Vector3D { return h.perturbation }

// Derive returns ErrOutOfFuel when m <= MinimumMass, checked first, and
// ErrSurfaceCollision when r is inside or on the surface.
func (h *Hover) Derive(x dynamo.State, u dynamo.Control, t float64) (dynamo.State, error) {
	if len(x) < dynamo.SystemStateDim {
		return nil, dynamo.ErrInvalidState
	}
	s := dynamo.SystemStateFromState(x)
	mass := s.Mass()
	if mass <= h.MinimumMass {
		return nil, dynamo.ErrOutOfFuel
	}

	pos, vel := s.Position(), s.Velocity()
	if h.Asteroid.Contains(pos) {
		return nil, dynamo.ErrSurfaceCollision
	}

	thrust := vector.FromSlice(u)
	accel := h.perturbation.
		Add(h.Asteroid.GravityAccelerationAtPosition(pos)).
		Add(thrust.Scale(1 / mass)).
		Sub(FrameAcceleration(h.Asteroid, pos, vel, t))

	dm := 0.0
	if h.FuelUsage {
		dm = -thrust.Norm() / (h.SpecificImpulse * (1 + h.engineNoise) * StandardGravity)
	}

	return dynamo.State{vel[0], vel[1], vel[2], accel[0], accel[1], accel[2], dm}, nil
}

// FrameAcceleration is the sum of the Coriolis, Euler and centrifugal terms
// seen in the rotating frame of ast at time t.
func FrameAcceleration(ast *asteroid.Asteroid, pos, vel vector.Vector3D, t float64) vector.Vector3D {
	w, dw := ast.AngularVelocityAndAccelerationAtTime(t)
	coriolis := w.Scale(2).Cross(vel)
	euler := dw.Cross(pos)
	centrifugal := w.Cross(w.Cross(pos))
	return coriolis.Add(euler).Add(centrifugal)
}

// ExternalAcceleration is what an accelerometer without thrust would read:
// perturbation plus gravity minus the frame terms.
func ExternalAcceleration(ast *asteroid.Asteroid, pos, vel, perturbation vector.Vector3D, t float64) vector.Vector3D {
	return perturbation.Add(ast.GravityAccelerationAtPosition(pos)).Sub(FrameAcceleration(ast, pos, vel, t))
}
