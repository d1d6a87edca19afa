package physics

import (
	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/vector"
)

// FreeRigidBody integrates the body-frame angular velocity of a rigid body
// with principal moments Inertia and no applied torque.
type FreeRigidBody struct {
	Inertia vector.Vector3D
}

func NewFreeRigidBody(inertia vector.Vector3D) *FreeRigidBody {
	return &FreeRigidBody{Inertia: inertia}
}

func (f *FreeRigidBody) StateDim() int   { return 3 }
func (f *FreeRigidBody) ControlDim() int { return 0 }

func (f *FreeRigidBody) Derive(w dynamo.State, _ dynamo.Control, _ float64) (dynamo.State, error) {
	if len(w) < 3 {
		return nil, dynamo.ErrInvalidState
	}
	i1, i2, i3 := f.Inertia[0], f.Inertia[1], f.Inertia[2]
	return dynamo.State{
		(i2 - i3) / i1 * w[1] * w[2],
		(i3 - i1) / i2 * w[2] * w[0],
		(i1 - i2) / i3 * w[0] * w[1],
	}, nil
}

// Energy returns twice the rotational kinetic energy.
func (f *FreeRigidBody) Energy(w dynamo.State) float64 {
	return f.Inertia[0]*w[0]*w[0] + f.Inertia[1]*w[1]*w[1] + f.Inertia[2]*w[2]*w[2]
}

// MomentumSquared returns |I w|^2.
func (f *FreeRigidBody) MomentumSquared(w dynamo.State) float64 {
	l := vector.Vector3D{f.Inertia[0] * w[0], f.Inertia[1] * w[1], f.Inertia[2] * w[2]}
	return l.Dot(l)
}
