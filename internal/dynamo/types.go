package dynamo

import (
	"math"

	"github.com/san-kum/hoversim/internal/vector"
)

// State is the flat vector the steppers operate on.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Control is held constant by the steppers across one control interval.
type Control []float64

// SystemStateDim is the length of a spacecraft state: position, velocity, mass.
const SystemStateDim = 7

// SystemState is (rx, ry, rz, vx, vy, vz, m) in the asteroid body frame.
type SystemState [SystemStateDim]float64

func NewSystemState(position, velocity vector.Vector3D, mass float64) SystemState {
	return SystemState{position[0], position[1], position[2], velocity[0], velocity[1], velocity[2], mass}
}

// SystemStateFromState copies the first seven entries of x.
func SystemStateFromState(x State) SystemState {
	var s SystemState
	copy(s[:], x)
	return s
}

func (s SystemState) Position() vector.Vector3D { return vector.Vector3D{s[0], s[1], s[2]} }
func (s SystemState) Velocity() vector.Vector3D { return vector.Vector3D{s[3], s[4], s[5]} }
func (s SystemState) Mass() float64             { return s[6] }
func (s SystemState) State() State              { return State(s[:]).Clone() }

func (s SystemState) IsValid() bool {
	return State(s[:]).IsValid()
}

// SensorData is the observation vector handed to a controller.
type SensorData []float64

// System is a right-hand side that may refuse to evaluate by returning a fault.
type System interface {
	Derive(x State, u Control, t float64) (State, error)
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(sys System, x State, u Control, t, dt float64) (State, error)
}

// Propagator advances x from t0 to t1 with u held, calling obs after every
// accepted internal step.
type Propagator interface {
	Integrate(sys System, x State, u Control, t0, t1 float64, obs func(State, float64)) (State, error)
}

// Controller maps an observation to a thrust command. Dimensions is the
// length of SensorData it expects.
type Controller interface {
	Act(data SensorData) vector.Vector3D
	Dimensions() int
}

type Metric interface {
	Name() string
	Observe(x SystemState, thrust vector.Vector3D, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x SystemState, t float64)
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}
