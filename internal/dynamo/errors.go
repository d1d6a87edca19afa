package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidConfig indicates malformed asteroid, sensor or run parameters.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrSurfaceCollision indicates the spacecraft reached the asteroid surface.
	ErrSurfaceCollision = errors.New("dynamo: spacecraft collided with the asteroid surface")

	// ErrOutOfFuel indicates the spacecraft mass dropped to its dry mass.
	ErrOutOfFuel = errors.New("dynamo: spacecraft out of fuel")

	// ErrInvalidState indicates a state vector with NaN or Inf entries.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrStepTooSmall indicates adaptive timestep fell below the floor.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrDimensionMismatch indicates mismatched sensor/controller dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   SystemState
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// IsFault reports whether err ends a run as a domain outcome rather than a
// configuration problem.
func IsFault(err error) bool {
	return errors.Is(err, ErrSurfaceCollision) ||
		errors.Is(err, ErrOutOfFuel) ||
		errors.Is(err, ErrStepTooSmall) ||
		errors.Is(err, ErrInvalidState)
}

// IsNumerical reports whether err came from the stepper rather than the physics.
func IsNumerical(err error) bool {
	return errors.Is(err, ErrStepTooSmall) || errors.Is(err, ErrInvalidState)
}

// Configf builds an ErrInvalidConfig with a formatted reason.
func Configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
