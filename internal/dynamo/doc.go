// Package dynamo provides the core types shared by the hovering simulation.
//
// The package defines the state vectors and the interfaces that connect the
// physics to the steppers and to the outside world:
//
//   - [SystemState]: position, velocity and mass of the spacecraft
//   - [System]: right-hand side dX/dt = f(X, u, t) that may raise a fault
//   - [Propagator]: advances a [System] over one control interval
//   - [Controller]: maps [SensorData] to a thrust vector
//   - [Observer]: receives every accepted state
//
// # Faults
//
// Collisions and fuel exhaustion are reported as [ErrSurfaceCollision] and
// [ErrOutOfFuel], usually wrapped in a [SimulationError]. Use [IsFault] to
// tell them apart from configuration errors:
//
//	rec, err := run.Evaluate(ctrl)
//	if err != nil {
//	    return err // bad configuration
//	}
//	if errors.Is(rec.Fault, dynamo.ErrOutOfFuel) {
//	    ...
//	}
//
// # Thread Safety
//
// Nothing in this package holds shared mutable state. [ParallelFor] is the
// building block for running independent seeds concurrently.
package dynamo
