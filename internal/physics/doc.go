// Package physics provides the right-hand sides integrated by the steppers.
//
// Each model implements the [dynamo.System] interface:
//
//   - [Hover]: spacecraft translation and fuel use in the rotating frame of an asteroid
//   - [FreeRigidBody]: Euler's equations of a torque-free rigid body
//
// [Hover] refuses to evaluate states that are no longer physical and returns
// [dynamo.ErrOutOfFuel] or [dynamo.ErrSurfaceCollision] instead, which the
// adaptive stepper uses to close in on the crossing instant.
package physics
