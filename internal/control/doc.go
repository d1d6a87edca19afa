// Package control provides thrust policies for the hovering spacecraft.
//
// Controllers implement the [dynamo.Controller] interface and map a sensor
// vector to a thrust command in newtons:
//
//   - [None]: zero thrust
//   - [Constant]: a fixed thrust vector
//   - [PD]: linear gains on the sensor vector, clamped per axis
//   - [FullState]: proportional-derivative feedback on each sensor value
//   - [NeuralNetwork]: single hidden layer perceptron with sigmoid units
//
// # Usage
//
//	pd := control.NewHoverPD(0.5, 8.0, 21.0) // Kp, Kd, max thrust
//	rec, err := sim.Evaluate(seed, horizon, pd, cfg)
//
// Controllers implementing [dynamo.Configurable] support live tuning.
// Controllers keep per-run state and must not be shared between concurrent
// runs.
package control
