// Package sample provides the seeded random source used for scenario
// sampling, perturbations and sensor noise.
package sample

import (
	"math"
	"math/rand"

	"github.com/san-kum/hoversim/internal/vector"
)

// Factory is a seeded pseudo-random generator. It is not safe for
// concurrent use; give every run its own Factory.
type Factory struct {
	seed int64
	rng  *rand.Rand
}

func New(seed int64) *Factory {
	return &Factory{seed: seed, rng: rand.New(rand.NewSource(seed))}
}

// SetSeed restarts the sequence; the draws that follow repeat those after
// any earlier SetSeed or New with the same seed.
func (f *Factory) SetSeed(seed int64) {
	f.seed = seed
	f.rng.Seed(seed)
}

func (f *Factory) Seed() int64 { return f.seed }

// Uniform draws from [min, max).
func (f *Factory) Uniform(min, max float64) float64 {
	return min + (max-min)*f.rng.Float64()
}

// Normal draws from N(mean, stddev^2). A zero stddev returns mean without
// consuming the stream.
func (f *Factory) Normal(mean, stddev float64) float64 {
	if stddev == 0 {
		return mean
	}
	return mean + stddev*f.rng.NormFloat64()
}

// Sign returns -1 or +1 with equal probability.
func (f *Factory) Sign() float64 {
	if f.rng.Intn(2) == 0 {
		return -1
	}
	return 1
}

// PointOutsideEllipsoid returns s*(a cos u sin v, b sin u sin v, c cos v)
// with s uniform in [minScale, maxScale], so the point lies on a scaled copy
// of the ellipsoid between the two bounds.
func (f *Factory) PointOutsideEllipsoid(semiAxis vector.Vector3D, minScale, maxScale float64) vector.Vector3D {
	u := f.Uniform(0, 2*math.Pi)
	v := f.Uniform(0, math.Pi)
	s := f.Uniform(minScale, maxScale)
	su, cu := math.Sincos(u)
	sv, cv := math.Sincos(v)
	return vector.Vector3D{
		s * semiAxis[0] * cu * sv,
		s * semiAxis[1] * su * sv,
		s * semiAxis[2] * cv,
	}
}
