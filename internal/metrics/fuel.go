package metrics

import (
	"math"

	"github.com/san-kum/hoversim/internal/asteroid"
	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/vector"
)

// FuelConsumption is the mass burnt since the first observation.
type FuelConsumption struct {
	name    string
	initial float64
	current float64
	samples int
}

func NewFuelConsumption() *FuelConsumption {
	return &FuelConsumption{name: "fuel_consumption"}
}

func (f *FuelConsumption) Name() string { return f.name }

func (f *FuelConsumption) Observe(x dynamo.SystemState, thrust vector.Vector3D, t float64) {
	if f.samples == 0 {
		f.initial = x.Mass()
	}
	f.current = x.Mass()
	f.samples++
}

func (f *FuelConsumption) Value() float64 {
	if f.samples == 0 {
		return 0
	}
	return f.initial - f.current
}

func (f *FuelConsumption) Reset() {
	f.initial = 0
	f.current = 0
	f.samples = 0
}

// HeightDrift is the largest change of the height above the surface
// relative to the first observation.
type HeightDrift struct {
	name     string
	ast      *asteroid.Asteroid
	initial  float64
	maxDrift float64
	samples  int
}

func NewHeightDrift(ast *asteroid.Asteroid) *HeightDrift {
	return &HeightDrift{
		name: "height_drift",
		ast:  ast,
	}
}

func (h *HeightDrift) Name() string { return h.name }

func (h *HeightDrift) Observe(x dynamo.SystemState, thrust vector.Vector3D, t float64) {
	height := h.ast.HeightAtPosition(x.Position()).Norm()
	if h.samples == 0 {
		h.initial = height
	}
	h.samples++
	h.maxDrift = math.Max(h.maxDrift, math.Abs(height-h.initial))
}

func (h *HeightDrift) Value() float64 {
	return h.maxDrift
}

func (h *HeightDrift) Reset() {
	h.initial = 0
	h.maxDrift = 0
	h.samples = 0
}
