package control

import (
	"fmt"

	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/vector"
)

// FullState runs an independent PD (or PID) loop on every sensor value and
// adds loop i into thrust axis i mod 3. Interval is the control period used
// for the derivative and integral terms.
type FullState struct {
	Kp        []float64
	Ki        []float64
	Kd        []float64
	Target    []float64
	Interval  float64
	MaxThrust float64

	integral []float64
	prevErr  []float64
	first    bool
}

func NewFullState(dim int, interval, maxThrust float64) *FullState {
	return &FullState{
		Kp:        make([]float64, dim),
		Ki:        make([]float64, dim),
		Kd:        make([]float64, dim),
		Target:    make([]float64, dim),
		Interval:  interval,
		MaxThrust: maxThrust,
		integral:  make([]float64, dim),
		prevErr:   make([]float64, dim),
		first:     true,
	}
}

// SetCoefficients takes (kp, kd) pairs, or (kp, ki, kd) triples when
// withIntegral is set, one group per sensor value.
func (f *FullState) SetCoefficients(coefficients []float64, withIntegral bool) error {
	group := 2
	if withIntegral {
		group = 3
	}
	if len(coefficients) != group*f.Dimensions() {
		return fmt.Errorf("%w: full state controller needs %d coefficients, got %d",
			dynamo.ErrDimensionMismatch, group*f.Dimensions(), len(coefficients))
	}
	for i := range f.Kp {
		base := i * group
		f.Kp[i] = coefficients[base]
		f.Ki[i] = 0
		if withIntegral {
			f.Ki[i] = coefficients[base+1]
		}
		f.Kd[i] = coefficients[base+group-1]
	}
	return nil
}

func (f *FullState) Act(data dynamo.SensorData) vector.Vector3D {
	var thrust vector.Vector3D
	for i := range f.Kp {
		v := 0.0
		if i < len(data) {
			v = data[i]
		}
		err := f.Target[i] - v

		derivative := 0.0
		if !f.first && f.Interval > 0 {
			f.integral[i] += err * f.Interval
			derivative = (err - f.prevErr[i]) / f.Interval
		}
		thrust[i%3] += f.Kp[i]*err + f.Ki[i]*f.integral[i] + f.Kd[i]*derivative
		f.prevErr[i] = err
	}
	f.first = false

	for i := range thrust {
		thrust[i] = clamp(thrust[i], f.MaxThrust)
	}
	return thrust
}

func (f *FullState) Dimensions() int { return len(f.Kp) }

// Reset clears integral and derivative state
func (f *FullState) Reset() {
	for i := range f.integral {
		f.integral[i] = 0
		f.prevErr[i] = 0
	}
	f.first = true
}

// GetParams returns tunable parameters for live adjustment
func (f *FullState) GetParams() map[string]float64 {
	params := map[string]float64{"max_thrust": f.MaxThrust}
	for i := range f.Kp {
		params[fmt.Sprintf("kp%d", i)] = f.Kp[i]
		params[fmt.Sprintf("ki%d", i)] = f.Ki[i]
		params[fmt.Sprintf("kd%d", i)] = f.Kd[i]
	}
	return params
}

// SetParam adjusts one gain, e.g. "kp2" or "max_thrust".
func (f *FullState) SetParam(name string, value float64) error {
	if name == "max_thrust" {
		f.MaxThrust = value
		return nil
	}
	var kind string
	var idx int
	if n, err := fmt.Sscanf(name, "k%1s%d", &kind, &idx); err != nil || n != 2 || idx < 0 || idx >= len(f.Kp) {
		return dynamo.Configf("unknown parameter %q", name)
	}
	switch kind {
	case "p":
		f.Kp[idx] = value
	case "i":
		f.Ki[idx] = value
	case "d":
		f.Kd[idx] = value
	default:
		return dynamo.Configf("unknown parameter %q", name)
	}
	return nil
}
