package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/hoversim/internal/config"
	"github.com/san-kum/hoversim/internal/control"
	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/metrics"
	"github.com/san-kum/hoversim/internal/sensor"
	"github.com/san-kum/hoversim/internal/sim"
	"github.com/san-kum/hoversim/internal/vector"
)

// StabilityRadius is the distance from the target counted as hovering by
// the default stability metric.
const StabilityRadius = 100.0

// ControllerSpec is what a controller builder gets to work with.
type ControllerSpec struct {
	Config    config.ControllerConfig
	Sensors   []sensor.Type
	Dim       int
	Interval  float64
	MaxThrust float64
}

type ControllerBuilder func(spec ControllerSpec) (dynamo.Controller, error)

type Registry struct {
	controllers map[string]ControllerBuilder
}

func NewRegistry() *Registry {
	r := &Registry{
		controllers: make(map[string]ControllerBuilder),
	}

	r.controllers["none"] = func(spec ControllerSpec) (dynamo.Controller, error) {
		return control.NewNone(spec.Dim), nil
	}
	r.controllers["constant"] = func(spec ControllerSpec) (dynamo.Controller, error) {
		return control.NewConstant(vector.Vector3D(spec.Config.Thrust), spec.Dim), nil
	}
	r.controllers["pd"] = buildPD
	r.controllers["fullstate"] = buildFullState
	r.controllers["neural"] = func(spec ControllerSpec) (dynamo.Controller, error) {
		nn := control.NewNeuralNetwork(spec.Dim, spec.Config.Hidden, spec.MaxThrust)
		if len(spec.Config.Coefficients) > 0 {
			if err := nn.SetWeights(spec.Config.Coefficients); err != nil {
				return nil, err
			}
		}
		return nn, nil
	}

	return r
}

// buildPD uses explicit coefficients when given. Otherwise kp and kd are
// applied per axis, which needs relative position followed by velocity.
func buildPD(spec ControllerSpec) (dynamo.Controller, error) {
	if len(spec.Config.Coefficients) > 0 {
		return control.NewPD(spec.Dim, spec.MaxThrust, spec.Config.Coefficients)
	}
	if len(spec.Sensors) != 2 || spec.Sensors[0] != sensor.RelativePosition || spec.Sensors[1] != sensor.Velocity {
		return nil, dynamo.Configf("pd gains without coefficients need sensors [%s %s], got %v",
			sensor.RelativePosition, sensor.Velocity, spec.Sensors)
	}
	return control.NewHoverPD(spec.Config.Kp, spec.Config.Kd, spec.MaxThrust), nil
}

// buildFullState uses explicit coefficients when given, as (kp, kd) pairs or
// (kp, ki, kd) triples. Otherwise kp, ki and kd act on every relative
// position entry and the remaining entries get zero gains.
func buildFullState(spec ControllerSpec) (dynamo.Controller, error) {
	fs := control.NewFullState(spec.Dim, spec.Interval, spec.MaxThrust)

	if coeffs := spec.Config.Coefficients; len(coeffs) > 0 {
		if len(coeffs) != 2*spec.Dim && len(coeffs) != 3*spec.Dim {
			return nil, fmt.Errorf("%w: full state controller over %d values needs %d or %d coefficients, got %d",
				dynamo.ErrDimensionMismatch, spec.Dim, 2*spec.Dim, 3*spec.Dim, len(coeffs))
		}
		if err := fs.SetCoefficients(coeffs, len(coeffs) == 3*spec.Dim); err != nil {
			return nil, err
		}
		return fs, nil
	}

	// the sensor reads target - r, so the error against zero is r - target
	offset := 0
	for _, t := range spec.Sensors {
		n := sensor.Specs[t].Dimensions
		if t == sensor.RelativePosition {
			for i := offset; i < offset+n; i++ {
				fs.Kp[i] = -spec.Config.Kp
				fs.Ki[i] = -spec.Config.Ki
				fs.Kd[i] = -spec.Config.Kd
			}
		}
		offset += n
	}
	return fs, nil
}

func (r *Registry) Register(name string, b ControllerBuilder) {
	r.controllers[name] = b
}

// GetController builds the controller named by cfg.Controller for the
// sensors in cfg.
func (r *Registry) GetController(cfg *config.Config) (dynamo.Controller, error) {
	fn, ok := r.controllers[cfg.Controller.Type]
	if !ok {
		return nil, dynamo.Configf("unknown controller: %s", cfg.Controller.Type)
	}
	dim, err := sensor.Dimensions(cfg.Sensors.Types)
	if err != nil {
		return nil, err
	}
	return fn(ControllerSpec{
		Config:    cfg.Controller,
		Sensors:   append([]sensor.Type(nil), cfg.Sensors.Types...),
		Dim:       dim,
		Interval:  cfg.Simulation.ControlInterval(),
		MaxThrust: cfg.Scenario.MaximumThrust,
	})
}

func (r *Registry) ListControllers() []string {
	names := make([]string, 0, len(r.controllers))
	for name := range r.controllers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics are tracked on every run of sc.
func (r *Registry) DefaultMetrics(sc *sim.Scenario) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewControlEffort(),
		metrics.NewStability(sc.Target, StabilityRadius),
		metrics.NewFuelConsumption(),
		metrics.NewHeightDrift(sc.Asteroid),
	}
}
