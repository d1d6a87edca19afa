// Package sensor derives the controller's observation vector from the true
// spacecraft state.
package sensor

import (
	"fmt"
	"sort"

	"github.com/san-kum/hoversim/internal/asteroid"
	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/physics"
	"github.com/san-kum/hoversim/internal/sample"
	"github.com/san-kum/hoversim/internal/vector"
)

type Type string

const (
	RelativePosition  Type = "relative_position"
	Velocity          Type = "velocity"
	OpticalFlow       Type = "optical_flow"
	Acceleration      Type = "acceleration"
	TotalAcceleration Type = "total_acceleration"
	Height            Type = "height"
	Mass              Type = "mass"
)

// Spec is the fixed layout of one sensor type. Gain brings tiny physical
// values into a range a controller can use before noise is applied.
type Spec struct {
	Dimensions int
	Noise      float64
	Gain       float64
}

var Specs = map[Type]Spec{
	RelativePosition:  {Dimensions: 3, Noise: 0.05, Gain: 1},
	Velocity:          {Dimensions: 3, Noise: 0.05, Gain: 1},
	OpticalFlow:       {Dimensions: 6, Noise: 0.05, Gain: 1e6},
	Acceleration:      {Dimensions: 3, Noise: 0.05, Gain: 1e6},
	TotalAcceleration: {Dimensions: 3, Noise: 0.05, Gain: 1e6},
	Height:            {Dimensions: 1, Noise: 0.05, Gain: 1},
	Mass:              {Dimensions: 1, Noise: 0, Gain: 1},
}

// TypeNames lists the known sensor types in sorted order.
func TypeNames() []string {
	names := make([]string, 0, len(Specs))
	for t := range Specs {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return names
}

// Dimensions is the length of the observation produced by types.
func Dimensions(types []Type) (int, error) {
	n := 0
	for _, t := range types {
		spec, ok := Specs[t]
		if !ok {
			return 0, dynamo.Configf("unknown sensor type %q (known: %v)", t, TypeNames())
		}
		n += spec.Dimensions
	}
	return n, nil
}

// Transform maps v to (v + Offset) * Scale.
type Transform struct {
	Offset float64 `yaml:"offset" json:"offset"`
	Scale  float64 `yaml:"scale" json:"scale"`
}

type Config struct {
	Types        []Type
	Noise        map[Type]float64
	Transforms   map[Type]Transform
	NoiseEnabled bool
	Target       vector.Vector3D
}

type Simulator struct {
	asteroid   *asteroid.Asteroid
	factory    *sample.Factory
	types      []Type
	noise      []float64
	transforms []*Transform
	enabled    bool
	target     vector.Vector3D
	dimensions int
}

// New validates cfg against Specs. The factory is only drawn from when
// noise is enabled.
func New(ast *asteroid.Asteroid, factory *sample.Factory, cfg Config) (*Simulator, error) {
	if ast == nil {
		return nil, dynamo.Configf("sensor simulator needs an asteroid")
	}
	if len(cfg.Types) == 0 {
		return nil, dynamo.Configf("at least one sensor type is required")
	}
	if cfg.NoiseEnabled && factory == nil {
		return nil, dynamo.Configf("sensor noise needs a sample factory")
	}

	s := &Simulator{
		asteroid: ast,
		factory:  factory,
		enabled:  cfg.NoiseEnabled,
		target:   cfg.Target,
	}

	seen := make(map[Type]bool, len(cfg.Types))
	for _, t := range cfg.Types {
		spec, ok := Specs[t]
		if !ok {
			return nil, dynamo.Configf("unknown sensor type %q (known: %v)", t, TypeNames())
		}
		if seen[t] {
			return nil, dynamo.Configf("sensor type %q selected twice", t)
		}
		seen[t] = true

		sigma := spec.Noise
		if v, ok := cfg.Noise[t]; ok {
			sigma = v
		}
		if sigma < 0 {
			return nil, dynamo.Configf("noise for %q must not be negative, got %g", t, sigma)
		}

		var tr *Transform
		if v, ok := cfg.Transforms[t]; ok {
			if v.Scale == 0 {
				return nil, dynamo.Configf("transform scale for %q must not be zero", t)
			}
			tr = &v
		}

		s.types = append(s.types, t)
		s.noise = append(s.noise, sigma)
		s.transforms = append(s.transforms, tr)
		s.dimensions += spec.Dimensions
	}

	for t := range cfg.Noise {
		if !seen[t] {
			return nil, dynamo.Configf("noise configured for unselected sensor type %q", t)
		}
	}
	for t := range cfg.Transforms {
		if !seen[t] {
			return nil, dynamo.Configf("transform configured for unselected sensor type %q", t)
		}
	}

	return s, nil
}

func (s *Simulator) Dimensions() int { return s.dimensions }
func (s *Simulator) Types() []Type   { return append([]Type(nil), s.types...) }

// SetTarget moves the point relative positions are measured against.
func (s *Simulator) SetTarget(target vector.Vector3D) { s.target = target }

// Simulate returns one observation. height is the vector from the nearest
// surface point to the spacecraft.
func (s *Simulator) Simulate(state dynamo.SystemState, height, perturbation vector.Vector3D, t float64, thrust vector.Vector3D) dynamo.SensorData {
	data := make(dynamo.SensorData, 0, s.dimensions)
	pos, vel := state.Position(), state.Velocity()

	for i, typ := range s.types {
		var raw []float64
		switch typ {
		case RelativePosition:
			raw = s.target.Sub(pos).Slice()
		case Velocity:
			raw = vel.Slice()
		case OpticalFlow:
			raw = opticalFlow(vel, height)
		case Acceleration:
			raw = physics.ExternalAcceleration(s.asteroid, pos, vel, perturbation, t).Slice()
		case TotalAcceleration:
			a := physics.ExternalAcceleration(s.asteroid, pos, vel, perturbation, t)
			if m := state.Mass(); m > 0 {
				a = a.Add(thrust.Scale(1 / m))
			}
			raw = a.Slice()
		case Height:
			raw = []float64{height.Norm()}
		case Mass:
			raw = []float64{state.Mass()}
		default:
			panic(fmt.Sprintf("sensor: unhandled type %q", typ))
		}

		gain := Specs[typ].Gain
		for _, v := range raw {
			v *= gain
			if s.enabled && s.noise[i] > 0 {
				v += v * s.factory.Normal(0, s.noise[i])
			}
			if tr := s.transforms[i]; tr != nil {
				v = (v + tr.Offset) * tr.Scale
			}
			data = append(data, v)
		}
	}
	return data
}

// opticalFlow splits the velocity into its components along and across the
// height direction, each divided by the height.
func opticalFlow(vel, height vector.Vector3D) []float64 {
	h := height.Norm()
	if h == 0 {
		return make([]float64, 6)
	}
	dir := height.Scale(1 / h)
	parallel := dir.Scale(vel.Dot(dir))
	perpendicular := vel.Sub(parallel)
	parallel = parallel.Scale(1 / h)
	perpendicular = perpendicular.Scale(1 / h)
	return []float64{parallel[0], parallel[1], parallel[2], perpendicular[0], perpendicular[1], perpendicular[2]}
}
