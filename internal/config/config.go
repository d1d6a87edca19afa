package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/sensor"
)

const (
	DefaultHorizon          = 24 * 60 * 60.0
	DefaultControlFrequency = 1.0
	DefaultMinimumStep      = 0.1
	DefaultFixedStep        = 0.1
	DefaultTolerance        = 1e-6
	DefaultMaximumThrust    = 21.0
	DefaultSpecificImpulse  = 200.0
	DefaultKp               = 0.5
	DefaultKd               = 20.0
	DefaultHiddenNeurons    = 10
)

// Range is a closed interval sampled uniformly.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

func (r Range) valid() bool {
	return !math.IsNaN(r.Min) && !math.IsNaN(r.Max) && r.Min <= r.Max
}

type Config struct {
	Seed       int64            `yaml:"seed"`
	Scenario   ScenarioConfig   `yaml:"scenario"`
	Simulation SimulationConfig `yaml:"simulation"`
	Sensors    SensorsConfig    `yaml:"sensors"`
	Controller ControllerConfig `yaml:"controller"`
	Objective  ObjectiveConfig  `yaml:"objective"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ScenarioConfig holds the ranges a scenario is drawn from.
type ScenarioConfig struct {
	SemiAxisA           Range   `yaml:"semi_axis_a"`
	SemiAxisB           Range   `yaml:"semi_axis_b"`
	SemiAxisC           Range   `yaml:"semi_axis_c"`
	Density             Range   `yaml:"density"`
	AngularVelocity     Range   `yaml:"angular_velocity"`
	TimeBias            Range   `yaml:"time_bias"`
	SpacecraftMass      Range   `yaml:"spacecraft_mass"`
	MinimumMassFraction float64 `yaml:"minimum_mass_fraction"`
	MaximumThrust       float64 `yaml:"maximum_thrust"`
	SpecificImpulse     float64 `yaml:"specific_impulse"`
	PositionScale       Range   `yaml:"position_scale"`
	EngineNoise         float64 `yaml:"engine_noise"`
	PerturbationMean    float64 `yaml:"perturbation_mean"`
	PerturbationNoise   float64 `yaml:"perturbation_noise"`
}

type SimulationConfig struct {
	Horizon          float64 `yaml:"horizon"`
	ControlFrequency float64 `yaml:"control_frequency"`
	MinimumStep      float64 `yaml:"minimum_step"`
	FixedStep        float64 `yaml:"fixed_step"`
	AbsTol           float64 `yaml:"abs_tol"`
	RelTol           float64 `yaml:"rel_tol"`
	Adaptive         bool    `yaml:"adaptive"`
	FuelUsage        bool    `yaml:"fuel_usage"`
}

// ControlInterval is the zero-order hold period in seconds.
func (s SimulationConfig) ControlInterval() float64 {
	return 1 / s.ControlFrequency
}

type SensorsConfig struct {
	Types        []sensor.Type                    `yaml:"types"`
	Noise        map[sensor.Type]float64          `yaml:"noise,omitempty"`
	Transforms   map[sensor.Type]sensor.Transform `yaml:"transforms,omitempty"`
	NoiseEnabled bool                             `yaml:"noise_enabled"`
}

type ControllerConfig struct {
	Type         string     `yaml:"type"` // none, constant, pd, fullstate, neural
	Kp           float64    `yaml:"kp"`
	Ki           float64    `yaml:"ki"`
	Kd           float64    `yaml:"kd"`
	Thrust       [3]float64 `yaml:"thrust,flow"`
	Hidden       int        `yaml:"hidden"`
	Coefficients []float64  `yaml:"coefficients,omitempty,flow"`
}

type ObjectiveConfig struct {
	Method           int  `yaml:"method"`
	PunishUnfinished bool `yaml:"punish_unfinished"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Seed: 0,
		Scenario: ScenarioConfig{
			SemiAxisA:           Range{8000, 12000},
			SemiAxisB:           Range{4000, 7500},
			SemiAxisC:           Range{1000, 3500},
			Density:             Range{1500, 3000},
			AngularVelocity:     Range{0.0002, 0.0008},
			TimeBias:            Range{0, 12 * 60 * 60},
			SpacecraftMass:      Range{450, 500},
			MinimumMassFraction: 0.5,
			MaximumThrust:       DefaultMaximumThrust,
			SpecificImpulse:     DefaultSpecificImpulse,
			PositionScale:       Range{1.1, 4.0},
			EngineNoise:         0.05,
			PerturbationMean:    1e-6,
			PerturbationNoise:   1e-7,
		},
		Simulation: SimulationConfig{
			Horizon:          DefaultHorizon,
			ControlFrequency: DefaultControlFrequency,
			MinimumStep:      DefaultMinimumStep,
			FixedStep:        DefaultFixedStep,
			AbsTol:           DefaultTolerance,
			RelTol:           DefaultTolerance,
			Adaptive:         true,
			FuelUsage:        true,
		},
		Sensors: SensorsConfig{
			Types: []sensor.Type{sensor.RelativePosition, sensor.Velocity},
		},
		Controller: ControllerConfig{
			Type:   "pd",
			Kp:     DefaultKp,
			Kd:     DefaultKd,
			Hidden: DefaultHiddenNeurons,
		},
		Objective: ObjectiveConfig{
			Method:           4,
			PunishUnfinished: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Sensors.Types = append([]sensor.Type(nil), c.Sensors.Types...)
	if c.Sensors.Noise != nil {
		out.Sensors.Noise = make(map[sensor.Type]float64, len(c.Sensors.Noise))
		for k, v := range c.Sensors.Noise {
			out.Sensors.Noise[k] = v
		}
	}
	if c.Sensors.Transforms != nil {
		out.Sensors.Transforms = make(map[sensor.Type]sensor.Transform, len(c.Sensors.Transforms))
		for k, v := range c.Sensors.Transforms {
			out.Sensors.Transforms[k] = v
		}
	}
	out.Controller.Coefficients = append([]float64(nil), c.Controller.Coefficients...)
	return &out
}

// Validate checks the parts that would otherwise fail deep inside a run.
// Sensor and asteroid details are checked by their constructors.
func (c *Config) Validate() error {
	s := c.Scenario
	for name, r := range map[string]Range{
		"semi_axis_a":      s.SemiAxisA,
		"semi_axis_b":      s.SemiAxisB,
		"semi_axis_c":      s.SemiAxisC,
		"density":          s.Density,
		"angular_velocity": s.AngularVelocity,
		"time_bias":        s.TimeBias,
		"spacecraft_mass":  s.SpacecraftMass,
		"position_scale":   s.PositionScale,
	} {
		if !r.valid() {
			return dynamo.Configf("scenario.%s: invalid range [%g, %g]", name, r.Min, r.Max)
		}
	}
	if s.SemiAxisC.Min <= 0 {
		return dynamo.Configf("scenario.semi_axis_c must be positive")
	}
	if s.SemiAxisB.Max > s.SemiAxisA.Min || s.SemiAxisC.Max > s.SemiAxisB.Min {
		return dynamo.Configf("scenario semi axis ranges must not overlap (a >= b >= c)")
	}
	if s.PositionScale.Min <= 1 {
		return dynamo.Configf("scenario.position_scale must start outside the body, got %g", s.PositionScale.Min)
	}
	if s.MinimumMassFraction < 0 || s.MinimumMassFraction >= 1 {
		return dynamo.Configf("scenario.minimum_mass_fraction must be in [0, 1), got %g", s.MinimumMassFraction)
	}
	if s.MaximumThrust < 0 || s.SpecificImpulse <= 0 || s.EngineNoise < 0 || s.PerturbationNoise < 0 {
		return dynamo.Configf("scenario: thrust, specific impulse and noise levels must be non-negative")
	}

	sim := c.Simulation
	if !(sim.Horizon > 0) {
		return dynamo.Configf("simulation.horizon must be positive, got %g", sim.Horizon)
	}
	if !(sim.ControlFrequency > 0) {
		return dynamo.Configf("simulation.control_frequency must be positive, got %g", sim.ControlFrequency)
	}
	if !(sim.MinimumStep > 0) || !(sim.FixedStep > 0) {
		return dynamo.Configf("simulation step sizes must be positive")
	}
	if sim.Adaptive && (!(sim.AbsTol > 0) || !(sim.RelTol >= 0)) {
		return dynamo.Configf("simulation tolerances must be positive for adaptive stepping")
	}

	if len(c.Sensors.Types) == 0 {
		return dynamo.Configf("sensors.types must not be empty")
	}

	switch c.Controller.Type {
	case "none", "constant", "pd", "fullstate":
	case "neural":
		if c.Controller.Hidden <= 0 {
			return dynamo.Configf("controller.hidden must be positive, got %d", c.Controller.Hidden)
		}
	default:
		return dynamo.Configf("unknown controller %q", c.Controller.Type)
	}

	if c.Objective.Method < 1 || c.Objective.Method > 8 {
		return dynamo.Configf("objective.method must be 1-8, got %d", c.Objective.Method)
	}
	return nil
}
