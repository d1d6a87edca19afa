package config

import (
	"sort"

	"github.com/san-kum/hoversim/internal/sensor"
)

// Presets are complete configurations selectable by name.
var Presets = map[string]func() *Config{
	"hover": func() *Config {
		cfg := DefaultConfig()
		cfg.Simulation.Horizon = 60 * 60
		return cfg
	},
	"long": func() *Config {
		return DefaultConfig()
	},
	"noisy": func() *Config {
		cfg := DefaultConfig()
		cfg.Simulation.Horizon = 60 * 60
		cfg.Sensors.NoiseEnabled = true
		cfg.Scenario.PerturbationNoise = 1e-6
		cfg.Scenario.EngineNoise = 0.1
		return cfg
	},
	"fullstate": func() *Config {
		cfg := DefaultConfig()
		cfg.Simulation.Horizon = 60 * 60
		cfg.Controller = ControllerConfig{Type: "fullstate", Kp: DefaultKp, Kd: DefaultKd}
		return cfg
	},
	"fuel": func() *Config {
		cfg := DefaultConfig()
		cfg.Sensors.Types = []sensor.Type{sensor.Mass, sensor.Height}
		cfg.Controller = ControllerConfig{Type: "constant", Thrust: [3]float64{DefaultMaximumThrust, 0, 0}}
		return cfg
	},
	"neural": func() *Config {
		cfg := DefaultConfig()
		cfg.Simulation.Horizon = 60 * 60
		cfg.Sensors.Types = []sensor.Type{sensor.RelativePosition, sensor.Velocity, sensor.Height}
		cfg.Controller = ControllerConfig{Type: "neural", Hidden: DefaultHiddenNeurons}
		cfg.Objective.Method = 8
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
