package experiment

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/hoversim/internal/config"
	"github.com/san-kum/hoversim/internal/control"
	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/metrics"
	"github.com/san-kum/hoversim/internal/sensor"
	"github.com/san-kum/hoversim/internal/sim"
)

func TestRegistryBuildsEveryPreset(t *testing.T) {
	r := NewRegistry()
	for _, name := range config.ListPresets() {
		t.Run(name, func(t *testing.T) {
			cfg := config.GetPreset(name)
			ctrl, err := r.GetController(cfg)
			if err != nil {
				t.Fatalf("controller: %v", err)
			}
			dim, _ := sensor.Dimensions(cfg.Sensors.Types)
			if ctrl.Dimensions() != dim {
				t.Errorf("controller expects %d values, sensors give %d", ctrl.Dimensions(), dim)
			}
		})
	}
}

func TestRegistryErrors(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		name   string
		modify func(*config.Config)
		want   error
	}{
		{"unknown controller", func(c *config.Config) { c.Controller.Type = "bangbang" }, dynamo.ErrInvalidConfig},
		{"unknown sensor", func(c *config.Config) { c.Sensors.Types = []sensor.Type{"lidar"} }, dynamo.ErrInvalidConfig},
		{"pd without hover sensors", func(c *config.Config) { c.Sensors.Types = []sensor.Type{sensor.Velocity} }, dynamo.ErrInvalidConfig},
		{"pd coefficient count", func(c *config.Config) { c.Controller.Coefficients = []float64{1, 2} }, dynamo.ErrDimensionMismatch},
		{"fullstate coefficient count", func(c *config.Config) {
			c.Controller.Type = "fullstate"
			c.Controller.Coefficients = []float64{1, 2, 3}
		}, dynamo.ErrDimensionMismatch},
		{"neural weight count", func(c *config.Config) {
			c.Controller.Type = "neural"
			c.Controller.Coefficients = []float64{1}
		}, dynamo.ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.modify(cfg)
			if _, err := r.GetController(cfg); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFullStateUniformGains(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Controller = config.ControllerConfig{Type: "fullstate", Kp: 0.5, Ki: 0.01, Kd: 20}

	ctrl, err := NewRegistry().GetController(cfg)
	if err != nil {
		t.Fatal(err)
	}
	fs := ctrl.(*control.FullState)
	for i := 0; i < 6; i++ {
		wantP, wantI, wantD := -0.5, -0.01, -20.0
		if i >= 3 {
			wantP, wantI, wantD = 0, 0, 0
		}
		if fs.Kp[i] != wantP || fs.Ki[i] != wantI || fs.Kd[i] != wantD {
			t.Errorf("gains[%d] = (%v, %v, %v), want (%v, %v, %v)", i, fs.Kp[i], fs.Ki[i], fs.Kd[i], wantP, wantI, wantD)
		}
	}
	if fs.Interval != 1 {
		t.Errorf("interval = %v, want 1", fs.Interval)
	}
}

func TestFullStateCoefficients(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Controller.Type = "fullstate"
	cfg.Controller.Coefficients = make([]float64, 18)
	cfg.Controller.Coefficients[1] = 0.25

	ctrl, err := NewRegistry().GetController(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if ki := ctrl.(*control.FullState).Ki[0]; ki != 0.25 {
		t.Errorf("triples not read as (kp, ki, kd): ki0 = %v", ki)
	}
}

func TestRegisterCustomController(t *testing.T) {
	r := NewRegistry()
	r.Register("idle", func(spec ControllerSpec) (dynamo.Controller, error) {
		return control.NewNone(spec.Dim), nil
	})
	cfg := config.DefaultConfig()
	cfg.Controller.Type = "idle"
	if _, err := r.GetController(cfg); err != nil {
		t.Fatal(err)
	}

	names := r.ListControllers()
	want := []string{"constant", "fullstate", "idle", "neural", "none", "pd"}
	if len(names) != len(want) {
		t.Fatalf("controllers = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("controllers = %v, want %v", names, want)
			break
		}
	}
}

func shortConfig(horizon float64) *config.Config {
	cfg := config.GetPreset("hover")
	cfg.Simulation.Horizon = horizon
	return cfg
}

func TestExperimentRun(t *testing.T) {
	e, err := New(shortConfig(30))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Run(context.Background()); err == nil {
		t.Fatal("expected error before setup")
	}
	if err := e.Setup(); err != nil {
		t.Fatal(err)
	}

	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Record.Status != sim.Completed {
		t.Fatalf("status = %v, fault = %v", res.Record.Status, res.Record.Fault)
	}
	if res.Score >= metrics.UnfinishedPenalty || res.Score < 0 {
		t.Errorf("score = %v", res.Score)
	}
	for _, name := range []string{"control_effort", "stability", "fuel_consumption", "height_drift"} {
		if _, ok := res.Record.Metrics[name]; !ok {
			t.Errorf("metric %s missing", name)
		}
	}
	if res.Scenario != e.Scenario() {
		t.Error("result does not carry the experiment scenario")
	}
}

func TestExperimentRejectsBadConfig(t *testing.T) {
	cfg := shortConfig(30)
	cfg.Objective.Method = 12
	if _, err := New(cfg); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}

	cfg = shortConfig(0)
	if _, err := New(cfg); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestExperimentBatch(t *testing.T) {
	e, err := New(shortConfig(10))
	if err != nil {
		t.Fatal(err)
	}

	seeds := Seeds(100, 3)
	results, summary, err := e.Batch(context.Background(), seeds)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 || summary.Count != 3 {
		t.Fatalf("got %d results, summary %+v", len(results), summary)
	}
	for i, res := range results {
		if res.Record.Seed != seeds[i] || res.Scenario.Seed != seeds[i] {
			t.Errorf("result %d has seed %d", i, res.Record.Seed)
		}
	}
	if summary.Unfinished != 0 {
		t.Errorf("%d runs unfinished", summary.Unfinished)
	}
}

func TestSeeds(t *testing.T) {
	got := Seeds(5, 3)
	if len(got) != 3 || got[0] != 5 || got[2] != 7 {
		t.Errorf("seeds = %v", got)
	}
}
