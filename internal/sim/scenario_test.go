package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/hoversim/internal/asteroid"
	"github.com/san-kum/hoversim/internal/config"
	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/vector"
)

func TestNewScenarioIsDeterministic(t *testing.T) {
	cfg := config.DefaultConfig().Scenario
	a, err := NewScenario(42, cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewScenario(42, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if a.Initial != b.Initial || a.Asteroid.SemiAxis() != b.Asteroid.SemiAxis() {
		t.Errorf("same seed gave different scenarios: %v vs %v", a.Initial, b.Initial)
	}
	if a.Asteroid.TimeBias() != b.Asteroid.TimeBias() || a.Asteroid.Density() != b.Asteroid.Density() {
		t.Error("same seed gave different asteroids")
	}

	c, err := NewScenario(43, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if a.Initial == c.Initial {
		t.Error("different seeds gave identical initial states")
	}
}

func TestNewScenarioWithinRanges(t *testing.T) {
	cfg := config.DefaultConfig().Scenario
	for seed := int64(0); seed < 50; seed++ {
		sc, err := NewScenario(seed, cfg)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}

		semi := sc.Asteroid.SemiAxis()
		ranges := []config.Range{cfg.SemiAxisA, cfg.SemiAxisB, cfg.SemiAxisC}
		for i, r := range ranges {
			if semi[i] < r.Min || semi[i] > r.Max {
				t.Errorf("seed %d: semi axis %d = %v outside %v", seed, i, semi[i], r)
			}
		}
		w := sc.Asteroid.AngularVelocityXZ()
		for i := range w {
			if math.Abs(w[i]) < cfg.AngularVelocity.Min || math.Abs(w[i]) > cfg.AngularVelocity.Max {
				t.Errorf("seed %d: |w[%d]| = %v outside %v", seed, i, w[i], cfg.AngularVelocity)
			}
		}
		if m := sc.Initial.Mass(); m < cfg.SpacecraftMass.Min || m > cfg.SpacecraftMass.Max {
			t.Errorf("seed %d: mass %v outside range", seed, m)
		}
		if sc.MinimumMass != cfg.MinimumMassFraction*cfg.SpacecraftMass.Max {
			t.Errorf("seed %d: minimum mass = %v", seed, sc.MinimumMass)
		}
		if sc.Asteroid.Contains(sc.Initial.Position()) {
			t.Errorf("seed %d: spacecraft starts inside the asteroid", seed)
		}
		if sc.Target != sc.Initial.Position() {
			t.Errorf("seed %d: target %v differs from start %v", seed, sc.Target, sc.Initial.Position())
		}
	}
}

func TestNewScenarioStartsAtInertialRest(t *testing.T) {
	sc, err := NewScenario(7, config.DefaultConfig().Scenario)
	if err != nil {
		t.Fatal(err)
	}
	w, _ := sc.Asteroid.AngularVelocityAndAccelerationAtTime(0)
	inertial := sc.Initial.Velocity().Add(w.Cross(sc.Initial.Position()))
	if inertial.Norm() > 1e-12*sc.Initial.Velocity().Norm()+1e-15 {
		t.Errorf("inertial velocity = %v, want zero", inertial)
	}
}

func TestScenarioValidate(t *testing.T) {
	ast, err := asteroid.New(vector.Vector3D{10000, 6000, 3000}, 2000, vector.Vector2D{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	good := func() *Scenario {
		return &Scenario{
			Asteroid:        ast,
			Initial:         dynamo.NewSystemState(vector.Vector3D{20000, 0, 0}, vector.Vector3D{}, 500),
			MinimumMass:     250,
			MaximumThrust:   21,
			SpecificImpulse: 200,
		}
	}

	tests := []struct {
		name   string
		modify func(*Scenario)
	}{
		{"no asteroid", func(sc *Scenario) { sc.Asteroid = nil }},
		{"nan state", func(sc *Scenario) { sc.Initial[0] = math.NaN() }},
		{"zero isp", func(sc *Scenario) { sc.SpecificImpulse = 0 }},
		{"negative thrust", func(sc *Scenario) { sc.MaximumThrust = -1 }},
		{"negative noise", func(sc *Scenario) { sc.EngineNoise = -0.1 }},
		{"infinite perturbation", func(sc *Scenario) { sc.PerturbationMean = math.Inf(1) }},
	}

	if err := good().Validate(); err != nil {
		t.Fatalf("valid scenario rejected: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := good()
			tt.modify(sc)
			if err := sc.Validate(); !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
