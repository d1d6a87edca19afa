package sim

import (
	"math"

	"github.com/san-kum/hoversim/internal/asteroid"
	"github.com/san-kum/hoversim/internal/config"
	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/sample"
	"github.com/san-kum/hoversim/internal/vector"
)

// Scenario is everything a run needs besides the controller: the asteroid,
// the spacecraft and the disturbance levels. Scenarios are read-only once
// built and may back any number of runs.
type Scenario struct {
	Seed              int64
	Asteroid          *asteroid.Asteroid
	Initial           dynamo.SystemState
	Target            vector.Vector3D
	MinimumMass       float64
	MaximumThrust     float64
	SpecificImpulse   float64
	EngineNoise       float64
	PerturbationMean  float64
	PerturbationNoise float64
}

// NewScenario draws a scenario from the ranges in cfg. The same seed always
// yields the same scenario. The spacecraft starts at rest in the inertial
// frame and its target is the starting position.
func NewScenario(seed int64, cfg config.ScenarioConfig) (*Scenario, error) {
	f := sample.New(seed)

	semiAxis := vector.Vector3D{
		f.Uniform(cfg.SemiAxisA.Min, cfg.SemiAxisA.Max),
		f.Uniform(cfg.SemiAxisB.Min, cfg.SemiAxisB.Max),
		f.Uniform(cfg.SemiAxisC.Min, cfg.SemiAxisC.Max),
	}
	density := f.Uniform(cfg.Density.Min, cfg.Density.Max)
	wx := f.Sign() * f.Uniform(cfg.AngularVelocity.Min, cfg.AngularVelocity.Max)
	wz := f.Sign() * f.Uniform(cfg.AngularVelocity.Min, cfg.AngularVelocity.Max)
	timeBias := f.Uniform(cfg.TimeBias.Min, cfg.TimeBias.Max)

	ast, err := asteroid.New(semiAxis, density, vector.Vector2D{wx, wz}, timeBias)
	if err != nil {
		return nil, err
	}

	mass := f.Uniform(cfg.SpacecraftMass.Min, cfg.SpacecraftMass.Max)
	position := f.PointOutsideEllipsoid(semiAxis, cfg.PositionScale.Min, cfg.PositionScale.Max)
	w, _ := ast.AngularVelocityAndAccelerationAtTime(0)
	velocity := w.Cross(position).Neg()

	sc := &Scenario{
		Seed:              seed,
		Asteroid:          ast,
		Initial:           dynamo.NewSystemState(position, velocity, mass),
		Target:            position,
		MinimumMass:       cfg.MinimumMassFraction * cfg.SpacecraftMass.Max,
		MaximumThrust:     cfg.MaximumThrust,
		SpecificImpulse:   cfg.SpecificImpulse,
		EngineNoise:       cfg.EngineNoise,
		PerturbationMean:  cfg.PerturbationMean,
		PerturbationNoise: cfg.PerturbationNoise,
	}
	return sc, sc.Validate()
}

// Validate checks a hand-built scenario. A spacecraft that starts inside the
// body or without fuel is not an error here; the run reports it as a fault.
func (sc *Scenario) Validate() error {
	if sc.Asteroid == nil {
		return dynamo.Configf("scenario has no asteroid")
	}
	if !sc.Initial.IsValid() || !sc.Target.IsFinite() {
		return dynamo.Configf("scenario initial state must be finite")
	}
	if !(sc.SpecificImpulse > 0) {
		return dynamo.Configf("specific impulse must be positive, got %g", sc.SpecificImpulse)
	}
	if sc.MinimumMass < 0 || sc.MaximumThrust < 0 {
		return dynamo.Configf("minimum mass and maximum thrust must not be negative")
	}
	for _, v := range []float64{sc.EngineNoise, sc.PerturbationNoise} {
		if v < 0 || math.IsNaN(v) {
			return dynamo.Configf("noise levels must not be negative")
		}
	}
	if math.IsNaN(sc.PerturbationMean) || math.IsInf(sc.PerturbationMean, 0) {
		return dynamo.Configf("perturbation mean must be finite")
	}
	return nil
}
