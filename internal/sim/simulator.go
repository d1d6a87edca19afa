// Package sim drives a controller through a hovering scenario and records
// the resulting trajectory.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/hoversim/internal/config"
	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/integrators"
	"github.com/san-kum/hoversim/internal/logging"
	"github.com/san-kum/hoversim/internal/observability"
	"github.com/san-kum/hoversim/internal/physics"
	"github.com/san-kum/hoversim/internal/sample"
	"github.com/san-kum/hoversim/internal/sensor"
	"github.com/san-kum/hoversim/internal/vector"
)

// ErrRunFinished is returned by Step once a run has completed or faulted.
var ErrRunFinished = errors.New("sim: run already finished")

type Simulator struct {
	scenario  *Scenario
	cfg       config.SimulationConfig
	sensors   config.SensorsConfig
	logger    logging.Logger
	collector *observability.RunCollector
	metrics   []dynamo.Metric
	observers []dynamo.Observer
}

type Option func(*Simulator)

func WithLogger(l logging.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

func WithCollector(c *observability.RunCollector) Option {
	return func(s *Simulator) { s.collector = c }
}

// WithMetric adds a metric observed once per control interval. Metrics are
// reset at the start of every run.
func WithMetric(m dynamo.Metric) Option {
	return func(s *Simulator) { s.metrics = append(s.metrics, m) }
}

// WithObserver adds an observer called for every recorded sample.
func WithObserver(o dynamo.Observer) Option {
	return func(s *Simulator) { s.observers = append(s.observers, o) }
}

func New(scenario *Scenario, cfg config.SimulationConfig, sensors config.SensorsConfig, opts ...Option) (*Simulator, error) {
	if scenario == nil {
		return nil, dynamo.Configf("simulator needs a scenario")
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	if err := validateSimulation(cfg); err != nil {
		return nil, err
	}

	s := &Simulator{
		scenario: scenario,
		cfg:      cfg,
		sensors:  sensors,
		logger:   logging.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Noop()
	}
	return s, nil
}

func validateSimulation(cfg config.SimulationConfig) error {
	if !(cfg.Horizon > 0) {
		return dynamo.Configf("horizon must be positive, got %g", cfg.Horizon)
	}
	if !(cfg.ControlFrequency > 0) {
		return dynamo.Configf("control frequency must be positive, got %g", cfg.ControlFrequency)
	}
	if !(cfg.MinimumStep > 0) {
		return dynamo.Configf("minimum step must be positive, got %g", cfg.MinimumStep)
	}
	if !(cfg.FixedStep > 0) {
		return dynamo.Configf("fixed step must be positive, got %g", cfg.FixedStep)
	}
	return nil
}

func (s *Simulator) Scenario() *Scenario                { return s.scenario }
func (s *Simulator) Config() config.SimulationConfig    { return s.cfg }
func (s *Simulator) SensorConfig() config.SensorsConfig { return s.sensors }

// Start prepares a run with the stepper chosen by the configuration.
func (s *Simulator) Start(ctrl dynamo.Controller) (*Run, error) {
	if s.cfg.Adaptive {
		return s.start(ctrl, s.adaptive())
	}
	return s.start(ctrl, s.fixed())
}

// Evaluate runs ctrl to the horizon with the adaptive Cash-Karp stepper.
// Faults end the run and are reported in the record; the error is only set
// for configuration problems.
func (s *Simulator) Evaluate(ctrl dynamo.Controller) (*Record, error) {
	run, err := s.start(ctrl, s.adaptive())
	if err != nil {
		return nil, err
	}
	return run.Finish(context.Background())
}

// EvaluateFixed is Evaluate with RK4 at the fixed step size.
func (s *Simulator) EvaluateFixed(ctrl dynamo.Controller) (*Record, error) {
	run, err := s.start(ctrl, s.fixed())
	if err != nil {
		return nil, err
	}
	return run.Finish(context.Background())
}

func (s *Simulator) adaptive() dynamo.Propagator {
	ck := integrators.NewCashKarp(s.cfg.AbsTol, s.cfg.RelTol, s.cfg.MinimumStep)
	if ck.AbsTol <= 0 {
		ck.AbsTol = config.DefaultTolerance
	}
	return ck
}

func (s *Simulator) fixed() dynamo.Propagator {
	return integrators.NewRK4(s.cfg.FixedStep)
}

func (s *Simulator) start(ctrl dynamo.Controller, prop dynamo.Propagator) (*Run, error) {
	if ctrl == nil {
		return nil, dynamo.Configf("no controller")
	}
	sc := s.scenario

	// Every run replays the same random sequence.
	factory := sample.New(sc.Seed)

	sensors, err := sensor.New(sc.Asteroid, factory, sensor.Config{
		Types:        s.sensors.Types,
		Noise:        s.sensors.Noise,
		Transforms:   s.sensors.Transforms,
		NoiseEnabled: s.sensors.NoiseEnabled,
		Target:       sc.Target,
	})
	if err != nil {
		return nil, err
	}
	if sensors.Dimensions() != ctrl.Dimensions() {
		return nil, fmt.Errorf("%w: %w: sensors produce %d values, controller expects %d",
			dynamo.ErrInvalidConfig, dynamo.ErrDimensionMismatch, sensors.Dimensions(), ctrl.Dimensions())
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	rec := &Record{Seed: sc.Seed, Metrics: make(map[string]float64)}
	r := &Run{
		sim:       s,
		ctrl:      ctrl,
		factory:   factory,
		sensors:   sensors,
		hover:     physics.NewHover(sc.Asteroid, sc.SpecificImpulse, sc.MinimumMass, s.cfg.FuelUsage),
		prop:      prop,
		collector: NewCollector(sc.Asteroid, rec),
		record:    rec,
		state:     sc.Initial,
		interval:  s.cfg.ControlInterval(),
		ticks:     int(math.Ceil(s.cfg.Horizon*s.cfg.ControlFrequency - 1e-9)),
		logger:    s.logger.With(logging.Int64("seed", sc.Seed)),
	}
	r.observe(sc.Initial, 0)
	return r, nil
}

// Run is one pass of a controller through a scenario. It moves from Idle to
// Running on the first Step and ends Completed or Faulted.
type Run struct {
	sim       *Simulator
	ctrl      dynamo.Controller
	factory   *sample.Factory
	sensors   *sensor.Simulator
	hover     *physics.Hover
	prop      dynamo.Propagator
	collector *Collector
	record    *Record
	logger    logging.Logger

	state    dynamo.SystemState
	thrust   vector.Vector3D
	t        float64
	lastT    float64
	tick     int
	ticks    int
	interval float64
	status   Status
	began    time.Time
}

func (r *Run) Status() Status            { return r.status }
func (r *Run) Record() *Record           { return r.record }
func (r *Run) Time() float64             { return r.t }
func (r *Run) State() dynamo.SystemState { return r.state }
func (r *Run) Thrust() vector.Vector3D   { return r.thrust }
func (r *Run) Controller() dynamo.Controller {
	return r.ctrl
}

func (r *Run) Done() bool {
	return r.status == Completed || r.status == Faulted
}

// Step advances the run by one control interval: disturbances are drawn,
// the sensors are read, the controller picks a thrust and the dynamics are
// integrated with that thrust held.
func (r *Run) Step() error {
	if r.Done() {
		return ErrRunFinished
	}
	if r.status == Idle {
		r.status = Running
		r.began = time.Now()
		r.logger.Debug(context.Background(), "run started", logging.Int("ticks", r.ticks))
	}

	sc := r.sim.scenario
	f := r.factory
	perturbation := vector.Vector3D{
		f.Normal(sc.PerturbationMean, sc.PerturbationNoise),
		f.Normal(sc.PerturbationMean, sc.PerturbationNoise),
		f.Normal(sc.PerturbationMean, sc.PerturbationNoise),
	}
	engineNoise := f.Normal(0, sc.EngineNoise)
	r.hover.SetDisturbance(perturbation, engineNoise)

	height := sc.Asteroid.HeightAtPosition(r.state.Position())
	data := r.sensors.Simulate(r.state, height, perturbation, r.t, r.thrust)
	r.thrust = r.ctrl.Act(data)

	r.record.ControlTimes = append(r.record.ControlTimes, r.t)
	r.record.Thrusts = append(r.record.Thrusts, r.thrust)
	r.record.Observations = append(r.record.Observations, data)

	t1 := math.Min(float64(r.tick+1)*r.interval, r.sim.cfg.Horizon)
	x, err := r.prop.Integrate(r.hover, r.state.State(), dynamo.Control(r.thrust.Slice()), r.t, t1, func(x dynamo.State, t float64) {
		r.observe(dynamo.SystemStateFromState(x), t)
	})
	r.state = dynamo.SystemStateFromState(x)

	for _, m := range r.sim.metrics {
		m.Observe(r.state, r.thrust, r.lastT)
	}

	if err != nil {
		if !dynamo.IsFault(err) {
			return err
		}
		r.t = r.lastT
		r.finish(Faulted, &dynamo.SimulationError{
			Step:    r.tick,
			Time:    r.lastT,
			State:   r.state,
			Wrapped: err,
		})
		return nil
	}

	r.t = t1
	r.tick++
	if r.tick >= r.ticks {
		r.finish(Completed, nil)
	}
	return nil
}

// Finish steps until the run ends or ctx is cancelled.
func (r *Run) Finish(ctx context.Context) (*Record, error) {
	for !r.Done() {
		if err := ctx.Err(); err != nil {
			return r.record, err
		}
		if err := r.Step(); err != nil {
			return nil, err
		}
	}
	return r.record, nil
}

func (r *Run) observe(x dynamo.SystemState, t float64) {
	r.lastT = t
	r.collector.Collect(x, t)
	for _, o := range r.sim.observers {
		o.OnStep(x, t)
	}
}

func (r *Run) finish(status Status, fault error) {
	r.status = status
	r.record.Status = status
	r.record.Fault = fault
	for _, m := range r.sim.metrics {
		r.record.Metrics[m.Name()] = m.Value()
	}

	ctx := context.Background()
	if fault != nil {
		r.logger.Info(ctx, "run faulted",
			logging.Float("t", r.lastT),
			logging.String("reason", observability.FaultReason(fault)),
			logging.Err(fault))
	} else {
		r.logger.Info(ctx, "run completed",
			logging.Float("t", r.t),
			logging.Int("samples", r.record.Len()))
	}
	r.sim.collector.ObserveRun(status.String(), fault, time.Since(r.began), r.lastT, r.record.Len())
}

// Evaluate samples the scenario for seed from cfg and runs ctrl up to
// horizon with the stepper chosen by cfg.
func Evaluate(seed int64, horizon float64, ctrl dynamo.Controller, cfg *config.Config, opts ...Option) (*Record, error) {
	c := cfg.Clone()
	c.Simulation.Horizon = horizon

	sc, err := NewScenario(seed, c.Scenario)
	if err != nil {
		return nil, err
	}
	s, err := New(sc, c.Simulation, c.Sensors, opts...)
	if err != nil {
		return nil, err
	}
	run, err := s.Start(ctrl)
	if err != nil {
		return nil, err
	}
	return run.Finish(context.Background())
}
