// Package experiment turns a configuration into scored hovering runs.
package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/hoversim/internal/config"
	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/logging"
	"github.com/san-kum/hoversim/internal/metrics"
	"github.com/san-kum/hoversim/internal/observability"
	"github.com/san-kum/hoversim/internal/sim"
)

// Result is one scored run.
type Result struct {
	Scenario  *sim.Scenario
	Record    *sim.Record
	Score     float64
	PostScore float64
}

type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	objective *metrics.Objective
	logger    logging.Logger
	collector *observability.RunCollector

	scenario  *sim.Scenario
	simulator *sim.Simulator
}

type Option func(*Experiment)

func WithLogger(l logging.Logger) Option {
	return func(e *Experiment) { e.logger = l }
}

func WithCollector(c *observability.RunCollector) Option {
	return func(e *Experiment) { e.collector = c }
}

func WithRegistry(r *Registry) Option {
	return func(e *Experiment) { e.registry = r }
}

func New(cfg *config.Config, opts ...Option) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	objective, err := metrics.NewObjective(cfg.Objective.Method, cfg.Objective.PunishUnfinished, cfg.Simulation.Horizon)
	if err != nil {
		return nil, err
	}

	e := &Experiment{
		cfg:       cfg.Clone(),
		registry:  NewRegistry(),
		objective: objective,
		logger:    logging.Noop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Experiment) Config() *config.Config        { return e.cfg }
func (e *Experiment) Objective() *metrics.Objective { return e.objective }
func (e *Experiment) Scenario() *sim.Scenario       { return e.scenario }

// Setup samples the scenario for cfg.Seed and prepares a simulator with the
// default metrics and any extra options, such as observers.
func (e *Experiment) Setup(extra ...sim.Option) error {
	sc, err := sim.NewScenario(e.cfg.Seed, e.cfg.Scenario)
	if err != nil {
		return err
	}
	s, err := sim.New(sc, e.cfg.Simulation, e.cfg.Sensors, append(e.simOptions(sc), extra...)...)
	if err != nil {
		return err
	}
	e.scenario = sc
	e.simulator = s
	return nil
}

func (e *Experiment) simOptions(sc *sim.Scenario) []sim.Option {
	opts := []sim.Option{sim.WithLogger(e.logger), sim.WithCollector(e.collector)}
	for _, m := range e.registry.DefaultMetrics(sc) {
		opts = append(opts, sim.WithMetric(m))
	}
	return opts
}

// Start begins a run that the caller steps, as the live view does.
func (e *Experiment) Start() (*sim.Run, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	ctrl, err := e.registry.GetController(e.cfg)
	if err != nil {
		return nil, err
	}
	return e.simulator.Start(ctrl)
}

// Run plays the configured controller to the horizon and scores it.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	run, err := e.Start()
	if err != nil {
		return nil, err
	}
	rec, err := run.Finish(ctx)
	if err != nil {
		return nil, err
	}
	return e.score(e.scenario, rec), nil
}

// Batch evaluates the configured controller on every seed in parallel.
func (e *Experiment) Batch(ctx context.Context, seeds []int64) ([]*Result, metrics.Summary, error) {
	newCtrl := func(*sim.Scenario) (dynamo.Controller, error) {
		return e.registry.GetController(e.cfg)
	}
	ens := sim.NewEnsemble(e.cfg, newCtrl, sim.WithLogger(e.logger), sim.WithCollector(e.collector))
	ens.NewMetrics = e.registry.DefaultMetrics

	records, err := ens.Run(ctx, seeds)
	if err != nil {
		return nil, metrics.Summary{}, err
	}

	results := make([]*Result, len(records))
	scores := make([]float64, len(records))
	for i, rec := range records {
		sc, err := sim.NewScenario(rec.Seed, e.cfg.Scenario)
		if err != nil {
			return nil, metrics.Summary{}, err
		}
		results[i] = e.score(sc, rec)
		scores[i] = results[i].PostScore
	}

	summary := metrics.Summarize(scores)
	e.logger.Info(ctx, "batch finished",
		logging.Int("runs", summary.Count),
		logging.Int("unfinished", summary.Unfinished),
		logging.Float("mean", summary.Mean),
		logging.Float("stddev", summary.StdDev))
	return results, summary, nil
}

func (e *Experiment) score(sc *sim.Scenario, rec *sim.Record) *Result {
	return &Result{
		Scenario:  sc,
		Record:    rec,
		Score:     e.objective.Score(rec, sc),
		PostScore: e.objective.PostScore(rec, sc),
	}
}

// Seeds returns n consecutive seeds starting at start.
func Seeds(start int64, n int) []int64 {
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = start + int64(i)
	}
	return seeds
}
