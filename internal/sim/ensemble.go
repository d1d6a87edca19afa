package sim

import (
	"context"

	"github.com/san-kum/hoversim/internal/config"
	"github.com/san-kum/hoversim/internal/dynamo"
)

// ControllerFactory builds a fresh controller for one scenario. Controllers
// keep state between calls, so runs never share one.
type ControllerFactory func(sc *Scenario) (dynamo.Controller, error)

// Ensemble evaluates one controller design over many seeds in parallel.
type Ensemble struct {
	cfg     *config.Config
	newCtrl ControllerFactory
	opts    []Option

	// NewMetrics, if set, supplies per-run metrics. Options are shared by
	// every run and must be safe for concurrent use.
	NewMetrics func(sc *Scenario) []dynamo.Metric
}

func NewEnsemble(cfg *config.Config, newCtrl ControllerFactory, opts ...Option) *Ensemble {
	return &Ensemble{cfg: cfg.Clone(), newCtrl: newCtrl, opts: opts}
}

// Run evaluates every seed and returns the records in seed order. The first
// configuration error aborts the result; faults are reported per record.
func (e *Ensemble) Run(ctx context.Context, seeds []int64) ([]*Record, error) {
	records := make([]*Record, len(seeds))
	errs := make([]error, len(seeds))

	dynamo.ParallelFor(len(seeds), 1, func(start, end int) {
		for i := start; i < end; i++ {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				continue
			}
			records[i], errs[i] = e.runOne(ctx, seeds[i])
		}
	})

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (e *Ensemble) runOne(ctx context.Context, seed int64) (*Record, error) {
	sc, err := NewScenario(seed, e.cfg.Scenario)
	if err != nil {
		return nil, err
	}
	ctrl, err := e.newCtrl(sc)
	if err != nil {
		return nil, err
	}

	opts := append([]Option(nil), e.opts...)
	if e.NewMetrics != nil {
		for _, m := range e.NewMetrics(sc) {
			opts = append(opts, WithMetric(m))
		}
	}
	s, err := New(sc, e.cfg.Simulation, e.cfg.Sensors, opts...)
	if err != nil {
		return nil, err
	}
	run, err := s.Start(ctrl)
	if err != nil {
		return nil, err
	}
	return run.Finish(ctx)
}
