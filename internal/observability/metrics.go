// Package observability exposes Prometheus metrics about simulation runs.
package observability

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/hoversim/internal/dynamo"
)

// RunCollector bundles the per-run counters and histograms.
type RunCollector struct {
	gatherer prometheus.Gatherer

	Runs             *prometheus.CounterVec
	Faults           *prometheus.CounterVec
	RunDurations     prometheus.Histogram
	SimulatedSeconds prometheus.Histogram
	Samples          prometheus.Counter
}

// NewRunCollector registers run metrics against reg, defaulting to the global
// registry when nil.
func NewRunCollector(reg prometheus.Registerer) (*RunCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	runs, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hoversim_runs_total",
		Help: "Finished simulation runs, labeled by final status.",
	}, []string{"status"}), "hoversim_runs_total")
	if err != nil {
		return nil, err
	}

	faults, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hoversim_faults_total",
		Help: "Runs ended by a fault, labeled by reason.",
	}, []string{"reason"}), "hoversim_faults_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "hoversim_run_duration_seconds",
		Help:    "Wall clock time spent per run.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 300},
	}), "hoversim_run_duration_seconds")
	if err != nil {
		return nil, err
	}

	simulated, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "hoversim_simulated_seconds",
		Help:    "Simulated time reached per run.",
		Buckets: []float64{1, 10, 60, 600, 3600, 4 * 3600, 24 * 3600},
	}), "hoversim_simulated_seconds")
	if err != nil {
		return nil, err
	}

	samples, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hoversim_samples_total",
		Help: "Trajectory samples recorded across all runs.",
	}), "hoversim_samples_total")
	if err != nil {
		return nil, err
	}

	return &RunCollector{
		gatherer:         gatherer,
		Runs:             runs,
		Faults:           faults,
		RunDurations:     durations,
		SimulatedSeconds: simulated,
		Samples:          samples,
	}, nil
}

// ObserveRun records one finished run. fault is nil for completed runs.
func (c *RunCollector) ObserveRun(status string, fault error, wall time.Duration, simulated float64, samples int) {
	if c == nil {
		return
	}
	c.Runs.WithLabelValues(status).Inc()
	if fault != nil {
		c.Faults.WithLabelValues(FaultReason(fault)).Inc()
	}
	c.RunDurations.Observe(wall.Seconds())
	c.SimulatedSeconds.Observe(simulated)
	c.Samples.Add(float64(samples))
}

// WriteTextfile dumps every gathered metric in the text exposition format,
// for node_exporter's textfile collector.
func (c *RunCollector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.gatherer)
}

// FaultReason is the label value used for err.
func FaultReason(err error) string {
	switch {
	case errors.Is(err, dynamo.ErrSurfaceCollision):
		return "surface_collision"
	case errors.Is(err, dynamo.ErrOutOfFuel):
		return "out_of_fuel"
	case errors.Is(err, dynamo.ErrStepTooSmall):
		return "step_too_small"
	case errors.Is(err, dynamo.ErrInvalidState):
		return "invalid_state"
	default:
		return "other"
	}
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
