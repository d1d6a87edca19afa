package sim_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/hoversim/internal/asteroid"
	"github.com/san-kum/hoversim/internal/config"
	"github.com/san-kum/hoversim/internal/control"
	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/observability"
	"github.com/san-kum/hoversim/internal/physics"
	"github.com/san-kum/hoversim/internal/sensor"
	"github.com/san-kum/hoversim/internal/sim"
	"github.com/san-kum/hoversim/internal/vector"
)

const minimumStep = 0.1

func quietSimulation(horizon float64, adaptive bool) config.SimulationConfig {
	return config.SimulationConfig{
		Horizon:          horizon,
		ControlFrequency: 1,
		MinimumStep:      minimumStep,
		FixedStep:        minimumStep,
		AbsTol:           1e-6,
		RelTol:           1e-6,
		Adaptive:         adaptive,
		FuelUsage:        true,
	}
}

func sixSensors() config.SensorsConfig {
	return config.SensorsConfig{Types: []sensor.Type{sensor.RelativePosition, sensor.Velocity}}
}

// handScenario places the spacecraft next to a non-rotating asteroid with
// every disturbance switched off.
func handScenario(pos, vel vector.Vector3D, mass, minimumMass float64) *sim.Scenario {
	ast, err := asteroid.New(vector.Vector3D{10000, 6000, 3000}, 2000, vector.Vector2D{}, 0)
	Expect(err).NotTo(HaveOccurred())
	return &sim.Scenario{
		Seed:            1,
		Asteroid:        ast,
		Initial:         dynamo.NewSystemState(pos, vel, mass),
		Target:          pos,
		MinimumMass:     minimumMass,
		MaximumThrust:   config.DefaultMaximumThrust,
		SpecificImpulse: config.DefaultSpecificImpulse,
	}
}

type countingObserver struct{ calls int }

func (o *countingObserver) OnStep(dynamo.SystemState, float64) { o.calls++ }

type countingMetric struct{ n float64 }

func (m *countingMetric) Name() string                                         { return "ticks" }
func (m *countingMetric) Observe(dynamo.SystemState, vector.Vector3D, float64) { m.n++ }
func (m *countingMetric) Value() float64                                       { return m.n }
func (m *countingMetric) Reset()                                               { m.n = 0 }

var _ = Describe("Simulator", func() {
	Describe("Evaluate", func() {
		It("reproduces a run exactly for the same seed", func() {
			cfg := config.DefaultConfig()
			cfg.Sensors.NoiseEnabled = true

			a, err := sim.Evaluate(3, 30, control.NewHoverPD(config.DefaultKp, config.DefaultKd, config.DefaultMaximumThrust), cfg)
			Expect(err).NotTo(HaveOccurred())
			b, err := sim.Evaluate(3, 30, control.NewHoverPD(config.DefaultKp, config.DefaultKd, config.DefaultMaximumThrust), cfg)
			Expect(err).NotTo(HaveOccurred())

			Expect(a.Status).To(Equal(sim.Completed))
			Expect(a.Times).To(Equal(b.Times))
			Expect(a.Positions).To(Equal(b.Positions))
			Expect(a.Masses).To(Equal(b.Masses))
			Expect(a.Observations).To(Equal(b.Observations))
		})

		It("returns equal-length series starting at zero and ending at the horizon", func() {
			rec, err := sim.Evaluate(5, 20, control.NewHoverPD(config.DefaultKp, config.DefaultKd, config.DefaultMaximumThrust), config.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())

			n := rec.Len()
			Expect(n).To(BeNumerically(">", 20))
			Expect(rec.Masses).To(HaveLen(n))
			Expect(rec.Positions).To(HaveLen(n))
			Expect(rec.Heights).To(HaveLen(n))
			Expect(rec.Velocities).To(HaveLen(n))
			Expect(rec.Times[0]).To(BeZero())
			Expect(rec.LastTime()).To(BeNumerically("~", 20, 1e-9))
			Expect(rec.ControlTimes).To(HaveLen(20))
			for i := 1; i < n; i++ {
				Expect(rec.Times[i]).To(BeNumerically(">", rec.Times[i-1]))
				Expect(rec.Masses[i]).To(BeNumerically("<=", rec.Masses[i-1]))
			}
		})

		It("does not modify the caller's configuration", func() {
			cfg := config.DefaultConfig()
			_, err := sim.Evaluate(1, 5, control.NewNone(6), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Simulation.Horizon).To(Equal(float64(config.DefaultHorizon)))
		})
	})

	Describe("faults", func() {
		It("stops at the surface with a collision", func() {
			sc := handScenario(vector.Vector3D{10055, 0, 0}, vector.Vector3D{-10, 0, 0}, 500, 250)
			s, err := sim.New(sc, quietSimulation(60, true), sixSensors())
			Expect(err).NotTo(HaveOccurred())

			rec, err := s.Evaluate(control.NewNone(6))
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Status).To(Equal(sim.Faulted))
			Expect(errors.Is(rec.Fault, dynamo.ErrSurfaceCollision)).To(BeTrue())

			var simErr *dynamo.SimulationError
			Expect(errors.As(rec.Fault, &simErr)).To(BeTrue())
			Expect(simErr.Time).To(Equal(rec.LastTime()))
			Expect(simErr.Step).To(Equal(5))

			last := rec.Positions[rec.Len()-1]
			Expect(sc.Asteroid.Contains(last)).To(BeFalse())
			Expect(rec.Heights[rec.Len()-1].Norm()).To(BeNumerically("<", 2))
			Expect(rec.LastTime()).To(BeNumerically("<", 5.5))
		})

		DescribeTable("runs out of fuel within one minimum step of the burn time",
			func(adaptive bool) {
				sc := handScenario(vector.Vector3D{30000, 0, 0}, vector.Vector3D{}, 250.01, 250)
				s, err := sim.New(sc, quietSimulation(10, adaptive), sixSensors())
				Expect(err).NotTo(HaveOccurred())

				rec, err := s.Start(control.NewConstant(vector.Vector3D{config.DefaultMaximumThrust, 0, 0}, 6))
				Expect(err).NotTo(HaveOccurred())
				out, err := rec.Finish(context.Background())
				Expect(err).NotTo(HaveOccurred())

				burn := 0.01 * config.DefaultSpecificImpulse * physics.StandardGravity / config.DefaultMaximumThrust
				Expect(out.Status).To(Equal(sim.Faulted))
				Expect(errors.Is(out.Fault, dynamo.ErrOutOfFuel)).To(BeTrue())
				Expect(out.LastTime()).To(BeNumerically("<", burn))
				Expect(out.LastTime()).To(BeNumerically(">=", burn-minimumStep-1e-9))
				Expect(out.Masses[out.Len()-1]).To(BeNumerically(">", sc.MinimumMass))
			},
			Entry("cash-karp", true),
			Entry("rk4", false),
		)

		It("faults immediately when starting inside the body", func() {
			sc := handScenario(vector.Vector3D{5000, 0, 0}, vector.Vector3D{}, 500, 250)
			s, err := sim.New(sc, quietSimulation(10, true), sixSensors())
			Expect(err).NotTo(HaveOccurred())

			rec, err := s.Evaluate(control.NewNone(6))
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Status).To(Equal(sim.Faulted))
			Expect(errors.Is(rec.Fault, dynamo.ErrSurfaceCollision)).To(BeTrue())
			Expect(rec.Len()).To(Equal(1))
		})
	})

	Describe("steppers", func() {
		It("agree between Cash-Karp and fixed-step RK4", func() {
			cfg := config.DefaultConfig()
			sc, err := sim.NewScenario(11, cfg.Scenario)
			Expect(err).NotTo(HaveOccurred())
			s, err := sim.New(sc, quietSimulation(120, true), sixSensors())
			Expect(err).NotTo(HaveOccurred())

			adaptive, err := s.Evaluate(control.NewHoverPD(config.DefaultKp, config.DefaultKd, config.DefaultMaximumThrust))
			Expect(err).NotTo(HaveOccurred())
			fixed, err := s.EvaluateFixed(control.NewHoverPD(config.DefaultKp, config.DefaultKd, config.DefaultMaximumThrust))
			Expect(err).NotTo(HaveOccurred())

			Expect(adaptive.Status).To(Equal(sim.Completed))
			Expect(fixed.Status).To(Equal(sim.Completed))
			Expect(fixed.Len()).To(Equal(1201))

			pa, pf := adaptive.Positions[adaptive.Len()-1], fixed.Positions[fixed.Len()-1]
			Expect(pa.Sub(pf).Norm()).To(BeNumerically("<", 1))
			va, vf := adaptive.Velocities[adaptive.Len()-1], fixed.Velocities[fixed.Len()-1]
			Expect(va.Sub(vf).Norm()).To(BeNumerically("<", 1e-2))
			Expect(adaptive.Masses[adaptive.Len()-1]).To(BeNumerically("~", fixed.Masses[fixed.Len()-1], 1e-3))
		})
	})

	Describe("Run", func() {
		var s *sim.Simulator

		BeforeEach(func() {
			sc := handScenario(vector.Vector3D{20000, 0, 0}, vector.Vector3D{}, 500, 250)
			var err error
			s, err = sim.New(sc, quietSimulation(3, false), sixSensors())
			Expect(err).NotTo(HaveOccurred())
		})

		It("moves from idle through running to completed", func() {
			run, err := s.Start(control.NewNone(6))
			Expect(err).NotTo(HaveOccurred())
			Expect(run.Status()).To(Equal(sim.Idle))
			Expect(run.Record().Len()).To(Equal(1))

			Expect(run.Step()).To(Succeed())
			Expect(run.Status()).To(Equal(sim.Running))
			Expect(run.Time()).To(Equal(1.0))

			Expect(run.Step()).To(Succeed())
			Expect(run.Step()).To(Succeed())
			Expect(run.Status()).To(Equal(sim.Completed))
			Expect(run.Done()).To(BeTrue())
			Expect(run.Record().ControlTimes).To(Equal([]float64{0, 1, 2}))
			Expect(run.Record().Status).To(Equal(sim.Completed))
			Expect(run.Record().Fault).To(BeNil())

			Expect(run.Step()).To(MatchError(sim.ErrRunFinished))
		})

		It("rejects a controller that does not match the sensors", func() {
			_, err := s.Start(control.NewNone(3))
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
			Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
		})

		It("stops when the context is cancelled", func() {
			run, err := s.Start(control.NewNone(6))
			Expect(err).NotTo(HaveOccurred())
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err = run.Finish(ctx)
			Expect(err).To(MatchError(context.Canceled))
			Expect(run.Done()).To(BeFalse())
		})

		It("feeds observers, metrics and the run collector", func() {
			obs := &countingObserver{}
			metric := &countingMetric{}
			reg := prometheus.NewRegistry()
			collector, err := observability.NewRunCollector(reg)
			Expect(err).NotTo(HaveOccurred())

			sc := handScenario(vector.Vector3D{20000, 0, 0}, vector.Vector3D{}, 500, 250)
			s, err := sim.New(sc, quietSimulation(3, false), sixSensors(),
				sim.WithObserver(obs), sim.WithMetric(metric), sim.WithCollector(collector))
			Expect(err).NotTo(HaveOccurred())

			rec, err := s.EvaluateFixed(control.NewNone(6))
			Expect(err).NotTo(HaveOccurred())
			Expect(obs.calls).To(Equal(rec.Len()))
			Expect(rec.Metrics).To(HaveKeyWithValue("ticks", 3.0))
			Expect(testutil.ToFloat64(collector.Runs.WithLabelValues("completed"))).To(Equal(1.0))
			Expect(testutil.ToFloat64(collector.Samples)).To(Equal(float64(rec.Len())))
		})
	})

	Describe("New", func() {
		It("rejects invalid simulation settings", func() {
			sc := handScenario(vector.Vector3D{20000, 0, 0}, vector.Vector3D{}, 500, 250)
			for _, mutate := range []func(*config.SimulationConfig){
				func(c *config.SimulationConfig) { c.Horizon = 0 },
				func(c *config.SimulationConfig) { c.ControlFrequency = -1 },
				func(c *config.SimulationConfig) { c.MinimumStep = 0 },
				func(c *config.SimulationConfig) { c.FixedStep = 0 },
			} {
				cfg := quietSimulation(10, true)
				mutate(&cfg)
				_, err := sim.New(sc, cfg, sixSensors())
				Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
			}
			_, err := sim.New(nil, quietSimulation(10, true), sixSensors())
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})
	})

	Describe("Ensemble", func() {
		It("returns one record per seed in order, matching single runs", func() {
			cfg := config.DefaultConfig()
			cfg.Simulation.Horizon = 5
			newCtrl := func(*sim.Scenario) (dynamo.Controller, error) {
				return control.NewHoverPD(config.DefaultKp, config.DefaultKd, config.DefaultMaximumThrust), nil
			}

			seeds := []int64{4, 9, 2, 7}
			records, err := sim.NewEnsemble(cfg, newCtrl).Run(context.Background(), seeds)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(len(seeds)))
			for i, rec := range records {
				Expect(rec.Seed).To(Equal(seeds[i]))
			}

			single, err := sim.Evaluate(9, 5, control.NewHoverPD(config.DefaultKp, config.DefaultKd, config.DefaultMaximumThrust), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(records[1].Positions).To(Equal(single.Positions))
		})

		It("reports the first configuration error", func() {
			cfg := config.DefaultConfig()
			cfg.Simulation.Horizon = 5
			newCtrl := func(*sim.Scenario) (dynamo.Controller, error) { return control.NewNone(2), nil }
			_, err := sim.NewEnsemble(cfg, newCtrl).Run(context.Background(), []int64{1, 2})
			Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
		})
	})
})
