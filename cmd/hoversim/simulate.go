package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/hoversim/internal/config"
	"github.com/san-kum/hoversim/internal/experiment"
	"github.com/san-kum/hoversim/internal/export"
	"github.com/san-kum/hoversim/internal/logging"
	"github.com/san-kum/hoversim/internal/observability"
	"github.com/san-kum/hoversim/internal/optim"
	"github.com/san-kum/hoversim/internal/sim"
	"github.com/san-kum/hoversim/internal/storage"
	"github.com/san-kum/hoversim/internal/tui"
	"github.com/san-kum/hoversim/internal/viz"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	faultedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

func statusText(rec *sim.Record) string {
	if rec.Status == sim.Faulted {
		return faultedStyle.Render(fmt.Sprintf("faulted: %v", rec.Fault))
	}
	return completedStyle.Render(rec.Status.String())
}

// newCollector registers run metrics on a private registry when path is
// set, so they can be written out as a textfile afterwards.
func newCollector(path string) (*observability.RunCollector, error) {
	if path == "" {
		return nil, nil
	}
	return observability.NewRunCollector(prometheus.NewRegistry())
}

func writeMetrics(c *observability.RunCollector, path string) error {
	if c == nil {
		return nil
	}
	return c.WriteTextfile(path)
}

func newExperiment(cfg *config.Config, collector *observability.RunCollector) (*experiment.Experiment, logging.Logger, error) {
	logger := newLogger(cfg).With(logging.String("controller", cfg.Controller.Type))
	e, err := experiment.New(cfg, experiment.WithLogger(logger), experiment.WithCollector(collector))
	if err != nil {
		return nil, nil, err
	}
	return e, logger, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	metricsFile, _ := cmd.Flags().GetString("metrics-file")
	collector, err := newCollector(metricsFile)
	if err != nil {
		return err
	}
	e, logger, err := newExperiment(cfg, collector)
	if err != nil {
		return err
	}

	var extra []sim.Option
	var progress *tui.Progress
	if show, _ := cmd.Flags().GetBool("progress"); show {
		sc, err := sim.NewScenario(cfg.Seed, cfg.Scenario)
		if err != nil {
			return err
		}
		progress = tui.NewProgress(os.Stderr, sc.Asteroid, cfg.Simulation.Horizon, 10)
		extra = append(extra, sim.WithObserver(progress))
	}
	if err := e.Setup(extra...); err != nil {
		return err
	}

	st := storage.New(v.GetString("data"))
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("running seed %d with %s controller for %.0fs...\n", cfg.Seed, cfg.Controller.Type, cfg.Simulation.Horizon)
	start := time.Now()
	if progress != nil {
		progress.Start()
	}
	res, err := e.Run(ctx)
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	meta := storage.NewMetadata(cfg.Controller.Type, cfg.Simulation.Horizon, cfg.Simulation.Adaptive, res.Scenario, res.Record)
	meta.Frequency = cfg.Simulation.ControlFrequency
	meta.Score = res.Score
	runID, err := st.Save(meta, res.Record)
	if err != nil {
		return err
	}
	logger.Info(ctx, "run stored", logging.String("run_id", runID))

	if path, _ := cmd.Flags().GetString("sensor-data"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := export.WriteSensorData(f, res.Scenario, cfg.Simulation.ControlFrequency, cfg.Simulation.Horizon, res.Record.Observations); err != nil {
			return err
		}
	}
	if err := writeMetrics(collector, metricsFile); err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("status: %s\n", statusText(res.Record))
	fmt.Printf("samples: %d\n", res.Record.Len())
	fmt.Printf("score: %g (method %d)\n", res.Score, cfg.Objective.Method)
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(res.Record.Metrics))
	for name := range res.Record.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, res.Record.Metrics[name])
	}
	return nil
}

func evaluateController(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runs, _ := cmd.Flags().GetInt("runs")
	if runs <= 0 {
		return fmt.Errorf("runs must be positive, got %d", runs)
	}
	metricsFile, _ := cmd.Flags().GetString("metrics-file")
	collector, err := newCollector(metricsFile)
	if err != nil {
		return err
	}
	e, _, err := newExperiment(cfg, collector)
	if err != nil {
		return err
	}

	start := time.Now()
	results, summary, err := e.Batch(ctx, experiment.Seeds(cfg.Seed, runs))
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("%s controller, %d seeds from %d", cfg.Controller.Type, runs, cfg.Seed)))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tSTATUS\tEND\tSCORE\tFITNESS")
	for _, res := range results {
		fmt.Fprintf(w, "%d\t%s\t%.1fs\t%.6g\t%.6g\n",
			res.Record.Seed,
			res.Record.Status,
			res.Record.LastTime(),
			res.Score,
			res.PostScore,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nfitness over %d runs (%d unfinished) in %v\n", summary.Count, summary.Unfinished, time.Since(start).Round(time.Millisecond))
	fmt.Printf("  mean   %.6g\n  stddev %.6g\n  median %.6g\n  min    %.6g\n  max    %.6g\n",
		summary.Mean, summary.StdDev, summary.Median, summary.Min, summary.Max)

	return writeMetrics(collector, metricsFile)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	e, err := experiment.New(cfg)
	if err != nil {
		return err
	}
	if err := e.Setup(); err != nil {
		return err
	}
	title := fmt.Sprintf("%s seed %d", cfg.Controller.Type, cfg.Seed)
	return viz.Run(title, e.Scenario(), e.Start)
}

func tuneGains(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runs, _ := cmd.Flags().GetInt("runs")
	if runs <= 0 {
		return fmt.Errorf("runs must be positive, got %d", runs)
	}

	var names []string
	var ranges [][]float64
	for _, name := range []string{"kp", "ki", "kd"} {
		if values, _ := cmd.Flags().GetFloat64Slice(name + "-grid"); len(values) > 0 {
			names = append(names, name)
			ranges = append(ranges, values)
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("no grid given, use --kp-grid, --ki-grid or --kd-grid")
	}

	g, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	g.SetLogger(newLogger(cfg))

	best, all, err := g.Search(ctx, cfg, experiment.Seeds(cfg.Seed, runs))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARAMS\tMEAN\tSTDDEV\tUNFINISHED")
	for _, p := range all {
		fmt.Fprintf(w, "%v\t%.6g\t%.6g\t%d\n", p.Params, p.Summary.Mean, p.Summary.StdDev, p.Summary.Unfinished)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println(titleStyle.Render(fmt.Sprintf("best: %v (mean %.6g)", best.Params, best.Summary.Mean)))
	return nil
}
