package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/hoversim/internal/config"
	"github.com/san-kum/hoversim/internal/logging"
)

// v holds flag values overlaid with HOVERSIM_* environment variables.
var v = viper.New()

// main registers the hoversim commands and exits with status 1 when the
// selected command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "hoversim",
		Short:         "spacecraft hovering over a rotating asteroid",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.String("data", ".hoversim", "data directory")
	pf.String("config", "", "config file path (yaml)")
	pf.String("preset", "", "use preset configuration")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (text, json)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run one scenario and store the trajectory",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().Bool("progress", false, "print a progress line while running")
	runCmd.Flags().String("sensor-data", "", "write the sensor readings to this file")
	runCmd.Flags().String("metrics-file", "", "write prometheus metrics to this textfile")

	evaluateCmd := &cobra.Command{
		Use:   "evaluate",
		Short: "score the controller over consecutive seeds",
		Args:  cobra.NoArgs,
		RunE:  evaluateController,
	}
	addScenarioFlags(evaluateCmd)
	evaluateCmd.Flags().Int("runs", 10, "number of seeds")
	evaluateCmd.Flags().String("metrics-file", "", "write prometheus metrics to this textfile")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch a run in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot height and distance to target in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringP("out", "o", "", "output file (default stdout)")

	exportPNGCmd := &cobra.Command{
		Use:   "export-png [run_id]",
		Short: "render run plots to image files",
		Args:  cobra.ExactArgs(1),
		RunE:  exportPNG,
	}
	exportPNGCmd.Flags().StringP("out", "o", "plots", "output directory")
	exportPNGCmd.Flags().String("format", "png", "image format (png, svg, pdf)")

	exportVizCmd := &cobra.Command{
		Use:   "export-viz [run_id]",
		Short: "export the trajectory in the visualization text format",
		Args:  cobra.ExactArgs(1),
		RunE:  exportVisualization,
	}
	exportVizCmd.Flags().StringP("out", "o", "", "output file (default stdout)")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search controller gains over consecutive seeds",
		Args:  cobra.NoArgs,
		RunE:  tuneGains,
	}
	addScenarioFlags(tuneCmd)
	tuneCmd.Flags().Int("runs", 5, "number of seeds per grid point")
	tuneCmd.Flags().Float64Slice("kp-grid", nil, "proportional gains to try")
	tuneCmd.Flags().Float64Slice("ki-grid", nil, "integral gains to try")
	tuneCmd.Flags().Float64Slice("kd-grid", nil, "derivative gains to try")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	controllersCmd := &cobra.Command{
		Use:   "controllers",
		Short: "list available controllers",
		Args:  cobra.NoArgs,
		RunE:  listControllers,
	}

	rootCmd.AddCommand(runCmd, evaluateCmd, liveCmd, listCmd, plotCmd, exportJSONCmd, exportPNGCmd, exportVizCmd, tuneCmd, presetsCmd, controllersCmd)

	v.SetEnvPrefix("hoversim")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(pf); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int64("seed", 0, "scenario seed")
	f.Float64("time", 0, "simulated time in seconds")
	f.Float64("freq", 0, "control frequency in Hz")
	f.String("controller", "", "controller type")
	f.Float64("kp", 0, "proportional gain")
	f.Float64("ki", 0, "integral gain (fullstate)")
	f.Float64("kd", 0, "derivative gain")
	f.Bool("fixed", false, "use the fixed step RK4 stepper")
	f.Bool("noise", false, "enable sensor noise")
	f.Int("objective", 0, "objective method (1-8)")
}

// loadConfig resolves the configuration of a command: the preset or the
// defaults, then the config file, then flags and environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	cfg := config.DefaultConfig()
	if name := v.GetString("preset"); name != "" {
		cfg = config.GetPreset(name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
	}
	if path := v.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if v.IsSet("seed") {
		cfg.Seed = v.GetInt64("seed")
	}
	if v.IsSet("time") {
		cfg.Simulation.Horizon = v.GetFloat64("time")
	}
	if v.IsSet("freq") {
		cfg.Simulation.ControlFrequency = v.GetFloat64("freq")
	}
	if v.IsSet("controller") {
		cfg.Controller.Type = v.GetString("controller")
	}
	if v.IsSet("kp") {
		cfg.Controller.Kp = v.GetFloat64("kp")
	}
	if v.IsSet("ki") {
		cfg.Controller.Ki = v.GetFloat64("ki")
	}
	if v.IsSet("kd") {
		cfg.Controller.Kd = v.GetFloat64("kd")
	}
	if v.IsSet("fixed") {
		cfg.Simulation.Adaptive = !v.GetBool("fixed")
	}
	if v.IsSet("noise") {
		cfg.Sensors.NoiseEnabled = v.GetBool("noise")
	}
	if v.IsSet("objective") {
		cfg.Objective.Method = v.GetInt("objective")
	}
	if v.IsSet("log-level") {
		cfg.Logging.Level = v.GetString("log-level")
	}
	if v.IsSet("log-format") {
		cfg.Logging.Format = v.GetString("log-format")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) logging.Logger {
	return logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
}
