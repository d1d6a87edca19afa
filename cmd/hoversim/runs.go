package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot"

	"github.com/san-kum/hoversim/internal/config"
	"github.com/san-kum/hoversim/internal/experiment"
	"github.com/san-kum/hoversim/internal/export"
	"github.com/san-kum/hoversim/internal/sim"
	"github.com/san-kum/hoversim/internal/storage"
	"github.com/san-kum/hoversim/internal/vector"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(v.GetString("data"))
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCTRL\tSEED\tTIME\tHORIZON\tSTATUS\tSCORE")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%.0fs\t%s\t%.6g\n",
			run.ID,
			run.Controller,
			run.Seed,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Horizon,
			run.Status,
			run.Score,
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *sim.Record, error) {
	st := storage.New(v.GetString("data"))
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	rec, err := st.LoadRecord(runID)
	if err != nil {
		return nil, nil, err
	}
	if rec.Len() == 0 {
		return nil, nil, fmt.Errorf("run %s has no samples", runID)
	}
	return meta, rec, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, rec, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("controller: %s\n", meta.Controller)
	fmt.Printf("samples: %d\n\n", rec.Len())

	heights := make([]float64, rec.Len())
	offsets := make([]float64, rec.Len())
	target := vector.Vector3D(meta.Target)
	for i := range rec.Positions {
		heights[i] = rec.Heights[i].Norm()
		offsets[i] = rec.Positions[i].Sub(target).Norm()
	}

	for _, series := range []struct {
		caption string
		data    []float64
	}{
		{"height above surface (m)", heights},
		{"distance to target (m)", offsets},
		{"mass (kg)", rec.Masses},
	} {
		graph := asciigraph.Plot(series.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(series.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

// output returns the file named by the out flag, or stdout.
func output(cmd *cobra.Command) (io.WriteCloser, error) {
	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, rec, err := loadRun(args[0])
	if err != nil {
		return err
	}
	w, err := output(cmd)
	if err != nil {
		return err
	}
	defer w.Close()
	return export.WriteJSON(w, export.NewExportData(meta.Controller, meta.Horizon, rec))
}

func exportPNG(cmd *cobra.Command, args []string) error {
	meta, rec, err := loadRun(args[0])
	if err != nil {
		return err
	}
	dir, _ := cmd.Flags().GetString("out")
	format, _ := cmd.Flags().GetString("format")

	plots := []struct {
		name  string
		build func() (*plot.Plot, error)
	}{
		{"height", func() (*plot.Plot, error) { return export.HeightPlot(rec) }},
		{"offset", func() (*plot.Plot, error) { return export.OffsetPlot(rec, vector.Vector3D(meta.Target)) }},
		{"mass", func() (*plot.Plot, error) { return export.MassPlot(rec) }},
		{"thrust", func() (*plot.Plot, error) { return export.ThrustPlot(rec) }},
		{"trajectory_xy", func() (*plot.Plot, error) { return export.TrajectoryPlot(rec, 0, 1) }},
		{"trajectory_xz", func() (*plot.Plot, error) { return export.TrajectoryPlot(rec, 0, 2) }},
	}
	for _, p := range plots {
		pl, err := p.build()
		if err != nil {
			return fmt.Errorf("%s plot: %w", p.name, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.%s", meta.ID, p.name, format))
		if err := export.SavePlot(pl, path); err != nil {
			return err
		}
		fmt.Println(path)
	}
	return nil
}

func exportVisualization(cmd *cobra.Command, args []string) error {
	meta, rec, err := loadRun(args[0])
	if err != nil {
		return err
	}
	w, err := output(cmd)
	if err != nil {
		return err
	}
	defer w.Close()
	return export.WriteVisualization(w, vector.Vector3D(meta.SemiAxis), meta.Frequency, rec)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tCTRL\tSENSORS\tHORIZON\tOBJECTIVE")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%v\t%.0fs\t%d\n",
			name,
			cfg.Controller.Type,
			cfg.Sensors.Types,
			cfg.Simulation.Horizon,
			cfg.Objective.Method,
		)
	}
	return w.Flush()
}

func listControllers(cmd *cobra.Command, args []string) error {
	for _, name := range experiment.NewRegistry().ListControllers() {
		fmt.Println(name)
	}
	return nil
}
