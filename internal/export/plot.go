// Package export writes finished runs as plots, JSON and the plain text
// formats read by the trajectory viewer.
package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/hoversim/internal/sim"
	"github.com/san-kum/hoversim/internal/vector"
)

// Plot sizes.
const (
	PlotWidth  = 8 * vg.Inch
	PlotHeight = 5 * vg.Inch
)

var palette = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
}

type series struct {
	name string
	xs   []float64
	ys   []float64
}

// HeightPlot shows the height above the surface over time.
func HeightPlot(rec *sim.Record) (*plot.Plot, error) {
	return linePlot("Height above surface", "time (s)", "height (m)",
		series{"height", rec.Times, norms(rec.Heights)})
}

// OffsetPlot shows the distance from target over time.
func OffsetPlot(rec *sim.Record, target vector.Vector3D) (*plot.Plot, error) {
	offsets := make([]float64, rec.Len())
	for i, p := range rec.Positions {
		offsets[i] = p.Sub(target).Norm()
	}
	return linePlot("Distance to target", "time (s)", "distance (m)",
		series{"offset", rec.Times, offsets})
}

// MassPlot shows the spacecraft mass over time.
func MassPlot(rec *sim.Record) (*plot.Plot, error) {
	return linePlot("Spacecraft mass", "time (s)", "mass (kg)",
		series{"mass", rec.Times, rec.Masses})
}

// ThrustPlot shows the commanded thrust per axis.
func ThrustPlot(rec *sim.Record) (*plot.Plot, error) {
	axes := make([]series, 3)
	for i, name := range []string{"x", "y", "z"} {
		ys := make([]float64, len(rec.Thrusts))
		for j, th := range rec.Thrusts {
			ys[j] = th[i]
		}
		axes[i] = series{name, rec.ControlTimes, ys}
	}
	return linePlot("Thrust", "time (s)", "thrust (N)", axes...)
}

// TrajectoryPlot projects the positions onto the plane of axes i and j.
func TrajectoryPlot(rec *sim.Record, i, j int) (*plot.Plot, error) {
	if i < 0 || i > 2 || j < 0 || j > 2 || i == j {
		return nil, fmt.Errorf("export: invalid projection axes %d, %d", i, j)
	}
	xs := make([]float64, rec.Len())
	ys := make([]float64, rec.Len())
	for k, p := range rec.Positions {
		xs[k], ys[k] = p[i], p[j]
	}
	names := "xyz"
	return linePlot("Trajectory", fmt.Sprintf("%c (m)", names[i]), fmt.Sprintf("%c (m)", names[j]),
		series{"position", xs, ys})
}

func linePlot(title, xlabel, ylabel string, data ...series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())

	for k, s := range data {
		if len(s.xs) != len(s.ys) || len(s.xs) == 0 {
			return nil, fmt.Errorf("export: %s has no plottable data", s.name)
		}
		pts := make(plotter.XYs, len(s.xs))
		for i := range s.xs {
			pts[i].X = s.xs[i]
			pts[i].Y = s.ys[i]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = palette[k%len(palette)]
		p.Add(line)
		if len(data) > 1 {
			p.Legend.Add(s.name, line)
		}
	}
	return p, nil
}

// SavePlot writes p to path. The format follows the extension: png, svg,
// pdf, jpg or tif.
func SavePlot(p *plot.Plot, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return p.Save(PlotWidth, PlotHeight, path)
}

// WritePlot renders p in format to w.
func WritePlot(w io.Writer, p *plot.Plot, format string) error {
	wt, err := p.WriterTo(PlotWidth, PlotHeight, strings.ToLower(format))
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

func norms(vs []vector.Vector3D) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = v.Norm()
	}
	return out
}
