package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/hoversim/internal/config"
	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/sim"
	"github.com/san-kum/hoversim/internal/vector"
)

func testRecord() *sim.Record {
	return &sim.Record{
		Seed:         7,
		Times:        []float64{0, 1, 2},
		Masses:       []float64{500, 499.5, 499},
		Positions:    []vector.Vector3D{{12000, 0, 0}, {12000.5, 0.25, 0}, {12001, 0.5, 0}},
		Heights:      []vector.Vector3D{{2000, 0, 0}, {2000.5, 0.25, 0}, {2001, 0.5, 0}},
		Velocities:   []vector.Vector3D{{0.5, 0.25, 0}, {0.5, 0.25, 0}, {0.5, 0.25, 0}},
		ControlTimes: []float64{0, 1},
		Thrusts:      []vector.Vector3D{{1, 0, -1}, {0, 2, 0}},
		Observations: []dynamo.SensorData{{1, 2, 3}, {0.5, -0.25, 1e-12}},
		Status:       sim.Completed,
		Metrics:      map[string]float64{"control_effort": 1.5},
	}
}

func TestPlotsRender(t *testing.T) {
	rec := testRecord()
	builders := map[string]func() error{
		"height": func() error { _, err := HeightPlot(rec); return err },
		"offset": func() error { _, err := OffsetPlot(rec, rec.Positions[0]); return err },
		"mass":   func() error { _, err := MassPlot(rec); return err },
		"thrust": func() error { _, err := ThrustPlot(rec); return err },
		"xy":     func() error { _, err := TrajectoryPlot(rec, 0, 1); return err },
	}
	for name, build := range builders {
		if err := build(); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}

	if _, err := TrajectoryPlot(rec, 1, 1); err == nil {
		t.Error("expected error for a degenerate projection")
	}
	if _, err := HeightPlot(&sim.Record{}); err == nil {
		t.Error("expected error for an empty record")
	}
}

func TestSavePlot(t *testing.T) {
	p, err := HeightPlot(testRecord())
	if err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(t.TempDir(), "plots")
	for _, name := range []string{"height.png", "height.svg"} {
		path := filepath.Join(dir, name)
		if err := SavePlot(p, path); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			t.Errorf("%s not written", name)
		}
	}

	var buf bytes.Buffer
	if err := WritePlot(&buf, p, "SVG"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Error("svg output missing root element")
	}
	if err := WritePlot(&buf, p, "bmp"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestWriteJSON(t *testing.T) {
	rec := testRecord()
	rec.Status = sim.Faulted
	rec.Fault = &dynamo.SimulationError{Step: 1, Time: 2, Wrapped: dynamo.ErrSurfaceCollision}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, NewExportData("pd", 2, rec)); err != nil {
		t.Fatal(err)
	}

	var back ExportData
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.Controller != "pd" || back.Seed != 7 || back.Samples != 3 || back.Status != "faulted" {
		t.Errorf("unexpected header %+v", back)
	}
	if back.Fault == "" {
		t.Error("fault not exported")
	}
	if back.Positions[2] != rec.Positions[2] || back.Thrusts[1] != rec.Thrusts[1] {
		t.Error("series changed in export")
	}
	if len(back.Observations) != 2 || back.Observations[0][2] != 3 {
		t.Errorf("observations = %v", back.Observations)
	}
}

func TestExportJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	if err := ExportJSON(path, NewExportData("none", 2, testRecord())); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"controller": "none"`)) {
		t.Errorf("unexpected file:\n%s", data)
	}
}

func TestWriteVisualization(t *testing.T) {
	var buf bytes.Buffer
	err := WriteVisualization(&buf, vector.Vector3D{10000, 6000, 3000}, 1, testRecord())
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header and 3 rows, got %d lines", len(lines))
	}
	if lines[0] != "10000,\t6000,\t3000,\t1" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[2] != "12000.5,\t0.25,\t0,\t2000.5,\t0.25,\t0 " {
		t.Errorf("row = %q", lines[2])
	}
}

func TestWriteSensorData(t *testing.T) {
	sc, err := sim.NewScenario(3, config.DefaultConfig().Scenario)
	if err != nil {
		t.Fatal(err)
	}
	rec := testRecord()

	var buf bytes.Buffer
	if err := WriteSensorData(&buf, sc, 1, 2, rec.Observations); err != nil {
		t.Fatal(err)
	}

	var header, rows []string
	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		if strings.HasPrefix(line, "#") {
			header = append(header, line)
		} else {
			rows = append(rows, line)
		}
	}
	if !strings.HasPrefix(header[0], "# target position: ") {
		t.Errorf("first line = %q", header[0])
	}
	for _, want := range []string{"density", "time bias", "semi axis", "specific impulse"} {
		if !strings.Contains(strings.Join(header, "\n"), want) {
			t.Errorf("header misses %s", want)
		}
	}
	if len(rows) != 2 || rows[0] != "1, 2, 3" || rows[1] != "0.5, -0.25, 1e-12" {
		t.Errorf("rows = %q", rows)
	}
}
