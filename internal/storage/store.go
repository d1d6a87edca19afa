// Package storage keeps finished runs on disk, one directory per run with a
// JSON metadata file and CSV sample tables.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/hoversim/internal/sim"
	"github.com/san-kum/hoversim/internal/vector"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
	controlsFile = "controls.csv"
)

var (
	samplesHeader  = []string{"time", "mass", "px", "py", "pz", "hx", "hy", "hz", "vx", "vy", "vz"}
	controlsHeader = []string{"time", "tx", "ty", "tz"}
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID         string             `json:"id"`
	Controller string             `json:"controller"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Horizon    float64            `json:"horizon"`
	Frequency  float64            `json:"control_frequency"`
	Adaptive   bool               `json:"adaptive"`
	Status     string             `json:"status"`
	Fault      string             `json:"fault,omitempty"`
	Score      float64            `json:"score"`
	Samples    int                `json:"samples"`
	Metrics    map[string]float64 `json:"metrics"`

	SemiAxis        [3]float64 `json:"semi_axis"`
	Density         float64    `json:"density"`
	AngularVelocity [2]float64 `json:"angular_velocity"`
	TimeBias        float64    `json:"time_bias"`
	Target          [3]float64 `json:"target"`
	MinimumMass     float64    `json:"minimum_mass"`
}

// NewMetadata fills the scenario and record parts of the metadata.
func NewMetadata(controller string, horizon float64, adaptive bool, sc *sim.Scenario, rec *sim.Record) RunMetadata {
	meta := RunMetadata{
		Controller: controller,
		Seed:       rec.Seed,
		Horizon:    horizon,
		Adaptive:   adaptive,
		Status:     rec.Status.String(),
		Samples:    rec.Len(),
		Metrics:    rec.Metrics,
	}
	if rec.Fault != nil {
		meta.Fault = rec.Fault.Error()
	}
	if sc != nil {
		meta.SemiAxis = sc.Asteroid.SemiAxis()
		meta.Density = sc.Asteroid.Density()
		meta.AngularVelocity = sc.Asteroid.AngularVelocityXZ()
		meta.TimeBias = sc.Asteroid.TimeBias()
		meta.Target = sc.Target
		meta.MinimumMass = sc.MinimumMass
	}
	return meta
}

// Save writes meta and rec under a fresh run id and returns the id.
func (s *Store) Save(meta RunMetadata, rec *sim.Record) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d_%d", meta.Controller, meta.Seed, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := writeCSV(filepath.Join(runDir, samplesFile), samplesHeader, rec.Len(), func(i int) []float64 {
		row := []float64{rec.Times[i], rec.Masses[i]}
		row = append(row, rec.Positions[i].Slice()...)
		row = append(row, rec.Heights[i].Slice()...)
		return append(row, rec.Velocities[i].Slice()...)
	}); err != nil {
		return "", err
	}

	if err := writeCSV(filepath.Join(runDir, controlsFile), controlsHeader, len(rec.ControlTimes), func(i int) []float64 {
		return append([]float64{rec.ControlTimes[i]}, rec.Thrusts[i].Slice()...)
	}); err != nil {
		return "", err
	}

	return runID, nil
}

func writeCSV(path string, header []string, n int, row func(int) []float64) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		values := row(i)
		record := make([]string, len(values))
		for j, v := range values {
			record[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the metadata of every stored run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadRecord reads the sample and control tables of a run back into a
// record. Observations are not stored.
func (s *Store) LoadRecord(runID string) (*sim.Record, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	rec := &sim.Record{Seed: meta.Seed, Metrics: meta.Metrics}
	switch meta.Status {
	case sim.Completed.String():
		rec.Status = sim.Completed
	case sim.Faulted.String():
		rec.Status = sim.Faulted
	}

	err = readCSV(filepath.Join(s.baseDir, runID, samplesFile), len(samplesHeader), func(v []float64) {
		rec.Times = append(rec.Times, v[0])
		rec.Masses = append(rec.Masses, v[1])
		rec.Positions = append(rec.Positions, vector.Vector3D{v[2], v[3], v[4]})
		rec.Heights = append(rec.Heights, vector.Vector3D{v[5], v[6], v[7]})
		rec.Velocities = append(rec.Velocities, vector.Vector3D{v[8], v[9], v[10]})
	})
	if err != nil {
		return nil, err
	}

	err = readCSV(filepath.Join(s.baseDir, runID, controlsFile), len(controlsHeader), func(v []float64) {
		rec.ControlTimes = append(rec.ControlTimes, v[0])
		rec.Thrusts = append(rec.Thrusts, vector.Vector3D{v[1], v[2], v[3]})
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func readCSV(path string, columns int, row func([]float64)) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = columns

	records, err := r.ReadAll()
	if err != nil {
		return err
	}

	values := make([]float64, columns)
	for i, record := range records {
		if i == 0 {
			continue
		}
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return fmt.Errorf("%s line %d: %w", filepath.Base(path), i+1, err)
			}
			values[j] = v
		}
		row(values)
	}
	return nil
}
