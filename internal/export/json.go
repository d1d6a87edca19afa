package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/hoversim/internal/sim"
	"github.com/san-kum/hoversim/internal/vector"
)

type ExportData struct {
	Seed         int64              `json:"seed"`
	Controller   string             `json:"controller"`
	Horizon      float64            `json:"horizon"`
	Status       string             `json:"status"`
	Fault        string             `json:"fault,omitempty"`
	Samples      int                `json:"samples"`
	Times        []float64          `json:"times"`
	Masses       []float64          `json:"masses"`
	Positions    []vector.Vector3D  `json:"positions"`
	Heights      []vector.Vector3D  `json:"heights"`
	Velocities   []vector.Vector3D  `json:"velocities"`
	ControlTimes []float64          `json:"control_times"`
	Thrusts      []vector.Vector3D  `json:"thrusts"`
	Observations [][]float64        `json:"observations,omitempty"`
	Metrics      map[string]float64 `json:"metrics"`
}

func NewExportData(controller string, horizon float64, rec *sim.Record) ExportData {
	data := ExportData{
		Seed:         rec.Seed,
		Controller:   controller,
		Horizon:      horizon,
		Status:       rec.Status.String(),
		Samples:      rec.Len(),
		Times:        rec.Times,
		Masses:       rec.Masses,
		Positions:    rec.Positions,
		Heights:      rec.Heights,
		Velocities:   rec.Velocities,
		ControlTimes: rec.ControlTimes,
		Thrusts:      rec.Thrusts,
		Metrics:      rec.Metrics,
	}
	if rec.Fault != nil {
		data.Fault = rec.Fault.Error()
	}
	for _, o := range rec.Observations {
		data.Observations = append(data.Observations, o)
	}
	return data
}

// WriteJSON encodes data as indented JSON.
func WriteJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, data)
}
