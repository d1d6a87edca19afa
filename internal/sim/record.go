package sim

import (
	"github.com/san-kum/hoversim/internal/asteroid"
	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/vector"
)

type Status int

const (
	Idle Status = iota
	Running
	Completed
	Faulted
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Faulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Record is the trajectory of one run. The sample slices always have equal
// length; the control slices have one entry per control interval.
type Record struct {
	Seed int64

	Times      []float64
	Masses     []float64
	Positions  []vector.Vector3D
	Heights    []vector.Vector3D
	Velocities []vector.Vector3D

	ControlTimes []float64
	Thrusts      []vector.Vector3D
	Observations []dynamo.SensorData

	Status  Status
	Fault   error
	Metrics map[string]float64
}

func (r *Record) Len() int { return len(r.Times) }

// LastTime is the time of the last sample, or 0 for an empty record.
func (r *Record) LastTime() float64 {
	if len(r.Times) == 0 {
		return 0
	}
	return r.Times[len(r.Times)-1]
}

// StateAt rebuilds the system state of sample i.
func (r *Record) StateAt(i int) dynamo.SystemState {
	return dynamo.NewSystemState(r.Positions[i], r.Velocities[i], r.Masses[i])
}

// Collector appends accepted states to a Record together with the height
// above the surface.
type Collector struct {
	ast *asteroid.Asteroid
	rec *Record
}

func NewCollector(ast *asteroid.Asteroid, rec *Record) *Collector {
	return &Collector{ast: ast, rec: rec}
}

func (c *Collector) Collect(x dynamo.SystemState, t float64) {
	pos := x.Position()
	c.rec.Times = append(c.rec.Times, t)
	c.rec.Masses = append(c.rec.Masses, x.Mass())
	c.rec.Positions = append(c.rec.Positions, pos)
	c.rec.Heights = append(c.rec.Heights, c.ast.HeightAtPosition(pos))
	c.rec.Velocities = append(c.rec.Velocities, x.Velocity())
}
