package control

import (
	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/vector"
)

// None never fires the engine.
type None struct {
	dim int
}

func NewNone(dim int) *None {
	return &None{
		dim: dim,
	}
}

func (n *None) Act(_ dynamo.SensorData) vector.Vector3D { return vector.Vector3D{} }
func (n *None) Dimensions() int                        { return n.dim }

// Constant holds the same thrust whatever the sensors say.
type Constant struct {
	Thrust vector.Vector3D
	dim    int
}

func NewConstant(thrust vector.Vector3D, dim int) *Constant {
	return &Constant{Thrust: thrust, dim: dim}
}

func (c *Constant) Act(_ dynamo.SensorData) vector.Vector3D { return c.Thrust }
func (c *Constant) Dimensions() int                        { return c.dim }

func clamp(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
