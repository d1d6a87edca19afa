package control

import (
	"fmt"

	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/vector"
)

// PD computes thrust_i = sum_j K[i][j] * data[j] and clamps every axis to
// [-MaxThrust, MaxThrust]. With relative position and velocity as inputs
// the gains form a proportional-derivative law.
type PD struct {
	K         [3][]float64
	MaxThrust float64
	dim       int
}

// NewPD builds a PD controller over dim sensor values. coefficients holds
// the three gain rows back to back and must have 3*dim entries.
func NewPD(dim int, maxThrust float64, coefficients []float64) (*PD, error) {
	p := &PD{MaxThrust: maxThrust, dim: dim}
	for i := range p.K {
		p.K[i] = make([]float64, dim)
	}
	if err := p.SetCoefficients(coefficients); err != nil {
		return nil, err
	}
	return p, nil
}

// NewHoverPD expects relative position followed by velocity and applies the
// same kp and kd on every axis.
func NewHoverPD(kp, kd, maxThrust float64) *PD {
	coefficients := make([]float64, 3*6)
	for i := 0; i < 3; i++ {
		coefficients[i*6+i] = kp
		coefficients[i*6+3+i] = -kd
	}
	p, _ := NewPD(6, maxThrust, coefficients)
	return p
}

// NumCoefficients is the length SetCoefficients expects.
func (p *PD) NumCoefficients() int { return 3 * p.dim }

func (p *PD) SetCoefficients(coefficients []float64) error {
	if len(coefficients) != p.NumCoefficients() {
		return fmt.Errorf("%w: pd controller needs %d coefficients, got %d",
			dynamo.ErrDimensionMismatch, p.NumCoefficients(), len(coefficients))
	}
	for i := range p.K {
		copy(p.K[i], coefficients[i*p.dim:(i+1)*p.dim])
	}
	return nil
}

func (p *PD) Act(data dynamo.SensorData) vector.Vector3D {
	var thrust vector.Vector3D
	for i := range thrust {
		for j, v := range data {
			if j < p.dim {
				thrust[i] += p.K[i][j] * v
			}
		}
		thrust[i] = clamp(thrust[i], p.MaxThrust)
	}
	return thrust
}

func (p *PD) Dimensions() int { return p.dim }
