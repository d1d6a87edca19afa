// Package vector holds the small fixed-size vector types shared by the
// asteroid model, the equations of motion and the sensors.
package vector

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Vector3D is a value-type 3-vector.
type Vector3D [3]float64

// Vector2D is a value-type 2-vector.
type Vector2D [2]float64

func (v Vector3D) Add(o Vector3D) Vector3D      { return Vector3D{v[0] + o[0], v[1] + o[1], v[2] + o[2]} }
func (v Vector3D) Sub(o Vector3D) Vector3D      { return Vector3D{v[0] - o[0], v[1] - o[1], v[2] - o[2]} }
func (v Vector3D) Scale(s float64) Vector3D     { return Vector3D{v[0] * s, v[1] * s, v[2] * s} }
func (v Vector3D) Neg() Vector3D                { return Vector3D{-v[0], -v[1], -v[2]} }
func (v Vector3D) Dot(o Vector3D) float64       { return floats.Dot(v[:], o[:]) }
func (v Vector3D) Norm() float64                { return floats.Norm(v[:], 2) }
func (v Vector3D) Mul(o Vector3D) Vector3D      { return Vector3D{v[0] * o[0], v[1] * o[1], v[2] * o[2]} }
func (v Vector3D) Slice() []float64             { return []float64{v[0], v[1], v[2]} }
func (v Vector3D) IsZero() bool                 { return v[0] == 0 && v[1] == 0 && v[2] == 0 }
func (v Vector2D) Add(o Vector2D) Vector2D      { return Vector2D{v[0] + o[0], v[1] + o[1]} }
func (v Vector2D) Scale(s float64) Vector2D     { return Vector2D{v[0] * s, v[1] * s} }
func (v Vector2D) Norm() float64                { return math.Hypot(v[0], v[1]) }
func (v Vector3D) Cross(o Vector3D) Vector3D {
	return Vector3D{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

// Unit returns v scaled to length one, or the zero vector for a zero input.
func (v Vector3D) Unit() Vector3D {
	n := v.Norm()
	if n == 0 {
		return Vector3D{}
	}
	return v.Scale(1 / n)
}

// IsFinite reports whether no component is NaN or Inf.
func (v Vector3D) IsFinite() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// FromSlice copies the first three entries of s.
func FromSlice(s []float64) Vector3D {
	var v Vector3D
	copy(v[:], s)
	return v
}

// Sign returns -1 for negative x and 1 otherwise.
func Sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}
