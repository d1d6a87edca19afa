// Package asteroid models a homogeneous triaxial ellipsoid in torque-free
// rotation: its gravity field, its analytic angular velocity and the
// nearest surface point to a given position.
//
// An Asteroid is immutable after New and safe to share between goroutines.
package asteroid

import (
	"math"

	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/vector"
)

// GravitationalConstant in m^3 kg^-1 s^-2.
const GravitationalConstant = 6.67384e-11

type rotationKind int

const (
	rotationNone rotationKind = iota
	rotationAsymmetric
	rotationSymmetricZ // a == b
	rotationSymmetricX // b == c
)

type Asteroid struct {
	semiAxis vector.Vector3D
	density  float64
	omegaXZ  vector.Vector2D
	timeBias float64

	mass         float64
	inertia      vector.Vector3D
	mu           float64
	energyMul2   float64
	momentumPow2 float64

	kind     rotationKind
	inverted bool
	coef     vector.Vector3D
	lambda   float64
	param    float64
}

// New builds an asteroid with semi-axes a >= b >= c > 0. omegaXZ holds the
// angular velocity about the x and z principal axes at t = -timeBias, when
// the y component is zero.
func New(semiAxis vector.Vector3D, density float64, omegaXZ vector.Vector2D, timeBias float64) (*Asteroid, error) {
	for i, v := range semiAxis {
		if !(v > 0) || math.IsInf(v, 0) {
			return nil, dynamo.Configf("semi axis %d must be positive and finite, got %g", i, v)
		}
	}
	if semiAxis[0] < semiAxis[1] || semiAxis[1] < semiAxis[2] {
		return nil, dynamo.Configf("semi axes must satisfy a >= b >= c, got %v", semiAxis)
	}
	if !(density > 0) || math.IsInf(density, 0) {
		return nil, dynamo.Configf("density must be positive and finite, got %g", density)
	}
	for _, v := range []float64{omegaXZ[0], omegaXZ[1], timeBias} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, dynamo.Configf("rotation parameters must be finite, got %v bias %g", omegaXZ, timeBias)
		}
	}

	a, b, c := semiAxis[0], semiAxis[1], semiAxis[2]
	ast := &Asteroid{
		semiAxis: semiAxis,
		density:  density,
		omegaXZ:  omegaXZ,
		timeBias: timeBias,
	}
	ast.mass = density * 4.0 / 3.0 * math.Pi * a * b * c
	ast.mu = GravitationalConstant * ast.mass
	ast.inertia = vector.Vector3D{
		0.2 * ast.mass * (b*b + c*c),
		0.2 * ast.mass * (a*a + c*c),
		0.2 * ast.mass * (a*a + b*b),
	}

	wx, wz := omegaXZ[0], omegaXZ[1]
	ix, iy, iz := ast.inertia[0], ast.inertia[1], ast.inertia[2]
	ast.energyMul2 = ix*wx*wx + iz*wz*wz
	ast.momentumPow2 = ix*ix*wx*wx + iz*iz*wz*wz

	switch {
	case ast.momentumPow2 == 0:
		ast.kind = rotationNone
	case a == b:
		ast.kind = rotationSymmetricZ
		ast.lambda = (iz - ix) / ix * wz
	case b == c:
		ast.kind = rotationSymmetricX
		ast.lambda = (iz - ix) / iy * wx
	default:
		ast.kind = rotationAsymmetric
		ast.initAsymmetric()
	}

	return ast, nil
}

// initAsymmetric precomputes the Jacobi elliptic solution of Euler's
// equations. When M^2 < 2E*Iy the roles of the x and z axes swap, so cn and
// dn trade places and the parameter is inverted.
func (ast *Asteroid) initAsymmetric() {
	ix, iy, iz := ast.inertia[0], ast.inertia[1], ast.inertia[2]
	e2, m2 := ast.energyMul2, ast.momentumPow2
	wx, wz := ast.omegaXZ[0], ast.omegaXZ[1]

	// Both are non-negative in exact arithmetic; clamp rounding noise.
	dz := math.Max(e2*iz-m2, 0)
	dx := math.Max(m2-e2*ix, 0)

	ast.coef[0] = vector.Sign(wx) * math.Sqrt(dz/(ix*(iz-ix)))
	ast.coef[2] = vector.Sign(wz) * math.Sqrt(dx/(iz*(iz-ix)))
	signY := vector.Sign(wx * wz)

	if m2 < e2*iy {
		ast.inverted = true
		ast.coef[1] = signY * math.Sqrt(dx/(iy*(iy-ix)))
		ast.lambda = math.Sqrt((iy - ix) * dz / (ix * iy * iz))
		if dz > 0 {
			ast.param = (iz - iy) * dx / ((iy - ix) * dz)
		}
	} else {
		ast.coef[1] = signY * math.Sqrt(dz/(iy*(iz-iy)))
		ast.lambda = math.Sqrt((iz - iy) * dx / (ix * iy * iz))
		if dx > 0 {
			ast.param = (iy - ix) * dz / ((iz - iy) * dx)
		}
	}
	ast.param = math.Min(math.Max(ast.param, 0), 1)
}

// AngularVelocityAndAccelerationAtTime returns the body-frame angular
// velocity and its time derivative.
func (ast *Asteroid) AngularVelocityAndAccelerationAtTime(t float64) (vector.Vector3D, vector.Vector3D) {
	w := ast.angularVelocity(t)
	ix, iy, iz := ast.inertia[0], ast.inertia[1], ast.inertia[2]
	dw := vector.Vector3D{
		(iy - iz) * w[1] * w[2] / ix,
		(iz - ix) * w[2] * w[0] / iy,
		(ix - iy) * w[0] * w[1] / iz,
	}
	return w, dw
}

func (ast *Asteroid) angularVelocity(t float64) vector.Vector3D {
	u := t + ast.timeBias
	wx, wz := ast.omegaXZ[0], ast.omegaXZ[1]

	switch ast.kind {
	case rotationSymmetricZ:
		s, c := math.Sincos(ast.lambda * u)
		return vector.Vector3D{wx * c, wx * s, wz}
	case rotationSymmetricX:
		s, c := math.Sincos(ast.lambda * u)
		return vector.Vector3D{wx, wz * s, wz * c}
	case rotationAsymmetric:
		sn, cn, dn := jacobi(u*ast.lambda, ast.param)
		if ast.inverted {
			return vector.Vector3D{ast.coef[0] * dn, ast.coef[1] * sn, ast.coef[2] * cn}
		}
		return vector.Vector3D{ast.coef[0] * cn, ast.coef[1] * sn, ast.coef[2] * dn}
	default:
		return vector.Vector3D{}
	}
}

// Contains reports whether pos lies inside or on the surface.
func (ast *Asteroid) Contains(pos vector.Vector3D) bool {
	return ast.surfaceLevel(pos) <= 0
}

// surfaceLevel is sum((x_i/a_i)^2) - 1: negative inside, zero on the surface.
func (ast *Asteroid) surfaceLevel(pos vector.Vector3D) float64 {
	s := 0.0
	for i := range pos {
		q := pos[i] / ast.semiAxis[i]
		s += q * q
	}
	return s - 1
}

func (ast *Asteroid) SemiAxis() vector.Vector3D          { return ast.semiAxis }
func (ast *Asteroid) Density() float64                   { return ast.density }
func (ast *Asteroid) TimeBias() float64                  { return ast.timeBias }
func (ast *Asteroid) AngularVelocityXZ() vector.Vector2D { return ast.omegaXZ }
func (ast *Asteroid) Inertia() vector.Vector3D           { return ast.inertia }
func (ast *Asteroid) Mass() float64                      { return ast.mass }
func (ast *Asteroid) GravitationalParameter() float64    { return ast.mu }

// EnergyMul2 is twice the rotational kinetic energy.
func (ast *Asteroid) EnergyMul2() float64 { return ast.energyMul2 }

// MomentumPow2 is the squared angular momentum magnitude.
func (ast *Asteroid) MomentumPow2() float64 { return ast.momentumPow2 }
