package asteroid

import (
	"math"

	"gonum.org/v1/gonum/mathext"

	"github.com/san-kum/hoversim/internal/vector"
)

const (
	confocalMaxIter = 100
	confocalTol     = 1e-14
)

// GravityAccelerationAtPosition returns the acceleration due to a
// homogeneous ellipsoid at pos in the body frame. Inside the body the
// interior field is returned, so the result is continuous across the surface.
//
// Component i is -(4/3) pi G rho abc x_i R_D(A_j, A_k, A_i) with
// A_i = a_i^2 + kappa and kappa the confocal parameter of pos.
func (ast *Asteroid) GravityAccelerationAtPosition(pos vector.Vector3D) vector.Vector3D {
	kappa := ast.confocalParameter(pos)

	var sq vector.Vector3D
	for i := range sq {
		sq[i] = ast.semiAxis[i]*ast.semiAxis[i] + kappa
	}

	// (4/3) pi G rho abc is the gravitational parameter.
	coef := -ast.mu
	return vector.Vector3D{
		coef * pos[0] * mathext.EllipticRD(sq[1], sq[2], sq[0]),
		coef * pos[1] * mathext.EllipticRD(sq[0], sq[2], sq[1]),
		coef * pos[2] * mathext.EllipticRD(sq[0], sq[1], sq[2]),
	}
}

// confocalParameter solves sum(x_i^2 / (a_i^2 + k)) = 1 for its largest root
// k, or returns 0 when pos is inside or on the body. The left side is convex
// and decreasing in k, so Newton from the lower bracket climbs monotonically.
func (ast *Asteroid) confocalParameter(pos vector.Vector3D) float64 {
	if ast.surfaceLevel(pos) <= 0 {
		return 0
	}

	r2 := pos.Dot(pos)
	a2 := ast.semiAxis[0] * ast.semiAxis[0]
	c2 := ast.semiAxis[2] * ast.semiAxis[2]
	lo := math.Max(0, r2-a2)
	hi := r2 - c2

	k := lo
	for iter := 0; iter < confocalMaxIter; iter++ {
		f, df := -1.0, 0.0
		for i := range pos {
			d := ast.semiAxis[i]*ast.semiAxis[i] + k
			q := pos[i] * pos[i] / d
			f += q
			df -= q / d
		}
		if f == 0 || df == 0 {
			break
		}
		if f > 0 {
			lo = k
		} else {
			hi = k
		}

		next := k - f/df
		if next <= lo || next >= hi {
			next = 0.5 * (lo + hi)
		}
		if math.Abs(next-k) <= confocalTol*(1+k) {
			k = next
			break
		}
		k = next
	}
	return k
}
