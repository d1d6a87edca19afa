package asteroid

import (
	"math"

	"github.com/san-kum/hoversim/internal/vector"
)

// bisection can never need more halvings than there are doubles between
// the bracket ends.
const maxBisections = 1074 + 53

// NearestPointOnSurfaceToPosition returns the closest surface point to pos
// and the distance to it. The distance is negative when pos is inside.
//
// The query is solved in the first octant by bisection on the Lagrange
// multiplier of the constrained problem, with explicit branches for points
// on the coordinate planes, and reflected back afterwards.
func (ast *Asteroid) NearestPointOnSurfaceToPosition(pos vector.Vector3D) (vector.Vector3D, float64) {
	e := ast.semiAxis
	y := vector.Vector3D{math.Abs(pos[0]), math.Abs(pos[1]), math.Abs(pos[2])}

	x, dist := nearestOnEllipsoid(e, y)
	for i := range x {
		x[i] = math.Copysign(x[i], pos[i])
	}
	if ast.surfaceLevel(pos) < 0 {
		dist = -dist
	}
	return x, dist
}

// HeightAtPosition is the vector from the nearest surface point to pos.
func (ast *Asteroid) HeightAtPosition(pos vector.Vector3D) vector.Vector3D {
	surface, _ := ast.NearestPointOnSurfaceToPosition(pos)
	return pos.Sub(surface)
}

func nearestOnEllipsoid(e, y vector.Vector3D) (vector.Vector3D, float64) {
	var x vector.Vector3D

	if y[2] > 0 {
		if y[1] > 0 {
			if y[0] > 0 {
				z := vector.Vector3D{y[0] / e[0], y[1] / e[1], y[2] / e[2]}
				g := z.Dot(z) - 1
				if g == 0 {
					return y, 0
				}
				r0 := (e[0] / e[2]) * (e[0] / e[2])
				r1 := (e[1] / e[2]) * (e[1] / e[2])
				s := ellipsoidRoot(r0, r1, z, g)
				x = vector.Vector3D{r0 * y[0] / (s + r0), r1 * y[1] / (s + r1), y[2] / (s + 1)}
				return x, x.Sub(y).Norm()
			}
			x1, x2, d := nearestOnEllipse(e[1], e[2], y[1], y[2])
			return vector.Vector3D{0, x1, x2}, d
		}
		if y[0] > 0 {
			x0, x2, d := nearestOnEllipse(e[0], e[2], y[0], y[2])
			return vector.Vector3D{x0, 0, x2}, d
		}
		return vector.Vector3D{0, 0, e[2]}, math.Abs(y[2] - e[2])
	}

	// y[2] == 0: an interior point near the plane may still be closest to a
	// point off the plane.
	denom0 := e[0]*e[0] - e[2]*e[2]
	denom1 := e[1]*e[1] - e[2]*e[2]
	numer0 := e[0] * y[0]
	numer1 := e[1] * y[1]
	if numer0 < denom0 && numer1 < denom1 {
		xde0 := numer0 / denom0
		xde1 := numer1 / denom1
		discr := 1 - xde0*xde0 - xde1*xde1
		if discr > 0 {
			x = vector.Vector3D{e[0] * xde0, e[1] * xde1, e[2] * math.Sqrt(discr)}
			return x, x.Sub(y).Norm()
		}
	}
	x0, x1, d := nearestOnEllipse(e[0], e[1], y[0], y[1])
	return vector.Vector3D{x0, x1, 0}, d
}

// nearestOnEllipse is the planar version for e0 >= e1 > 0, y0, y1 >= 0.
func nearestOnEllipse(e0, e1, y0, y1 float64) (float64, float64, float64) {
	if y1 > 0 {
		if y0 > 0 {
			z0, z1 := y0/e0, y1/e1
			g := z0*z0 + z1*z1 - 1
			if g == 0 {
				return y0, y1, 0
			}
			r0 := (e0 / e1) * (e0 / e1)
			s := ellipseRoot(r0, z0, z1, g)
			x0 := r0 * y0 / (s + r0)
			x1 := y1 / (s + 1)
			return x0, x1, math.Hypot(x0-y0, x1-y1)
		}
		return 0, e1, math.Abs(y1 - e1)
	}

	numer0 := e0 * y0
	denom0 := e0*e0 - e1*e1
	if numer0 < denom0 {
		xde0 := numer0 / denom0
		x0 := e0 * xde0
		x1 := e1 * math.Sqrt(1-xde0*xde0)
		return x0, x1, math.Hypot(x0-y0, x1)
	}
	return e0, 0, math.Abs(y0 - e0)
}

func ellipseRoot(r0, z0, z1, g float64) float64 {
	n0 := r0 * z0
	s0 := z1 - 1
	s1 := 0.0
	if g >= 0 {
		s1 = math.Hypot(n0, z1) - 1
	}
	s := 0.0
	for i := 0; i < maxBisections; i++ {
		s = 0.5 * (s0 + s1)
		if s == s0 || s == s1 {
			break
		}
		ratio0 := n0 / (s + r0)
		ratio1 := z1 / (s + 1)
		g = ratio0*ratio0 + ratio1*ratio1 - 1
		switch {
		case g > 0:
			s0 = s
		case g < 0:
			s1 = s
		default:
			return s
		}
	}
	return s
}

func ellipsoidRoot(r0, r1 float64, z vector.Vector3D, g float64) float64 {
	n0 := r0 * z[0]
	n1 := r1 * z[1]
	s0 := z[2] - 1
	s1 := 0.0
	if g >= 0 {
		s1 = vector.Vector3D{n0, n1, z[2]}.Norm() - 1
	}
	s := 0.0
	for i := 0; i < maxBisections; i++ {
		s = 0.5 * (s0 + s1)
		if s == s0 || s == s1 {
			break
		}
		ratio0 := n0 / (s + r0)
		ratio1 := n1 / (s + r1)
		ratio2 := z[2] / (s + 1)
		g = ratio0*ratio0 + ratio1*ratio1 + ratio2*ratio2 - 1
		switch {
		case g > 0:
			s0 = s
		case g < 0:
			s1 = s
		default:
			return s
		}
	}
	return s
}
