package asteroid

import "math"

const machEp = 1.11022302462515654042e-16

// jacobi returns the Jacobi elliptic functions sn, cn and dn of u for
// parameter m = k^2 in [0, 1], using the descending Landen (AGM) sequence.
func jacobi(u, m float64) (sn, cn, dn float64) {
	if m < 0 || m > 1 || math.IsNaN(m) {
		return math.NaN(), math.NaN(), math.NaN()
	}

	if m < 1e-9 {
		t, b := math.Sincos(u)
		ai := 0.25 * m * (u - t*b)
		return t - ai*b, b + ai*t, 1 - 0.5*m*t*t
	}

	if m >= 0.9999999999 {
		ai := 0.25 * (1 - m)
		b := math.Cosh(u)
		t := math.Tanh(u)
		phi := 1 / b
		twon := b * math.Sinh(u)
		sn = t + ai*(twon-u)/(b*b)
		ai *= t * phi
		cn = phi - ai*(twon-u)
		dn = phi + ai*(twon+u)
		return sn, cn, dn
	}

	var a, c [9]float64
	a[0] = 1
	b := math.Sqrt(1 - m)
	c[0] = math.Sqrt(m)
	twon := 1.0
	i := 0

	for math.Abs(c[i]/a[i]) > machEp {
		if i > 7 {
			break
		}
		ai := a[i]
		i++
		c[i] = (ai - b) / 2
		t := math.Sqrt(ai * b)
		a[i] = (ai + b) / 2
		b = t
		twon *= 2
	}

	phi := twon * a[i] * u
	var prev float64
	for ; i > 0; i-- {
		t := c[i] * math.Sin(phi) / a[i]
		prev = phi
		phi = (math.Asin(t) + phi) / 2
	}

	sn, cn = math.Sincos(phi)
	dn = cn / math.Cos(phi-prev)
	return sn, cn, dn
}
