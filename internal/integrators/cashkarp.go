package integrators

import (
	"math"

	"github.com/san-kum/hoversim/internal/dynamo"
)

// Cash-Karp 5(4) tableau.
var (
	ckC = [6]float64{0, 1.0 / 5.0, 3.0 / 10.0, 3.0 / 5.0, 1, 7.0 / 8.0}

	ckA = [6][5]float64{
		{},
		{1.0 / 5.0},
		{3.0 / 40.0, 9.0 / 40.0},
		{3.0 / 10.0, -9.0 / 10.0, 6.0 / 5.0},
		{-11.0 / 54.0, 5.0 / 2.0, -70.0 / 27.0, 35.0 / 27.0},
		{1631.0 / 55296.0, 175.0 / 512.0, 575.0 / 13824.0, 44275.0 / 110592.0, 253.0 / 4096.0},
	}

	ckB5 = [6]float64{37.0 / 378.0, 0, 250.0 / 621.0, 125.0 / 594.0, 0, 512.0 / 1771.0}
	ckB4 = [6]float64{2825.0 / 27648.0, 0, 18575.0 / 48384.0, 13525.0 / 55296.0, 277.0 / 14336.0, 1.0 / 4.0}
)

const (
	stepperOrder = 5
	errorOrder   = 4
)

// CashKarp is an embedded Runge-Kutta 5(4) stepper with step size control.
// MinDt is a floor: the error control never asks for a smaller step, and a
// step rejected at the floor fails with dynamo.ErrStepTooSmall.
type CashKarp struct {
	AbsTol    float64
	RelTol    float64
	MinDt     float64
	InitialDt float64

	safety   float64
	minScale float64
	maxScale float64

	k       [6]dynamo.State
	scratch dynamo.State
}

func NewCashKarp(absTol, relTol, minDt float64) *CashKarp {
	return &CashKarp{
		AbsTol:   absTol,
		RelTol:   relTol,
		MinDt:    minDt,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 5.0,
	}
}

func (c *CashKarp) ensureScratch(n int) {
	if len(c.scratch) != n {
		for i := range c.k {
			c.k[i] = make(dynamo.State, n)
		}
		c.scratch = make(dynamo.State, n)
	}
}

// trial computes the fifth-order solution and the embedded error estimate.
func (c *CashKarp) trial(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) (dynamo.State, dynamo.State, error) {
	n := len(x)
	c.ensureScratch(n)

	for stage := 0; stage < 6; stage++ {
		for i := 0; i < n; i++ {
			sum := 0.0
			for j := 0; j < stage; j++ {
				sum += ckA[stage][j] * c.k[j][i]
			}
			c.scratch[i] = x[i] + dt*sum
		}
		k, err := sys.Derive(c.scratch, u, t+ckC[stage]*dt)
		if err != nil {
			return nil, nil, err
		}
		copy(c.k[stage], k)
	}

	xNew := make(dynamo.State, n)
	errEst := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		hi, lo := 0.0, 0.0
		for j := 0; j < 6; j++ {
			hi += ckB5[j] * c.k[j][i]
			lo += ckB4[j] * c.k[j][i]
		}
		xNew[i] = x[i] + dt*hi
		errEst[i] = dt * (hi - lo)
	}

	if !xNew.IsValid() {
		return nil, nil, dynamo.ErrInvalidState
	}
	return xNew, errEst, nil
}

// Step takes one uncontrolled fifth-order step.
func (c *CashKarp) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) (dynamo.State, error) {
	xNew, _, err := c.trial(sys, x, u, t, dt)
	return xNew, err
}

// StepAdaptive attempts one step of size dt. It reports whether the step was
// accepted and the step size to try next.
func (c *CashKarp) StepAdaptive(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) (dynamo.State, float64, bool, error) {
	xNew, errEst, err := c.trial(sys, x, u, t, dt)
	if err != nil {
		return nil, dt, false, err
	}

	// k[0] still holds dx/dt at (x, t).
	errMax := 0.0
	for i := range x {
		scale := c.AbsTol + c.RelTol*(math.Abs(x[i])+math.Abs(dt*c.k[0][i]))
		errMax = math.Max(errMax, math.Abs(errEst[i])/scale)
	}

	if errMax > 1 {
		factor := math.Max(c.safety*math.Pow(errMax, -1.0/(errorOrder-1)), c.minScale)
		return nil, dt * factor, false, nil
	}

	dtNew := dt
	if errMax < 0.5 {
		errMax = math.Max(math.Pow(c.maxScale, -stepperOrder), errMax)
		dtNew = dt * c.safety * math.Pow(errMax, -1.0/stepperOrder)
	}
	return xNew, dtNew, true, nil
}

// Integrate advances x from t0 to t1, calling obs after each accepted step.
// A fault raised inside a trial step larger than MinDt halves the step and
// retries, so the returned state is within one floor step of the crossing.
// On failure the last accepted state is returned with the error.
func (c *CashKarp) Integrate(sys dynamo.System, x dynamo.State, u dynamo.Control, t0, t1 float64, obs func(dynamo.State, float64)) (dynamo.State, error) {
	dt := c.InitialDt
	if dt <= 0 {
		dt = c.MinDt
	}
	if dt <= 0 {
		dt = t1 - t0
	}

	t := t0
	eps := 1e-12 * math.Max(1, math.Abs(t1))
	for t1-t > eps {
		last := false
		if t+dt >= t1 {
			dt = t1 - t
			last = true
		}

		xNew, dtNext, ok, err := c.StepAdaptive(sys, x, u, t, dt)
		if err != nil {
			if dt > c.MinDt {
				dt = math.Max(dt/2, c.MinDt)
				continue
			}
			return x, err
		}
		if !ok {
			if dt <= c.MinDt {
				return x, dynamo.ErrStepTooSmall
			}
			dt = math.Max(dtNext, c.MinDt)
			continue
		}

		x = xNew
		if last {
			t = t1
		} else {
			t += dt
		}
		if obs != nil {
			obs(x, t)
		}
		dt = math.Max(dtNext, c.MinDt)
	}
	return x, nil
}
