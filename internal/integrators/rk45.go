package integrators

import (
	"math"

	"github.com/san-kum/sensim/internal/dynamo"
)

// Dormand-Prince 5(4) tableau.
var (
	dpC = [7]float64{0, 1.0 / 5.0, 3.0 / 10.0, 4.0 / 5.0, 8.0 / 9.0, 1, 1}
	dpA = [7][6]float64{
		{},
		{1.0 / 5.0},
		{3.0 / 40.0, 9.0 / 40.0},
		{44.0 / 45.0, -56.0 / 15.0, 32.0 / 9.0},
		{19372.0 / 6561.0, -25360.0 / 2187.0, 64448.0 / 6561.0, -212.0 / 729.0},
		{9017.0 / 3168.0, -355.0 / 33.0, 46732.0 / 5247.0, 49.0 / 176.0, -5103.0 / 18656.0},
		{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0},
	}
	// Fifth-order weights; the last stage is evaluated at the solution.
	dpB = [7]float64{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0, 0}
	// Difference between the fifth- and fourth-order weights.
	dpE = [7]float64{
		35.0/384.0 - 5179.0/57600.0,
		0,
		500.0/1113.0 - 7571.0/16695.0,
		125.0/192.0 - 393.0/640.0,
		-2187.0/6784.0 + 92097.0/339200.0,
		11.0/84.0 - 187.0/2100.0,
		-1.0 / 40.0,
	}
)

// RK45 is the Dormand-Prince embedded pair. StepAdaptive always accepts
// the step it was given and suggests the next step size from the error
// estimate.
type RK45 struct {
	Safety   float64
	MinScale float64
	MaxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		Safety:   0.9,
		MinScale: 0.2,
		MaxScale: 10.0,
	}
}

func (r *RK45) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	next, _, _ := r.StepAdaptive(dyn, x, u, t, dt, 1e-6)
	return next
}

func (r *RK45) StepAdaptive(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt, tol float64) (dynamo.State, float64, error) {
	n := len(x)
	var k [7]dynamo.State
	k[0] = dyn.Derive(x, u, t)

	stage := make(dynamo.State, n)
	for s := 1; s < 7; s++ {
		for i := 0; i < n; i++ {
			sum := 0.0
			for j := 0; j < s; j++ {
				sum += dpA[s][j] * k[j][i]
			}
			stage[i] = x[i] + dt*sum
		}
		k[s] = dyn.Derive(stage, u, t+dpC[s]*dt)
	}

	next := make(dynamo.State, n)
	errMax := 0.0
	for i := 0; i < n; i++ {
		sum, errSum := 0.0, 0.0
		for s := 0; s < 7; s++ {
			sum += dpB[s] * k[s][i]
			errSum += dpE[s] * k[s][i]
		}
		next[i] = x[i] + dt*sum
		scale := math.Abs(x[i]) + math.Abs(dt*k[0][i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(dt*errSum)/scale)
	}

	ratio := errMax / tol
	switch {
	case ratio > 1:
		return next, dt * math.Max(r.MinScale, r.Safety*math.Pow(ratio, -0.25)), nil
	case ratio > 0:
		return next, dt * math.Min(r.MaxScale, r.Safety*math.Pow(ratio, -0.2)), nil
	}
	return next, dt * r.MaxScale, nil
}
