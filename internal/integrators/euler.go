package integrators

import "github.com/san-kum/sensim/internal/dynamo"

// Euler is the explicit first-order method. Cheap, and only accurate for
// small steps.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t float64, dt float64) dynamo.State {
	return axpy(x, dt, dyn.Derive(x, u, t))
}

// axpy returns x + a*y as a new state.
func axpy(x dynamo.State, a float64, y dynamo.State) dynamo.State {
	out := make(dynamo.State, len(x))
	for i := range x {
		out[i] = x[i] + a*y[i]
	}
	return out
}
