package integrators

import "github.com/san-kum/sensim/internal/dynamo"

// RK4 is the classical fourth-order Runge-Kutta method. It keeps no state
// between steps and is safe to share.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	h := dt / 2
	k1 := dyn.Derive(x, u, t)
	k2 := dyn.Derive(axpy(x, h, k1), u, t+h)
	k3 := dyn.Derive(axpy(x, h, k2), u, t+h)
	k4 := dyn.Derive(axpy(x, dt, k3), u, t+dt)

	out := make(dynamo.State, len(x))
	dt6 := dt / 6.0
	for i := range x {
		out[i] = x[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return out
}
