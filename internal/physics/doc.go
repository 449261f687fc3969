// Package physics provides the dynamical systems experiments can vary.
//
// Each model implements [dynamo.Model]: the differential equations, a
// default initial state and name-addressed parameters, so a model node's
// params map straight onto the system:
//
//   - [Pendulum]: damped, driven pendulum
//   - [Duffing]: forced nonlinear oscillator
//   - [VanDerPol]: self-sustained relaxation oscillator
//   - [DoubleWell]: bistable particle
//   - [Lorenz]: butterfly attractor
//
// Models that also implement [dynamo.Hamiltonian] can report energy.
//
//	m, err := physics.Configure("pendulum", map[string]float64{"length": 2})
//	if h, ok := m.(dynamo.Hamiltonian); ok {
//	    energy := h.Energy(m.DefaultState())
//	}
package physics
