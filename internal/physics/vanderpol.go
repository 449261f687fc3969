package physics

import "github.com/san-kum/sensim/internal/dynamo"

// VanDerPol implements the Van der Pol oscillator.
// State: [x, y] where y = dx/dt
// Equations:
//
//	dx/dt = y
//	dy/dt = μ(1 - x²)y - x
type VanDerPol struct {
	Mu float64
}

func NewVanDerPol() *VanDerPol {
	return &VanDerPol{Mu: 1.0}
}

func (v *VanDerPol) StateDim() int   { return 2 }
func (v *VanDerPol) ControlDim() int { return 0 }

func (v *VanDerPol) Derive(state dynamo.State, _ dynamo.Control, _ float64) dynamo.State {
	x, y := state[0], state[1]
	return dynamo.State{y, v.Mu*(1-x*x)*y - x}
}

func (v *VanDerPol) DefaultState() dynamo.State {
	return dynamo.State{2.0, 0.0}
}

func (v *VanDerPol) GetParams() map[string]float64 {
	return map[string]float64{"mu": v.Mu}
}

func (v *VanDerPol) SetParam(name string, value float64) error {
	return fieldSet{"vanderpol", map[string]*float64{"mu": &v.Mu}}.set(name, value)
}
