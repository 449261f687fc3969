package physics

import "github.com/san-kum/sensim/internal/dynamo"

// Lorenz is the classic chaotic convection model.
// State: [x, y, z]
type Lorenz struct{ Sigma, Rho, Beta float64 }

func NewLorenz() *Lorenz          { return &Lorenz{Sigma: 10.0, Rho: 28.0, Beta: 8.0 / 3.0} }
func (l *Lorenz) StateDim() int   { return 3 }
func (l *Lorenz) ControlDim() int { return 0 }

func (l *Lorenz) Derive(s dynamo.State, _ dynamo.Control, _ float64) dynamo.State {
	return dynamo.State{l.Sigma * (s[1] - s[0]), s[0]*(l.Rho-s[2]) - s[1], s[0]*s[1] - l.Beta*s[2]}
}

func (l *Lorenz) DefaultState() dynamo.State { return dynamo.State{1.0, 1.0, 1.0} }

func (l *Lorenz) fields() fieldSet {
	return fieldSet{"lorenz", map[string]*float64{"sigma": &l.Sigma, "rho": &l.Rho, "beta": &l.Beta}}
}

func (l *Lorenz) GetParams() map[string]float64      { return l.fields().values() }
func (l *Lorenz) SetParam(n string, v float64) error { return l.fields().set(n, v) }
