package physics

import (
	"math"

	"github.com/san-kum/sensim/internal/dynamo"
)

// Duffing implements a nonlinear forced oscillator. The forcing phase is
// carried as a third state so the system stays autonomous.
// State: [x, v, phi]
type Duffing struct {
	Alpha, Beta, Delta, Gamma, Omega float64
}

func NewDuffing() *Duffing {
	return &Duffing{Alpha: -1.0, Beta: 1.0, Delta: 0.3, Gamma: 0.5, Omega: 1.2}
}

func (d *Duffing) StateDim() int   { return 3 }
func (d *Duffing) ControlDim() int { return 0 }

func (d *Duffing) Derive(s dynamo.State, _ dynamo.Control, _ float64) dynamo.State {
	x, v, phi := s[0], s[1], s[2]
	restoring := d.Alpha*x + d.Beta*x*x*x
	forcing := d.Gamma * math.Cos(phi)
	return dynamo.State{v, forcing - restoring - d.Delta*v, d.Omega}
}

func (d *Duffing) DefaultState() dynamo.State { return dynamo.State{1.0, 0.0, 0.0} }

// Energy ignores the forcing term.
func (d *Duffing) Energy(s dynamo.State) float64 {
	x, v := s[0], s[1]
	return 0.5*v*v + 0.5*d.Alpha*x*x + 0.25*d.Beta*x*x*x*x
}

func (d *Duffing) fields() fieldSet {
	return fieldSet{"duffing", map[string]*float64{
		"alpha": &d.Alpha, "beta": &d.Beta, "delta": &d.Delta, "gamma": &d.Gamma, "omega": &d.Omega,
	}}
}

func (d *Duffing) GetParams() map[string]float64      { return d.fields().values() }
func (d *Duffing) SetParam(n string, v float64) error { return d.fields().set(n, v) }
