package physics

import (
	"math"

	"github.com/san-kum/sensim/internal/dynamo"
)

// Pendulum is a damped, optionally driven pendulum.
// State: [theta, omega]
type Pendulum struct {
	Mass    float64
	Length  float64
	Damping float64
	Gravity float64
	// Drive is a constant applied torque.
	Drive float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{
		Mass:    1.0,
		Length:  1.0,
		Damping: 0.1,
		Gravity: 9.81,
	}
}

func (p *Pendulum) StateDim() int   { return 2 }
func (p *Pendulum) ControlDim() int { return 1 }

func (p *Pendulum) Derive(x dynamo.State, u dynamo.Control, _ float64) dynamo.State {
	theta, omega := x[0], x[1]

	torque := p.Drive
	if len(u) > 0 {
		torque += u[0]
	}
	inertia := p.Mass * p.Length * p.Length
	alpha := (-p.Damping*omega - p.Mass*p.Gravity*p.Length*math.Sin(theta) + torque) / inertia

	return dynamo.State{omega, alpha}
}

func (p *Pendulum) DefaultState() dynamo.State { return dynamo.State{math.Pi / 4, 0} }

func (p *Pendulum) Energy(x dynamo.State) float64 {
	v := p.Length * x[1]
	ke := 0.5 * p.Mass * v * v
	pe := p.Mass * p.Gravity * p.Length * (1.0 - math.Cos(x[0]))
	return ke + pe
}

func (p *Pendulum) fields() fieldSet {
	return fieldSet{"pendulum", map[string]*float64{
		"mass":    &p.Mass,
		"length":  &p.Length,
		"damping": &p.Damping,
		"gravity": &p.Gravity,
		"drive":   &p.Drive,
	}}
}

func (p *Pendulum) GetParams() map[string]float64 { return p.fields().values() }

func (p *Pendulum) SetParam(name string, value float64) error {
	return p.fields().set(name, value)
}
