package physics

import (
	"math"

	"github.com/san-kum/sensim/internal/dynamo"
)

// DoubleWell models a damped particle in the bistable potential
// A(x²-B)².
// State: [x, v]
type DoubleWell struct {
	A, B, Mass, Damping float64
}

func NewDoubleWell() *DoubleWell {
	return &DoubleWell{A: 1.0, B: 1.0, Mass: 1.0, Damping: 0.1}
}

func (d *DoubleWell) StateDim() int   { return 2 }
func (d *DoubleWell) ControlDim() int { return 1 }

func (d *DoubleWell) Derive(s dynamo.State, u dynamo.Control, _ float64) dynamo.State {
	x, v := s[0], s[1]
	f := 0.0
	if len(u) > 0 {
		f = u[0]
	}
	return dynamo.State{v, (-4*d.A*x*(x*x-d.B) - d.Damping*v + f) / d.Mass}
}

func (d *DoubleWell) DefaultState() dynamo.State { return dynamo.State{math.Sqrt(math.Abs(d.B)) + 0.1, 0} }

func (d *DoubleWell) Energy(s dynamo.State) float64 {
	x, v := s[0], s[1]
	w := x*x - d.B
	return 0.5*d.Mass*v*v + d.A*w*w
}

func (d *DoubleWell) fields() fieldSet {
	return fieldSet{"doublewell", map[string]*float64{"a": &d.A, "b": &d.B, "mass": &d.Mass, "damping": &d.Damping}}
}

func (d *DoubleWell) GetParams() map[string]float64      { return d.fields().values() }
func (d *DoubleWell) SetParam(n string, v float64) error { return d.fields().set(n, v) }
