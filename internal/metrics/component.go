package metrics

import (
	"math"

	"github.com/san-kum/sensim/internal/dynamo"
)

// Reduction names how a component's samples are folded into one value.
type Reduction string

const (
	Mean      Reduction = "mean"
	RMS       Reduction = "rms"
	Amplitude Reduction = "amplitude"
	Max       Reduction = "max"
	Min       Reduction = "min"
	Final     Reduction = "final"
)

// Component reduces one state component over the window.
type Component struct {
	name   string
	index  int
	reduce Reduction

	samples int
	acc     float64
}

func NewComponent(name string, reduce Reduction, index int) *Component {
	c := &Component{name: name, index: index, reduce: reduce}
	c.Reset()
	return c
}

func (c *Component) Name() string { return c.name }

func (c *Component) Observe(x dynamo.State, _ dynamo.Control, _ float64) {
	if c.index >= len(x) {
		return
	}
	v := x[c.index]
	c.samples++
	switch c.reduce {
	case Mean:
		c.acc += v
	case RMS:
		c.acc += v * v
	case Amplitude:
		c.acc = math.Max(c.acc, math.Abs(v))
	case Max:
		c.acc = math.Max(c.acc, v)
	case Min:
		c.acc = math.Min(c.acc, v)
	case Final:
		c.acc = v
	}
}

func (c *Component) Value() float64 {
	if c.samples == 0 {
		return math.NaN()
	}
	switch c.reduce {
	case Mean:
		return c.acc / float64(c.samples)
	case RMS:
		return math.Sqrt(c.acc / float64(c.samples))
	}
	return c.acc
}

func (c *Component) Reset() {
	c.samples = 0
	switch c.reduce {
	case Max:
		c.acc = math.Inf(-1)
	case Min:
		c.acc = math.Inf(1)
	default:
		c.acc = 0
	}
}

func (r Reduction) valid() bool {
	switch r {
	case Mean, RMS, Amplitude, Max, Min, Final:
		return true
	}
	return false
}
