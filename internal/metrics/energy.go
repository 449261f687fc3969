package metrics

import (
	"math"

	"github.com/san-kum/sensim/internal/dynamo"
)

// Energy is the mean total energy over the window. It is NaN for systems
// without an energy function.
type Energy struct {
	sys     dynamo.Hamiltonian
	samples int
	total   float64
}

func NewEnergy(dyn dynamo.System) *Energy {
	h, _ := dyn.(dynamo.Hamiltonian)
	return &Energy{sys: h}
}

func (e *Energy) Name() string { return "energy" }

func (e *Energy) Observe(x dynamo.State, _ dynamo.Control, _ float64) {
	if e.sys == nil {
		return
	}
	e.total += e.sys.Energy(x)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return math.NaN()
	}
	return e.total / float64(e.samples)
}

func (e *Energy) Reset() {
	e.total = 0
	e.samples = 0
}

// EnergyDrift is the largest relative departure from the energy at the
// start of the window.
type EnergyDrift struct {
	sys      dynamo.Hamiltonian
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift(dyn dynamo.System) *EnergyDrift {
	h, _ := dyn.(dynamo.Hamiltonian)
	return &EnergyDrift{sys: h}
}

func (e *EnergyDrift) Name() string { return "energy_drift" }

func (e *EnergyDrift) Observe(x dynamo.State, _ dynamo.Control, _ float64) {
	if e.sys == nil {
		return
	}
	energy := e.sys.Energy(x)
	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	if e.samples == 0 {
		return math.NaN()
	}
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}
