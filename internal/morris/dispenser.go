package morris

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/san-kum/sensim/internal/model"
)

type DispenserState int

const (
	Uninitialized DispenserState = iota
	Ready
	Draining
	Exhausted
)

func (s DispenserState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Draining:
		return "draining"
	case Exhausted:
		return "exhausted"
	}
	return fmt.Sprintf("DispenserState(%d)", int(s))
}

// Dispenser hands out one simulation per design combination, each exactly
// once, in design order, named Simulation1, Simulation2, ...
// It never learns whether a dispensed simulation ran successfully.
type Dispenser struct {
	Logger *slog.Logger

	exp       *Experiment
	container *model.Container
	engine    Engine

	mu       sync.Mutex
	state    DispenserState
	snapshot []byte
	design   *Design
	queue    []Combination
	next     int
}

func NewDispenser(exp *Experiment, container *model.Container, eng Engine) *Dispenser {
	return &Dispenser{
		exp:       exp,
		container: container,
		engine:    eng,
	}
}

// Initialise snapshots the template simulation and regenerates the design.
func (d *Dispenser) Initialise(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == Draining {
		return ErrDispenserBusy
	}
	// A failed re-initialise must not leave the previous design dispensable.
	d.reset()

	if err := d.exp.Validate(); err != nil {
		return err
	}

	base, err := d.container.Simulation(d.exp.Base)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	snapshot, err := model.Snapshot(base)
	if err != nil {
		return err
	}
	if err := d.checkPaths(snapshot); err != nil {
		return err
	}

	design, err := GenerateDesign(ctx, d.engine, d.exp.Parameters, d.exp.NumPaths)
	if err != nil {
		return err
	}

	d.snapshot = snapshot
	d.design = design
	d.queue = append([]Combination(nil), design.Combinations...)
	d.next = 1
	d.state = Ready

	d.logger().Info("design ready",
		"experiment", d.exp.Name,
		"parameters", len(d.exp.Parameters),
		"paths", d.exp.NumPaths,
		"simulations", len(design.Combinations))
	return nil
}

func (d *Dispenser) reset() {
	d.state = Uninitialized
	d.snapshot = nil
	d.design = nil
	d.queue = nil
	d.next = 0
}

// checkPaths makes sure every parameter path resolves on a copy of the
// template, so NextSimulationToRun cannot fail on a bad path later.
func (d *Dispenser) checkPaths(snapshot []byte) error {
	sim, err := model.Restore(snapshot)
	if err != nil {
		return err
	}
	d.container.ApplySubstitutions(sim)
	for _, p := range d.exp.Parameters {
		if err := sim.Set(p.Path, p.LowerBound); err != nil {
			return fmt.Errorf("%w: parameter %q: %v", ErrConfiguration, p.Name, err)
		}
	}
	return nil
}

// NextSimulationToRun returns the next fully prepared simulation, or nil
// once every combination has been dispensed.
func (d *Dispenser) NextSimulationToRun() *model.Simulation {
	d.mu.Lock()
	if len(d.queue) == 0 {
		if d.state != Uninitialized {
			d.state = Exhausted
		}
		d.mu.Unlock()
		return nil
	}
	combo := d.queue[0]
	d.queue = d.queue[1:]
	k := d.next
	d.next++
	d.state = Draining
	snapshot := d.snapshot
	d.mu.Unlock()

	sim, err := d.prepare(snapshot, SimulationName(k), combo)
	if err != nil {
		// Paths were checked in Initialise; reaching here means the
		// snapshot itself is unusable, so nothing further can be built.
		d.logger().Error("cannot prepare simulation", "simulation", SimulationName(k), "err", err)
		d.mu.Lock()
		d.queue = nil
		d.state = Exhausted
		d.mu.Unlock()
		return nil
	}
	return sim
}

func (d *Dispenser) prepare(snapshot []byte, name string, combo Combination) (*model.Simulation, error) {
	sim, err := model.Restore(snapshot)
	if err != nil {
		return nil, err
	}
	sim.Name = name
	sim.SetParent(d.container)
	d.container.ApplySubstitutions(sim)

	for _, f := range combo {
		if err := f.Apply(sim); err != nil {
			return nil, err
		}
	}
	pushFactorsToReports(sim, combo)
	return sim, nil
}

func pushFactorsToReports(sim *model.Simulation, combo Combination) {
	names := make([]string, 0, len(combo)+1)
	values := make([]string, 0, len(combo)+1)
	names = append(names, "SimulationName")
	values = append(values, sim.Name)
	for _, f := range combo {
		names = append(names, f.Name)
		values = append(values, f.FormattedValue())
	}

	for _, r := range sim.Reports() {
		r.ExperimentFactorNames = append([]string(nil), names...)
		r.ExperimentFactorValues = append([]string(nil), values...)
	}
}

func (d *Dispenser) State() DispenserState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Remaining is the number of combinations not yet dispensed.
func (d *Dispenser) Remaining() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

func (d *Dispenser) Design() *Design {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.design
}

// SimulationNames lists the names of every simulation in the current
// design, in dispensing order.
func (d *Dispenser) SimulationNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.design == nil {
		return nil
	}
	return append([]string(nil), d.design.Names...)
}

// GenerateFiles drains the dispenser, writing each simulation as a
// standalone file in dir. It returns the paths written.
func (d *Dispenser) GenerateFiles(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	var paths []string
	for sim := d.NextSimulationToRun(); sim != nil; sim = d.NextSimulationToRun() {
		path := filepath.Join(dir, sim.Name+".yaml")
		if err := model.WriteFile(path, sim); err != nil {
			return paths, fmt.Errorf("write %s: %w", sim.Name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (d *Dispenser) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
