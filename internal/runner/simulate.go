package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/sensim/internal/dynamo"
	"github.com/san-kum/sensim/internal/integrators"
	"github.com/san-kum/sensim/internal/metrics"
	"github.com/san-kum/sensim/internal/model"
	"github.com/san-kum/sensim/internal/morris"
	"github.com/san-kum/sensim/internal/physics"
)

// Clock defaults used when the clock node leaves a setting out.
const (
	DefaultStartYear  = 2000
	DefaultYears      = 1
	DefaultYearLength = 1.0
	DefaultDt         = 0.01
)

var ErrNoSystem = errors.New("runner: simulation has no system node")

// Clock is the simulated calendar read from a clock node.
type Clock struct {
	StartYear  int
	Years      int
	YearLength float64
	Dt         float64
}

func clockOf(sim *model.Simulation) (Clock, error) {
	c := Clock{
		StartYear:  DefaultStartYear,
		Years:      DefaultYears,
		YearLength: DefaultYearLength,
		Dt:         DefaultDt,
	}
	node := sim.FindKind(model.KindClock)
	if node == nil {
		return c, nil
	}
	if v, ok := node.Param("start_year"); ok {
		c.StartYear = int(v)
	}
	if v, ok := node.Param("years"); ok {
		c.Years = int(v)
	}
	if v, ok := node.Param("year_length"); ok {
		c.YearLength = v
	}
	if v, ok := node.Param("dt"); ok {
		c.Dt = v
	}
	if c.Years < 1 || c.YearLength <= 0 || c.Dt <= 0 {
		return c, fmt.Errorf("clock %q: years, year_length and dt must be positive", node.Name)
	}
	return c, nil
}

func initialState(sim *model.Simulation, dyn dynamo.Model) dynamo.State {
	x := dyn.DefaultState()
	node := sim.FindKind(model.KindInitial)
	if node == nil {
		return x
	}
	for i := range x {
		if v, ok := node.Param(fmt.Sprintf("x%d", i)); ok {
			x[i] = v
		}
	}
	return x
}

func configOf(sim *model.Simulation, clock Clock) dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.Dt = clock.Dt
	cfg.Duration = clock.YearLength
	if node := sim.FindKind(model.KindIntegrator); node != nil {
		if v, ok := node.Param("tolerance"); ok {
			cfg.Tolerance = v
		}
		if v, ok := node.Param("max_dt"); ok {
			cfg.MaxDt = v
		}
	}
	return cfg
}

// simulate runs one simulation through every year of its clock and returns
// one output per report node and year.
func simulate(ctx context.Context, sim *model.Simulation) ([]output, error) {
	index, ok := morris.SimulationIndex(sim.Name)
	if !ok {
		return nil, fmt.Errorf("unexpected simulation name %q", sim.Name)
	}

	sysNode := sim.FindKind(model.KindSystem)
	if sysNode == nil {
		return nil, ErrNoSystem
	}
	dyn, err := physics.Configure(sysNode.Model, sysNode.Params)
	if err != nil {
		return nil, fmt.Errorf("system %q: %w", sysNode.Name, err)
	}

	var integratorName string
	if node := sim.FindKind(model.KindIntegrator); node != nil {
		integratorName = node.Model
	}
	integrator, err := integrators.New(integratorName)
	if err != nil {
		return nil, err
	}

	clock, err := clockOf(sim)
	if err != nil {
		return nil, err
	}
	cfg := configOf(sim, clock)
	if _, ok := integrator.(dynamo.AdaptiveIntegrator); ok {
		cfg.Adaptive = true
	}

	simulator := dynamo.New(dyn, integrator)
	added := make(map[string]bool)
	reports := sim.Reports()
	for _, rep := range reports {
		for _, v := range rep.Variables {
			if !metrics.IsMetric(v) || added[v] {
				continue
			}
			m, err := metrics.New(v, dyn)
			if err != nil {
				return nil, fmt.Errorf("report %q: %w", rep.Name, err)
			}
			simulator.AddMetric(m)
			added[v] = true
		}
	}

	var outputs []output
	x := initialState(sim, dyn)
	for y := 0; y < clock.Years; y++ {
		cfg.Start = float64(y) * clock.YearLength
		res, err := simulator.Run(ctx, x, cfg)
		if err != nil {
			return nil, fmt.Errorf("year %d: %w", clock.StartYear+y, err)
		}
		x = res.Final

		for _, rep := range reports {
			o, err := reportRow(sim, rep, res.Metrics)
			if err != nil {
				return nil, err
			}
			o.index = index
			o.year = clock.StartYear + y
			o.cells[morris.YearColumn] = o.year
			outputs = append(outputs, o)
		}
	}
	return outputs, nil
}

func reportRow(sim *model.Simulation, rep *model.Node, values map[string]float64) (output, error) {
	o := output{
		report: rep.Name,
		cells:  map[string]any{morris.SimulationNameColumn: sim.Name},
		order:  []string{morris.SimulationNameColumn, morris.YearColumn},
	}
	for i, name := range rep.ExperimentFactorNames {
		if name == morris.SimulationNameColumn || i >= len(rep.ExperimentFactorValues) {
			continue
		}
		o.cells[name] = rep.ExperimentFactorValues[i]
		o.order = append(o.order, name)
	}
	for _, v := range rep.Variables {
		if metrics.IsMetric(v) {
			o.cells[v] = values[v]
		} else {
			param, err := sim.Get(v)
			if err != nil {
				return o, fmt.Errorf("report %q variable %q: %w", rep.Name, v, err)
			}
			o.cells[v] = param
		}
		o.order = append(o.order, v)
	}
	return o, nil
}
