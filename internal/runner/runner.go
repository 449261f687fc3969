// Package runner executes dispensed simulations and collects their report
// output into tables.
//
// Each simulation is simulated one year at a time. A year is a window of
// clock.year_length time units integrated with dynamo.Simulator, continuing
// from the state the previous year ended in. Every report node yields one
// row per year holding the simulation name, the year, the experiment factor
// values and the node's variables.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/sensim/internal/model"
	"github.com/san-kum/sensim/internal/morris"
	"github.com/san-kum/sensim/internal/table"
)

// Source hands out simulations until it returns nil.
type Source interface {
	NextSimulationToRun() *model.Simulation
	Remaining() int
}

// Store receives the finished report tables.
type Store interface {
	DeleteDataInTable(ctx context.Context, name string) error
	WriteTable(ctx context.Context, t *table.Table) error
}

type Runner struct {
	Store   Store
	Workers int
	Logger  *slog.Logger

	// Progress, when set, is called after every simulation with the
	// number finished so far and the number dispensed in total. Calls are
	// serialised.
	Progress func(done, total int)

	// ContinueOnError logs failing simulations and leaves them out of the
	// report instead of stopping the run.
	ContinueOnError bool
}

type Summary struct {
	Simulations int
	Failed      []string
	Tables      []*table.Table
}

type output struct {
	index  int
	report string
	year   int
	cells  map[string]any
	order  []string
}

// Run drains src and replaces each report table in the store with the
// collected rows, ordered by simulation and year.
func (r *Runner) Run(ctx context.Context, src Source) (*Summary, error) {
	total := src.Remaining()
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		mu      sync.Mutex
		outputs []output
		summary = &Summary{}
	)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				sim := src.NextSimulationToRun()
				if sim == nil {
					return nil
				}

				rows, err := simulate(gctx, sim)

				mu.Lock()
				summary.Simulations++
				if err != nil {
					summary.Failed = append(summary.Failed, sim.Name)
				} else {
					outputs = append(outputs, rows...)
				}
				if r.Progress != nil {
					r.Progress(summary.Simulations, total)
				}
				mu.Unlock()

				if err != nil {
					if !r.ContinueOnError || gctx.Err() != nil {
						return fmt.Errorf("%s: %w", sim.Name, err)
					}
					r.logger().Warn("simulation failed", "simulation", sim.Name, "err", err)
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary.Tables = collect(outputs)
	if err := morris.ReplaceTables(ctx, r.Store, summary.Tables...); err != nil {
		return nil, err
	}
	sort.Strings(summary.Failed)

	r.logger().Info("simulations complete",
		"simulations", summary.Simulations,
		"failed", len(summary.Failed),
		"tables", len(summary.Tables))
	return summary, nil
}

func collect(outputs []output) []*table.Table {
	sort.SliceStable(outputs, func(i, j int) bool {
		a, b := outputs[i], outputs[j]
		if a.report != b.report {
			return a.report < b.report
		}
		if a.index != b.index {
			return a.index < b.index
		}
		return a.year < b.year
	})

	var tables []*table.Table
	byName := make(map[string]*table.Table)
	for _, o := range outputs {
		t, ok := byName[o.report]
		if !ok {
			t = table.New(o.report, morris.SimulationNameColumn, morris.YearColumn)
			byName[o.report] = t
			tables = append(tables, t)
		}
		row := t.NewRow()
		for _, col := range o.order {
			t.Set(row, col, o.cells[col])
		}
	}
	return tables
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
