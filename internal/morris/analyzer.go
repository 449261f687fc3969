package morris

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/san-kum/sensim/internal/table"
)

const (
	ReportTable          = "Report"
	YearColumn           = "Year"
	SimulationNameColumn = "SimulationName"
	ParamColumn          = "Param"
	PathColumn           = "Path"
)

// Analyzer turns collected simulation output into elementary-effects and
// mu* tables keyed by (Param, Year).
type Analyzer struct {
	Engine Engine
	Store  Store
	Logger *slog.Logger

	// ReportTable and YearColumn default to "Report" and "Year".
	ReportTable string
	YearColumn  string
}

// Descriptive is an output that did not vary across the design in one
// year. It is carried into the mu* table as context instead of analysed.
type Descriptive struct {
	Column string
	Value  any
}

type Result struct {
	Years             []int
	Responses         []ResponseKey
	Descriptive       map[int][]Descriptive
	ElementaryEffects *table.Table
	MuStar            *table.Table
}

// Run reads the report table, analyses it and replaces the experiment's
// result tables in the store. Nothing is written unless the whole
// analysis succeeds.
func (a *Analyzer) Run(ctx context.Context, exp *Experiment, design *table.Table) (*Result, error) {
	raw, err := a.Store.GetData(ctx, a.reportTable())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", a.reportTable(), err)
	}
	if raw == nil || raw.Len() == 0 {
		return nil, ErrNoPredictedData
	}

	res, err := a.Analyze(ctx, exp, design, raw)
	if err != nil {
		return nil, err
	}

	if err := ReplaceTables(ctx, a.Store, res.ElementaryEffects, res.MuStar); err != nil {
		return nil, err
	}
	a.logger().Info("analysis stored",
		"experiment", exp.Name,
		"responses", len(res.Responses),
		"years", len(res.Years),
		"tables", []string{res.ElementaryEffects.Name, res.MuStar.Name})
	return res, nil
}

// Analyze computes the result tables from raw report output without
// touching the store.
func (a *Analyzer) Analyze(ctx context.Context, exp *Experiment, design *table.Table, raw *table.Table) (*Result, error) {
	if raw.Len() == 0 {
		return nil, ErrNoPredictedData
	}
	if design == nil || design.Len() == 0 {
		return nil, fmt.Errorf("%w: empty design", ErrConfiguration)
	}
	// A stored design outlives edits to the experiment's parameters.
	if _, err := DesignFromMatrix(exp.Parameters, exp.NumPaths, design); err != nil {
		return nil, err
	}
	yearCol := a.yearColumn()
	if !raw.HasColumn(SimulationNameColumn) || !raw.HasColumn(yearCol) {
		return nil, fmt.Errorf("%w: %s needs %s and %s columns", ErrConfiguration, a.reportTable(), SimulationNameColumn, yearCol)
	}

	bySim := rowsBySimulation(raw)
	years := yearsOf(raw, bySim[1], yearCol)
	if len(years) == 0 {
		return nil, fmt.Errorf("%w: no output for %s", ErrDesignMismatch, SimulationName(1))
	}
	res := &Result{
		Years:       years,
		Descriptive: make(map[int][]Descriptive),
	}

	var responses []Response
	for _, year := range years {
		rows, err := designRows(raw, bySim, design.Len(), year, yearCol)
		if err != nil {
			return nil, err
		}
		for _, col := range raw.Columns() {
			if col == SimulationNameColumn || col == yearCol || !raw.IsNumeric(col) {
				continue
			}
			values := raw.Floats(col, rows)
			if constant(values) {
				res.Descriptive[year] = append(res.Descriptive[year], Descriptive{Column: col, Value: raw.Get(rows[0], col)})
				continue
			}
			key := ResponseKey{Variable: col, Year: year}
			responses = append(responses, Response{Key: key, Values: values})
			res.Responses = append(res.Responses, key)
		}
	}
	if len(responses) == 0 {
		return nil, fmt.Errorf("%w: no output varies across the design", ErrConfiguration)
	}

	a.logger().Debug("computing effects", "responses", len(responses), "design_points", design.Len())
	effects, err := a.Engine.ComputeEffects(ctx, exp.Parameters, design, responses)
	if err != nil {
		var ee *EngineError
		if !errors.As(err, &ee) {
			err = NewEngineError("compute effects", err)
		}
		return nil, err
	}
	if effects == nil {
		return nil, NewEngineError("compute effects", nil)
	}

	ee, err := elementaryEffectsTable(exp, responses, effects.Elementary)
	if err != nil {
		return nil, err
	}
	res.ElementaryEffects = ee

	mu, err := muStarTable(exp, effects.Stats, res.Descriptive)
	if err != nil {
		return nil, err
	}
	res.MuStar = mu
	exp.Years = years
	return res, nil
}

func elementaryEffectsTable(exp *Experiment, responses []Response, effects []ElementaryEffect) (*table.Table, error) {
	type pair struct {
		param string
		key   ResponseKey
	}
	grouped := make(map[pair][]ElementaryEffect)
	for _, e := range effects {
		p := pair{e.Parameter, e.Response}
		grouped[p] = append(grouped[p], e)
	}

	paths := make([]int, exp.NumPaths)
	for i := range paths {
		paths[i] = i + 1
	}

	ix := table.NewIndexed(table.New(exp.ElementaryEffectsTable()), ParamColumn, YearColumn)
	for _, param := range exp.Parameters {
		for _, resp := range responses {
			found := grouped[pair{param.Name, resp.Key}]
			if len(found) != exp.NumPaths {
				return nil, fmt.Errorf("%w: found %d paths for parameter %s, variable %s (expected %d)",
					ErrDesignMismatch, len(found), param.Name, resp.Key, exp.NumPaths)
			}
			sort.SliceStable(found, func(i, j int) bool { return found[i].Path < found[j].Path })
			values := make([]float64, len(found))
			for i, e := range found {
				values[i] = e.Value
			}

			if err := ix.SetIndex(param.Name, resp.Key.Year); err != nil {
				return nil, err
			}
			if err := ix.SetInts(PathColumn, paths); err != nil {
				return nil, err
			}
			if err := ix.SetFloats(resp.Key.Variable, RunningAverage(values)); err != nil {
				return nil, err
			}
		}
	}
	return ix.Table(), nil
}

func muStarTable(exp *Experiment, stats []Statistic, descriptive map[int][]Descriptive) (*table.Table, error) {
	ix := table.NewIndexed(table.New(exp.MuStarTable()), ParamColumn, YearColumn)
	for _, s := range stats {
		if err := ix.SetIndex(s.Parameter, s.Response.Year); err != nil {
			return nil, err
		}
		v := s.Response.Variable
		if err := ix.Set(v+".mu", s.Mu); err != nil {
			return nil, err
		}
		if err := ix.Set(v+".mustar", s.MuStar); err != nil {
			return nil, err
		}
		if err := ix.Set(v+".sigma", s.Sigma); err != nil {
			return nil, err
		}
		for _, d := range descriptive[s.Response.Year] {
			if err := ix.Set(d.Column, d.Value); err != nil {
				return nil, err
			}
		}
	}
	return ix.Table(), nil
}

// rowsBySimulation groups report rows by design index, keeping table order
// within each simulation.
func rowsBySimulation(raw *table.Table) map[int][]int {
	out := make(map[int][]int)
	for r := 0; r < raw.Len(); r++ {
		k, ok := SimulationIndex(table.AsString(raw.Get(r, SimulationNameColumn)))
		if !ok {
			continue
		}
		out[k] = append(out[k], r)
	}
	return out
}

func yearsOf(raw *table.Table, rows []int, yearCol string) []int {
	var years []int
	seen := make(map[int]bool)
	for _, r := range rows {
		y, ok := table.AsInt(raw.Get(r, yearCol))
		if !ok || seen[y] {
			continue
		}
		seen[y] = true
		years = append(years, y)
	}
	return years
}

// designRows returns, for one year, the report row of every simulation in
// design order.
func designRows(raw *table.Table, bySim map[int][]int, n, year int, yearCol string) ([]int, error) {
	rows := make([]int, 0, n)
	for k := 1; k <= n; k++ {
		found := -1
		for _, r := range bySim[k] {
			if y, ok := table.AsInt(raw.Get(r, yearCol)); ok && y == year {
				found = r
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("%w: no output for %s in %d", ErrDesignMismatch, SimulationName(k), year)
		}
		rows = append(rows, found)
	}
	return rows, nil
}

func (a *Analyzer) reportTable() string {
	if a.ReportTable != "" {
		return a.ReportTable
	}
	return ReportTable
}

func (a *Analyzer) yearColumn() string {
	if a.YearColumn != "" {
		return a.YearColumn
	}
	return YearColumn
}

func (a *Analyzer) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
