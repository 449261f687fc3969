package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/sensim/internal/morris"
	"github.com/san-kum/sensim/internal/table"
)

// ConvergenceSeries returns the running mean of param's elementary effects
// on variable in year, ordered by path.
func ConvergenceSeries(ee *table.Table, param string, year int, variable string) ([]float64, error) {
	if !ee.HasColumn(variable) {
		return nil, fmt.Errorf("%s has no column %q", ee.Name, variable)
	}
	rows := ee.Select(func(r int) bool {
		y, ok := table.AsInt(ee.Get(r, morris.YearColumn))
		return ok && y == year && table.AsString(ee.Get(r, morris.ParamColumn)) == param
	})
	if len(rows) == 0 {
		return nil, fmt.Errorf("no effects for %s in %d", param, year)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		pi, _ := table.AsInt(ee.Get(rows[i], morris.PathColumn))
		pj, _ := table.AsInt(ee.Get(rows[j], morris.PathColumn))
		return pi < pj
	})
	series := ee.Floats(variable, rows)
	for _, v := range series {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			return series, nil
		}
	}
	return nil, fmt.Errorf("%s was not analysed in %d", variable, year)
}

// PlotConvergence charts the running mean against path number. A flat
// tail means enough paths were run.
func PlotConvergence(ee *table.Table, param string, year int, variable string) (string, error) {
	series, err := ConvergenceSeries(ee, param, year, variable)
	if err != nil {
		return "", err
	}
	caption := fmt.Sprintf("%s on %s (%d), running mean over %d paths", param, variable, year, len(series))
	if len(series) == 1 {
		series = append(series, series[0])
	}
	return asciigraph.Plot(series,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption(caption),
	), nil
}

// ConvergenceOverview prints one sparkline per parameter for variable in
// year.
func ConvergenceOverview(ee *table.Table, year int, variable string) (string, error) {
	var params []string
	seen := make(map[string]bool)
	for r := 0; r < ee.Len(); r++ {
		p := table.AsString(ee.Get(r, morris.ParamColumn))
		if !seen[p] {
			seen[p] = true
			params = append(params, p)
		}
	}

	width := 0
	for _, p := range params {
		width = max(width, len(p))
	}

	var lines []string
	for _, p := range params {
		series, err := ConvergenceSeries(ee, p, year, variable)
		if err != nil {
			return "", err
		}
		last := series[len(series)-1]
		lines = append(lines, fmt.Sprintf("%-*s %s %s", width, p, Sparkline(series), FormatCell(last)))
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("%s is empty", ee.Name)
	}
	return Title.Render(fmt.Sprintf("%s (%d)", variable, year)) + "\n" + strings.Join(lines, "\n"), nil
}
