package viz

import (
	"errors"
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/sensim/internal/table"
)

func eeTable() *table.Table {
	t := table.New("SensElementaryEffects", "Param", "Year", "Path", "energy")
	for path := 1; path <= 4; path++ {
		t.AddRow("length", 2000, path, float64(path))
		t.AddRow("damping", 2000, path, 0.5)
	}
	t.AddRow("length", 2001, 1, 9.0)
	return t
}

func TestRenderTable(t *testing.T) {
	tbl := table.New("MuStar", "Param", "energy.mu", "energy.sigma")
	tbl.AddRow("length", 1.23456789, math.NaN())
	tbl.AddRow("damping", 2, nil)
	tbl.AddRow("mass", 3.0, 0.1)

	out := RenderTable(tbl, 2)
	for _, want := range []string{"MuStar (3 rows)", "energy.mu", "length", "1.23457", "NaN", "-", "1 more rows"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "mass") {
		t.Errorf("row beyond limit rendered:\n%s", out)
	}

	if out := RenderTable(table.New("Empty"), 10); !strings.Contains(out, "Empty: empty") {
		t.Errorf("unexpected empty rendering %q", out)
	}
}

func TestConvergenceSeries(t *testing.T) {
	series, err := ConvergenceSeries(eeTable(), "length", 2000, "energy")
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 2, 3, 4}
	for i := range want {
		if series[i] != want[i] {
			t.Fatalf("series %v, want %v", series, want)
		}
	}

	if _, err := ConvergenceSeries(eeTable(), "length", 1999, "energy"); err == nil {
		t.Error("expected error for missing year")
	}
	if _, err := ConvergenceSeries(eeTable(), "length", 2000, "yield"); err == nil {
		t.Error("expected error for missing column")
	}
}

func TestConvergenceOfUnanalysedVariable(t *testing.T) {
	// amplitude only varied in 2001, so 2000 has no effects for it.
	ee := eeTable()
	ee.Set(ee.Len()-1, "amplitude", 2.0)

	if _, err := PlotConvergence(ee, "length", 2000, "amplitude"); err == nil || !strings.Contains(err.Error(), "amplitude was not analysed in 2000") {
		t.Errorf("expected not analysed error, got %v", err)
	}
	if _, err := ConvergenceOverview(ee, 2000, "amplitude"); err == nil {
		t.Error("expected overview error")
	}
	if _, err := PlotConvergence(ee, "length", 2001, "amplitude"); err != nil {
		t.Errorf("2001: %v", err)
	}
}

func TestPlotConvergence(t *testing.T) {
	out, err := PlotConvergence(eeTable(), "length", 2000, "energy")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "running mean over 4 paths") {
		t.Errorf("missing caption:\n%s", out)
	}

	out, err = PlotConvergence(eeTable(), "length", 2001, "energy")
	if err != nil {
		t.Fatalf("single path: %v", err)
	}
	if !strings.Contains(out, "over 1 paths") {
		t.Errorf("missing caption:\n%s", out)
	}
}

func TestConvergenceOverview(t *testing.T) {
	out, err := ConvergenceOverview(eeTable(), 2000, "energy")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "length  ▁▃▅█ 4") || !strings.Contains(out, "damping ▁▁▁▁ 0.5") {
		t.Errorf("unexpected overview:\n%s", out)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, math.NaN(), 1}); got != "▁ █" {
		t.Errorf("got %q", got)
	}
	if got := Sparkline(nil); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestProgressModel(t *testing.T) {
	var m tea.Model = NewProgress("Sens", 10)
	m, cmd := m.Update(ProgressMsg{Done: 3, Total: 10})
	if cmd != nil {
		t.Error("progress update should not return a command")
	}
	if !strings.Contains(m.View(), "3/10") {
		t.Errorf("view missing count:\n%s", m.View())
	}

	m, cmd = m.Update(FinishedMsg{Err: errors.New("boom")})
	if cmd == nil {
		t.Error("finish should quit")
	}
	if !strings.Contains(m.View(), "boom") {
		t.Errorf("view missing error:\n%s", m.View())
	}

	m, _ = NewProgress("Sens", 1).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !m.(Progress).Cancelled() {
		t.Error("ctrl+c should cancel")
	}
}

func TestThemes(t *testing.T) {
	defer SetTheme(ThemeOcean.Name)

	SetTheme("retro")
	if CurrentTheme.Name != "retro" {
		t.Errorf("expected retro, got %s", CurrentTheme.Name)
	}
	SetTheme("nonexistent")
	if CurrentTheme.Name != "ocean" {
		t.Errorf("expected fallback ocean, got %s", CurrentTheme.Name)
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("theme names mismatch")
	}
}
