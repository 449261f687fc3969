package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/sensim/internal/table"
)

// RenderTable draws t as a bordered grid. At most maxRows rows are shown
// when maxRows is positive; a footer counts the rest.
func RenderTable(t *table.Table, maxRows int) string {
	cols := t.Columns()
	if len(cols) == 0 {
		return Subtle.Render(fmt.Sprintf("%s: empty", t.Name))
	}

	shown := t.Len()
	if maxRows > 0 && shown > maxRows {
		shown = maxRows
	}

	cells := make([][]string, shown)
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = lipgloss.Width(c)
	}
	for r := 0; r < shown; r++ {
		cells[r] = make([]string, len(cols))
		for i, c := range cols {
			s := FormatCell(t.Get(r, c))
			cells[r][i] = s
			widths[i] = max(widths[i], lipgloss.Width(s))
		}
	}

	var b strings.Builder
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = pad(c, widths[i])
	}
	b.WriteString(HeaderStyle.Render(strings.Join(header, "  ")))
	for _, row := range cells {
		line := make([]string, len(cols))
		for i, s := range row {
			line[i] = pad(s, widths[i])
		}
		b.WriteString("\n")
		b.WriteString(Cell.Render(strings.Join(line, "  ")))
	}
	if rest := t.Len() - shown; rest > 0 {
		b.WriteString("\n")
		b.WriteString(Subtle.Render(fmt.Sprintf("… %d more rows", rest)))
	}

	title := Title.Render(fmt.Sprintf("%s (%d rows)", t.Name, t.Len()))
	return title + "\n" + Panel.Render(b.String())
}

// FormatCell renders one cell for display. Missing values show as "-".
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case float64:
		if math.IsNaN(x) {
			return "NaN"
		}
		return fmt.Sprintf("%.6g", x)
	}
	return table.AsString(v)
}

func pad(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
