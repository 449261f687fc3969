// Package table provides the wide-format tables exchanged between the
// simulation runner, the statistics engines and the result store.
//
// A [Table] is an ordered set of named columns over rows of loosely typed
// cells. Cells hold float64, int, string or nil; nil is the missing marker.
// An [Indexed] table layers a composite key over a Table so long-format
// results can be accumulated into one logical row per key.
package table

import (
	"math"
	"sort"
	"strconv"
)

type Table struct {
	Name    string
	columns []string
	index   map[string]int
	rows    [][]any
}

func New(name string, columns ...string) *Table {
	t := &Table{
		Name:  name,
		index: make(map[string]int),
	}
	for _, c := range columns {
		t.AddColumn(c)
	}
	return t
}

func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

func (t *Table) Len() int { return len(t.rows) }

// AddColumn returns the position of the named column, creating it when
// absent. Existing rows get nil in the new column.
func (t *Table) AddColumn(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, name)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], nil)
	}
	return len(t.columns) - 1
}

// NewRow appends an all-missing row and returns its index.
func (t *Table) NewRow() int {
	t.rows = append(t.rows, make([]any, len(t.columns)))
	return len(t.rows) - 1
}

// AddRow appends a row of positional values. Extra values are dropped,
// absent ones are missing.
func (t *Table) AddRow(values ...any) int {
	r := t.NewRow()
	for i := 0; i < len(values) && i < len(t.columns); i++ {
		t.rows[r][i] = normalise(values[i])
	}
	return r
}

// AppendRow appends a row from a column map. Unseen columns are added in
// sorted name order.
func (t *Table) AppendRow(cells map[string]any) int {
	names := make([]string, 0, len(cells))
	for name := range cells {
		names = append(names, name)
	}
	sort.Strings(names)

	r := t.NewRow()
	for _, name := range names {
		t.Set(r, name, cells[name])
	}
	return r
}

func (t *Table) Get(row int, col string) any {
	i, ok := t.index[col]
	if !ok || row < 0 || row >= len(t.rows) {
		return nil
	}
	return t.rows[row][i]
}

func (t *Table) Set(row int, col string, v any) {
	i := t.AddColumn(col)
	t.rows[row][i] = normalise(v)
}

// Row returns a copy of one row keyed by column name.
func (t *Table) Row(row int) map[string]any {
	out := make(map[string]any, len(t.columns))
	for i, c := range t.columns {
		out[c] = t.rows[row][i]
	}
	return out
}

// Values returns a copy of one row in column order.
func (t *Table) Values(row int) []any {
	out := make([]any, len(t.rows[row]))
	copy(out, t.rows[row])
	return out
}

func (t *Table) Float(row int, col string) (float64, bool) {
	return AsFloat(t.Get(row, col))
}

// Floats returns col for the given rows as float64s; missing or
// non-numeric cells are NaN.
func (t *Table) Floats(col string, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		v, ok := t.Float(r, col)
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}

// ColumnFloats is Floats over every row.
func (t *Table) ColumnFloats(col string) []float64 {
	return t.Floats(col, t.allRows())
}

// IsNumeric reports whether every present cell of col is a number and at
// least one is present.
func (t *Table) IsNumeric(col string) bool {
	i, ok := t.index[col]
	if !ok {
		return false
	}
	seen := false
	for _, row := range t.rows {
		switch row[i].(type) {
		case nil:
		case float64, int:
			seen = true
		default:
			return false
		}
	}
	return seen
}

// Select returns the indices of rows matching pred, in table order.
func (t *Table) Select(pred func(row int) bool) []int {
	var out []int
	for r := range t.rows {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

func (t *Table) allRows() []int {
	rows := make([]int, len(t.rows))
	for i := range rows {
		rows[i] = i
	}
	return rows
}

// AsFloat converts a numeric cell. Strings that parse as numbers are
// accepted so CSV-sourced tables behave like typed ones.
func AsFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}

func AsInt(v any) (int, bool) {
	f, ok := AsFloat(v)
	if !ok || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// AsString formats a cell the way it would appear in a CSV file.
func AsString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	return ""
}

func normalise(v any) any {
	switch x := v.(type) {
	case float32:
		return float64(x)
	case int32:
		return int(x)
	case int64:
		return int(x)
	}
	return v
}
