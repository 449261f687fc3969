package table

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoIndex is returned when a value is written before any key is selected.
var ErrNoIndex = errors.New("table: value set without a selected index")

// Indexed keeps at most one logical row per distinct key tuple of a
// backing table. A logical row may span several backing rows after
// SetValues; every backing row of a key carries the key columns.
type Indexed struct {
	t    *Table
	keys []string
	rows map[string][]int

	selected bool
	current  string
	values   []any
}

// NewIndexed indexes t by keys, creating the key columns when absent and
// registering any rows already present.
func NewIndexed(t *Table, keys ...string) *Indexed {
	ix := &Indexed{
		t:    t,
		keys: keys,
		rows: make(map[string][]int),
	}
	for _, k := range keys {
		t.AddColumn(k)
	}
	for r := 0; r < t.Len(); r++ {
		vals := make([]any, len(keys))
		for i, k := range keys {
			vals[i] = t.Get(r, k)
		}
		id := keyID(vals)
		ix.rows[id] = append(ix.rows[id], r)
	}
	return ix
}

func (ix *Indexed) Table() *Table { return ix.t }

// SetIndex selects the logical row for values, creating it when absent.
func (ix *Indexed) SetIndex(values ...any) error {
	if len(values) != len(ix.keys) {
		return fmt.Errorf("table: index has %d key columns, got %d values", len(ix.keys), len(values))
	}
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = normalise(v)
	}
	id := keyID(vals)
	if _, ok := ix.rows[id]; !ok {
		ix.rows[id] = []int{ix.newKeyedRow(vals)}
	}
	ix.selected = true
	ix.current = id
	ix.values = vals
	return nil
}

// Set writes v into col of every backing row of the selected key.
func (ix *Indexed) Set(col string, v any) error {
	if !ix.selected {
		return ErrNoIndex
	}
	for _, r := range ix.rows[ix.current] {
		ix.t.Set(r, col, v)
	}
	return nil
}

// SetValues writes values[i] into col of the i-th backing row of the
// selected key, adding backing rows as needed.
func (ix *Indexed) SetValues(col string, values []any) error {
	if !ix.selected {
		return ErrNoIndex
	}
	rows := ix.rows[ix.current]
	for len(rows) < len(values) {
		rows = append(rows, ix.newKeyedRow(ix.values))
	}
	ix.rows[ix.current] = rows
	for i, v := range values {
		ix.t.Set(rows[i], col, v)
	}
	return nil
}

// SetFloats is SetValues for a float64 vector.
func (ix *Indexed) SetFloats(col string, values []float64) error {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return ix.SetValues(col, vs)
}

// SetInts is SetValues for an int vector.
func (ix *Indexed) SetInts(col string, values []int) error {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return ix.SetValues(col, vs)
}

func (ix *Indexed) newKeyedRow(vals []any) int {
	r := ix.t.NewRow()
	for i, k := range ix.keys {
		ix.t.Set(r, k, vals[i])
	}
	return r
}

// keyID encodes type and value so 2000 and "2000" stay distinct.
func keyID(vals []any) string {
	var b strings.Builder
	for i, v := range vals {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		fmt.Fprintf(&b, "%T:%v", v, v)
	}
	return b.String()
}
