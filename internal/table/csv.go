package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// WriteCSV writes a header row followed by every row. Strings are quoted,
// numbers are not and missing cells are NA, which is what R's read.csv
// expects.
func WriteCSV(w io.Writer, t *Table) error {
	bw := &quotingWriter{w: w}
	if err := bw.writeRecord(t.columns, true); err != nil {
		return err
	}
	for r := range t.rows {
		fields := make([]string, len(t.columns))
		quote := make([]bool, len(t.columns))
		for i, v := range t.rows[r] {
			switch x := v.(type) {
			case nil:
				fields[i] = "NA"
			case string:
				fields[i] = x
				quote[i] = true
			default:
				fields[i] = AsString(x)
			}
		}
		if err := bw.writeFields(fields, quote); err != nil {
			return err
		}
	}
	return bw.err
}

func WriteCSVFile(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadCSV parses a header plus rows. Cells that parse as numbers become
// float64; empty and NA cells are missing.
func ReadCSV(r io.Reader, name string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return New(name), nil
	}

	t := New(name, records[0]...)
	for _, rec := range records[1:] {
		if len(rec) == 1 && rec[0] == "" {
			continue
		}
		row := t.NewRow()
		for i := 0; i < len(rec) && i < len(t.columns); i++ {
			t.rows[row][i] = parseCell(rec[i])
		}
	}
	return t, nil
}

func ReadCSVFile(path, name string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f, name)
}

func parseCell(s string) any {
	if s == "" || s == "NA" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// quotingWriter writes CSV with per-field quoting, which encoding/csv
// does not offer.
type quotingWriter struct {
	w   io.Writer
	err error
}

func (q *quotingWriter) writeRecord(fields []string, quoteAll bool) error {
	quote := make([]bool, len(fields))
	for i := range quote {
		quote[i] = quoteAll
	}
	return q.writeFields(fields, quote)
}

func (q *quotingWriter) writeFields(fields []string, quote []bool) error {
	if q.err != nil {
		return q.err
	}
	buf := make([]byte, 0, 64)
	for i, f := range fields {
		if i > 0 {
			buf = append(buf, ',')
		}
		if quote[i] {
			buf = append(buf, '"')
			for j := 0; j < len(f); j++ {
				if f[j] == '"' {
					buf = append(buf, '"')
				}
				buf = append(buf, f[j])
			}
			buf = append(buf, '"')
		} else {
			buf = append(buf, f...)
		}
	}
	buf = append(buf, '\n')
	_, q.err = q.w.Write(buf)
	return q.err
}
