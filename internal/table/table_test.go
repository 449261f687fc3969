package table

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestAddColumnBackfillsMissing(t *testing.T) {
	tbl := New("t", "a")
	tbl.AddRow(1.0)
	tbl.AddRow(2.0)
	tbl.Set(1, "b", "x")

	want := [][]any{{1.0, nil}, {2.0, "x"}}
	got := [][]any{tbl.Values(0), tbl.Values(1)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestIsNumeric(t *testing.T) {
	tbl := New("t", "num", "str", "empty", "mixed")
	tbl.AddRow(1.0, "a", nil, 1.0)
	tbl.AddRow(2, "b", nil, "x")
	tbl.AddRow(nil, "c", nil, 2.0)

	tests := []struct {
		col  string
		want bool
	}{
		{"num", true},
		{"str", false},
		{"empty", false},
		{"mixed", false},
		{"absent", false},
	}
	for _, tt := range tests {
		t.Run(tt.col, func(t *testing.T) {
			if got := tbl.IsNumeric(tt.col); got != tt.want {
				t.Errorf("IsNumeric(%s) = %v, want %v", tt.col, got, tt.want)
			}
		})
	}
}

func TestFloatsMarksMissingAsNaN(t *testing.T) {
	tbl := New("t", "v")
	tbl.AddRow(1.5)
	tbl.AddRow(nil)

	got := tbl.ColumnFloats("v")
	want := []float64{1.5, math.NaN()}
	if diff := cmp.Diff(want, got, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("floats mismatch (-want +got):\n%s", diff)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	tbl := New("design", "P1", "P2", "label")
	tbl.AddRow(0.25, 12.5, "first")
	tbl.AddRow(1.0, nil, `say "hi"`)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, tbl); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	wantText := "\"P1\",\"P2\",\"label\"\n0.25,12.5,\"first\"\n1,NA,\"say \"\"hi\"\"\"\n"
	if buf.String() != wantText {
		t.Errorf("unexpected csv:\n%s", buf.String())
	}

	back, err := ReadCSV(strings.NewReader(buf.String()), "design")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if diff := cmp.Diff(tbl.Columns(), back.Columns()); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	for r := 0; r < tbl.Len(); r++ {
		if diff := cmp.Diff(tbl.Row(r), back.Row(r)); diff != "" {
			t.Errorf("row %d mismatch (-want +got):\n%s", r, diff)
		}
	}
}

func TestReadCSVEmpty(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(""), "empty")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if tbl.Len() != 0 || len(tbl.Columns()) != 0 {
		t.Errorf("expected empty table, got %d rows %d columns", tbl.Len(), len(tbl.Columns()))
	}
}
