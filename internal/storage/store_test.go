package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/san-kum/sensim/internal/table"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	st, err := OpenDir(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func rows(t *table.Table) []map[string]any {
	out := make([]map[string]any, t.Len())
	for r := range out {
		out[r] = t.Row(r)
	}
	return out
}

func TestWriteAndGet(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	in := table.New("Report", "SimulationName", "Year", "energy")
	in.AddRow("Simulation1", 2000, 1.5)
	in.AddRow("Simulation2", 2000, 2.0)
	in.AddRow("Simulation3", 2001, nil)

	if err := st.WriteTable(ctx, in); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	out, err := st.GetData(ctx, "Report")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if diff := cmp.Diff(in.Columns(), out.Columns()); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(rows(in), rows(out)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteAppendsAndWidens(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	first := table.New("T", "a")
	first.AddRow(1.0)
	second := table.New("T", "a", "b")
	second.AddRow(2.0, "x")

	for _, tbl := range []*table.Table{first, second} {
		if err := st.WriteTable(ctx, tbl); err != nil {
			t.Fatal(err)
		}
	}

	out, err := st.GetData(ctx, "T")
	if err != nil {
		t.Fatal(err)
	}
	want := []map[string]any{
		{"a": 1.0, "b": nil},
		{"a": 2.0, "b": "x"},
	}
	if diff := cmp.Diff(want, rows(out)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteThenWriteReplaces(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	tbl := table.New("MuStar", "Param", "mu")
	tbl.AddRow("P1", 0.5)

	for i := 0; i < 2; i++ {
		if err := st.DeleteDataInTable(ctx, tbl.Name); err != nil {
			t.Fatal(err)
		}
		if err := st.WriteTable(ctx, tbl); err != nil {
			t.Fatal(err)
		}
	}

	out, _ := st.GetData(ctx, "MuStar")
	if out.Len() != 1 {
		t.Errorf("expected 1 row after replace, got %d", out.Len())
	}

	if err := st.ReplaceTable(ctx, tbl); err != nil {
		t.Fatal(err)
	}
	out, _ = st.GetData(ctx, "MuStar")
	if out.Len() != 1 {
		t.Errorf("expected 1 row after ReplaceTable, got %d", out.Len())
	}
}

func TestReplaceTablesIsAtomic(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	oldEE := table.New("SensElementaryEffects", "Param", "Yield")
	oldEE.AddRow("P1", 1.0)
	oldMu := table.New("SensMuStar", "Param", "Yield.mustar")
	oldMu.AddRow("P1", 1.0)
	if err := st.ReplaceTables(ctx, oldEE, oldMu); err != nil {
		t.Fatal(err)
	}

	newEE := table.New("SensElementaryEffects", "Param", "Yield")
	newEE.AddRow("P1", 2.0)
	newEE.AddRow("P2", 3.0)
	badMu := table.New("SensMuStar", "Param", "Yield.mustar")
	badMu.AddRow("P1", 2.0)
	badMu.Set(0, "Yield.mustar", struct{}{})

	if err := st.ReplaceTables(ctx, newEE, badMu); err == nil {
		t.Fatal("expected unsupported cell error")
	}

	for _, want := range []*table.Table{oldEE, oldMu} {
		got, err := st.GetData(ctx, want.Name)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(rows(want), rows(got)); diff != "" {
			t.Errorf("%s changed by failed replace (-want +got):\n%s", want.Name, diff)
		}
	}

	if err := st.ReplaceTables(ctx, newEE); err != nil {
		t.Fatal(err)
	}
	got, _ := st.GetData(ctx, newEE.Name)
	if diff := cmp.Diff(rows(newEE), rows(got)); diff != "" {
		t.Errorf("replace mismatch (-want +got):\n%s", diff)
	}
}

func TestNonFiniteStoredAsMissing(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	tbl := table.New("S", "sigma", "mu")
	tbl.AddRow(math.NaN(), math.Inf(1))
	if err := st.WriteTable(ctx, tbl); err != nil {
		t.Fatal(err)
	}

	out, _ := st.GetData(ctx, "S")
	if out.Get(0, "sigma") != nil || out.Get(0, "mu") != nil {
		t.Errorf("expected missing values, got %v", out.Row(0))
	}
}

func TestIntegersAndFloatsKeepTheirType(t *testing.T) {
	row := map[string]any{"Year": 2000, "mu": 2.0, "big": 1e21, "name": "P1"}
	raw, err := encodeCells(row)
	if err != nil {
		t.Fatal(err)
	}
	back, err := decodeCells(raw)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(row, back); diff != "" {
		t.Errorf("cells mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownTableIsEmpty(t *testing.T) {
	st := openTest(t)

	out, err := st.GetData(context.Background(), "Nope")
	if err != nil {
		t.Fatal(err)
	}
	if out.Name != "Nope" || out.Len() != 0 {
		t.Errorf("expected empty table Nope, got %s with %d rows", out.Name, out.Len())
	}
	if err := st.DeleteDataInTable(context.Background(), "Nope"); err != nil {
		t.Errorf("deleting an unknown table failed: %v", err)
	}
}

func TestTablesListing(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	for _, name := range []string{"b", "a"} {
		tbl := table.New(name, "x")
		tbl.AddRow(1)
		tbl.AddRow(2)
		if err := st.WriteTable(ctx, tbl); err != nil {
			t.Fatal(err)
		}
	}

	names, err := st.TableNames(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	infos, err := st.Tables(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if infos[0].Rows != 2 || infos[0].RunID != st.RunID() {
		t.Errorf("unexpected info %+v", infos[0])
	}
	if _, err := uuid.Parse(infos[0].RunID); err != nil {
		t.Errorf("run id is not a uuid: %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	st, err := OpenDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	tbl := table.New("T", "x")
	tbl.AddRow(3.5)
	if err := st.WriteTable(ctx, tbl); err != nil {
		t.Fatal(err)
	}
	st.Close()

	if _, err := os.Stat(filepath.Join(dir, DBFile)); err != nil {
		t.Fatalf("database file missing: %v", err)
	}

	st, err = OpenDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	out, _ := st.GetData(ctx, "T")
	if v, _ := out.Float(0, "x"); v != 3.5 {
		t.Errorf("expected 3.5 after reopen, got %v", v)
	}
}

func TestExportJSON(t *testing.T) {
	tbl := table.New("MuStar", "Param", "sigma")
	tbl.AddRow("P1", math.NaN())

	var buf bytes.Buffer
	if err := ExportJSON(&buf, tbl, "run-1"); err != nil {
		t.Fatal(err)
	}
	var got ExportData
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	want := ExportData{
		Name:    "MuStar",
		RunID:   "run-1",
		Columns: []string{"Param", "sigma"},
		Rows:    []map[string]any{{"Param": "P1", "sigma": nil}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("export mismatch (-want +got):\n%s", diff)
	}

	if err := ExportFile(filepath.Join(t.TempDir(), "out.xlsx"), tbl, ""); err == nil {
		t.Error("expected unsupported format error")
	}
}
