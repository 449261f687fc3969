package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/sensim/internal/table"
)

type ExportData struct {
	Name    string           `json:"name"`
	RunID   string           `json:"run_id,omitempty"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// ExportJSON writes t as indented JSON. Missing and non-finite values are
// written as null.
func ExportJSON(w io.Writer, t *table.Table, runID string) error {
	data := ExportData{
		Name:    t.Name,
		RunID:   runID,
		Columns: t.Columns(),
		Rows:    make([]map[string]any, t.Len()),
	}
	for r := range data.Rows {
		row := t.Row(r)
		for col, v := range row {
			if f, ok := v.(float64); ok && !finite(f) {
				row[col] = nil
			}
		}
		data.Rows[r] = row
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportFile writes t to path as CSV or JSON, chosen by the extension.
func ExportFile(path string, t *table.Table, runID string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return table.WriteCSVFile(path, t)
	case ".json":
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := ExportJSON(file, t, runID); err != nil {
			file.Close()
			return err
		}
		return file.Close()
	}
	return fmt.Errorf("unsupported export format %q (want .csv or .json)", filepath.Ext(path))
}

func finite(f float64) bool {
	return f-f == 0
}
