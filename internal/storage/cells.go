package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// encodeCells writes a row as a JSON object. Floats always carry a decimal
// point or exponent so they read back as floats; NaN and Inf become null.
func encodeCells(row map[string]any) (string, error) {
	out := make(map[string]json.RawMessage, len(row))
	for col, v := range row {
		raw, err := encodeCell(v)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", col, err)
		}
		out[col] = raw
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func encodeCell(v any) (json.RawMessage, error) {
	switch x := v.(type) {
	case nil:
		return json.RawMessage("null"), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return json.RawMessage("null"), nil
		}
		s := strconv.FormatFloat(x, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return json.RawMessage(s), nil
	case int:
		return json.RawMessage(strconv.Itoa(x)), nil
	case string, bool:
		return json.Marshal(x)
	}
	return nil, fmt.Errorf("unsupported cell type %T", v)
}

func decodeCells(raw string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var cells map[string]any
	if err := dec.Decode(&cells); err != nil {
		return nil, err
	}
	for col, v := range cells {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if strings.ContainsAny(n.String(), ".eE") {
			f, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", col, err)
			}
			cells[col] = f
			continue
		}
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		cells[col] = int(i)
	}
	return cells, nil
}
