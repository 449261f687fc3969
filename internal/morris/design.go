package morris

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/sensim/internal/table"
)

// GenerateDesign asks eng for a design and converts its rows, in order,
// into combinations named Simulation1..N.
func GenerateDesign(ctx context.Context, eng Engine, params []Parameter, numPaths int) (*Design, error) {
	const op = "generate design"
	matrix, err := eng.GenerateDesign(ctx, params, numPaths)
	if err != nil {
		var ee *EngineError
		if errors.As(err, &ee) {
			return nil, err
		}
		return nil, NewEngineError(op, err)
	}
	if matrix == nil || matrix.Len() == 0 {
		return nil, NewEngineError(op, errors.New("engine returned an empty design"))
	}
	return buildDesign(op, params, numPaths, matrix)
}

// DesignFromMatrix rebuilds a design from a stored matrix without calling
// an engine. The matrix must have exactly one column per parameter.
func DesignFromMatrix(params []Parameter, numPaths int, matrix *table.Table) (*Design, error) {
	const op = "load design"
	if matrix == nil || matrix.Len() == 0 {
		return nil, NewEngineError(op, errors.New("empty design"))
	}
	known := make(map[string]bool, len(params))
	for _, p := range params {
		known[p.Name] = true
	}
	for _, col := range matrix.Columns() {
		if !known[col] {
			return nil, NewEngineError(op, fmt.Errorf("design column %q is not a parameter of the experiment", col))
		}
	}
	return buildDesign(op, params, numPaths, matrix)
}

func buildDesign(op string, params []Parameter, numPaths int, matrix *table.Table) (*Design, error) {
	for _, p := range params {
		if !matrix.HasColumn(p.Name) {
			return nil, NewEngineError(op, fmt.Errorf("design has no column for parameter %q", p.Name))
		}
	}

	d := &Design{
		Parameters:   params,
		NumPaths:     numPaths,
		Matrix:       matrix,
		Combinations: make([]Combination, 0, matrix.Len()),
		Names:        make([]string, 0, matrix.Len()),
	}
	for r := 0; r < matrix.Len(); r++ {
		combo := make(Combination, 0, len(params))
		for _, p := range params {
			v, ok := matrix.Float(r, p.Name)
			if !ok {
				return nil, NewEngineError(op,
					fmt.Errorf("row %d: value %v for %q is not numeric", r+1, matrix.Get(r, p.Name), p.Name))
			}
			combo = append(combo, FactorValue{Name: p.Name, Path: p.Path, Value: v})
		}
		d.Combinations = append(d.Combinations, combo)
		d.Names = append(d.Names, SimulationName(r+1))
	}
	return d, nil
}
