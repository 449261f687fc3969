package morris

import (
	"context"
	"fmt"
	"strconv"

	"github.com/san-kum/sensim/internal/model"
	"github.com/san-kum/sensim/internal/table"
)

// Parameter is one tunable model input and its sampling range.
type Parameter struct {
	Name       string  `yaml:"name"`
	Path       string  `yaml:"path"`
	LowerBound float64 `yaml:"lower_bound"`
	UpperBound float64 `yaml:"upper_bound"`
}

// FactorValue binds a parameter to one sampled value.
type FactorValue struct {
	Name  string
	Path  string
	Value float64
}

func (f FactorValue) Apply(sim *model.Simulation) error {
	return sim.Set(f.Path, f.Value)
}

// FormattedValue is the value as handed to report nodes.
func (f FactorValue) FormattedValue() string {
	return strconv.FormatFloat(f.Value, 'g', -1, 64)
}

// Combination is one design point: a value for every parameter, in
// parameter order.
type Combination []FactorValue

// Design is the ordered set of combinations for one run. Matrix holds the
// engine's table; row i of Matrix is Combinations[i] and is simulated as
// Names[i].
type Design struct {
	Parameters   []Parameter
	NumPaths     int
	Matrix       *table.Table
	Combinations []Combination
	Names        []string
}

// SimulationName is the name given to the k-th dispensed simulation,
// counting from 1.
func SimulationName(k int) string {
	return "Simulation" + strconv.Itoa(k)
}

// SimulationIndex parses a name produced by SimulationName.
func SimulationIndex(name string) (int, bool) {
	const prefix = "Simulation"
	if len(name) <= len(prefix) || name[:len(prefix)] != prefix {
		return 0, false
	}
	k, err := strconv.Atoi(name[len(prefix):])
	if err != nil || k < 1 {
		return 0, false
	}
	return k, true
}

// ResponseKey identifies one analysed response: a report variable in one
// year.
type ResponseKey struct {
	Variable string
	Year     int
}

// ColumnName is the "<variable><year>" form used in engine files.
func (k ResponseKey) ColumnName() string {
	return fmt.Sprintf("%s%04d", k.Variable, k.Year)
}

func (k ResponseKey) String() string { return k.ColumnName() }

// ParseResponseColumn decodes a column name written by ColumnName: the
// trailing four characters are the year.
func ParseResponseColumn(name string) (ResponseKey, error) {
	if len(name) < 5 {
		return ResponseKey{}, fmt.Errorf("response column %q too short", name)
	}
	year, err := strconv.Atoi(name[len(name)-4:])
	if err != nil {
		return ResponseKey{}, fmt.Errorf("response column %q has no year suffix", name)
	}
	return ResponseKey{Variable: name[:len(name)-4], Year: year}, nil
}

// Response is one column of the response matrix: Values[i] belongs to
// design point i.
type Response struct {
	Key    ResponseKey
	Values []float64
}

// ElementaryEffect is one parameter's effect on one response along one
// path. Paths count from 1.
type ElementaryEffect struct {
	Parameter string
	Path      int
	Response  ResponseKey
	Value     float64
}

// Statistic summarises a parameter's elementary effects on one response.
type Statistic struct {
	Parameter string
	Response  ResponseKey
	Mu        float64
	MuStar    float64
	Sigma     float64
}

type Effects struct {
	Elementary []ElementaryEffect
	Stats      []Statistic
}

// Engine computes Morris designs and effects. Implementations may run in
// process or drive an external statistics program.
type Engine interface {
	// GenerateDesign returns one row per design point and one column per
	// parameter name, values in parameter units.
	GenerateDesign(ctx context.Context, params []Parameter, numPaths int) (*table.Table, error)

	// ComputeEffects evaluates every response against design.
	ComputeEffects(ctx context.Context, params []Parameter, design *table.Table, responses []Response) (*Effects, error)
}

// Store is the result store the analyzer reads from and writes to.
type Store interface {
	GetData(ctx context.Context, name string) (*table.Table, error)
	TableWriter
}

type TableWriter interface {
	DeleteDataInTable(ctx context.Context, name string) error
	WriteTable(ctx context.Context, t *table.Table) error
}

// TableReplacer is implemented by stores that can swap several tables at
// once, leaving all of them unchanged on failure.
type TableReplacer interface {
	ReplaceTables(ctx context.Context, tables ...*table.Table) error
}

// ReplaceTables replaces each table in st, in one step when st is a
// TableReplacer and by delete then write otherwise.
func ReplaceTables(ctx context.Context, st TableWriter, tables ...*table.Table) error {
	if r, ok := st.(TableReplacer); ok {
		return r.ReplaceTables(ctx, tables...)
	}
	for _, t := range tables {
		if err := st.DeleteDataInTable(ctx, t.Name); err != nil {
			return fmt.Errorf("clear %s: %w", t.Name, err)
		}
		if err := st.WriteTable(ctx, t); err != nil {
			return fmt.Errorf("write %s: %w", t.Name, err)
		}
	}
	return nil
}
