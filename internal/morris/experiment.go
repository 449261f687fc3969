package morris

import (
	"fmt"
	"strconv"

	"github.com/san-kum/sensim/internal/table"
)

const DefaultNumPaths = 200

// Experiment is the persisted state of one Morris analysis.
type Experiment struct {
	Name       string      `yaml:"name"`
	Base       string      `yaml:"base"`
	NumPaths   int         `yaml:"num_paths"`
	Parameters []Parameter `yaml:"parameters"`
	Years      []int       `yaml:"years,omitempty"`
}

func NewExperiment(name, base string) *Experiment {
	return &Experiment{Name: name, Base: base, NumPaths: DefaultNumPaths}
}

func (e *Experiment) ElementaryEffectsTable() string { return e.Name + "ElementaryEffects" }
func (e *Experiment) MuStarTable() string            { return e.Name + "MuStar" }
func (e *Experiment) DesignTable() string            { return e.Name + "Design" }

func (e *Experiment) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("%w: experiment has no name", ErrConfiguration)
	}
	if e.NumPaths < 1 {
		return fmt.Errorf("%w: num_paths must be at least 1, got %d", ErrConfiguration, e.NumPaths)
	}
	if len(e.Parameters) == 0 {
		return fmt.Errorf("%w: no parameters", ErrConfiguration)
	}
	seen := make(map[string]bool, len(e.Parameters))
	for _, p := range e.Parameters {
		if p.Name == "" || p.Path == "" {
			return fmt.Errorf("%w: parameter needs both name and path (%q, %q)", ErrConfiguration, p.Name, p.Path)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: duplicate parameter %q", ErrConfiguration, p.Name)
		}
		seen[p.Name] = true
		if p.LowerBound >= p.UpperBound {
			return fmt.Errorf("%w: parameter %q: lower bound %g not below upper bound %g",
				ErrConfiguration, p.Name, p.LowerBound, p.UpperBound)
		}
	}
	return nil
}

// Tables renders the editable surface as a constant table holding the
// number of paths and a parameter table.
func (e *Experiment) Tables() []*table.Table {
	constant := table.New("Constants", "Property", "Value")
	constant.AddRow("Number of paths:", e.NumPaths)

	params := table.New("Parameters", "Name", "Path", "LowerBound", "UpperBound")
	for _, p := range e.Parameters {
		params.AddRow(p.Name, p.Path, p.LowerBound, p.UpperBound)
	}
	return []*table.Table{constant, params}
}

// SetTables is the inverse of Tables. Parameter rows with neither name nor
// path are skipped.
func (e *Experiment) SetTables(tables []*table.Table) error {
	if len(tables) < 2 || tables[0].Len() == 0 {
		return fmt.Errorf("%w: expected constant and parameter tables", ErrConfiguration)
	}
	n, ok := table.AsInt(tables[0].Get(0, "Value"))
	if !ok {
		return fmt.Errorf("%w: number of paths %v is not an integer", ErrConfiguration, tables[0].Get(0, "Value"))
	}
	e.NumPaths = n

	e.Parameters = e.Parameters[:0]
	pt := tables[1]
	for r := 0; r < pt.Len(); r++ {
		var p Parameter
		if v := pt.Get(r, "Name"); v != nil {
			p.Name = table.AsString(v)
		}
		if v := pt.Get(r, "Path"); v != nil {
			p.Path = table.AsString(v)
		}
		if v, ok := pt.Float(r, "LowerBound"); ok {
			p.LowerBound = v
		}
		if v, ok := pt.Float(r, "UpperBound"); ok {
			p.UpperBound = v
		}
		if p.Name != "" || p.Path != "" {
			e.Parameters = append(e.Parameters, p)
		}
	}
	return nil
}

// FactorGroup is a named grouping of report rows, e.g. one parameter in
// one year.
type FactorGroup struct {
	Kind    string
	Name    string
	Columns []string
	Values  []string
}

// Factors lists the groupings reports can split results by: each
// parameter in each year, each year, and each parameter.
func (e *Experiment) Factors() []FactorGroup {
	var out []FactorGroup
	for _, p := range e.Parameters {
		for _, y := range e.Years {
			year := strconv.Itoa(y)
			out = append(out,
				FactorGroup{Kind: "ParameterxYear", Name: p.Name + year, Columns: []string{"Param", "Year"}, Values: []string{p.Name, year}},
				FactorGroup{Kind: "Year", Name: year, Columns: []string{"Year"}, Values: []string{year}},
			)
		}
		out = append(out, FactorGroup{Kind: "Parameter", Name: p.Name, Columns: []string{"Param"}, Values: []string{p.Name}})
	}
	return out
}
