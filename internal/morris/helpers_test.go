package morris

import (
	"context"
	"sort"
	"sync"

	"github.com/san-kum/sensim/internal/model"
	"github.com/san-kum/sensim/internal/table"
)

// stubEngine returns a fixed design and synthesises one effect per
// (parameter, path, response) with value path*scale[parameter].
type stubEngine struct {
	design    *table.Table
	designErr error
	paths     int
	scale     map[string]float64
	drop      func(ElementaryEffect) bool
	effectErr error

	mu        sync.Mutex
	responses []Response
}

func (s *stubEngine) GenerateDesign(context.Context, []Parameter, int) (*table.Table, error) {
	return s.design, s.designErr
}

func (s *stubEngine) ComputeEffects(_ context.Context, params []Parameter, _ *table.Table, responses []Response) (*Effects, error) {
	s.mu.Lock()
	s.responses = append([]Response(nil), responses...)
	s.mu.Unlock()
	if s.effectErr != nil {
		return nil, s.effectErr
	}

	out := &Effects{}
	for _, resp := range responses {
		for _, p := range params {
			var values []float64
			for path := 1; path <= s.paths; path++ {
				e := ElementaryEffect{Parameter: p.Name, Path: path, Response: resp.Key, Value: float64(path) * s.scale[p.Name]}
				if s.drop != nil && s.drop(e) {
					continue
				}
				out.Elementary = append(out.Elementary, e)
				values = append(values, e.Value)
			}
			mu, muStar, sigma := Summarise(values)
			out.Stats = append(out.Stats, Statistic{Parameter: p.Name, Response: resp.Key, Mu: mu, MuStar: muStar, Sigma: sigma})
		}
	}
	return out, nil
}

func (s *stubEngine) seenResponses() []ResponseKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]ResponseKey, len(s.responses))
	for i, r := range s.responses {
		keys[i] = r.Key
	}
	return keys
}

// memStore keeps tables in memory. WriteTable appends like a database
// table would.
type memStore struct {
	mu     sync.Mutex
	tables map[string]*table.Table
	writes int
}

func newMemStore() *memStore { return &memStore{tables: make(map[string]*table.Table)} }

func (m *memStore) GetData(_ context.Context, name string) (*table.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tables[name]; ok {
		return t, nil
	}
	return table.New(name), nil
}

func (m *memStore) DeleteDataInTable(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables, name)
	return nil
}

func (m *memStore) WriteTable(_ context.Context, t *table.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	dst, ok := m.tables[t.Name]
	if !ok {
		dst = table.New(t.Name, t.Columns()...)
		m.tables[t.Name] = dst
	}
	for r := 0; r < t.Len(); r++ {
		dst.AppendRow(t.Row(r))
	}
	return nil
}

func (m *memStore) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for n := range m.tables {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func testContainer() *model.Container {
	sim := &model.Simulation{
		Name: "Base",
		Children: []*model.Node{
			{Name: "Clock", Kind: model.KindClock, Params: map[string]float64{"start_year": 2000, "years": 2}},
			{Name: "M", Kind: model.KindSystem, Model: "pendulum", Params: map[string]float64{"length": 1, "damping": 0.1, "mass": 1}},
			{Name: "Folder", Kind: model.KindFolder, Children: []*model.Node{
				{Name: "Report", Kind: model.KindReport, Variables: []string{"energy"}},
			}},
		},
	}
	sim.ParentAllChildren()
	c := &model.Container{FileName: "experiment.yaml"}
	c.Add(sim)
	return c
}

func twoParamExperiment(numPaths int) *Experiment {
	exp := NewExperiment("Sens", "Base")
	exp.NumPaths = numPaths
	exp.Parameters = []Parameter{
		{Name: "P1", Path: "[M].length", LowerBound: 0, UpperBound: 1},
		{Name: "P2", Path: "M.damping", LowerBound: 10, UpperBound: 20},
	}
	return exp
}

// designTable builds an n-row design whose row i is (i/n, 10+i).
func designTable(n int) *table.Table {
	t := table.New("Design", "P1", "P2")
	for i := 0; i < n; i++ {
		t.AddRow(float64(i)/float64(n), 10+float64(i))
	}
	return t
}
