package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/san-kum/sensim/internal/morris"
	"github.com/san-kum/sensim/internal/table"
)

// stepTolerance separates a real one-at-a-time step from rounding noise in
// scaled [0, 1] units.
const stepTolerance = 1e-9

// Native computes Morris designs and effects in process.
//
// Each path is a trajectory of k+1 points on a Levels-level grid of the
// unit hypercube; consecutive points differ in exactly one factor by
// GridJump/(Levels-1). Factor order and step directions are drawn per
// path.
type Native struct {
	Levels   int
	GridJump int

	mu  sync.Mutex
	rng *rand.Rand
}

func NewNative(levels, gridJump int, seed int64) *Native {
	return &Native{
		Levels:   levels,
		GridJump: gridJump,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

func (n *Native) GenerateDesign(ctx context.Context, params []morris.Parameter, numPaths int) (*table.Table, error) {
	if err := n.validate(params, numPaths); err != nil {
		return nil, morris.NewEngineError("generate design", err)
	}

	k := len(params)
	delta := n.delta()
	maxBase := n.Levels - 1 - n.GridJump

	names := make([]string, k)
	for i, p := range params {
		names[i] = p.Name
	}
	design := table.New("Design", names...)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.rng == nil {
		n.rng = rand.New(rand.NewSource(1))
	}

	x := make([]float64, k)
	dir := make([]float64, k)
	for path := 0; path < numPaths; path++ {
		if err := ctx.Err(); err != nil {
			return nil, morris.NewEngineError("generate design", err)
		}

		for i := range x {
			base := float64(n.rng.Intn(maxBase+1)) / float64(n.Levels-1)
			if n.rng.Intn(2) == 0 {
				dir[i] = 1
				x[i] = base
			} else {
				dir[i] = -1
				x[i] = base + delta
			}
		}
		addScaledRow(design, params, x)

		for _, i := range n.rng.Perm(k) {
			x[i] += dir[i] * delta
			addScaledRow(design, params, x)
		}
	}
	return design, nil
}

func (n *Native) ComputeEffects(ctx context.Context, params []morris.Parameter, design *table.Table, responses []morris.Response) (*morris.Effects, error) {
	steps, paths, err := trajectorySteps(params, design)
	if err != nil {
		return nil, morris.NewEngineError("compute effects", err)
	}

	k := len(params)
	out := &morris.Effects{}
	byParam := make([][]float64, k)
	for _, resp := range responses {
		if err := ctx.Err(); err != nil {
			return nil, morris.NewEngineError("compute effects", err)
		}
		if len(resp.Values) != design.Len() {
			return nil, morris.NewEngineError("compute effects",
				fmt.Errorf("response %s has %d values for %d design points", resp.Key, len(resp.Values), design.Len()))
		}

		for i := range byParam {
			byParam[i] = make([]float64, paths)
		}
		for _, s := range steps {
			ee := (resp.Values[s.to] - resp.Values[s.from]) / s.delta
			byParam[s.factor][s.path-1] = ee
		}
		for path := 1; path <= paths; path++ {
			for i, p := range params {
				out.Elementary = append(out.Elementary, morris.ElementaryEffect{
					Parameter: p.Name,
					Path:      path,
					Response:  resp.Key,
					Value:     byParam[i][path-1],
				})
			}
		}
		for i, p := range params {
			mu, muStar, sigma := morris.Summarise(byParam[i])
			out.Stats = append(out.Stats, morris.Statistic{
				Parameter: p.Name,
				Response:  resp.Key,
				Mu:        mu,
				MuStar:    muStar,
				Sigma:     sigma,
			})
		}
	}
	return out, nil
}

type step struct {
	path     int
	factor   int
	from, to int
	delta    float64
}

// trajectorySteps recovers, from the design alone, which factor moved at
// each step of each path and by how much in scaled units.
func trajectorySteps(params []morris.Parameter, design *table.Table) ([]step, int, error) {
	k := len(params)
	if k == 0 {
		return nil, 0, fmt.Errorf("no parameters")
	}
	if design == nil || design.Len() == 0 || design.Len()%(k+1) != 0 {
		rows := 0
		if design != nil {
			rows = design.Len()
		}
		return nil, 0, fmt.Errorf("design has %d rows, not a multiple of %d", rows, k+1)
	}

	scaled := make([][]float64, design.Len())
	for r := range scaled {
		scaled[r] = make([]float64, k)
		for i, p := range params {
			v, ok := design.Float(r, p.Name)
			if !ok {
				return nil, 0, fmt.Errorf("design row %d has no value for %q", r+1, p.Name)
			}
			scaled[r][i] = (v - p.LowerBound) / (p.UpperBound - p.LowerBound)
		}
	}

	paths := design.Len() / (k + 1)
	steps := make([]step, 0, paths*k)
	for path := 0; path < paths; path++ {
		moved := make([]bool, k)
		for j := 0; j < k; j++ {
			from := path*(k+1) + j
			to := from + 1
			factor := -1
			for i := 0; i < k; i++ {
				if math.Abs(scaled[to][i]-scaled[from][i]) <= stepTolerance {
					continue
				}
				if factor >= 0 {
					return nil, 0, fmt.Errorf("path %d step %d changes more than one factor", path+1, j+1)
				}
				factor = i
			}
			if factor < 0 {
				return nil, 0, fmt.Errorf("path %d step %d changes no factor", path+1, j+1)
			}
			if moved[factor] {
				return nil, 0, fmt.Errorf("path %d moves %q twice", path+1, params[factor].Name)
			}
			moved[factor] = true
			steps = append(steps, step{
				path:   path + 1,
				factor: factor,
				from:   from,
				to:     to,
				delta:  scaled[to][factor] - scaled[from][factor],
			})
		}
	}
	return steps, paths, nil
}

func (n *Native) validate(params []morris.Parameter, numPaths int) error {
	if len(params) == 0 {
		return fmt.Errorf("no parameters")
	}
	if numPaths < 1 {
		return fmt.Errorf("need at least one path, got %d", numPaths)
	}
	if n.Levels < 2 {
		return fmt.Errorf("need at least 2 levels, got %d", n.Levels)
	}
	if n.GridJump < 1 || n.GridJump >= n.Levels {
		return fmt.Errorf("grid jump %d must be in [1, %d]", n.GridJump, n.Levels-1)
	}
	return nil
}

func (n *Native) delta() float64 {
	return float64(n.GridJump) / float64(n.Levels-1)
}

func addScaledRow(t *table.Table, params []morris.Parameter, x []float64) {
	row := make([]any, len(params))
	for i, p := range params {
		row[i] = p.LowerBound + x[i]*(p.UpperBound-p.LowerBound)
	}
	t.AddRow(row...)
}
