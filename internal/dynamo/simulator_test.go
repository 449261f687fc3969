package dynamo

import (
	"context"
	"errors"
	"math"
	"testing"
)

type decay struct{ rate float64 }

func (d *decay) Derive(x State, u Control, t float64) State { return State{-d.rate * x[0]} }
func (d *decay) StateDim() int                              { return 1 }
func (d *decay) ControlDim() int                            { return 0 }

type euler struct{}

func (euler) Step(dyn System, x State, u Control, t, dt float64) State {
	dx := dyn.Derive(x, u, t)
	return State{x[0] + dt*dx[0]}
}

type counter struct{ n int }

func (c *counter) Name() string                        { return "count" }
func (c *counter) Observe(x State, u Control, t float64) { c.n++ }
func (c *counter) Value() float64                      { return float64(c.n) }
func (c *counter) Reset()                              { c.n = 0 }

func TestSimulatorRun(t *testing.T) {
	s := New(&decay{rate: 1}, euler{})
	s.AddMetric(&counter{})

	res, err := s.Run(context.Background(), State{1.0}, Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	// ten steps observe eleven states
	if res.Metrics["count"] != 11 {
		t.Errorf("expected 11 observations, got %v", res.Metrics["count"])
	}
	if math.Abs(res.End-1.0) > 1e-12 {
		t.Errorf("expected window to end at 1.0, got %v", res.End)
	}
	if math.Abs(res.Final[0]-math.Exp(-1)) > 0.2 {
		t.Errorf("expected final state ~%.4f, got %.4f", math.Exp(-1), res.Final[0])
	}
}

func TestSimulatorWindowsChain(t *testing.T) {
	s := New(&decay{rate: 0.5}, euler{})
	ctx := context.Background()

	whole, err := s.Run(ctx, State{2}, Config{Dt: 0.3, Duration: 2})
	if err != nil {
		t.Fatal(err)
	}

	x := State{2}
	start := 0.0
	for i := 0; i < 2; i++ {
		res, err := s.Run(ctx, x, Config{Start: start, Dt: 0.3, Duration: 1})
		if err != nil {
			t.Fatal(err)
		}
		x, start = res.Final, res.End
	}
	if math.Abs(start-2) > 1e-12 {
		t.Errorf("windows should end at 2, got %v", start)
	}
	// Different step boundaries, same order of accuracy.
	if math.Abs(x[0]-whole.Final[0]) > 0.05 {
		t.Errorf("chained windows drifted: %v vs %v", x[0], whole.Final[0])
	}
}

func TestSimulatorAdaptive(t *testing.T) {
	s := New(&decay{rate: 1}, euler{})
	cfg := DefaultConfig()
	cfg.Duration = 1
	cfg.Adaptive = true
	cfg.Tolerance = 1e-4

	res, err := s.Run(context.Background(), State{1}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.End-1) > 1e-12 {
		t.Errorf("expected window to end at 1, got %v", res.End)
	}
	if math.Abs(res.Final[0]-math.Exp(-1)) > 0.01 {
		t.Errorf("adaptive result %v too far from %v", res.Final[0], math.Exp(-1))
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	s := New(&decay{rate: 1}, euler{})

	tests := []struct {
		name string
		x0   State
		cfg  Config
		want error
	}{
		{"zero dt", State{1}, Config{Dt: 0, Duration: 1.0}, ErrInvalidConfig},
		{"negative dt", State{1}, Config{Dt: -0.1, Duration: 1.0}, ErrInvalidConfig},
		{"zero duration", State{1}, Config{Dt: 0.1, Duration: 0}, ErrInvalidConfig},
		{"adaptive without tolerance", State{1}, Config{Dt: 0.1, Duration: 1, Adaptive: true}, ErrInvalidConfig},
		{"wrong state size", State{1, 2}, Config{Dt: 0.1, Duration: 1}, ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Run(context.Background(), tt.x0, tt.cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSimulatorStopsOnInvalidState(t *testing.T) {
	s := New(&decay{rate: math.Inf(-1)}, euler{})

	_, err := s.Run(context.Background(), State{1}, Config{Dt: 0.1, Duration: 1, ValidateState: true})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	var se *SimulationError
	if !errors.As(err, &se) || se.Step != 0 {
		t.Errorf("expected failure at step 0, got %v", err)
	}
}

func TestSimulatorCancel(t *testing.T) {
	s := New(&decay{rate: 1}, euler{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Run(ctx, State{1}, Config{Dt: 0.1, Duration: 1}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestStateDistance(t *testing.T) {
	a := State{1, 2, 3}
	if d := a.Distance(State{1, 2, 3}); d != 0 {
		t.Errorf("expected 0, got %v", d)
	}
	if d := (State{0, 0}).Distance(State{3, 4}); d != 5 {
		t.Errorf("expected 5, got %v", d)
	}
}
