package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/sensim/internal/dynamo"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) StateDim() int   { return 2 }
func (h *harmonicOscillator) ControlDim() int { return 0 }

func (h *harmonicOscillator) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

func integrate(integ dynamo.Integrator, steps int, dt float64) dynamo.State {
	dyn := &harmonicOscillator{}
	x := dynamo.State{1.0, 0.0}
	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, nil, float64(i)*dt, dt)
	}
	return x
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name string
		tol  float64
	}{
		{"euler", 1e-1},
		{"rk4", 1e-8},
		{"rk45", 1e-8},
	}

	const steps, dt = 100, 0.01
	wantX := math.Cos(steps * dt)
	wantV := -math.Sin(steps * dt)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			integ, err := New(tt.name)
			if err != nil {
				t.Fatal(err)
			}
			x := integrate(integ, steps, dt)
			if math.Abs(x[0]-wantX) > tt.tol {
				t.Errorf("position error too large: got %.8f, expected %.8f", x[0], wantX)
			}
			if math.Abs(x[1]-wantV) > tt.tol {
				t.Errorf("velocity error too large: got %.8f, expected %.8f", x[1], wantV)
			}
		})
	}
}

func TestRK45EnergyConservation(t *testing.T) {
	dyn := &harmonicOscillator{}
	x := integrate(NewRK45(), 10000, 0.01)

	drift := math.Abs(dyn.Energy(x)-0.5) / 0.5
	if drift > 1e-6 {
		t.Errorf("energy drift too large: %e", drift)
	}
}

func TestRK45SuggestsStepSize(t *testing.T) {
	dyn := &harmonicOscillator{}
	r := NewRK45()

	_, small, err := r.StepAdaptive(dyn, dynamo.State{1, 0}, nil, 0, 1.0, 1e-12)
	if err != nil {
		t.Fatal(err)
	}
	if small >= 1.0 {
		t.Errorf("expected a smaller step for a tight tolerance, got %v", small)
	}

	_, large, _ := r.StepAdaptive(dyn, dynamo.State{1, 0}, nil, 0, 1e-3, 1e-3)
	if large <= 1e-3 {
		t.Errorf("expected a larger step for a loose tolerance, got %v", large)
	}
}

func TestNewDefaultsToRK4(t *testing.T) {
	integ, err := New("")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := integ.(*RK4); !ok {
		t.Errorf("expected *RK4, got %T", integ)
	}
	if _, err := New("verlet"); err == nil {
		t.Error("expected unknown integrator error")
	}
}

func BenchmarkRK4Step(b *testing.B) {
	dyn := &harmonicOscillator{}
	integ := NewRK4()
	x := dynamo.State{1, 0}
	for i := 0; i < b.N; i++ {
		x = integ.Step(dyn, x, nil, 0, 0.01)
	}
}
