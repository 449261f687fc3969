package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/sensim/internal/dynamo"
)

func TestPendulumEquilibrium(t *testing.T) {
	p := NewPendulum()
	p.Damping = 0

	dx := p.Derive(dynamo.State{0, 0}, dynamo.Control{0}, 0)

	if math.Abs(dx[0]) > 1e-10 || math.Abs(dx[1]) > 1e-10 {
		t.Errorf("expected rest at equilibrium, got %v", dx)
	}
}

func TestPendulumGravity(t *testing.T) {
	p := NewPendulum()
	p.Damping = 0

	dx := p.Derive(dynamo.State{math.Pi / 2, 0}, nil, 0)

	expected := -p.Gravity / p.Length
	if math.Abs(dx[1]-expected) > 1e-6 {
		t.Errorf("expected acceleration %f, got %f", expected, dx[1])
	}
}

func TestPendulumDriveBalancesGravity(t *testing.T) {
	p := NewPendulum()
	p.Damping = 0
	p.Drive = p.Mass * p.Gravity * p.Length

	dx := p.Derive(dynamo.State{math.Pi / 2, 0}, nil, 0)
	if math.Abs(dx[1]) > 1e-10 {
		t.Errorf("expected drive to hold the pendulum level, got %f", dx[1])
	}
}

func TestModelsRoundTripParams(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			m, err := New(name)
			if err != nil {
				t.Fatal(err)
			}
			if len(m.DefaultState()) != m.StateDim() {
				t.Errorf("default state has %d values, want %d", len(m.DefaultState()), m.StateDim())
			}
			for p, v := range m.GetParams() {
				if err := m.SetParam(p, v+1); err != nil {
					t.Fatalf("set %s: %v", p, err)
				}
				if got := m.GetParams()[p]; got != v+1 {
					t.Errorf("%s: got %v, want %v", p, got, v+1)
				}
			}
			err = m.SetParam("no_such_param", 1)
			if !errors.Is(err, dynamo.ErrUnknownParameter) {
				t.Errorf("expected ErrUnknownParameter, got %v", err)
			}
		})
	}
}

func TestConfigure(t *testing.T) {
	m, err := Configure("vanderpol", map[string]float64{"mu": 2.5})
	if err != nil {
		t.Fatal(err)
	}
	if m.(*VanDerPol).Mu != 2.5 {
		t.Errorf("expected mu 2.5, got %v", m.(*VanDerPol).Mu)
	}

	if _, err := Configure("pendulum", map[string]float64{"stiffness": 1}); !errors.Is(err, dynamo.ErrUnknownParameter) {
		t.Errorf("expected ErrUnknownParameter, got %v", err)
	}
	if _, err := New("cartpole"); err == nil {
		t.Error("expected unknown model error")
	}
}

func TestDoubleWellMinima(t *testing.T) {
	d := NewDoubleWell()
	for _, x := range []float64{-1, 1} {
		if e := d.Energy(dynamo.State{x, 0}); math.Abs(e) > 1e-12 {
			t.Errorf("expected zero energy at x=%v, got %v", x, e)
		}
	}
}
