package dynamo

import (
	"context"
	"fmt"
	"math"
)

type Simulator struct {
	dyn        System
	integrator Integrator
	metrics    []Metric
}

func New(dyn System, integrator Integrator) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
	}
}

func (s *Simulator) AddMetric(m Metric) { s.metrics = append(s.metrics, m) }

// Run integrates x0 over one window. Metrics are reset first and observe
// every state including the last one.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validate(x0, cfg); err != nil {
		return nil, err
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	u := make(Control, s.dyn.ControlDim())
	x := x0.Clone()
	t := cfg.Start
	end := cfg.Start + cfg.Duration
	dt := cfg.Dt
	result := &Result{Metrics: make(map[string]float64)}

	for step := 0; end-t > 1e-12; step++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		s.observe(x, u, t)

		h := math.Min(dt, end-t)
		var next State
		if cfg.Adaptive {
			var err error
			next, h, dt, err = s.adaptiveStep(x, u, t, h, cfg)
			if err != nil {
				return nil, &SimulationError{Step: step, Time: t, State: x, Wrapped: err}
			}
		} else {
			next = s.integrator.Step(s.dyn, x, u, t, h)
		}

		if cfg.ValidateState && !next.IsValid() {
			return nil, &SimulationError{Step: step, Time: t, State: x, Wrapped: ErrInvalidState}
		}

		x = next
		t += h
	}
	s.observe(x, u, t)

	result.Final = x
	result.End = t
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

func (s *Simulator) observe(x State, u Control, t float64) {
	for _, m := range s.metrics {
		m.Observe(x, u, t)
	}
}

func (s *Simulator) validate(x0 State, cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidConfig, cfg.Duration)
	}
	if cfg.Adaptive && cfg.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance must be positive for adaptive stepping", ErrInvalidConfig)
	}
	if len(x0) != s.dyn.StateDim() {
		return fmt.Errorf("%w: state has %d values, system needs %d", ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}
	return nil
}

// adaptiveStep takes one accepted step of at most dt. It returns the new
// state, the step actually taken and the step size to try next. Without an
// embedded error estimate it compares one full step against two half
// steps.
func (s *Simulator) adaptiveStep(x State, u Control, t, dt float64, cfg Config) (State, float64, float64, error) {
	if adaptive, ok := s.integrator.(AdaptiveIntegrator); ok {
		next, suggested, err := adaptive.StepAdaptive(s.dyn, x, u, t, dt, cfg.Tolerance)
		if err != nil {
			return nil, 0, 0, err
		}
		return next, dt, clamp(suggested, cfg.MinDt, cfg.MaxDt), nil
	}

	for {
		x1 := s.integrator.Step(s.dyn, x, u, t, dt)
		xHalf := s.integrator.Step(s.dyn, x, u, t, dt/2)
		x2 := s.integrator.Step(s.dyn, xHalf, u, t+dt/2, dt/2)

		errEst := x1.Distance(x2)
		if errEst > cfg.Tolerance && dt/2 >= cfg.MinDt {
			dt /= 2
			continue
		}
		next := dt
		if errEst < cfg.Tolerance/10 {
			next = dt * 2
		}
		return x2, dt, clamp(next, cfg.MinDt, cfg.MaxDt), nil
	}
}

func clamp(v, lo, hi float64) float64 {
	if lo > 0 && v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}
