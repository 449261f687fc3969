// Package dynamo provides the numerical core the runner drives: states,
// systems, integrators, metrics and a window-at-a-time [Simulator].
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Model]: a System whose parameters can be set by name
//   - [Integrator]: numerical stepping scheme
//   - [Metric]: reduces one window of states to a number
//
// # Example
//
//	dyn := physics.NewPendulum()
//	s := dynamo.New(dyn, integrators.NewRK4())
//	s.AddMetric(metrics.NewComponent("mean", metrics.Mean, 0))
//	res, err := s.Run(ctx, dyn.DefaultState(), cfg)
//
// A window ends exactly at Start+Duration; the last step is shortened when
// Duration is not a multiple of Dt, so consecutive windows chain without
// drift.
//
// # Thread Safety
//
// Simulator instances and the integrators they hold are NOT thread-safe.
// Build one per goroutine.
package dynamo
