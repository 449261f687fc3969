// Package morris runs Morris one-at-a-time sensitivity experiments.
//
// An experiment moves through three stages:
//
//   - [GenerateDesign]: ask an [Engine] for the design matrix and turn its
//     rows into ordered [Combination]s
//   - [Dispenser]: hand out one parameterised simulation per combination,
//     each exactly once and in design order
//   - [Analyzer]: turn the collected simulation outputs into elementary
//     effects and mu/mu*/sigma summaries keyed by parameter and year
//
// # Example
//
//	d := morris.NewDispenser(exp, container, eng)
//	if err := d.Initialise(ctx); err != nil {
//	    return err
//	}
//	for sim := d.NextSimulationToRun(); sim != nil; sim = d.NextSimulationToRun() {
//	    run(sim)
//	}
//	res, err := (&morris.Analyzer{Engine: eng, Store: st}).Run(ctx, exp, d.Design().Matrix)
//
// # Thread Safety
//
// [Dispenser.NextSimulationToRun] may be called from many goroutines.
// Everything else is meant to be driven from a single goroutine.
package morris
