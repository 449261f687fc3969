// Package viz renders experiment results in the terminal.
//
//   - [RenderTable]: bordered grid of a stored table
//   - [PlotConvergence]: running mean of elementary effects against path
//   - [Progress]: Bubble Tea model showing simulation progress during a run
//
// Colors come from the current [Theme]; see [SetTheme].
package viz
