// Package viz renders solve results in the terminal.
//
//   - [Report]: styled summary of a finished solve, including the EROI gate
//   - [ConvergencePlot]: objective and violation history as ASCII charts
//   - [GraphReport]: execution order, levels and producers of a model
//   - [LiveModel]: Bubble Tea view fed by driver iterations while a solve runs
//
// # Key Bindings (live view)
//
//	Q / Ctrl+C - Cancel the solve and quit
//	P          - Toggle the convergence plot
package viz
