// Package optim drives a [mdo.Problem] to a constrained local optimum.
//
// The [Driver] owns the outer loop: scaling of design variables to the unit
// box, finite-difference sensitivities, an L1 merit line search, convergence
// tests and cancellation. The local model that proposes each step is a
// [Strategy]; the default is [SQP], a sequential quadratic programming
// method with a damped BFGS Hessian.
//
// [GridSearch] evaluates a full-factorial grid over the design bounds and
// is used to seed the driver with a good starting point.
//
// Convergence failure is reported through [Result], never as an error.
// Errors are returned only for structural problems, physically invalid
// inputs and cancellation.
package optim
