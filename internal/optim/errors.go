package optim

import "errors"

var (
	// ErrDimensionMismatch indicates a design vector of the wrong length.
	ErrDimensionMismatch = errors.New("optim: design vector length mismatch")

	// ErrInvalidOptions indicates non-positive or inconsistent solver settings.
	ErrInvalidOptions = errors.New("optim: invalid options")

	// ErrQPFailed indicates the quadratic subproblem could not be set up.
	ErrQPFailed = errors.New("optim: quadratic subproblem failed")

	// ErrEmptyGrid indicates no grid point could be evaluated.
	ErrEmptyGrid = errors.New("optim: no grid point could be evaluated")
)
