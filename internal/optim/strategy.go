package optim

import "gonum.org/v1/gonum/mat"

// Point is an accepted iterate in scaled coordinates. Constraints are in
// the form C[i] >= 0, or C[i] == 0 where Equality[i] is set.
type Point struct {
	Z        []float64
	Lower    []float64
	Upper    []float64
	F        float64
	Grad     []float64
	C        []float64
	Jac      *mat.Dense
	Equality []bool
}

// Proposal is a search direction with the constraint multipliers of the
// local model.
type Proposal struct {
	Step        []float64
	Multipliers []float64
}

// Strategy is the local model behind the driver. Implementations keep their
// own curvature state between Propose and Accept.
type Strategy interface {
	Name() string
	Propose(p *Point) (*Proposal, error)
	// Accept is called after the line search moved from prev to next.
	Accept(prev, next *Point, prop *Proposal)
	// Reset discards accumulated curvature.
	Reset()
}
