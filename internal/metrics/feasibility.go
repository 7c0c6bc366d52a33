package metrics

import "github.com/san-kum/factorytwin/internal/optim"

// Feasibility is the fraction of iterations whose worst constraint
// violation is within threshold.
type Feasibility struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewFeasibility(threshold float64) *Feasibility {
	return &Feasibility{
		name:      "feasibility",
		threshold: threshold,
	}
}

func (f *Feasibility) Name() string {
	return f.name
}

func (f *Feasibility) Observe(it optim.Iteration) {
	f.samples++
	if it.MaxViolation > f.threshold {
		f.violations++
	}
}

func (f *Feasibility) Value() float64 {
	if f.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(f.violations)/float64(f.samples)
}

func (f *Feasibility) Reset() {
	f.violations = 0
	f.samples = 0
}
