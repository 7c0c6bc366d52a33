package metrics

import "github.com/san-kum/factorytwin/internal/optim"

// StepLength is the mean line-search step length of accepted iterations.
type StepLength struct {
	name    string
	sum     float64
	samples int
}

func NewStepLength() *StepLength {
	return &StepLength{name: "mean_step_length"}
}

func (s *StepLength) Name() string {
	return s.name
}

func (s *StepLength) Observe(it optim.Iteration) {
	if !it.Accepted || it.StepLength == 0 {
		return
	}
	s.sum += it.StepLength
	s.samples++
}

func (s *StepLength) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return s.sum / float64(s.samples)
}

func (s *StepLength) Reset() {
	s.sum = 0
	s.samples = 0
}

// Acceptance is the fraction of iterations whose line search succeeded.
type Acceptance struct {
	name     string
	accepted int
	samples  int
}

func NewAcceptance() *Acceptance {
	return &Acceptance{name: "acceptance_rate"}
}

func (a *Acceptance) Name() string {
	return a.name
}

func (a *Acceptance) Observe(it optim.Iteration) {
	a.samples++
	if it.Accepted {
		a.accepted++
	}
}

func (a *Acceptance) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return float64(a.accepted) / float64(a.samples)
}

func (a *Acceptance) Reset() {
	a.accepted = 0
	a.samples = 0
}

// Passes reports the number of graph passes seen at the last iteration.
type Passes struct {
	name string
	last int
}

func NewPasses() *Passes {
	return &Passes{name: "passes"}
}

func (p *Passes) Name() string {
	return p.name
}

func (p *Passes) Observe(it optim.Iteration) {
	p.last = it.Passes
}

func (p *Passes) Value() float64 {
	return float64(p.last)
}

func (p *Passes) Reset() {
	p.last = 0
}
