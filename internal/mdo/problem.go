package mdo

import (
	"fmt"
	"sync"
)

// Problem binds a model, its design specification and a namespace seeded
// with presets. Evaluate is safe for concurrent use; passes are serialized.
type Problem struct {
	model  *Model
	design *DesignSpec
	graph  *Graph
	engine *Engine

	mu     sync.Mutex
	ns     *Namespace
	passes int
}

// NewProblem builds and validates the graph and seeds the namespace with
// presets and adopted input defaults. The problem keeps its own copy of d,
// so later edits to d do not affect it.
func NewProblem(m *Model, d *DesignSpec, opts ...EngineOption) (*Problem, error) {
	d = d.Clone()
	g, err := m.Build(d.Names()...)
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	if err := d.Validate(g); err != nil {
		return nil, fmt.Errorf("validate design: %w", err)
	}

	ns := NewNamespace()
	for k, v := range g.Defaults() {
		ns.Set(k, v)
	}
	for k, v := range m.Presets() {
		ns.Set(k, v)
	}
	return &Problem{
		model:  m,
		design: d,
		graph:  g,
		engine: NewEngine(g, opts...),
		ns:     ns,
	}, nil
}

// Design returns a copy of the validated design specification.
func (p *Problem) Design() *DesignSpec { return p.design.Clone() }
func (p *Problem) Graph() *Graph { return p.graph }
func (p *Problem) Engine() *Engine { return p.engine }

// Evaluate writes x into the design keys, runs one pass and returns the
// objective and constraints. On failure the namespace is left unchanged.
func (p *Problem) Evaluate(x []float64) (Evaluation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	scratch, err := p.withDesign(x)
	if err != nil {
		return Evaluation{}, err
	}
	p.passes++
	if err := p.engine.Run(scratch); err != nil {
		return Evaluation{}, err
	}
	ev, err := p.design.Evaluate(scratch)
	if err != nil {
		return Evaluation{}, err
	}
	p.ns.replace(scratch)
	return ev, nil
}

// SetDesignVector writes x into the design keys without running a pass.
func (p *Problem) SetDesignVector(x []float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	scratch, err := p.withDesign(x)
	if err != nil {
		return err
	}
	p.ns.replace(scratch)
	return nil
}

// Run performs one pass at the current namespace values.
func (p *Problem) Run() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.passes++
	return p.engine.Run(p.ns)
}

// Snapshot returns a copy of the namespace after the last successful pass.
func (p *Problem) Snapshot() map[string]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ns.Snapshot()
}

// Namespace returns a copy of the current namespace.
func (p *Problem) Namespace() *Namespace {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ns.Clone()
}

// Passes returns the number of passes attempted so far.
func (p *Problem) Passes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.passes
}

func (p *Problem) withDesign(x []float64) (*Namespace, error) {
	vars := p.design.vars
	if len(x) != len(vars) {
		return nil, fmt.Errorf("%w: design vector has %d values, want %d", ErrInvalidModel, len(x), len(vars))
	}
	scratch := p.ns.Clone()
	for i, v := range vars {
		scratch.Set(v.Name, x[i])
	}
	return scratch, nil
}
