package mdo

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
)

// Engine evaluates a resolved Graph against a Namespace.
type Engine struct {
	graph    *Graph
	log      logr.Logger
	parallel bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

func WithLogger(l logr.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// WithParallel evaluates the components of each dependency level
// concurrently. Results are identical to the serial pass.
func WithParallel(on bool) EngineOption {
	return func(e *Engine) { e.parallel = on }
}

func NewEngine(g *Graph, opts ...EngineOption) *Engine {
	e := &Engine{graph: g, log: logr.Discard()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Graph() *Graph { return e.graph }
func (e *Engine) Order() []string { return e.graph.Order() }
func (e *Engine) Levels() [][]string { return e.graph.Levels() }

// Run performs one pass. Every component is evaluated exactly once; ns is
// updated only if the whole pass succeeds.
func (e *Engine) Run(ns *Namespace) error {
	work := ns.Clone()
	var err error
	if e.parallel {
		err = e.runLevels(work)
	} else {
		err = e.runSerial(work)
	}
	if err != nil {
		e.log.V(2).Info("pass failed", "error", err.Error())
		return err
	}
	ns.replace(work)
	e.log.V(2).Info("pass complete", "components", e.graph.Len(), "keys", ns.Len())
	return nil
}

func (e *Engine) runSerial(work *Namespace) error {
	for _, idx := range e.graph.order {
		n := e.graph.nodes[idx]
		out, err := evaluate(n, work)
		if err != nil {
			return err
		}
		apply(n, out, work)
	}
	return nil
}

func (e *Engine) runLevels(work *Namespace) error {
	for _, level := range e.graph.levels {
		results := make([]Values, len(level))
		errs := make([]error, len(level))

		var g errgroup.Group
		for i, idx := range level {
			n := e.graph.nodes[idx]
			g.Go(func() error {
				results[i], errs[i] = evaluate(n, work)
				return errs[i]
			})
		}
		if g.Wait() != nil {
			// report the failure of the earliest declared component
			for _, err := range errs {
				if err != nil {
					return err
				}
			}
		}
		for i, idx := range level {
			apply(e.graph.nodes[idx], results[i], work)
		}
	}
	return nil
}

// evaluate reads a component's inputs, calls Compute and checks that the
// outputs match the declared ports. work is only read.
func evaluate(n *node, work *Namespace) (Values, error) {
	name := n.comp.Name()
	inputs := n.comp.Inputs()
	in := make(Values, len(inputs))
	for i, p := range inputs {
		v, err := work.Get(n.inKeys[i])
		if err != nil {
			return nil, &PassError{Component: name, Err: err}
		}
		in[p.Name] = v
	}

	out, err := n.comp.Compute(in)
	if err != nil {
		var de *DomainError
		if errors.As(err, &de) {
			if de.Component == "" {
				de.Component = name
			}
			return nil, de
		}
		return nil, &PassError{Component: name, Err: err}
	}

	outputs := n.comp.Outputs()
	for _, p := range outputs {
		v, ok := out[p.Name]
		if !ok {
			return nil, &PassError{Component: name, Err: fmt.Errorf("missing output %q", p.Name)}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, Domainf(name, "output %s is %v", p.Name, v)
		}
	}
	if len(out) != len(outputs) {
		for k := range out {
			if !declared(outputs, k) {
				return nil, &PassError{Component: name, Err: fmt.Errorf("undeclared output %q", k)}
			}
		}
	}
	return out, nil
}

func apply(n *node, out Values, work *Namespace) {
	for i, p := range n.comp.Outputs() {
		work.Set(n.outKeys[i], out[p.Name])
	}
}

func declared(ports []Port, name string) bool {
	for _, p := range ports {
		if p.Name == name {
			return true
		}
	}
	return false
}
