package mdo

import "sort"

// Variable describes one namespace key of a resolved graph.
type Variable struct {
	Name       string
	Unit       string
	ProducedBy string
}

// Edge is a data dependency between two components.
type Edge struct {
	From string
	To   string
}

type node struct {
	comp    Component
	index   int
	inKeys  []string
	outKeys []string
	deps    []int
}

// Graph is an immutable, validated model with a cached execution order.
// It is safe for concurrent read access.
type Graph struct {
	nodes     []*node
	order     []int
	levels    [][]int
	producers map[string]string
	consumers map[string][]string
	units     map[string]string
	defaults  map[string]float64
	design    map[string]bool
}

// Order returns component names in execution order.
func (g *Graph) Order() []string {
	out := make([]string, len(g.order))
	for i, idx := range g.order {
		out[i] = g.nodes[idx].comp.Name()
	}
	return out
}

// Levels groups components by dependency depth. Components in one level
// share no data and may be evaluated in any order.
func (g *Graph) Levels() [][]string {
	out := make([][]string, len(g.levels))
	for i, lvl := range g.levels {
		out[i] = make([]string, len(lvl))
		for j, idx := range lvl {
			out[i][j] = g.nodes[idx].comp.Name()
		}
	}
	return out
}

// Edges returns dependency edges ordered by target then source declaration.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for _, n := range g.nodes {
		for _, d := range n.deps {
			out = append(out, Edge{From: g.nodes[d].comp.Name(), To: n.comp.Name()})
		}
	}
	return out
}

// Producer reports who writes key: a component name, ProducerExternal or
// ProducerDesign.
func (g *Graph) Producer(key string) (string, bool) {
	p, ok := g.producers[key]
	return p, ok
}

// Consumers returns the components reading key in declaration order.
func (g *Graph) Consumers(key string) []string {
	return append([]string(nil), g.consumers[key]...)
}

// Defaults returns the input defaults adopted for unproduced, unpreset keys.
func (g *Graph) Defaults() map[string]float64 {
	out := make(map[string]float64, len(g.defaults))
	for k, v := range g.defaults {
		out[k] = v
	}
	return out
}

// Variables lists every namespace key of the graph in lexical order.
func (g *Graph) Variables() []Variable {
	vars := make([]Variable, 0, len(g.producers))
	for k, p := range g.producers {
		vars = append(vars, Variable{Name: k, Unit: g.units[k], ProducedBy: p})
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
	return vars
}

// Ports returns the resolved input and output keys of a component.
func (g *Graph) Ports(component string) (inputs, outputs []string, ok bool) {
	for _, n := range g.nodes {
		if n.comp.Name() == component {
			return append([]string(nil), n.inKeys...), append([]string(nil), n.outKeys...), true
		}
	}
	return nil, nil, false
}

// Len returns the number of components.
func (g *Graph) Len() int { return len(g.nodes) }
