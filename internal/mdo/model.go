package mdo

import (
	"fmt"
	"strings"
)

// ProducerExternal marks keys supplied as presets or input defaults.
const ProducerExternal = "<external>"

// ProducerDesign marks keys written by the optimizer.
const ProducerDesign = "<design>"

// Connection is an explicit edge from one component output to another
// component input, both written as "component.port".
type Connection struct {
	From string
	To   string
}

// Promotion shares a component's local port under a namespace key.
type Promotion struct {
	Component string
	Local     string
	Key       string
}

// AddOption configures how a component's ports are exposed in the namespace.
type AddOption func(*entry)

// PromoteAll promotes every input and output under its local name.
func PromoteAll() AddOption {
	return func(e *entry) {
		e.promoteAllIn = true
		e.promoteAllOut = true
	}
}

// PromoteInputs promotes the named inputs under their local names.
// Passing "*" promotes every input.
func PromoteInputs(names ...string) AddOption {
	return func(e *entry) {
		for _, n := range names {
			if n == "*" {
				e.promoteAllIn = true
				continue
			}
			e.promoted[n] = n
		}
	}
}

// PromoteOutputs promotes the named outputs under their local names.
// Passing "*" promotes every output.
func PromoteOutputs(names ...string) AddOption {
	return func(e *entry) {
		for _, n := range names {
			if n == "*" {
				e.promoteAllOut = true
				continue
			}
			e.promoted[n] = n
		}
	}
}

type entry struct {
	comp          Component
	promoted      map[string]string
	promoteAllIn  bool
	promoteAllOut bool
}

// Model collects components, wiring and preset values. Structural edits
// invalidate the cached Graph; changing a preset value does not.
type Model struct {
	entries     []*entry
	index       map[string]int
	connections []Connection
	promotions  []Promotion
	presets     map[string]float64

	revision int
	cached   *Graph
	cachedAt int
	cacheKey string
}

func NewModel() *Model {
	return &Model{
		index:   make(map[string]int),
		presets: make(map[string]float64),
	}
}

// Add registers a component. Duplicate ids are reported when the graph is built.
func (m *Model) Add(c Component, opts ...AddOption) *Model {
	e := &entry{comp: c, promoted: make(map[string]string)}
	for _, opt := range opts {
		opt(e)
	}
	if _, exists := m.index[c.Name()]; !exists {
		m.index[c.Name()] = len(m.entries)
	}
	m.entries = append(m.entries, e)
	m.revision++
	return m
}

// Connect wires an output ("comp.port") into an input ("comp.port").
func (m *Model) Connect(from, to string) *Model {
	m.connections = append(m.connections, Connection{From: from, To: to})
	m.revision++
	return m
}

// Promote exposes a component port under an explicit namespace key.
func (m *Model) Promote(component, local, key string) *Model {
	m.promotions = append(m.promotions, Promotion{Component: component, Local: local, Key: key})
	m.revision++
	return m
}

// Preset fixes an external namespace value before the first pass.
func (m *Model) Preset(key string, value float64) *Model {
	if _, ok := m.presets[key]; !ok {
		m.revision++
	}
	m.presets[key] = value
	return m
}

// Presets returns a copy of the preset values.
func (m *Model) Presets() map[string]float64 {
	out := make(map[string]float64, len(m.presets))
	for k, v := range m.presets {
		out[k] = v
	}
	return out
}

// Components returns the registered components in declaration order.
func (m *Model) Components() []Component {
	out := make([]Component, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.comp
	}
	return out
}

// Build resolves and validates the model. designKeys are namespace keys the
// optimizer will own. The result is cached until the structure changes.
func (m *Model) Build(designKeys ...string) (*Graph, error) {
	key := strings.Join(designKeys, "\x00")
	if m.cached != nil && m.cachedAt == m.revision && m.cacheKey == key {
		return m.cached, nil
	}
	g, err := resolve(m, designKeys)
	if err != nil {
		return nil, err
	}
	m.cached, m.cachedAt, m.cacheKey = g, m.revision, key
	return g, nil
}

func splitPath(path string) (string, string, error) {
	i := strings.LastIndex(path, ".")
	if i <= 0 || i == len(path)-1 {
		return "", "", fmt.Errorf("expected component.port, got %q", path)
	}
	return path[:i], path[i+1:], nil
}
