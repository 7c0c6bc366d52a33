package mdo

import (
	"fmt"
	"sort"
)

// Namespace is the single source of truth for component I/O during a run.
// A key is present only once it has been written; zero is a legal value.
type Namespace struct {
	vals map[string]float64
}

func NewNamespace() *Namespace {
	return &Namespace{vals: make(map[string]float64)}
}

// Get returns the value stored under key or ErrUnknownVariable.
func (n *Namespace) Get(key string) (float64, error) {
	v, ok := n.vals[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownVariable, key)
	}
	return v, nil
}

func (n *Namespace) Set(key string, value float64) { n.vals[key] = value }

func (n *Namespace) Has(key string) bool {
	_, ok := n.vals[key]
	return ok
}

func (n *Namespace) Len() int { return len(n.vals) }

// Keys returns the present keys in lexical order.
func (n *Namespace) Keys() []string {
	keys := make([]string, 0, len(n.vals))
	for k := range n.vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (n *Namespace) Clone() *Namespace {
	c := &Namespace{vals: make(map[string]float64, len(n.vals))}
	for k, v := range n.vals {
		c.vals[k] = v
	}
	return c
}

// Snapshot returns a copy of every present key and value.
func (n *Namespace) Snapshot() map[string]float64 {
	return n.Clone().vals
}

// replace swaps in the contents of other; used to commit a finished pass.
func (n *Namespace) replace(other *Namespace) {
	n.vals = other.vals
}
