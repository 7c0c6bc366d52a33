package metrics

import (
	"sort"

	"github.com/san-kum/factorytwin/internal/mdo"
	"github.com/san-kum/factorytwin/internal/optim"
)

// Metric accumulates a scalar summary over driver iterations.
type Metric interface {
	Name() string
	Observe(it optim.Iteration)
	Value() float64
	Reset()
}

// Collector forwards driver iterations to a set of metrics. It implements
// optim.Observer.
type Collector struct {
	metrics []Metric
}

func NewCollector(ms ...Metric) *Collector {
	return &Collector{metrics: ms}
}

func (c *Collector) Add(m Metric) { c.metrics = append(c.metrics, m) }

func (c *Collector) OnIteration(it optim.Iteration) {
	for _, m := range c.metrics {
		m.Observe(it)
	}
}

func (c *Collector) Values() map[string]float64 {
	out := make(map[string]float64, len(c.metrics))
	for _, m := range c.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// Names returns the metric names in lexical order.
func (c *Collector) Names() []string {
	names := make([]string, 0, len(c.metrics))
	for _, m := range c.metrics {
		names = append(names, m.Name())
	}
	sort.Strings(names)
	return names
}

func (c *Collector) Reset() {
	for _, m := range c.metrics {
		m.Reset()
	}
}

// Defaults returns the standard set of solve metrics.
func Defaults(sense mdo.Sense, feasTol float64) []Metric {
	return []Metric{
		NewBestObjective(sense),
		NewFeasibility(feasTol),
		NewStepLength(),
		NewAcceptance(),
		NewPasses(),
	}
}
