package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/factorytwin/internal/mdo"
	"github.com/san-kum/factorytwin/internal/metrics"
	"github.com/san-kum/factorytwin/internal/optim"
	"github.com/san-kum/factorytwin/internal/physics"
)

// Registry maps configuration names to component and strategy factories.
type Registry struct {
	components map[string]func() mdo.Component
	strategies map[string]func() optim.Strategy
}

func NewRegistry() *Registry {
	r := &Registry{
		components: make(map[string]func() mdo.Component),
		strategies: make(map[string]func() optim.Strategy),
	}

	r.components["sun"] = func() mdo.Component { return physics.NewSun() }
	r.components["water"] = func() mdo.Component { return physics.NewWater() }
	r.components["fire"] = func() mdo.Component { return physics.NewFire() }
	r.components["terre"] = func() mdo.Component { return physics.NewTerre() }
	r.components["eroi"] = func() mdo.Component { return physics.NewEROI() }
	r.components["htl_kinetics"] = func() mdo.Component { return physics.NewHTLKinetics() }
	r.components["pyrolysis_kinetics"] = func() mdo.Component { return physics.NewPyrolysisKinetics() }
	r.components["economizer"] = func() mdo.Component { return physics.NewEconomizer() }
	r.components["nutrients"] = func() mdo.Component { return physics.NewNutrients() }
	r.components["chlorella"] = func() mdo.Component { return physics.NewChlorella() }
	r.components["clostridium"] = func() mdo.Component { return physics.NewClostridium() }
	r.components["wicking"] = func() mdo.Component { return physics.NewWicking() }

	r.strategies["sqp"] = func() optim.Strategy { return optim.NewSQP() }

	return r
}

// RegisterComponent adds or replaces a component factory.
func (r *Registry) RegisterComponent(name string, fn func() mdo.Component) {
	r.components[name] = fn
}

func (r *Registry) GetComponent(name string) (mdo.Component, error) {
	fn, ok := r.components[name]
	if !ok {
		return nil, fmt.Errorf("unknown component: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetStrategy(name string) (optim.Strategy, error) {
	fn, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListComponents() []string {
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListStrategies() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns the metric set collected during a solve.
func (r *Registry) DefaultMetrics(sense mdo.Sense, tolerance float64) []metrics.Metric {
	return metrics.Defaults(sense, tolerance)
}
