package config

import (
	"fmt"
	"sort"
	"strings"
)

func ptr(v float64) *float64 { return &v }

var wefcComponents = []string{"sun", "water", "fire", "terre", "eroi"}

func wefc(solar, co2, volume float64) *Config {
	return &Config{
		Name:       "wefc",
		Components: append([]string(nil), wefcComponents...),
		Presets: map[string]float64{
			"solar_irradiance": solar,
			"co2_flow_rate":    co2,
			"reactor_volume":   volume,
		},
		DesignVars: []DesignVar{
			{Name: "membrane_area", Lower: 0.5, Upper: 10, Initial: ptr(2.0)},
			{Name: "led_frequency", Lower: 5, Upper: 100, Initial: ptr(25.0)},
			{Name: "htl_temp", Lower: 523.15, Upper: 623.15, Initial: ptr(573.15)},
			{Name: "pyrolysis_temp", Lower: 673.15, Upper: 873.15, Initial: ptr(773.15)},
		},
		Objective:   Objective{Name: "eroi", Sense: "maximize"},
		Constraints: []Constraint{{Name: "oc_ratio", Upper: ptr(0.2)}},
		Solver:      DefaultSolver(),
	}
}

func wefcKinetics() *Config {
	cfg := wefc(800, 0.005, 0.1)
	cfg.Name = "wefc-kinetics"
	cfg.Components = append(cfg.Components, "htl_kinetics", "pyrolysis_kinetics", "nutrients")
	cfg.Constraints = append(cfg.Constraints, Constraint{Name: "biochar_oc_kinetic", Upper: ptr(0.2)})
	return cfg
}

// wefcWetware adds the metabolic flux models and requires the wick to
// supply at least the evaporation rate.
func wefcWetware() *Config {
	cfg := wefc(800, 0.005, 0.1)
	cfg.Name = "wefc-wetware"
	cfg.Components = append(cfg.Components, "chlorella", "clostridium", "wicking")
	cfg.Constraints = append(cfg.Constraints, Constraint{Name: "wick_supply_ratio", Lower: ptr(1)})
	return cfg
}

var Presets = map[string]map[string]*Config{
	"wefc": {
		"baseline": wefc(800, 0.005, 0.1),
		"high-sun": wefc(1000, 0.01, 0.2),
		"kinetics": wefcKinetics(),
		"wetware":  wefcWetware(),
	},
	"wetware": {
		"ethanol-ph": {
			Name:       "fermenter",
			Components: []string{"clostridium"},
			Presets:    map[string]float64{"co2_exhaust": 0.005},
			DesignVars: []DesignVar{
				{Name: "fermenter_ph", Lower: 5.0, Upper: 7.0, Initial: ptr(6.0)},
			},
			Objective: Objective{Name: "ethanol_yield", Sense: "maximize"},
			Solver:    DefaultSolver(),
		},
	},
	"economizer": {
		"min-length": {
			Name:       "economizer",
			Components: []string{"economizer"},
			Presets:    map[string]float64{},
			DesignVars: []DesignVar{
				{Name: "hx_tube_length", Lower: 0.5, Upper: 20, Initial: ptr(2.0)},
			},
			Objective:   Objective{Name: "hx_tube_length", Sense: "minimize"},
			Constraints: []Constraint{{Name: "hx_effectiveness", Lower: ptr(0.7)}},
			Solver:      DefaultSolver(),
		},
	},
}

// GetPreset returns a copy of the named scenario, or nil.
func GetPreset(system, preset string) *Config {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	cfg, ok := systemPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(system string) []string {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(systemPresets))
	for name := range systemPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListAll returns every preset as "system/name".
func ListAll() []string {
	var refs []string
	for system := range Presets {
		for _, name := range ListPresets(system) {
			refs = append(refs, system+"/"+name)
		}
	}
	sort.Strings(refs)
	return refs
}

// Lookup resolves a "system/name" reference.
func Lookup(ref string) (*Config, error) {
	system, name, ok := strings.Cut(ref, "/")
	if !ok {
		return nil, fmt.Errorf("%w: preset reference %q must be system/name", ErrInvalidConfig, ref)
	}
	cfg := GetPreset(system, name)
	if cfg == nil {
		return nil, fmt.Errorf("%w: unknown preset %q", ErrInvalidConfig, ref)
	}
	return cfg, nil
}
