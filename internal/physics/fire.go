package physics

import "github.com/san-kum/factorytwin/internal/mdo"

// Fire models hydrothermal liquefaction of wet algae plus the Z-scheme
// CO-to-ethanol fermenter fed by the reactor exhaust.
type Fire struct {
	ports
	DryFraction    float64
	ResidueFrac    float64
	COConversion   float64 // fraction of exhaust CO2 reduced to CO
	EthanolPerCO   float64 // kg/kg
	WaterHeatCap   float64 // J/(kg K)
	AmbientCelsius float64
}

func NewFire() *Fire {
	return &Fire{
		ports: ports{
			name: "fire",
			inputs: []mdo.Port{
				mdo.In("biomass_rate", "kg/s"),
				mdo.In("co2_exhaust", "kg/s"),
				mdo.InDefault("htl_temp", "K", 573.15),
				mdo.InDefault("htl_pressure", "Pa", 15e6),
				mdo.InDefault("htl_hold_time", "s", 1800.0),
			},
			outputs: []mdo.Port{
				mdo.Out("biocrude_rate", "kg/s"),
				mdo.Out("biocrude_hhv", "J/kg"),
				mdo.Out("ethanol_rate", "kg/s"),
				mdo.Out("solid_waste_rate", "kg/s"),
				mdo.Out("htl_energy_required", "W"),
			},
		},
		DryFraction:    0.15,
		ResidueFrac:    0.6,
		COConversion:   0.30,
		EthanolPerCO:   0.27,
		WaterHeatCap:   4200.0,
		AmbientCelsius: 25.0,
	}
}

// CrudeYield returns the bio-crude mass fraction of dry biomass, saturated
// to [0.15, 0.45].
func (f *Fire) CrudeYield(tc float64) float64 {
	return clamp(0.25+0.001*(tc-250), 0.15, 0.45)
}

func (f *Fire) Compute(in mdo.Values) (mdo.Values, error) {
	biomass := in["biomass_rate"]
	temp := in["htl_temp"]
	if temp <= 0 {
		return nil, mdo.Domainf(f.name, "htl temperature %g K must be positive", temp)
	}
	if biomass < 0 {
		return nil, mdo.Domainf(f.name, "biomass rate %g must be non-negative", biomass)
	}

	tc := celsius(temp)
	dry := biomass * f.DryFraction
	cy := f.CrudeYield(tc)
	water := biomass * (1 - f.DryFraction)

	return mdo.Values{
		"biocrude_rate":       dry * cy,
		"biocrude_hhv":        (35.0 + 0.02*(tc-250)) * 1e6,
		"solid_waste_rate":    dry * (1 - cy) * f.ResidueFrac,
		"ethanol_rate":        in["co2_exhaust"] * f.COConversion * f.EthanolPerCO,
		"htl_energy_required": water * f.WaterHeatCap * (tc - f.AmbientCelsius),
	}, nil
}
