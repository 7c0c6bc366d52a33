package physics

import "github.com/san-kum/factorytwin/internal/mdo"

// Sun models the plasmonic interfacial solar steam generator: absorbed
// solar power evaporates freshwater at the nanoconfined enthalpy.
type Sun struct {
	ports
}

func NewSun() *Sun {
	return &Sun{ports{
		name: "sun",
		inputs: []mdo.Port{
			mdo.In("solar_irradiance", "W/m2"),
			mdo.InDefault("membrane_area", "m2", 1.0),
			mdo.InDefault("lspr_efficiency", "", 0.92),
			mdo.InDefault("enthalpy_vap_effective", "kJ/kg", 1250.0),
		},
		outputs: []mdo.Port{
			mdo.Out("sun_thermal_power", "W"),
			mdo.Out("freshwater_rate", "kg/s"),
		},
	}}
}

func (s *Sun) Compute(in mdo.Values) (mdo.Values, error) {
	irr := in["solar_irradiance"]
	area := in["membrane_area"]
	eff := in["lspr_efficiency"]
	hvap := in["enthalpy_vap_effective"]

	if irr < 0 || area < 0 {
		return nil, mdo.Domainf(s.name, "irradiance %g and area %g must be non-negative", irr, area)
	}
	if eff < 0 || eff > 1 {
		return nil, mdo.Domainf(s.name, "efficiency %g outside [0, 1]", eff)
	}
	if hvap <= 0 {
		return nil, mdo.Domainf(s.name, "enthalpy of vaporization %g must be positive", hvap)
	}

	q := irr * area * eff
	return mdo.Values{
		"sun_thermal_power": q,
		"freshwater_rate":   q / (hvap * 1000.0),
	}, nil
}
