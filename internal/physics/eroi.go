package physics

import "github.com/san-kum/factorytwin/internal/mdo"

// EthanolHHV is the higher heating value of ethanol in J/kg.
const EthanolHHV = 29.7e6

// EROIGate is the minimum systemic EROI for a viable factory.
const EROIGate = 3.5

// EROI aggregates energy products against thermal and parasitic loads.
type EROI struct {
	ports
}

func NewEROI() *EROI {
	return &EROI{ports{
		name: "eroi",
		inputs: []mdo.Port{
			mdo.In("biocrude_rate", "kg/s"),
			mdo.InDefault("biocrude_hhv", "J/kg", 35e6),
			mdo.In("ethanol_rate", "kg/s"),
			mdo.In("syngas_energy", "W"),
			mdo.In("htl_energy_required", "W"),
			mdo.InDefault("sun_thermal_power", "W", 0),
			mdo.InDefault("pump_power", "W", 150.0),
			mdo.InDefault("led_power", "W", 50.0),
		},
		outputs: []mdo.Port{
			mdo.Out("eroi", ""),
		},
	}}
}

// Compute returns zero EROI when the energy input is not positive. Solar
// heat is free and does not count as an input.
func (e *EROI) Compute(in mdo.Values) (mdo.Values, error) {
	out := in["biocrude_rate"]*in["biocrude_hhv"] +
		in["ethanol_rate"]*EthanolHHV +
		in["syngas_energy"]
	load := in["htl_energy_required"] + in["pump_power"] + in["led_power"]

	eroi := 0.0
	if load > 0 {
		eroi = out / load
	}
	return mdo.Values{"eroi": eroi}, nil
}
