package physics

import (
	"math"

	"github.com/san-kum/factorytwin/internal/mdo"
)

// Water models the nano-bubbling algal photobioreactor. CO2 uptake follows
// the volumetric mass transfer rate, scaled by the flashing-light response
// of the culture.
type Water struct {
	ports
	FlashCoeff    float64 // 1/Hz
	FixationEff   float64
	BiomassPerCO2 float64 // kg wet biomass per kg CO2 fixed
}

func NewWater() *Water {
	return &Water{
		ports: ports{
			name: "water",
			inputs: []mdo.Port{
				mdo.In("freshwater_rate", "kg/s"),
				mdo.In("co2_flow_rate", "kg/s"),
				mdo.InDefault("kla", "1/s", 0.05),
				mdo.InDefault("led_frequency", "Hz", 25.0),
				mdo.In("reactor_volume", "m3"),
			},
			outputs: []mdo.Port{
				mdo.Out("co2_absorbed", "kg/s"),
				mdo.Out("co2_exhaust", "kg/s"),
				mdo.Out("biomass_rate", "kg/s"),
			},
		},
		FlashCoeff:    0.08,
		FixationEff:   0.85,
		BiomassPerCO2: 1.8,
	}
}

func (w *Water) Compute(in mdo.Values) (mdo.Values, error) {
	co2 := in["co2_flow_rate"]
	kla := in["kla"]
	vol := in["reactor_volume"]
	freq := in["led_frequency"]

	if co2 < 0 || kla < 0 || vol < 0 {
		return nil, mdo.Domainf(w.name, "co2 flow %g, kla %g and volume %g must be non-negative", co2, kla, vol)
	}
	if freq < 0 {
		return nil, mdo.Domainf(w.name, "led frequency %g must be non-negative", freq)
	}

	dissolved := kla * vol * co2
	flash := 1.0 - math.Exp(-w.FlashCoeff*freq)
	fixed := dissolved * flash * w.FixationEff

	return mdo.Values{
		"co2_absorbed": fixed,
		"co2_exhaust":  co2 - fixed,
		"biomass_rate": fixed * w.BiomassPerCO2,
	}, nil
}
