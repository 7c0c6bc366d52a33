package physics

import (
	"math"

	"github.com/san-kum/factorytwin/internal/mdo"
)

// SyngasFractions holds normalized mass fractions of slow-pyrolysis gas.
type SyngasFractions struct {
	CO, H2, CH4, CO2, Tar float64
}

// Syngas returns the empirical gas composition at tc degrees Celsius.
func Syngas(tc float64) SyngasFractions {
	co := 0.10 + 0.0004*(tc-300)
	h2 := 0.02 + 0.0006*math.Max(0, tc-400)
	ch4 := 0.08 * math.Exp(-0.5*math.Pow((tc-500)/100, 2))
	co2 := 0.30 - 0.0003*(tc-300)
	tar := math.Max(0.01, 0.25-0.0005*(tc-300))
	total := co + h2 + ch4 + co2 + tar
	return SyngasFractions{
		CO:  co / total,
		H2:  h2 / total,
		CH4: ch4 / total,
		CO2: co2 / total,
		Tar: tar / total,
	}
}

// HHV returns the mixture heating value in MJ/kg.
func (s SyngasFractions) HHV() float64 {
	return s.CO*10.1 + s.H2*120.0 + s.CH4*55.5 + s.Tar*20.0
}

// KineticOC predicts the biochar O:C ratio from temperature and hold time,
// floored at 0.02.
func KineticOC(tc, hours float64) float64 {
	base := 0.55 * math.Exp(-0.004*(tc-300))
	factor := 1.0 - 0.05*math.Log(math.Max(hours, 0.1))
	return math.Max(0.02, base*factor)
}

// PyrolysisKinetics refines the TERRE pyrolyzer with gas composition,
// kinetic O:C and the self-sustaining energy balance.
type PyrolysisKinetics struct {
	ports
}

func NewPyrolysisKinetics() *PyrolysisKinetics {
	return &PyrolysisKinetics{ports{
		name: "pyrolysis_kinetics",
		inputs: []mdo.Port{
			mdo.InDefault("pyrolysis_temp", "K", 773.15),
			mdo.InDefault("hold_time", "s", 3600.0),
		},
		outputs: []mdo.Port{
			mdo.Out("syngas_co", ""),
			mdo.Out("syngas_h2", ""),
			mdo.Out("syngas_ch4", ""),
			mdo.Out("syngas_co2", ""),
			mdo.Out("syngas_tar", ""),
			mdo.Out("syngas_hhv_mix", "MJ/kg"),
			mdo.Out("biochar_oc_kinetic", ""),
			mdo.Out("pyrolysis_energy_margin", "MJ/kg"),
		},
	}}
}

func (p *PyrolysisKinetics) Compute(in mdo.Values) (mdo.Values, error) {
	temp := in["pyrolysis_temp"]
	hold := in["hold_time"]
	if temp <= 0 {
		return nil, mdo.Domainf(p.name, "pyrolysis temperature %g K must be positive", temp)
	}
	if hold < 0 {
		return nil, mdo.Domainf(p.name, "hold time %g s must be non-negative", hold)
	}

	tc := celsius(temp)
	gas := Syngas(tc)
	volatile := 0.70 - 0.0005*(tc-300)
	demand := 1.5 + 0.003*(tc-300)

	return mdo.Values{
		"syngas_co":               gas.CO,
		"syngas_h2":               gas.H2,
		"syngas_ch4":              gas.CH4,
		"syngas_co2":              gas.CO2,
		"syngas_tar":              gas.Tar,
		"syngas_hhv_mix":          gas.HHV(),
		"biochar_oc_kinetic":      KineticOC(tc, hold/3600.0),
		"pyrolysis_energy_margin": volatile*gas.HHV() - demand,
	}, nil
}
