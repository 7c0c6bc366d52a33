package physics

import (
	"math"

	"github.com/san-kum/factorytwin/internal/mdo"
)

// GasConstant in J/(mol K).
const GasConstant = 8.314

// HTLKinetics predicts subcritical water properties and first-order
// depolymerization of algal biomass at the HTL operating point.
type HTLKinetics struct {
	ports
	ActivationEnergy float64 // J/mol
	PreExponential   float64 // 1/s
}

func NewHTLKinetics() *HTLKinetics {
	return &HTLKinetics{
		ports: ports{
			name: "htl_kinetics",
			inputs: []mdo.Port{
				mdo.InDefault("htl_temp", "K", 573.15),
				mdo.InDefault("htl_hold_time", "s", 1800.0),
			},
			outputs: []mdo.Port{
				mdo.Out("water_dielectric", ""),
				mdo.Out("depolymerization_rate", "1/s"),
				mdo.Out("biocrude_conversion", ""),
				mdo.Out("biocrude_hhv_predicted", "J/kg"),
			},
		},
		ActivationEnergy: 75000.0,
		PreExponential:   1e8,
	}
}

// Dielectric returns the relative permittivity of water at kelvin,
// floored at 2.0 near the critical point.
func Dielectric(kelvin float64) float64 {
	d := kelvin/298.15 - 1
	eps := 87.74 - 40.0*d + 9.39*d*d - 1.41*d*d*d
	return math.Max(eps, 2.0)
}

// Rate is the Arrhenius rate constant. kelvin must be positive.
func (h *HTLKinetics) Rate(kelvin float64) (float64, error) {
	if kelvin <= 0 || math.IsNaN(kelvin) {
		return 0, mdo.Domainf(h.name, "arrhenius rate needs a positive absolute temperature, got %g K", kelvin)
	}
	return h.PreExponential * math.Exp(-h.ActivationEnergy/(GasConstant*kelvin)), nil
}

// PredictedHHV returns the bio-crude heating value in MJ/kg, capped at 39.
func PredictedHHV(tc float64) float64 {
	return math.Min(28.0+0.035*(tc-200.0), 39.0)
}

func (h *HTLKinetics) Compute(in mdo.Values) (mdo.Values, error) {
	temp := in["htl_temp"]
	hold := in["htl_hold_time"]

	k, err := h.Rate(temp)
	if err != nil {
		return nil, err
	}
	if hold < 0 {
		return nil, mdo.Domainf(h.name, "hold time %g s must be non-negative", hold)
	}

	return mdo.Values{
		"water_dielectric":       Dielectric(temp),
		"depolymerization_rate":  k,
		"biocrude_conversion":    1 - math.Exp(-k*hold),
		"biocrude_hhv_predicted": PredictedHHV(celsius(temp)) * 1e6,
	}, nil
}
