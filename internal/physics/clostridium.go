package physics

import (
	"math"

	"github.com/san-kum/factorytwin/internal/mdo"
)

const (
	molarMassCO      = 28.01 // g/mol
	molarMassCO2     = 44.01
	molarMassEthanol = 46.07
	molarMassButanol = 74.12
)

// Clostridium is the Wood-Ljungdahl flux balance of C. autoethanogenum.
// The fermenter pH sets the ethanol, butanol and acetate selectivity; the
// CO feed is the share of reactor exhaust that FIRE reduces to CO.
type Clostridium struct {
	ports
	COConversion  float64 // fraction of exhaust CO2 reduced to CO
	MinAcetate    float64
	EthanolEnergy float64 // J/kg
	ButanolEnergy float64 // J/kg
}

func NewClostridium() *Clostridium {
	return &Clostridium{
		ports: ports{
			name: "clostridium",
			inputs: []mdo.Port{
				mdo.In("co2_exhaust", "kg/s"),
				mdo.InDefault("fermenter_ph", "", 6.0),
			},
			outputs: []mdo.Port{
				mdo.Out("ethanol_selectivity", ""),
				mdo.Out("butanol_selectivity", ""),
				mdo.Out("acetate_selectivity", ""),
				mdo.Out("ethanol_yield", "kg/kg CO"),
				mdo.Out("butanol_yield", "kg/kg CO"),
				mdo.Out("carbon_efficiency", ""),
				mdo.Out("solvent_ethanol_rate", "kg/s"),
				mdo.Out("solvent_butanol_rate", "kg/s"),
				mdo.Out("fermentation_power", "W"),
			},
		},
		COConversion:  0.30,
		MinAcetate:    0.1,
		EthanolEnergy: 29.7e6,
		ButanolEnergy: 36.1e6,
	}
}

// Selectivity returns the normalized product split at pH. Acetate never
// drops below MinAcetate before normalization.
func (c *Clostridium) Selectivity(ph float64) (ethanol, butanol, acetate float64) {
	eth := 0.6 * math.Exp(-2.0*(ph-5.8)*(ph-5.8))
	but := 0.3 * math.Exp(-3.0*(ph-5.5)*(ph-5.5))
	ace := math.Max(c.MinAcetate, 1-eth-but)
	total := eth + but + ace
	return eth / total, but / total, ace / total
}

func (c *Clostridium) Compute(in mdo.Values) (mdo.Values, error) {
	exhaust := in["co2_exhaust"]
	ph := in["fermenter_ph"]
	if exhaust < 0 {
		return nil, mdo.Domainf(c.name, "co2 exhaust %g must be non-negative", exhaust)
	}
	if ph <= 0 || ph >= 14 {
		return nil, mdo.Domainf(c.name, "pH %g outside (0, 14)", ph)
	}

	eth, but, ace := c.Selectivity(ph)
	// mol CO consumed per mol of product
	coPerProduct := eth*6 + but*12 + ace*4
	ethYield := eth / coPerProduct * molarMassEthanol / molarMassCO
	butYield := but / coPerProduct * molarMassButanol / molarMassCO

	co := exhaust * c.COConversion * molarMassCO / molarMassCO2
	ethRate, butRate := co*ethYield, co*butYield

	return mdo.Values{
		"ethanol_selectivity":  eth,
		"butanol_selectivity":  but,
		"acetate_selectivity":  ace,
		"ethanol_yield":        ethYield,
		"butanol_yield":        butYield,
		"carbon_efficiency":    (eth*2 + but*4 + ace*2) / coPerProduct,
		"solvent_ethanol_rate": ethRate,
		"solvent_butanol_rate": butRate,
		"fermentation_power":   ethRate*c.EthanolEnergy + butRate*c.ButanolEnergy,
	}, nil
}
