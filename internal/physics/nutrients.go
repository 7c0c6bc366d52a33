package physics

import "github.com/san-kum/factorytwin/internal/mdo"

// Nutrients balances the Redfield N and P demand of the culture against
// the nutrients recovered in the HTL aqueous phase.
type Nutrients struct {
	ports
	DryFraction     float64
	AqueousFraction float64
	NitrogenShare   float64
	PhosphorusShare float64
}

func NewNutrients() *Nutrients {
	return &Nutrients{
		ports: ports{
			name: "nutrients",
			inputs: []mdo.Port{
				mdo.In("co2_absorbed", "kg/s"),
				mdo.In("biomass_rate", "kg/s"),
			},
			outputs: []mdo.Port{
				mdo.Out("n_demand", "kg/s"),
				mdo.Out("p_demand", "kg/s"),
				mdo.Out("n_recycled", "kg/s"),
				mdo.Out("p_recycled", "kg/s"),
				mdo.Out("n_closure", "%"),
				mdo.Out("p_closure", "%"),
			},
		},
		DryFraction:     0.15,
		AqueousFraction: 0.40,
		NitrogenShare:   0.06,
		PhosphorusShare: 0.03,
	}
}

func (n *Nutrients) Compute(in mdo.Values) (mdo.Values, error) {
	fixed := in["co2_absorbed"]
	// Redfield C:N:P = 106:16:1
	nDemand := fixed * (14.0 * 16) / (12.0 * 106)
	pDemand := fixed * 31.0 / (12.0 * 106)

	aqueous := in["biomass_rate"] * n.DryFraction * n.AqueousFraction
	nRec := aqueous * n.NitrogenShare
	pRec := aqueous * n.PhosphorusShare

	return mdo.Values{
		"n_demand":   nDemand,
		"p_demand":   pDemand,
		"n_recycled": nRec,
		"p_recycled": pRec,
		"n_closure":  closure(nRec, nDemand),
		"p_closure":  closure(pRec, pDemand),
	}, nil
}

func closure(recycled, demand float64) float64 {
	if demand <= 0 {
		return 0
	}
	return recycled / demand * 100
}
