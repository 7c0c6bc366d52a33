package physics

import (
	"math"

	"github.com/san-kum/factorytwin/internal/mdo"
)

// Terre models the top-lit updraft pyrolyzer turning hydrochar into
// biochar and syngas.
type Terre struct {
	ports
	SyngasHHV float64 // J/kg
}

func NewTerre() *Terre {
	return &Terre{
		ports: ports{
			name: "terre",
			inputs: []mdo.Port{
				mdo.In("solid_waste_rate", "kg/s"),
				mdo.InDefault("pyrolysis_temp", "K", 773.15),
				mdo.InDefault("hold_time", "s", 3600.0),
			},
			outputs: []mdo.Port{
				mdo.Out("biochar_rate", "kg/s"),
				mdo.Out("syngas_energy", "W"),
				mdo.Out("oc_ratio", ""),
			},
		},
		SyngasHHV: 10e6,
	}
}

// CharYield falls with temperature and saturates at 0.20.
func CharYield(tc float64) float64 {
	return math.Max(0.60-0.00075*tc, 0.20)
}

// OCRatio is the biochar oxygen to carbon ratio, floored at 0.05.
func OCRatio(tc float64) float64 {
	return math.Max(0.05, 0.45-0.0008*tc)
}

func (t *Terre) Compute(in mdo.Values) (mdo.Values, error) {
	solid := in["solid_waste_rate"]
	temp := in["pyrolysis_temp"]
	if temp <= 0 {
		return nil, mdo.Domainf(t.name, "pyrolysis temperature %g K must be positive", temp)
	}
	if solid < 0 {
		return nil, mdo.Domainf(t.name, "solid waste rate %g must be non-negative", solid)
	}

	tc := celsius(temp)
	char := CharYield(tc)
	return mdo.Values{
		"biochar_rate":  solid * char,
		"syngas_energy": solid * (1 - char) * t.SyngasHHV,
		"oc_ratio":      OCRatio(tc),
	}, nil
}
