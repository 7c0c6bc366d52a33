package physics

import (
	"math"

	"github.com/san-kum/factorytwin/internal/mdo"
)

// Economizer is a counter-current double-pipe heat exchanger recovering
// HTL effluent heat into the incoming slurry, rated with the ε-NTU method.
type Economizer struct {
	ports
}

func NewEconomizer() *Economizer {
	return &Economizer{ports{
		name: "economizer",
		inputs: []mdo.Port{
			mdo.InDefault("hx_hot_in_temp", "C", 300.0),
			mdo.InDefault("hx_cold_in_temp", "C", 25.0),
			mdo.InDefault("hx_hot_flow", "kg/s", 0.01),
			mdo.InDefault("hx_cold_flow", "kg/s", 0.01),
			mdo.InDefault("hx_cp_hot", "J/(kg K)", 3800.0),
			mdo.InDefault("hx_cp_cold", "J/(kg K)", 4186.0),
			mdo.InDefault("hx_u", "W/(m2 K)", 150.0),
			mdo.InDefault("hx_tube_length", "m", 2.0),
			mdo.InDefault("hx_tube_od", "m", 0.025),
		},
		outputs: []mdo.Port{
			mdo.Out("hx_effectiveness", ""),
			mdo.Out("hx_ntu", ""),
			mdo.Out("hx_heat_recovered", "W"),
			mdo.Out("hx_hot_out_temp", "C"),
			mdo.Out("hx_cold_out_temp", "C"),
			mdo.Out("hx_lmtd", "K"),
		},
	}}
}

// Effectiveness of a counter-current exchanger.
func Effectiveness(ntu, cr float64) float64 {
	if math.Abs(cr-1) < 1e-10 {
		return ntu / (1 + ntu)
	}
	e := math.Exp(-ntu * (1 - cr))
	return (1 - e) / (1 - cr*e)
}

// LMTD returns the log-mean temperature difference of the end differences.
func LMTD(dt1, dt2 float64) float64 {
	if math.Abs(dt1-dt2) < 0.01 {
		return dt1
	}
	return (dt1 - dt2) / math.Log(dt1/dt2)
}

func (x *Economizer) Compute(in mdo.Values) (mdo.Values, error) {
	hotIn, coldIn := in["hx_hot_in_temp"], in["hx_cold_in_temp"]
	cHot := in["hx_hot_flow"] * in["hx_cp_hot"]
	cCold := in["hx_cold_flow"] * in["hx_cp_cold"]
	length, od, u := in["hx_tube_length"], in["hx_tube_od"], in["hx_u"]

	if cHot <= 0 || cCold <= 0 {
		return nil, mdo.Domainf(x.name, "heat capacity rates %g and %g W/K must be positive", cHot, cCold)
	}
	if length <= 0 || od <= 0 || u <= 0 {
		return nil, mdo.Domainf(x.name, "length %g, diameter %g and U %g must be positive", length, od, u)
	}
	if hotIn <= coldIn {
		return nil, mdo.Domainf(x.name, "hot inlet %g C is not above cold inlet %g C", hotIn, coldIn)
	}

	cMin, cMax := math.Min(cHot, cCold), math.Max(cHot, cCold)
	area := math.Pi * od * length
	ntu := u * area / cMin
	eps := Effectiveness(ntu, cMin/cMax)
	q := eps * cMin * (hotIn - coldIn)

	hotOut := hotIn - q/cHot
	coldOut := coldIn + q/cCold

	return mdo.Values{
		"hx_effectiveness":  eps,
		"hx_ntu":            ntu,
		"hx_heat_recovered": q,
		"hx_hot_out_temp":   hotOut,
		"hx_cold_out_temp":  coldOut,
		"hx_lmtd":           LMTD(hotIn-coldOut, hotOut-coldIn),
	}, nil
}
