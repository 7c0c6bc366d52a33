package physics

import (
	"math"

	"github.com/san-kum/factorytwin/internal/mdo"
)

// Wicking checks that capillary flow through the biochar sponge keeps up
// with evaporation at the membrane. Supply is Darcy flow with Kozeny-Carman
// permeability under the capillary pressure; wick time is the Washburn rise
// through the sponge.
type Wicking struct {
	ports
	SurfaceTension float64 // N/m
	Viscosity      float64 // Pa s
	WaterDensity   float64 // kg/m3
	MaxSupplyRatio float64
}

func NewWicking() *Wicking {
	return &Wicking{
		ports: ports{
			name: "wicking",
			inputs: []mdo.Port{
				mdo.In("freshwater_rate", "kg/s"),
				mdo.InDefault("membrane_area", "m2", 1.0),
				mdo.InDefault("pore_radius", "m", 1e-6),
				mdo.InDefault("wick_thickness", "m", 0.020),
				mdo.InDefault("wick_porosity", "", 0.65),
				mdo.InDefault("contact_angle", "deg", 20.0),
			},
			outputs: []mdo.Port{
				mdo.Out("wick_permeability", "m2"),
				mdo.Out("wick_capillary_pressure", "Pa"),
				mdo.Out("wick_supply_rate", "m/s"),
				mdo.Out("evaporation_demand", "m/s"),
				mdo.Out("wick_supply_ratio", ""),
				mdo.Out("wick_time", "s"),
			},
		},
		SurfaceTension: 0.0728,
		Viscosity:      1.002e-3,
		WaterDensity:   1000.0,
		MaxSupplyRatio: 1e6,
	}
}

func (w *Wicking) Compute(in mdo.Values) (mdo.Values, error) {
	water := in["freshwater_rate"]
	area := in["membrane_area"]
	r := in["pore_radius"]
	thick := in["wick_thickness"]
	eps := in["wick_porosity"]
	angle := in["contact_angle"]

	if water < 0 || area <= 0 {
		return nil, mdo.Domainf(w.name, "freshwater %g must be non-negative and area %g positive", water, area)
	}
	if r <= 0 || thick <= 0 {
		return nil, mdo.Domainf(w.name, "pore radius %g and thickness %g must be positive", r, thick)
	}
	if eps <= 0 || eps >= 1 {
		return nil, mdo.Domainf(w.name, "porosity %g outside (0, 1)", eps)
	}
	if angle < 0 || angle >= 90 {
		return nil, mdo.Domainf(w.name, "contact angle %g deg does not wet", angle)
	}

	cos := math.Cos(angle * math.Pi / 180)
	d := 2 * r
	perm := d * d * eps * eps * eps / (180 * (1 - eps) * (1 - eps))
	pc := 2 * w.SurfaceTension * cos / r
	supply := perm / w.Viscosity * pc / thick
	demand := water / area / w.WaterDensity

	// a dry membrane demands nothing; the ratio saturates
	ratio := w.MaxSupplyRatio
	if demand > 0 {
		ratio = math.Min(supply/demand, w.MaxSupplyRatio)
	}

	return mdo.Values{
		"wick_permeability":       perm,
		"wick_capillary_pressure": pc,
		"wick_supply_rate":        supply,
		"evaporation_demand":      demand,
		"wick_supply_ratio":       ratio,
		"wick_time":               thick * thick * 2 * w.Viscosity / (r * w.SurfaceTension * cos),
	}, nil
}
