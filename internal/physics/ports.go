package physics

import "github.com/san-kum/factorytwin/internal/mdo"

// ports carries the identity and port declarations shared by every
// flowsheet component.
type ports struct {
	name    string
	inputs  []mdo.Port
	outputs []mdo.Port
}

func (p ports) Name() string { return p.name }
func (p ports) Inputs() []mdo.Port { return p.inputs }
func (p ports) Outputs() []mdo.Port { return p.outputs }

func celsius(kelvin float64) float64 { return kelvin - 273.15 }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
