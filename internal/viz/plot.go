package viz

import (
	"math"

	"github.com/guptarohit/asciigraph"
)

// ConvergencePlot charts the objective history and, when any iterate was
// infeasible, the worst constraint violation.
func ConvergencePlot(objective, violation []float64, width int) string {
	if len(objective) == 0 {
		return Subtle.Render("no iterations recorded")
	}
	out := asciigraph.Plot(objective,
		asciigraph.Height(8),
		asciigraph.Width(width),
		asciigraph.Caption("objective"))

	infeasible := false
	for _, v := range violation {
		if v > 0 {
			infeasible = true
			break
		}
	}
	if infeasible {
		logv := make([]float64, len(violation))
		for i, v := range violation {
			logv[i] = math.Log10(math.Max(v, 1e-16))
		}
		out += "\n\n" + asciigraph.Plot(logv,
			asciigraph.Height(5),
			asciigraph.Width(width),
			asciigraph.Caption("log10 max violation"))
	}
	return out
}
