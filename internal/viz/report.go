package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/factorytwin/internal/mdo"
	"github.com/san-kum/factorytwin/internal/optim"
	"github.com/san-kum/factorytwin/internal/physics"
)

// reportKeys are the outputs highlighted when present.
var reportKeys = []string{
	"sun_thermal_power", "freshwater_rate", "biomass_rate", "biocrude_rate",
	"ethanol_rate", "biochar_rate", "syngas_energy", "htl_energy_required",
	"hx_effectiveness", "hx_heat_recovered", "n_closure", "p_closure",
	"algae_biomass_daily", "fermentation_power", "wick_supply_ratio",
}

// Report renders a finished solve.
func Report(spec *mdo.DesignSpec, res *optim.Result, metrics map[string]float64) string {
	var b strings.Builder

	obj, _ := spec.Objective()
	b.WriteString(Title.Render("Optimization Result") + "\n\n")
	b.WriteString(row("status", status(res)) + "\n")
	b.WriteString(row("strategy", res.Strategy) + "\n")
	b.WriteString(row("iterations", fmt.Sprintf("%d (%d passes)", res.Iterations, res.Passes)) + "\n")
	b.WriteString(row(fmt.Sprintf("%s %s", obj.Sense, obj.Name), format(res.Objective)) + "\n")

	b.WriteString("\n" + HeaderStyle.Render("Design") + "\n")
	lower, upper := spec.BoundsVector()
	for i, name := range spec.Names() {
		v := res.Design[name]
		note := ""
		if v <= lower[i] || v >= upper[i] {
			note = Subtle.Render("  at bound")
		}
		b.WriteString(row(name, format(v)) + note + "\n")
	}

	if cons := spec.Constraints(); len(cons) > 0 {
		b.WriteString("\n" + HeaderStyle.Render("Constraints") + "\n")
		for _, c := range cons {
			v := res.Constraints[c.Name]
			mark := StatusOK.Render("ok")
			if c.Violation(v) > 0 {
				mark = StatusFail.Render(fmt.Sprintf("violated by %s", format(c.Violation(v))))
			}
			b.WriteString(row(c.Name, fmt.Sprintf("%s %s", format(v), bounds(c))) + "  " + mark + "\n")
		}
	}

	var shown []string
	for _, k := range reportKeys {
		if _, ok := res.Outputs[k]; ok {
			shown = append(shown, k)
		}
	}
	if len(shown) > 0 {
		b.WriteString("\n" + HeaderStyle.Render("Outputs") + "\n")
		for _, k := range shown {
			b.WriteString(row(k, format(res.Outputs[k])) + "\n")
		}
	}

	if len(metrics) > 0 {
		b.WriteString("\n" + HeaderStyle.Render("Metrics") + "\n")
		names := make([]string, 0, len(metrics))
		for k := range metrics {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			b.WriteString(row(k, format(metrics[k])) + "\n")
		}
	}

	if gate := EROIGate(res.Outputs); gate != "" {
		b.WriteString("\n" + Separator(40) + "\n" + gate + "\n")
	}

	return Panel.Render(strings.TrimRight(b.String(), "\n"))
}

// EROIGate reports whether the factory clears the viability threshold, or
// "" when the outputs carry no EROI.
func EROIGate(outputs map[string]float64) string {
	v, ok := outputs["eroi"]
	if !ok {
		return ""
	}
	label := fmt.Sprintf("EROI %.2f (gate > %.1f): ", v, physics.EROIGate)
	if v > physics.EROIGate {
		return label + StatusOK.Render("PASS")
	}
	return label + StatusFail.Render("FAIL")
}

// Outputs renders a full namespace dump in key order.
func Outputs(values map[string]float64) string {
	keys := make([]string, 0, len(values))
	width := 0
	for k := range values {
		keys = append(keys, k)
		width = max(width, len(k))
	}
	sort.Strings(keys)

	label := MetricLabel.Width(width + 2)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(label.Render(k) + MetricValue.Render(format(values[k])) + "\n")
	}
	return b.String()
}

func status(res *optim.Result) string {
	switch {
	case res.Converged:
		return StatusOK.Render("converged") + Subtle.Render(" ("+string(res.Reason)+")")
	case res.Reason == optim.ReasonCanceled:
		return StatusWarn.Render("canceled")
	default:
		return StatusFail.Render("not converged") + Subtle.Render(" ("+string(res.Reason)+")")
	}
}

func bounds(c mdo.Constraint) string {
	switch {
	case c.IsEquality():
		return fmt.Sprintf("= %s", format(*c.Lower))
	case c.Lower != nil && c.Upper != nil:
		return fmt.Sprintf("in [%s, %s]", format(*c.Lower), format(*c.Upper))
	case c.Lower != nil:
		return ">= " + format(*c.Lower)
	default:
		return "<= " + format(*c.Upper)
	}
}

func format(v float64) string {
	return fmt.Sprintf("%.6g", v)
}

// GraphReport lists the execution order, dependency levels and the
// producer of every namespace key.
func GraphReport(g *mdo.Graph) string {
	var b strings.Builder
	b.WriteString(Title.Render("Execution order") + "\n")
	for i, name := range g.Order() {
		b.WriteString(fmt.Sprintf("  %2d. %s\n", i+1, name))
	}

	b.WriteString("\n" + Title.Render("Levels") + "\n")
	for i, level := range g.Levels() {
		b.WriteString(fmt.Sprintf("  %d: %s\n", i, strings.Join(level, ", ")))
	}

	b.WriteString("\n" + Title.Render("Variables") + "\n")
	vars := g.Variables()
	width := 0
	for _, v := range vars {
		width = max(width, len(v.Name))
	}
	key := lipgloss.NewStyle().Width(width + 2)
	for _, v := range vars {
		unit := v.Unit
		if unit == "" {
			unit = "-"
		}
		consumers := strings.Join(g.Consumers(v.Name), ", ")
		if consumers == "" {
			consumers = "-"
		}
		b.WriteString("  " + key.Render(v.Name) +
			Subtle.Render(fmt.Sprintf("[%s] ", unit)) +
			fmt.Sprintf("%s -> %s\n", v.ProducedBy, consumers))
	}
	return b.String()
}
