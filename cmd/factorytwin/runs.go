package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/factorytwin/internal/config"
	"github.com/san-kum/factorytwin/internal/experiment"
	"github.com/san-kum/factorytwin/internal/storage"
	"github.com/san-kum/factorytwin/internal/viz"
)

func listComponents(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMPONENT\tINPUTS\tOUTPUTS")
	for _, name := range reg.ListComponents() {
		c, err := reg.GetComponent(name)
		if err != nil {
			return err
		}
		var in, out []string
		for _, p := range c.Inputs() {
			in = append(in, p.Name)
		}
		for _, p := range c.Outputs() {
			out = append(out, p.Name)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, strings.Join(in, ", "), strings.Join(out, ", "))
	}
	return w.Flush()
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Lookup(args[0])
	if err != nil {
		return err
	}
	if err := config.Save(args[1], cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s to %s\n", args[0], args[1])
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tCONVERGED\tITER\tPASSES\tOBJECTIVE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\t%d\t%.6g\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Converged,
			run.Iterations,
			run.Passes,
			run.Objective,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	outputs, err := st.LoadOutputs(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "scenario: %s\n", meta.Scenario)
	fmt.Fprintf(out, "strategy: %s\n", meta.Strategy)
	fmt.Fprintf(out, "converged: %t (%s)\n", meta.Converged, meta.Reason)
	fmt.Fprintf(out, "iterations: %d, passes: %d\n", meta.Iterations, meta.Passes)
	fmt.Fprintf(out, "objective: %.6g\n\ndesign:\n", meta.Objective)

	names := make([]string, 0, len(meta.Design))
	for k := range meta.Design {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(out, "  %s: %.6g\n", k, meta.Design[k])
	}

	fmt.Fprintln(out, "\noutputs:")
	fmt.Fprint(out, viz.Outputs(outputs))
	if gate := viz.EROIGate(outputs); gate != "" {
		fmt.Fprintln(out, "\n"+gate)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	data, err := st.Export(args[0])
	if err != nil {
		return err
	}
	if outPath == "" {
		return storage.WriteJSON(cmd.OutOrStdout(), data)
	}
	if err := storage.ExportJSON(outPath, data); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", outPath)
	return nil
}
