package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/factorytwin/internal/experiment"
	"github.com/san-kum/factorytwin/internal/optim"
	"github.com/san-kum/factorytwin/internal/storage"
	"github.com/san-kum/factorytwin/internal/viz"
)

func runSolve(cmd *cobra.Command, args []string) error {
	log := logger()
	if live {
		// the live view owns the terminal
		log = logr.Discard()
	}

	exp, err := newExperiment(cmd, args, log)
	if err != nil {
		return err
	}
	cfg := exp.Config()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	out := cmd.OutOrStdout()
	if !live {
		fmt.Fprintf(out, "solving %s (%d design variables)...\n", cfg.Name, len(cfg.DesignVars))
	}
	start := time.Now()

	var res *optim.Result
	if live {
		res, err = solveLive(ctx, exp)
	} else {
		res, err = exp.Run(ctx)
	}
	if res == nil {
		return err
	}

	fmt.Fprintf(out, "completed in %v\n\n", time.Since(start).Round(time.Millisecond))
	metrics := exp.Metrics().Values()
	fmt.Fprintln(out, viz.Report(exp.Problem().Design(), res, metrics))

	if plot {
		obj, viol := history(res.History)
		fmt.Fprintln(out)
		fmt.Fprintln(out, viz.ConvergencePlot(obj, viol, 60))
	}

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, serr := st.Save(cfg, res, metrics)
		if serr != nil {
			return serr
		}
		fmt.Fprintf(out, "\nrun id: %s\n", runID)
	}
	return err
}

func solveLive(ctx context.Context, exp *experiment.Experiment) (*optim.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	feed := viz.NewFeed(16)
	exp.Driver().AddObserver(feed)

	var res *optim.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := exp.Run(gctx)
		res = r
		feed.Done(r, err)
		return err
	})

	cfg := exp.Config()
	p := tea.NewProgram(viz.NewLiveModel(cfg.Name, cfg.Solver.MaxIterations, feed, cancel))
	if _, err := p.Run(); err != nil {
		cancel()
		feed.Stop()
		_ = g.Wait()
		return nil, err
	}
	err := g.Wait()
	return res, err
}

func history(its []optim.Iteration) (objective, violation []float64) {
	for _, it := range its {
		if !it.Accepted {
			continue
		}
		objective = append(objective, it.Objective)
		violation = append(violation, it.MaxViolation)
	}
	return objective, violation
}

func runEval(cmd *cobra.Command, args []string) error {
	exp, err := newExperiment(cmd, args, logger())
	if err != nil {
		return err
	}
	ev, outputs, err := exp.Evaluate()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	obj, _ := exp.Problem().Design().Objective()
	fmt.Fprintf(out, "%s %s = %.6g\n", obj.Sense, obj.Name, ev.Objective)
	fmt.Fprintln(out, viz.Outputs(outputs))
	if gate := viz.EROIGate(outputs); gate != "" {
		fmt.Fprintln(out, gate)
	}
	return nil
}

func runGraph(cmd *cobra.Command, args []string) error {
	exp, err := newExperiment(cmd, args, logger())
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), viz.GraphReport(exp.Problem().Graph()))
	return nil
}
