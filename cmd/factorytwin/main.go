package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/san-kum/factorytwin/internal/config"
	"github.com/san-kum/factorytwin/internal/experiment"
	"github.com/san-kum/factorytwin/internal/telemetry"
)

const defaultPreset = "wefc/baseline"

var (
	dataDir    string
	logLevel   string
	logFormat  string
	configFile string
	// Solver overrides
	gridPoints int
	maxIter    int
	tolerance  float64
	parallel   bool
	timeout    time.Duration
	// Output
	live    bool
	plot    bool
	save    bool
	outPath string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "factorytwin",
		Short: "coupled factory digital twin and design optimizer",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".factorytwin", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error); defaults to $LOG_LEVEL")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json); defaults to $LOG_FORMAT")

	solveCmd := &cobra.Command{
		Use:   "solve [preset]",
		Short: "optimize a scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSolve,
	}
	solveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	solveCmd.Flags().IntVar(&gridPoints, "grid", 0, "seed with a grid search of N points per variable")
	solveCmd.Flags().IntVar(&maxIter, "max-iter", config.DefaultMaxIterations, "iteration budget")
	solveCmd.Flags().Float64Var(&tolerance, "tol", config.DefaultTolerance, "convergence tolerance")
	solveCmd.Flags().BoolVar(&parallel, "parallel", false, "evaluate independent components concurrently")
	solveCmd.Flags().DurationVar(&timeout, "timeout", 0, "cancel the solve after this long")
	solveCmd.Flags().BoolVar(&live, "live", false, "show live progress")
	solveCmd.Flags().BoolVar(&plot, "plot", false, "plot convergence history")
	solveCmd.Flags().BoolVar(&save, "save", false, "save the result to the data directory")

	evalCmd := &cobra.Command{
		Use:   "eval [preset]",
		Short: "run one pass at the initial design",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEval,
	}
	evalCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")

	graphCmd := &cobra.Command{
		Use:   "graph [preset]",
		Short: "show execution order and variable producers",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runGraph,
	}
	graphCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")

	componentsCmd := &cobra.Command{
		Use:   "components",
		Short: "list registered components and their ports",
		RunE:  listComponents,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, ref := range config.ListAll() {
				fmt.Fprintf(out, "  %s\n", ref)
			}
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [preset] [path]",
		Short: "write a scenario as an editable config file",
		Args:  cobra.ExactArgs(2),
		RunE:  writeConfig,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a saved run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&outPath, "out", "", "write to file instead of stdout")

	rootCmd.AddCommand(solveCmd, evalCmd, graphCmd, componentsCmd, presetsCmd, configCmd, listCmd, showCmd, exportCmd)
	return rootCmd
}

func logger() logr.Logger {
	return telemetry.SetupLogger(logLevel, logFormat)
}

// loadConfig resolves --config or a preset reference, then applies any
// solver flags the user set explicitly.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case configFile != "":
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	case len(args) > 0:
		cfg, err = config.Lookup(args[0])
	default:
		cfg, err = config.Lookup(defaultPreset)
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("grid") {
		cfg.Solver.GridPoints = gridPoints
	}
	if flags.Changed("max-iter") {
		cfg.Solver.MaxIterations = maxIter
	}
	if flags.Changed("tol") {
		cfg.Solver.Tolerance = tolerance
	}
	if flags.Changed("parallel") {
		cfg.Solver.Parallel = parallel
	}
	return cfg, cfg.Validate()
}

func newExperiment(cmd *cobra.Command, args []string, log logr.Logger) (*experiment.Experiment, error) {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return nil, err
	}
	return experiment.New(cfg, experiment.NewRegistry(), log)
}
