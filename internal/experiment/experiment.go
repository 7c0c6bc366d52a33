package experiment

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/san-kum/factorytwin/internal/config"
	"github.com/san-kum/factorytwin/internal/mdo"
	"github.com/san-kum/factorytwin/internal/metrics"
	"github.com/san-kum/factorytwin/internal/optim"
)

// Experiment is a configured problem ready to evaluate or optimize.
type Experiment struct {
	cfg     *config.Config
	problem *mdo.Problem
	driver  *optim.Driver
	metrics *metrics.Collector
	log     logr.Logger
}

// New builds the model described by cfg and validates it against the
// design specification.
func New(cfg *config.Config, reg *Registry, log logr.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	model, err := BuildModel(cfg, reg)
	if err != nil {
		return nil, err
	}
	design, err := BuildDesign(cfg)
	if err != nil {
		return nil, err
	}

	problem, err := mdo.NewProblem(model, design,
		mdo.WithLogger(log.WithName("engine")),
		mdo.WithParallel(cfg.Solver.Parallel),
	)
	if err != nil {
		return nil, fmt.Errorf("experiment %s: %w", cfg.Name, err)
	}

	strategy, err := reg.GetStrategy(cfg.Solver.Strategy)
	if err != nil {
		return nil, err
	}

	obj, _ := design.Objective()
	collector := metrics.NewCollector(reg.DefaultMetrics(obj.Sense, cfg.Solver.Tolerance)...)
	driver := optim.NewDriver(problem, optim.WithStrategy(strategy), optim.WithLogger(log.WithName("driver")))
	driver.AddObserver(collector)

	return &Experiment{
		cfg:     cfg,
		problem: problem,
		driver:  driver,
		metrics: collector,
		log:     log,
	}, nil
}

// BuildModel instantiates the configured components with every port
// promoted, then applies explicit wiring and presets.
func BuildModel(cfg *config.Config, reg *Registry) (*mdo.Model, error) {
	m := mdo.NewModel()
	for _, name := range cfg.Components {
		c, err := reg.GetComponent(name)
		if err != nil {
			return nil, err
		}
		m.Add(c, mdo.PromoteAll())
	}
	for _, c := range cfg.Connections {
		m.Connect(c.From, c.To)
	}
	for _, p := range cfg.Promotions {
		m.Promote(p.Component, p.Local, p.Key)
	}
	for k, v := range cfg.Presets {
		m.Preset(k, v)
	}
	return m, nil
}

func BuildDesign(cfg *config.Config) (*mdo.DesignSpec, error) {
	sense, err := mdo.ParseSense(cfg.Objective.Sense)
	if err != nil {
		return nil, err
	}
	d := mdo.NewDesignSpec()
	for _, dv := range cfg.DesignVars {
		d.AddDesignVar(dv.Name, dv.Lower, dv.Upper)
	}
	d.SetObjective(cfg.Objective.Name, sense)
	for _, c := range cfg.Constraints {
		d.AddConstraint(mdo.Constraint{Name: c.Name, Lower: c.Lower, Upper: c.Upper})
	}
	return d, nil
}

func (e *Experiment) Config() *config.Config { return e.cfg }

func (e *Experiment) Problem() *mdo.Problem { return e.problem }

func (e *Experiment) Driver() *optim.Driver { return e.driver }

func (e *Experiment) Metrics() *metrics.Collector { return e.metrics }

// InitialDesign returns the configured starting point, using the bound
// midpoint for variables without one.
func (e *Experiment) InitialDesign() []float64 {
	x := make([]float64, len(e.cfg.DesignVars))
	for i, dv := range e.cfg.DesignVars {
		if dv.Initial != nil {
			x[i] = *dv.Initial
		} else {
			x[i] = 0.5 * (dv.Lower + dv.Upper)
		}
	}
	return x
}

func (e *Experiment) Options() optim.Options {
	o := optim.DefaultOptions()
	o.MaxIterations = e.cfg.Solver.MaxIterations
	o.Tolerance = e.cfg.Solver.Tolerance
	o.FDStep = e.cfg.Solver.FDStep
	o.Patience = e.cfg.Solver.Patience
	return o
}

// Evaluate runs one pass at the initial design and returns the full
// namespace.
func (e *Experiment) Evaluate() (mdo.Evaluation, map[string]float64, error) {
	ev, err := e.problem.Evaluate(e.InitialDesign())
	if err != nil {
		return mdo.Evaluation{}, nil, err
	}
	return ev, e.problem.Snapshot(), nil
}

// Seed runs the configured grid search and returns its best point, or the
// initial design when grid seeding is off.
func (e *Experiment) Seed(ctx context.Context) ([]float64, error) {
	x0 := e.InitialDesign()
	if e.cfg.Solver.GridPoints == 0 {
		return x0, nil
	}
	res, err := optim.NewGridSearch(e.cfg.Solver.GridPoints).
		WithTolerance(e.cfg.Solver.Tolerance).
		Search(ctx, e.problem)
	if err != nil {
		return nil, fmt.Errorf("grid seed: %w", err)
	}
	e.log.Info("grid seed", "evaluated", res.Evaluated, "skipped", res.Skipped,
		"objective", res.Objective, "maxViolation", res.MaxViolation)
	return res.Best, nil
}

// Run seeds and solves the problem.
func (e *Experiment) Run(ctx context.Context) (*optim.Result, error) {
	x0, err := e.Seed(ctx)
	if err != nil {
		return nil, err
	}
	e.metrics.Reset()
	return e.driver.Solve(ctx, x0, e.Options())
}
