package optim

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/factorytwin/internal/mdo"
)

const armijo = 1e-4

// Evaluator is the problem the driver optimizes. *mdo.Problem satisfies it.
type Evaluator interface {
	Design() *mdo.DesignSpec
	Evaluate(x []float64) (mdo.Evaluation, error)
	Snapshot() map[string]float64
}

type Options struct {
	MaxIterations int
	Tolerance     float64
	FDStep        float64
	// Patience is the number of consecutive stalled, feasible iterations
	// that count as convergence.
	Patience      int
	MaxBacktracks int
}

func DefaultOptions() Options {
	return Options{
		MaxIterations: 200,
		Tolerance:     1e-8,
		FDStep:        1e-6,
		Patience:      2,
		MaxBacktracks: 20,
	}
}

func (o Options) validate() error {
	if o.MaxIterations <= 0 {
		return fmt.Errorf("%w: max iterations must be positive, got %d", ErrInvalidOptions, o.MaxIterations)
	}
	if o.Tolerance <= 0 || math.IsNaN(o.Tolerance) {
		return fmt.Errorf("%w: tolerance must be positive, got %g", ErrInvalidOptions, o.Tolerance)
	}
	if o.FDStep <= 0 || math.IsNaN(o.FDStep) {
		return fmt.Errorf("%w: finite difference step must be positive, got %g", ErrInvalidOptions, o.FDStep)
	}
	if o.Patience <= 0 {
		return fmt.Errorf("%w: patience must be positive, got %d", ErrInvalidOptions, o.Patience)
	}
	if o.MaxBacktracks <= 0 {
		return fmt.Errorf("%w: max backtracks must be positive, got %d", ErrInvalidOptions, o.MaxBacktracks)
	}
	return nil
}

type State int32

const (
	StateInitialized State = iota
	StateEvaluating
	StateConverged
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateEvaluating:
		return "evaluating"
	case StateConverged:
		return "converged"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Reason explains why a solve stopped.
type Reason string

const (
	ReasonStepTolerance    Reason = "step below tolerance"
	ReasonObjectiveStalled Reason = "objective change below tolerance"
	ReasonMaxIterations    Reason = "iteration budget exhausted"
	ReasonStalled          Reason = "line search failed"
	ReasonCanceled         Reason = "canceled"
)

// Iteration summarizes one outer iteration.
type Iteration struct {
	Index        int
	Objective    float64
	MaxViolation float64
	Merit        float64
	Penalty      float64
	StepNorm     float64
	StepLength   float64
	Accepted     bool
	Passes       int
	Design       []float64
}

type Observer interface {
	OnIteration(it Iteration)
}

// ObserverFunc adapts a function into an Observer.
type ObserverFunc func(Iteration)

func (f ObserverFunc) OnIteration(it Iteration) { f(it) }

type Result struct {
	DesignVector []float64
	Design       map[string]float64
	Objective    float64
	Constraints  map[string]float64
	Outputs      map[string]float64
	Converged    bool
	Iterations   int
	Passes       int
	State        State
	Reason       Reason
	MaxViolation float64
	Strategy     string
	History      []Iteration
}

type Driver struct {
	eval      Evaluator
	strategy  Strategy
	log       logr.Logger
	observers []Observer
	state     atomic.Int32
}

type DriverOption func(*Driver)

func WithStrategy(s Strategy) DriverOption {
	return func(d *Driver) { d.strategy = s }
}

func WithLogger(l logr.Logger) DriverOption {
	return func(d *Driver) { d.log = l }
}

func NewDriver(e Evaluator, opts ...DriverOption) *Driver {
	d := &Driver{eval: e, strategy: NewSQP(), log: logr.Discard()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Driver) AddObserver(o Observer) { d.observers = append(d.observers, o) }

// State reports the lifecycle state of the current or last solve. It is
// safe to call from another goroutine.
func (d *Driver) State() State { return State(d.state.Load()) }

func (d *Driver) setState(s State) { d.state.Store(int32(s)) }

// Solve runs the optimizer from x0. Budget exhaustion and stalls return the
// best point found with Converged false and a nil error. Cancellation is
// checked between iterations and returns the best point with ctx.Err().
func (d *Driver) Solve(ctx context.Context, x0 []float64, o Options) (*Result, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}
	spec := d.eval.Design()
	if len(x0) != spec.Dim() {
		return nil, fmt.Errorf("%w: got %d values for %d design variables", ErrDimensionMismatch, len(x0), spec.Dim())
	}

	d.setState(StateInitialized)
	r := newRun(d, spec, o)
	d.strategy.Reset()
	d.setState(StateEvaluating)

	cur, err := r.sample(r.scale.toZ(clampVec(x0, r.scale.lo, r.scale.hi)))
	if err != nil {
		return d.fail(err)
	}
	pt, err := r.point(cur)
	if err != nil {
		return d.fail(err)
	}
	best := cur

	var penalty float64
	fails, streak := 0, 0
	for it := 1; it <= o.MaxIterations; it++ {
		select {
		case <-ctx.Done():
			res, err := r.finish(best, false, ReasonCanceled, it-1)
			if err != nil {
				return d.fail(err)
			}
			return res, ctx.Err()
		default:
		}

		prop, err := d.strategy.Propose(pt)
		if err != nil {
			return d.fail(fmt.Errorf("iteration %d: %w", it, err))
		}

		lmax := infNorm(prop.Multipliers)
		penalty = math.Max(lmax, 0.5*(penalty+lmax))
		stepNorm := infNorm(prop.Step)
		merit := cur.f + penalty*cur.viol

		if stepNorm <= o.Tolerance && cur.maxViol <= o.Tolerance {
			r.notify(r.iteration(it, cur, merit, penalty, stepNorm, 0, true))
			return r.finish(cur, true, ReasonStepTolerance, it)
		}

		slope := dot(pt.Grad, prop.Step) - penalty*cur.viol
		trial, alpha, err := r.lineSearch(cur, prop.Step, merit, slope, penalty)
		if err != nil {
			return d.fail(err)
		}
		if trial == nil {
			fails++
			r.notify(r.iteration(it, cur, merit, penalty, stepNorm, 0, false))
			d.log.V(1).Info("line search failed", "iteration", it, "consecutive", fails)
			if fails >= 2 {
				return r.finish(best, false, ReasonStalled, it)
			}
			d.strategy.Reset()
			continue
		}
		fails = 0

		next, err := r.point(trial)
		if err != nil {
			return d.fail(err)
		}
		d.strategy.Accept(pt, next, prop)

		df := math.Abs(trial.f - cur.f)
		cur, pt = trial, next
		if r.better(cur, best) {
			best = cur
		}
		r.notify(r.iteration(it, cur, cur.f+penalty*cur.viol, penalty, stepNorm, alpha, true))

		if df < o.Tolerance && cur.maxViol <= o.Tolerance {
			streak++
		} else {
			streak = 0
		}
		if streak >= o.Patience {
			return r.finish(cur, true, ReasonObjectiveStalled, it)
		}
	}
	return r.finish(best, false, ReasonMaxIterations, o.MaxIterations)
}

func (d *Driver) fail(err error) (*Result, error) {
	d.setState(StateFailed)
	d.log.Info("solve aborted", "error", err.Error())
	return nil, err
}

// row maps one raw constraint bound onto the form value >= 0 (== 0 for
// equalities).
type row struct {
	index int
	sign  float64
	bound float64
	eq    bool
}

func constraintRows(spec *mdo.DesignSpec) []row {
	var rows []row
	for i, c := range spec.Constraints() {
		switch {
		case c.IsEquality():
			rows = append(rows, row{index: i, sign: 1, bound: *c.Lower, eq: true})
		default:
			if c.Lower != nil {
				rows = append(rows, row{index: i, sign: 1, bound: *c.Lower})
			}
			if c.Upper != nil {
				rows = append(rows, row{index: i, sign: -1, bound: *c.Upper})
			}
		}
	}
	return rows
}

// sample is one evaluated design point.
type sample struct {
	z, x    []float64
	eval    mdo.Evaluation
	f       float64
	c       []float64
	viol    float64
	maxViol float64
}

type run struct {
	d       *Driver
	spec    *mdo.DesignSpec
	opts    Options
	scale   scaling
	rows    []row
	sign    float64
	passes  int
	history []Iteration
}

func newRun(d *Driver, spec *mdo.DesignSpec, o Options) *run {
	lo, hi := spec.BoundsVector()
	sign := 1.0
	if obj, _ := spec.Objective(); obj.Sense == mdo.Maximize {
		sign = -1
	}
	return &run{
		d:     d,
		spec:  spec,
		opts:  o,
		scale: newScaling(lo, hi),
		rows:  constraintRows(spec),
		sign:  sign,
	}
}

func (r *run) sample(z []float64) (*sample, error) {
	s := &sample{z: append([]float64(nil), z...)}
	s.x = r.scale.toX(s.z)
	r.passes++
	ev, err := r.d.eval.Evaluate(s.x)
	if err != nil {
		return nil, err
	}
	s.eval = ev
	s.f = r.sign * ev.Objective
	s.c = make([]float64, len(r.rows))
	for i, rw := range r.rows {
		v := rw.sign * (ev.Constraints[rw.index] - rw.bound)
		s.c[i] = v
		viol := math.Max(0, -v)
		if rw.eq {
			viol = math.Abs(v)
		}
		s.viol += viol
		s.maxViol = math.Max(s.maxViol, viol)
	}
	return s, nil
}

// point adds finite-difference sensitivities of the objective and
// constraint rows to s. Each perturbation is one full pass and stays inside
// the design bounds.
func (r *run) point(s *sample) (*Point, error) {
	n, m := len(s.z), len(r.rows)
	jac := mat.NewDense(1+m, n, nil)
	lower, upper := r.scale.bounds()

	origin := make([]float64, 1+m)
	origin[0] = s.f
	copy(origin[1:], s.c)

	col := mat.NewDense(1+m, 1, nil)
	z := make([]float64, n)
	var passErr error
	for j := 0; j < n; j++ {
		formula, ok := fdFormula(s.z[j], lower[j], upper[j], r.opts.FDStep)
		if !ok {
			// fixed variable, zero sensitivity
			continue
		}
		fd.Jacobian(col, func(y, t []float64) {
			if passErr != nil {
				return
			}
			copy(z, s.z)
			z[j] = t[0]
			ts, err := r.sample(z)
			if err != nil {
				passErr = err
				return
			}
			y[0] = ts.f
			copy(y[1:], ts.c)
		}, s.z[j:j+1], &fd.JacobianSettings{Formula: formula, Step: r.opts.FDStep, OriginValue: origin})
		if passErr != nil {
			return nil, passErr
		}
		jac.SetCol(j, mat.Col(nil, 0, col))
	}

	p := &Point{
		Z:        s.z,
		Lower:    lower,
		Upper:    upper,
		F:        s.f,
		Grad:     append([]float64(nil), jac.RawRowView(0)...),
		C:        s.c,
		Equality: make([]bool, m),
	}
	for i, rw := range r.rows {
		p.Equality[i] = rw.eq
	}
	if m > 0 {
		p.Jac = mat.DenseCopyOf(jac.Slice(1, 1+m, 0, n))
	}
	return p, nil
}

func (r *run) lineSearch(cur *sample, step []float64, merit, slope, penalty float64) (*sample, float64, error) {
	lower, upper := r.scale.bounds()
	alpha := 1.0
	for k := 0; k < r.opts.MaxBacktracks; k++ {
		z := make([]float64, len(cur.z))
		for i := range z {
			z[i] = math.Min(math.Max(cur.z[i]+alpha*step[i], lower[i]), upper[i])
		}
		t, err := r.sample(z)
		if err != nil {
			return nil, 0, err
		}
		if t.f+penalty*t.viol <= merit+armijo*alpha*math.Min(slope, 0) {
			return t, alpha, nil
		}
		alpha *= 0.5
	}
	return nil, 0, nil
}

// better prefers feasible points, then the lower objective; among
// infeasible points the smaller violation wins.
func (r *run) better(a, b *sample) bool {
	tol := r.opts.Tolerance
	af, bf := a.maxViol <= tol, b.maxViol <= tol
	switch {
	case af && !bf:
		return true
	case !af && bf:
		return false
	case !af && !bf:
		return a.maxViol < b.maxViol
	}
	return a.f < b.f
}

func (r *run) iteration(idx int, s *sample, merit, penalty, stepNorm, alpha float64, accepted bool) Iteration {
	return Iteration{
		Index:        idx,
		Objective:    s.eval.Objective,
		MaxViolation: s.maxViol,
		Merit:        merit,
		Penalty:      penalty,
		StepNorm:     stepNorm,
		StepLength:   alpha,
		Accepted:     accepted,
		Passes:       r.passes,
		Design:       append([]float64(nil), s.x...),
	}
}

func (r *run) notify(it Iteration) {
	r.history = append(r.history, it)
	r.d.log.V(1).Info("iteration",
		"index", it.Index, "objective", it.Objective, "maxViolation", it.MaxViolation,
		"step", it.StepNorm, "alpha", it.StepLength, "passes", it.Passes)
	for _, o := range r.d.observers {
		o.OnIteration(it)
	}
}

// finish runs a fresh pass at the returned design so that the outputs
// describe exactly that point.
func (r *run) finish(s *sample, converged bool, reason Reason, iterations int) (*Result, error) {
	r.passes++
	ev, err := r.d.eval.Evaluate(s.x)
	if err != nil {
		return nil, err
	}

	res := &Result{
		DesignVector: append([]float64(nil), s.x...),
		Design:       make(map[string]float64, len(s.x)),
		Objective:    ev.Objective,
		Constraints:  make(map[string]float64, len(ev.Constraints)),
		Outputs:      r.d.eval.Snapshot(),
		Converged:    converged,
		Iterations:   iterations,
		Passes:       r.passes,
		State:        StateFailed,
		Reason:       reason,
		MaxViolation: r.spec.MaxViolation(ev.Constraints),
		Strategy:     r.d.strategy.Name(),
		History:      r.history,
	}
	for i, name := range r.spec.Names() {
		res.Design[name] = s.x[i]
	}
	for i, c := range r.spec.Constraints() {
		res.Constraints[c.Name] = ev.Constraints[i]
	}
	if converged {
		res.State = StateConverged
	}
	r.d.setState(res.State)
	r.d.log.Info("solve finished",
		"strategy", res.Strategy, "converged", converged, "reason", string(reason),
		"iterations", iterations, "passes", res.Passes, "objective", res.Objective,
		"maxViolation", res.MaxViolation)
	return res, nil
}

// scaling maps design variables with finite bounds onto [0, 1]. Variables
// with an infinite bound are left unscaled.
type scaling struct {
	lo, hi []float64
	unit   []bool
}

func newScaling(lo, hi []float64) scaling {
	s := scaling{lo: lo, hi: hi, unit: make([]bool, len(lo))}
	for i := range lo {
		s.unit[i] = !math.IsInf(lo[i], 0) && !math.IsInf(hi[i], 0) && hi[i] > lo[i]
	}
	return s
}

func (s scaling) toZ(x []float64) []float64 {
	z := make([]float64, len(x))
	for i, v := range x {
		z[i] = v
		if s.unit[i] {
			z[i] = (v - s.lo[i]) / (s.hi[i] - s.lo[i])
		}
	}
	return z
}

func (s scaling) toX(z []float64) []float64 {
	x := make([]float64, len(z))
	for i, v := range z {
		x[i] = v
		if s.unit[i] {
			// rounding must not leave the declared bounds
			x[i] = math.Min(math.Max(s.lo[i]+v*(s.hi[i]-s.lo[i]), s.lo[i]), s.hi[i])
		}
	}
	return x
}

func (s scaling) bounds() (lower, upper []float64) {
	lower = make([]float64, len(s.lo))
	upper = make([]float64, len(s.lo))
	for i := range s.lo {
		lower[i], upper[i] = s.lo[i], s.hi[i]
		if s.unit[i] {
			lower[i], upper[i] = 0, 1
		}
	}
	return lower, upper
}

// fdFormula picks the difference formula whose perturbations of z by h stay
// inside [lo, hi]: central in the interior, forward near the lower bound,
// backward near the upper one. It reports false when the interval is
// narrower than the step on both sides.
func fdFormula(z, lo, hi, h float64) (fd.Formula, bool) {
	down, up := z-h >= lo, z+h <= hi
	switch {
	case down && up:
		return fd.Central, true
	case up:
		return fd.Forward, true
	case down:
		return fd.Backward, true
	}
	return fd.Formula{}, false
}

func clampVec(x, lo, hi []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Min(math.Max(v, lo[i]), hi[i])
	}
	return out
}
