package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/diff/fd"

	"github.com/san-kum/factorytwin/internal/mdo"
	"github.com/san-kum/factorytwin/internal/physics"
)

func TestDriverUnconstrainedMinimum(t *testing.T) {
	p := quadratic(t, mdo.AtLeast("x_out", 0))
	res, err := NewDriver(p).Solve(context.Background(), []float64{10}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Converged {
		t.Fatalf("expected convergence, stopped with %q", res.Reason)
	}
	if !near(res.DesignVector[0], 3, 1e-4) {
		t.Errorf("expected x=3, got %g", res.DesignVector[0])
	}
	if res.State != StateConverged {
		t.Errorf("expected converged state, got %s", res.State)
	}
	if res.Design["x"] != res.DesignVector[0] {
		t.Errorf("design map out of sync")
	}
	if res.Outputs["f"] != res.Objective {
		t.Errorf("outputs should come from a pass at the returned design")
	}
	if res.Passes < 3 || len(res.History) == 0 {
		t.Errorf("expected recorded passes and history, got %d passes", res.Passes)
	}
}

func TestDriverActiveConstraint(t *testing.T) {
	p := quadratic(t, mdo.AtMost("x_out", 1))
	res, err := NewDriver(p).Solve(context.Background(), []float64{10}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Converged {
		t.Fatalf("expected convergence, stopped with %q", res.Reason)
	}
	if !near(res.DesignVector[0], 1, 1e-5) {
		t.Errorf("expected x=1, got %g", res.DesignVector[0])
	}
	if res.MaxViolation > 1e-6 {
		t.Errorf("constraint violated by %g", res.MaxViolation)
	}
}

func TestDriverEqualityConstraint(t *testing.T) {
	c := mdo.NewFunc("bowl",
		[]mdo.Port{mdo.In("x", ""), mdo.In("y", "")},
		[]mdo.Port{mdo.Out("f", ""), mdo.Out("s", "")},
		func(v mdo.Values) (mdo.Values, error) {
			dx, dy := v["x"]-1, v["y"]-2
			return mdo.Values{"f": dx*dx + dy*dy, "s": v["x"] + v["y"]}, nil
		})
	d := mdo.NewDesignSpec().
		AddDesignVar("x", -10, 10).
		AddDesignVar("y", -10, 10).
		SetObjective("f", mdo.Minimize).
		AddConstraint(mdo.EqualTo("s", 1))
	p, err := mdo.NewProblem(mdo.NewModel().Add(c, mdo.PromoteAll()), d)
	if err != nil {
		t.Fatal(err)
	}

	res, err := NewDriver(p).Solve(context.Background(), []float64{0, 0}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Converged {
		t.Fatalf("expected convergence, stopped with %q", res.Reason)
	}
	if !near(res.Design["x"], 0, 1e-5) || !near(res.Design["y"], 1, 1e-5) {
		t.Errorf("expected (0, 1), got (%g, %g)", res.Design["x"], res.Design["y"])
	}
	if !near(res.Constraints["s"], 1, 1e-6) {
		t.Errorf("equality violated: s=%g", res.Constraints["s"])
	}
}

func TestDriverMaximize(t *testing.T) {
	c := mdo.NewFunc("cap",
		[]mdo.Port{mdo.In("x", "")},
		[]mdo.Port{mdo.Out("g", "")},
		func(v mdo.Values) (mdo.Values, error) {
			d := v["x"] - 2
			return mdo.Values{"g": 5 - d*d}, nil
		})
	d := mdo.NewDesignSpec().AddDesignVar("x", 0, 10).SetObjective("g", mdo.Maximize)
	p, err := mdo.NewProblem(mdo.NewModel().Add(c, mdo.PromoteAll()), d)
	if err != nil {
		t.Fatal(err)
	}

	res, err := NewDriver(p).Solve(context.Background(), []float64{8}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !near(res.DesignVector[0], 2, 1e-4) || !near(res.Objective, 5, 1e-6) {
		t.Errorf("expected max 5 at x=2, got %g at %g", res.Objective, res.DesignVector[0])
	}
}

func TestDriverBudgetExhaustion(t *testing.T) {
	p := quadratic(t, mdo.AtLeast("x_out", 0))
	opts := DefaultOptions()
	opts.MaxIterations = 1

	res, err := NewDriver(p).Solve(context.Background(), []float64{10}, opts)
	if err != nil {
		t.Fatalf("budget exhaustion is not an error: %v", err)
	}
	if res.Converged {
		t.Error("expected Converged=false")
	}
	if res.Reason != ReasonMaxIterations || res.Iterations != 1 {
		t.Errorf("got reason %q after %d iterations", res.Reason, res.Iterations)
	}
	if res.Objective > 49 {
		t.Errorf("best point should not be worse than the start, got f=%g", res.Objective)
	}
}

func TestDriverCancellation(t *testing.T) {
	p := quadratic(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDriver(p)
	res, err := d.Solve(ctx, []float64{10}, DefaultOptions())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res == nil {
		t.Fatal("expected the best point alongside the error")
	}
	if res.Reason != ReasonCanceled || res.Converged {
		t.Errorf("got reason %q converged=%v", res.Reason, res.Converged)
	}
	if res.DesignVector[0] != 10 {
		t.Errorf("expected the initial point, got %g", res.DesignVector[0])
	}
	if d.State() != StateFailed {
		t.Errorf("expected failed state, got %s", d.State())
	}
}

func TestDriverClampsInitialGuess(t *testing.T) {
	p := quadratic(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, _ := NewDriver(p).Solve(ctx, []float64{500}, DefaultOptions())
	if res.DesignVector[0] != 50 {
		t.Errorf("expected x0 clamped to 50, got %g", res.DesignVector[0])
	}
}

func TestDriverDomainErrorAborts(t *testing.T) {
	m := mdo.NewModel().Add(physics.NewHTLKinetics(), mdo.PromoteAll())
	d := mdo.NewDesignSpec().
		AddDesignVar("htl_temp", -100, 700).
		SetObjective("biocrude_conversion", mdo.Maximize)
	p, err := mdo.NewProblem(m, d)
	if err != nil {
		t.Fatal(err)
	}

	drv := NewDriver(p)
	res, err := drv.Solve(context.Background(), []float64{-10}, DefaultOptions())
	if !errors.Is(err, mdo.ErrDomain) {
		t.Fatalf("expected domain error, got %v", err)
	}
	if res != nil {
		t.Error("expected no result on abort")
	}
	if drv.State() != StateFailed {
		t.Errorf("expected failed state, got %s", drv.State())
	}
}

func TestDriverRejectsBadInput(t *testing.T) {
	p := quadratic(t)

	if _, err := NewDriver(p).Solve(context.Background(), []float64{1, 2}, DefaultOptions()); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch, got %v", err)
	}

	opts := DefaultOptions()
	opts.Tolerance = 0
	if _, err := NewDriver(p).Solve(context.Background(), []float64{1}, opts); !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("expected invalid options, got %v", err)
	}
}

// descent is a fixed-gain steepest descent strategy.
type descent struct {
	proposals int
	accepted  int
	resets    int
}

func (s *descent) Name() string { return "descent" }

func (s *descent) Propose(p *Point) (*Proposal, error) {
	s.proposals++
	step := make([]float64, len(p.Grad))
	for i, g := range p.Grad {
		step[i] = -1e-3 * g
	}
	return &Proposal{Step: step, Multipliers: make([]float64, len(p.C))}, nil
}

func (s *descent) Accept(prev, next *Point, prop *Proposal) { s.accepted++ }
func (s *descent) Reset() { s.resets++ }

func TestDriverUsesInjectedStrategy(t *testing.T) {
	p := quadratic(t)
	s := &descent{}

	var seen []Iteration
	d := NewDriver(p, WithStrategy(s))
	d.AddObserver(ObserverFunc(func(it Iteration) { seen = append(seen, it) }))

	opts := DefaultOptions()
	opts.MaxIterations = 25
	res, err := d.Solve(context.Background(), []float64{10}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Strategy != "descent" {
		t.Errorf("expected descent strategy, got %s", res.Strategy)
	}
	if s.proposals == 0 || s.accepted == 0 {
		t.Errorf("strategy was not driven: %+v", s)
	}
	if res.Objective >= 49 {
		t.Errorf("expected progress from f=49, got %g", res.Objective)
	}
	if len(seen) != len(res.History) {
		t.Errorf("observer saw %d iterations, history has %d", len(seen), len(res.History))
	}
}

func TestDriverOptimumOnDomainBound(t *testing.T) {
	// the component is undefined below x=0, which is also the lower bound
	// and the constrained optimum of (x+1)^2
	var lowest float64
	c := mdo.NewFunc("root",
		[]mdo.Port{mdo.In("x", "")},
		[]mdo.Port{mdo.Out("f", "")},
		func(v mdo.Values) (mdo.Values, error) {
			x := v["x"]
			lowest = math.Min(lowest, x)
			if x < 0 {
				return nil, mdo.Domainf("root", "x=%g must be non-negative", x)
			}
			return mdo.Values{"f": (x + 1) * (x + 1)}, nil
		})
	d := mdo.NewDesignSpec().AddDesignVar("x", 0, 10).SetObjective("f", mdo.Minimize)
	p, err := mdo.NewProblem(mdo.NewModel().Add(c, mdo.PromoteAll()), d)
	if err != nil {
		t.Fatal(err)
	}

	for _, x0 := range []float64{5, 0, -3} {
		lowest = 0
		res, err := NewDriver(p).Solve(context.Background(), []float64{x0}, DefaultOptions())
		if err != nil {
			t.Fatalf("x0=%g: %v", x0, err)
		}
		if !res.Converged {
			t.Errorf("x0=%g: expected convergence, stopped with %q", x0, res.Reason)
		}
		if !near(res.DesignVector[0], 0, 1e-6) {
			t.Errorf("x0=%g: expected x=0, got %g", x0, res.DesignVector[0])
		}
		if lowest < 0 {
			t.Errorf("x0=%g: evaluated x=%g below the lower bound", x0, lowest)
		}
	}
}

func TestDriverSunAreaOnLowerBound(t *testing.T) {
	m := mdo.NewModel().Add(physics.NewSun(), mdo.PromoteAll()).Preset("solar_irradiance", 800)
	d := mdo.NewDesignSpec().
		AddDesignVar("membrane_area", 0, 10).
		SetObjective("freshwater_rate", mdo.Minimize)
	p, err := mdo.NewProblem(m, d)
	if err != nil {
		t.Fatal(err)
	}

	res, err := NewDriver(p).Solve(context.Background(), []float64{5}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Converged {
		t.Errorf("expected convergence, stopped with %q", res.Reason)
	}
	if !near(res.Design["membrane_area"], 0, 1e-6) {
		t.Errorf("expected area 0, got %g", res.Design["membrane_area"])
	}
}

func TestFDFormula(t *testing.T) {
	const h = 1e-6
	tests := []struct {
		name   string
		z      float64
		lo, hi float64
		want   fd.Formula
		ok     bool
	}{
		{"interior", 0.5, 0, 1, fd.Central, true},
		{"lower", 0, 0, 1, fd.Forward, true},
		{"near lower", h / 2, 0, 1, fd.Forward, true},
		{"upper", 1, 0, 1, fd.Backward, true},
		{"unbounded", 3, math.Inf(-1), math.Inf(1), fd.Central, true},
		{"fixed", 2, 2, 2, fd.Formula{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := fdFormula(tt.z, tt.lo, tt.hi, h)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && len(got.Stencil) != len(tt.want.Stencil) {
				t.Fatalf("got stencil %v, want %v", got.Stencil, tt.want.Stencil)
			}
			for i := range got.Stencil {
				if got.Stencil[i] != tt.want.Stencil[i] {
					t.Errorf("stencil[%d] = %v, want %v", i, got.Stencil[i], tt.want.Stencil[i])
				}
			}
		})
	}
}
