package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/factorytwin/internal/mdo"
)

// GridResult is the best point of a full-factorial sweep.
type GridResult struct {
	Best         []float64
	Objective    float64
	MaxViolation float64
	Evaluated    int
	Skipped      int
}

// GridSearch evaluates every combination of evenly spaced values across
// the design bounds.
type GridSearch struct {
	points int
	tol    float64
}

func NewGridSearch(points int) *GridSearch {
	return &GridSearch{points: points, tol: DefaultOptions().Tolerance}
}

// WithTolerance sets the violation at or below which a point counts as
// feasible.
func (g *GridSearch) WithTolerance(tol float64) *GridSearch {
	g.tol = tol
	return g
}

// Search returns the best grid point, feasible first and then by
// objective. Points rejected with a domain error are skipped.
func (g *GridSearch) Search(ctx context.Context, e Evaluator) (*GridResult, error) {
	if g.points <= 0 {
		return nil, fmt.Errorf("%w: grid points must be positive, got %d", ErrInvalidOptions, g.points)
	}
	spec := e.Design()
	lo, hi := spec.BoundsVector()
	ranges := make([][]float64, len(lo))
	for i := range lo {
		if math.IsInf(lo[i], 0) || math.IsInf(hi[i], 0) {
			return nil, fmt.Errorf("%w: grid search needs finite bounds for %s", ErrInvalidOptions, spec.Names()[i])
		}
		ranges[i] = linspace(lo[i], hi[i], g.points)
	}

	sign := 1.0
	if obj, _ := spec.Objective(); obj.Sense == mdo.Maximize {
		sign = -1
	}

	s := &gridState{eval: e, spec: spec, ranges: ranges, sign: sign, tol: g.tol, best: math.Inf(1), bestViol: math.Inf(1)}
	if err := s.searchRecursive(ctx, 0, make([]float64, len(ranges))); err != nil {
		return s.result(), err
	}
	if s.bestX == nil {
		return nil, fmt.Errorf("%w: %d points skipped", ErrEmptyGrid, s.skipped)
	}
	return s.result(), nil
}

type gridState struct {
	eval   Evaluator
	spec   *mdo.DesignSpec
	ranges [][]float64
	sign   float64
	tol    float64

	best     float64
	bestViol float64
	bestRaw  float64
	bestX    []float64

	evaluated int
	skipped   int
}

func (s *gridState) searchRecursive(ctx context.Context, depth int, current []float64) error {
	if depth == len(s.ranges) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ev, err := s.eval.Evaluate(current)
		if err != nil {
			if errors.Is(err, mdo.ErrDomain) {
				s.skipped++
				return nil
			}
			return err
		}
		s.evaluated++

		f := s.sign * ev.Objective
		viol := s.spec.MaxViolation(ev.Constraints)
		if s.better(f, viol) {
			s.best, s.bestViol, s.bestRaw = f, viol, ev.Objective
			s.bestX = append([]float64(nil), current...)
		}
		return nil
	}

	for _, val := range s.ranges[depth] {
		current[depth] = val
		if err := s.searchRecursive(ctx, depth+1, current); err != nil {
			return err
		}
	}
	return nil
}

// better ranks feasible points by objective and infeasible ones by
// violation, the same order the driver uses for its best point.
func (s *gridState) better(f, viol float64) bool {
	if s.bestX == nil {
		return true
	}
	feas, bestFeas := viol <= s.tol, s.bestViol <= s.tol
	switch {
	case feas && !bestFeas:
		return true
	case !feas && bestFeas:
		return false
	case !feas && !bestFeas:
		return viol < s.bestViol || (viol == s.bestViol && f < s.best)
	}
	return f < s.best
}

func (s *gridState) result() *GridResult {
	return &GridResult{
		Best:         s.bestX,
		Objective:    s.bestRaw,
		MaxViolation: s.bestViol,
		Evaluated:    s.evaluated,
		Skipped:      s.skipped,
	}
}

func linspace(lo, hi float64, n int) []float64 {
	if n == 1 || lo == hi {
		return []float64{(lo + hi) / 2}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
