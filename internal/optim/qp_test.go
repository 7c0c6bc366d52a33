package optim

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestSolveQP(t *testing.T) {
	tests := []struct {
		name       string
		b          []float64
		g          []float64
		a          []float64
		rhs        []float64
		eq         []bool
		wantD      []float64
		wantLambda []float64
	}{
		{
			name:  "unconstrained",
			b:     []float64{1, 0, 0, 1},
			g:     []float64{1, -2},
			wantD: []float64{-1, 2},
		},
		{
			name:       "active upper bound",
			b:          []float64{1},
			g:          []float64{-4},
			a:          []float64{-1},
			rhs:        []float64{-1},
			eq:         []bool{false},
			wantD:      []float64{1},
			wantLambda: []float64{3},
		},
		{
			name:       "inactive lower bound",
			b:          []float64{1},
			g:          []float64{-4},
			a:          []float64{1},
			rhs:        []float64{-10},
			eq:         []bool{false},
			wantD:      []float64{4},
			wantLambda: []float64{0},
		},
		{
			name:       "equality",
			b:          []float64{1, 0, 0, 1},
			g:          []float64{0, 0},
			a:          []float64{1, 1},
			rhs:        []float64{1},
			eq:         []bool{true},
			wantD:      []float64{0.5, 0.5},
			wantLambda: []float64{0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := len(tt.g)
			q := qpProblem{B: mat.NewDense(n, n, tt.b), g: tt.g, b: tt.rhs, eq: tt.eq}
			if len(tt.rhs) > 0 {
				q.A = mat.NewDense(len(tt.rhs), n, tt.a)
			}

			d, lambda, err := solveQP(q)
			if err != nil {
				t.Fatal(err)
			}
			for i := range tt.wantD {
				if !near(d[i], tt.wantD[i], 1e-9) {
					t.Errorf("d[%d] = %g, want %g", i, d[i], tt.wantD[i])
				}
			}
			for i := range tt.wantLambda {
				if !near(lambda[i], tt.wantLambda[i], 1e-9) {
					t.Errorf("lambda[%d] = %g, want %g", i, lambda[i], tt.wantLambda[i])
				}
			}
		})
	}
}

func TestSolveQPSingularHessian(t *testing.T) {
	q := qpProblem{B: mat.NewDense(2, 2, []float64{1, 1, 1, 1}), g: []float64{1, 1}}
	if _, _, err := solveQP(q); err == nil {
		t.Fatal("expected an error for a singular Hessian")
	}
}

func TestSQPBFGSKeepsCurvaturePositive(t *testing.T) {
	s := NewSQP()
	prev := &Point{Z: []float64{0, 0}, Grad: []float64{1, 1}}
	next := &Point{Z: []float64{1, 0}, Grad: []float64{0.5, 1}}
	s.hess = identity(2)

	// negative curvature along s triggers Powell damping
	s.Accept(prev, next, &Proposal{})

	var chol mat.Cholesky
	if ok := chol.Factorize(mat.NewSymDense(2, s.hess.RawMatrix().Data)); !ok {
		t.Errorf("damped update lost positive definiteness: %v", mat.Formatted(s.hess))
	}
}
