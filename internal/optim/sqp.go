package optim

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// SQP proposes steps from a quadratic model of the Lagrangian, linearized
// constraints and the variable bounds. The Hessian approximation starts
// as the identity and is updated with Powell's damped BFGS formula.
type SQP struct {
	hess *mat.Dense
}

func NewSQP() *SQP {
	return &SQP{}
}

func (s *SQP) Name() string { return "sqp" }

func (s *SQP) Reset() { s.hess = nil }

func (s *SQP) Propose(p *Point) (*Proposal, error) {
	n := len(p.Z)
	if s.hess == nil || s.hess.RawMatrix().Rows != n {
		s.hess = identity(n)
	}

	m := len(p.C)
	var rows [][]float64
	var rhs []float64
	var eq []bool
	for i := 0; i < m; i++ {
		rows = append(rows, append([]float64(nil), p.Jac.RawRowView(i)...))
		rhs = append(rhs, -p.C[i])
		eq = append(eq, p.Equality[i])
	}
	for j := 0; j < n; j++ {
		if !math.IsInf(p.Lower[j], -1) {
			e := make([]float64, n)
			e[j] = 1
			rows = append(rows, e)
			rhs = append(rhs, p.Lower[j]-p.Z[j])
			eq = append(eq, false)
		}
		if !math.IsInf(p.Upper[j], 1) {
			e := make([]float64, n)
			e[j] = -1
			rows = append(rows, e)
			rhs = append(rhs, -(p.Upper[j] - p.Z[j]))
			eq = append(eq, false)
		}
	}

	q := qpProblem{B: s.hess, g: p.Grad, b: rhs, eq: eq}
	if len(rows) > 0 {
		q.A = mat.NewDense(len(rows), n, nil)
		for i, r := range rows {
			q.A.SetRow(i, r)
		}
	}

	d, lambda, err := solveQP(q)
	if err != nil {
		return nil, err
	}
	mult := make([]float64, m)
	copy(mult, lambda)
	return &Proposal{Step: d, Multipliers: mult}, nil
}

// Accept applies the damped BFGS update with the Lagrangian gradient
// difference taken at the latest multipliers.
func (s *SQP) Accept(prev, next *Point, prop *Proposal) {
	n := len(prev.Z)
	if s.hess == nil {
		s.hess = identity(n)
	}

	sv := mat.NewVecDense(n, nil)
	yv := mat.NewVecDense(n, nil)
	gNew := lagrangianGrad(next, prop.Multipliers)
	gOld := lagrangianGrad(prev, prop.Multipliers)
	for i := 0; i < n; i++ {
		sv.SetVec(i, next.Z[i]-prev.Z[i])
		yv.SetVec(i, gNew[i]-gOld[i])
	}

	var bs mat.VecDense
	bs.MulVec(s.hess, sv)
	sBs := mat.Dot(sv, &bs)
	if sBs <= 1e-20 {
		return
	}
	sy := mat.Dot(sv, yv)
	if sy < 0.2*sBs {
		theta := 0.8 * sBs / (sBs - sy)
		for i := 0; i < n; i++ {
			yv.SetVec(i, theta*yv.AtVec(i)+(1-theta)*bs.AtVec(i))
		}
		sy = mat.Dot(sv, yv)
	}
	s.hess.RankOne(s.hess, 1/sy, yv, yv)
	s.hess.RankOne(s.hess, -1/sBs, &bs, &bs)
}

// lagrangianGrad returns ∇f - J'λ.
func lagrangianGrad(p *Point, lambda []float64) []float64 {
	g := append([]float64(nil), p.Grad...)
	for i, l := range lambda {
		if l == 0 || i >= len(p.C) {
			continue
		}
		row := p.Jac.RawRowView(i)
		for j := range g {
			g[j] -= l * row[j]
		}
	}
	return g
}

func identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
