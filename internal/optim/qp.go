package optim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	qpMaxSweeps    = 2000
	qpTolerance    = 1e-13
	activeMultiple = 1e-12
)

// qpProblem is
//
//	minimize   0.5 d'Bd + g'd
//	subject to A[i]·d >= b[i]   (== where eq[i])
type qpProblem struct {
	B  *mat.Dense
	g  []float64
	A  *mat.Dense
	b  []float64
	eq []bool
}

// solveQP runs Hildreth's dual coordinate ascent and then polishes the
// detected active set with a direct KKT solve. The polished step is used
// only when it is primal and dual feasible.
func solveQP(q qpProblem) (d, lambda []float64, err error) {
	n := len(q.g)
	var h mat.Dense
	if err := h.Inverse(q.B); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrQPFailed, err)
	}

	g := mat.NewVecDense(n, append([]float64(nil), q.g...))
	var hg mat.VecDense
	hg.MulVec(&h, g)

	m := len(q.b)
	if m == 0 {
		d = make([]float64, n)
		for i := range d {
			d[i] = -hg.AtVec(i)
		}
		return d, nil, nil
	}

	// P = A H A', K = -b - A H g
	var hat, p mat.Dense
	hat.Mul(&h, q.A.T())
	p.Mul(q.A, &hat)
	var ahg mat.VecDense
	ahg.MulVec(q.A, &hg)

	k := make([]float64, m)
	for i := range k {
		k[i] = -q.b[i] - ahg.AtVec(i)
	}

	lambda = make([]float64, m)
	for sweep := 0; sweep < qpMaxSweeps; sweep++ {
		delta, biggest := 0.0, 0.0
		for i := 0; i < m; i++ {
			pii := p.At(i, i)
			if pii <= 1e-300 {
				continue
			}
			s := k[i]
			for j := 0; j < m; j++ {
				if j != i {
					s += p.At(i, j) * lambda[j]
				}
			}
			w := -s / pii
			if !q.eq[i] {
				w = math.Max(0, w)
			}
			delta = math.Max(delta, math.Abs(w-lambda[i]))
			lambda[i] = w
			biggest = math.Max(biggest, math.Abs(w))
		}
		if delta <= qpTolerance*(1+biggest) {
			break
		}
	}

	// d = -H g + H A' λ
	var hal mat.VecDense
	hal.MulVec(&hat, mat.NewVecDense(m, lambda))
	d = make([]float64, n)
	for i := range d {
		d[i] = -hg.AtVec(i) + hal.AtVec(i)
	}

	if pd, pl, ok := polish(q, lambda); ok {
		return pd, pl, nil
	}
	return d, lambda, nil
}

func polish(q qpProblem, lambda []float64) ([]float64, []float64, bool) {
	n := len(q.g)
	var active []int
	for i, l := range lambda {
		if q.eq[i] || l > activeMultiple {
			active = append(active, i)
		}
	}
	if len(active) > n {
		return nil, nil, false
	}

	size := n + len(active)
	kkt := mat.NewDense(size, size, nil)
	rhs := mat.NewVecDense(size, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			kkt.Set(i, j, q.B.At(i, j))
		}
		rhs.SetVec(i, -q.g[i])
	}
	for a, row := range active {
		for j := 0; j < n; j++ {
			v := q.A.At(row, j)
			kkt.Set(j, n+a, -v)
			kkt.Set(n+a, j, v)
		}
		rhs.SetVec(n+a, q.b[row])
	}

	var sol mat.VecDense
	if err := sol.SolveVec(kkt, rhs); err != nil {
		return nil, nil, false
	}

	d := make([]float64, n)
	for i := range d {
		d[i] = sol.AtVec(i)
	}
	for i := range q.b {
		if q.eq[i] {
			continue
		}
		if dot(q.A.RawRowView(i), d) < q.b[i]-1e-9 {
			return nil, nil, false
		}
	}
	mult := make([]float64, len(q.b))
	for a, row := range active {
		mu := sol.AtVec(n + a)
		if !q.eq[row] && mu < -1e-10 {
			return nil, nil, false
		}
		mult[row] = mu
	}
	return d, mult, true
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func infNorm(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		m = math.Max(m, math.Abs(x))
	}
	return m
}
