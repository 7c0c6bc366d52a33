package optim

import (
	"math"
	"testing"

	"github.com/san-kum/factorytwin/internal/mdo"
)

// quadratic builds min (x-3)^2 with x in [-50, 50] and the given
// constraints on the key "x_out".
func quadratic(t *testing.T, cons ...mdo.Constraint) *mdo.Problem {
	t.Helper()
	c := mdo.NewFunc("quad",
		[]mdo.Port{mdo.In("x", "")},
		[]mdo.Port{mdo.Out("f", ""), mdo.Out("x_out", "")},
		func(v mdo.Values) (mdo.Values, error) {
			d := v["x"] - 3
			return mdo.Values{"f": d * d, "x_out": v["x"]}, nil
		})
	d := mdo.NewDesignSpec().AddDesignVar("x", -50, 50).SetObjective("f", mdo.Minimize)
	for _, con := range cons {
		d.AddConstraint(con)
	}
	p, err := mdo.NewProblem(mdo.NewModel().Add(c, mdo.PromoteAll()), d)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
