package metrics

import (
	"math"

	"github.com/san-kum/factorytwin/internal/mdo"
	"github.com/san-kum/factorytwin/internal/optim"
)

// BestObjective tracks the best raw objective over accepted iterations.
type BestObjective struct {
	name  string
	sense mdo.Sense
	best  float64
	seen  bool
}

func NewBestObjective(sense mdo.Sense) *BestObjective {
	return &BestObjective{name: "best_objective", sense: sense}
}

func (b *BestObjective) Name() string {
	return b.name
}

func (b *BestObjective) Observe(it optim.Iteration) {
	if !it.Accepted {
		return
	}
	if !b.seen {
		b.best, b.seen = it.Objective, true
		return
	}
	if b.sense == mdo.Maximize {
		b.best = math.Max(b.best, it.Objective)
	} else {
		b.best = math.Min(b.best, it.Objective)
	}
}

func (b *BestObjective) Value() float64 {
	if !b.seen {
		return math.NaN()
	}
	return b.best
}

func (b *BestObjective) Reset() {
	b.best, b.seen = 0, false
}
