package metrics

import (
	"math"

	"github.com/san-kum/higgsanim/internal/anim"
)

// YieldClosure is the worst relative difference between a curve's integral
// and its expected event count.
type YieldClosure struct {
	name     string
	maxDrift float64
}

func NewYieldClosure() *YieldClosure {
	return &YieldClosure{name: "yield_closure"}
}

func (y *YieldClosure) Name() string { return y.name }

func (y *YieldClosure) Observe(f *anim.Frame) {
	for k, c := range f.Curves {
		if k >= len(f.Yields) || f.Yields[k] == 0 {
			continue
		}
		drift := math.Abs(c.Integral()-f.Yields[k]) / f.Yields[k]
		y.maxDrift = math.Max(y.maxDrift, drift)
	}
}

func (y *YieldClosure) Value() float64 { return y.maxDrift }

func (y *YieldClosure) Reset() { y.maxDrift = 0 }
