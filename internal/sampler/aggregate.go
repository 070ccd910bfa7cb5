package sampler

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/higgsanim/internal/resonance"
)

// Sum adds curves bin by bin into a new curve. All curves must share one axis.
func Sum(label string, curves []*Curve) (*Curve, error) {
	if len(curves) == 0 {
		return nil, resonance.Configf("no curves to sum")
	}
	out := NewCurve(label, curves[0].Axis)
	for _, c := range curves {
		if c.Axis != out.Axis || len(c.Y) != len(out.Y) {
			return nil, resonance.Configf("curve %s has a different axis", c.Label)
		}
		floats.Add(out.Y, c.Y)
	}
	return out, nil
}
