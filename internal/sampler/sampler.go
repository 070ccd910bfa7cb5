// Package sampler turns per-frame particle parameters into binned, physically
// scaled lineshape curves on a shared mass axis.
package sampler

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/higgsanim/internal/lineshape"
	"github.com/san-kum/higgsanim/internal/resonance"
	"github.com/san-kum/higgsanim/internal/sigma"
)

// Sampler fills curves for single (frame, particle) points. It holds no
// per-call state and may be shared between goroutines.
type Sampler struct {
	Shape      lineshape.Shape
	Sigma      sigma.Spec
	Luminosity float64
	Axis       Axis
}

// Sample evaluates the lineshape at every bin centre and scales the result so
// that Σ y·Δx equals the frame's event yield.
func (s *Sampler) Sample(label string, p resonance.Point) (*Curve, error) {
	c := NewCurve(label, s.Axis)
	if err := s.SampleInto(c, p); err != nil {
		return nil, err
	}
	return c, nil
}

// SampleInto overwrites c with the scaled lineshape of p. c must be on the
// sampler's axis.
func (s *Sampler) SampleInto(c *Curve, p resonance.Point) error {
	if c.Axis != s.Axis || len(c.Y) != s.Axis.Bins {
		return resonance.Configf("curve %s is not on the sampler axis", c.Label)
	}
	sig := s.Sigma.Resolve(p.Mass)
	for k := range c.Y {
		c.Y[k] = s.Shape.Density(s.Axis.Center(k), p.Mass, p.Width, sig)
	}

	area := floats.Sum(c.Y) * s.Axis.BinWidth()
	if !(area > 0) || math.IsInf(area, 0) {
		return resonance.Degeneracyf("lineshape of %s integrates to %v on [%g, %g]", c.Label, area, s.Axis.Min, s.Axis.Max)
	}
	floats.Scale(resonance.Yield(p, s.Luminosity)/area, c.Y)
	return nil
}
