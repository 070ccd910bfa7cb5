package sampler

import (
	"gonum.org/v1/gonum/floats"
)

// Curve is one frame's binned lineshape. Y holds events/GeV at each bin
// centre of Axis.
type Curve struct {
	Label string
	Axis  Axis
	Y     []float64
}

// NewCurve returns a zeroed curve on axis.
func NewCurve(label string, axis Axis) *Curve {
	return &Curve{Label: label, Axis: axis, Y: make([]float64, axis.Bins)}
}

// Len implements plotter.XYer.
func (c *Curve) Len() int { return len(c.Y) }

// XY implements plotter.XYer.
func (c *Curve) XY(k int) (x, y float64) { return c.Axis.Center(k), c.Y[k] }

// Integral returns Σ y·Δx over the axis.
func (c *Curve) Integral() float64 {
	return floats.Sum(c.Y) * c.Axis.BinWidth()
}

// Max returns the largest bin value.
func (c *Curve) Max() float64 {
	if len(c.Y) == 0 {
		return 0
	}
	return floats.Max(c.Y)
}

// ArgMax returns the index of the largest bin.
func (c *Curve) ArgMax() int {
	if len(c.Y) == 0 {
		return -1
	}
	return floats.MaxIdx(c.Y)
}

// Clone returns an independent copy.
func (c *Curve) Clone() *Curve {
	out := &Curve{Label: c.Label, Axis: c.Axis, Y: make([]float64, len(c.Y))}
	copy(out.Y, c.Y)
	return out
}
