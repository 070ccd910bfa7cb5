package sampler

import (
	"math"

	"github.com/san-kum/higgsanim/internal/estimate"
	"github.com/san-kum/higgsanim/internal/resonance"
)

const (
	// PadFraction is the share of the mass span added on each side.
	PadFraction = 0.1
	// PadFWHM is the number of widest FWHMs added on each side.
	PadFWHM = 2.0
)

// Axis is a mass range split into equal-width bins.
type Axis struct {
	Min  float64
	Max  float64
	Bins int
}

// NewAxis checks and returns an axis.
func NewAxis(lo, hi float64, bins int) (Axis, error) {
	if bins < 2 {
		return Axis{}, resonance.Configf("bin count must be at least 2, got %d", bins)
	}
	if !(hi > lo) || math.IsInf(hi-lo, 0) {
		return Axis{}, resonance.Configf("axis range [%v, %v] is empty", lo, hi)
	}
	return Axis{Min: lo, Max: hi, Bins: bins}, nil
}

// BinWidth returns the width of every bin in GeV.
func (a Axis) BinWidth() float64 { return (a.Max - a.Min) / float64(a.Bins) }

// Center returns the centre of bin k.
func (a Axis) Center(k int) float64 {
	return a.Min + (float64(k)+0.5)*a.BinWidth()
}

// Centers returns the centre of every bin.
func (a Axis) Centers() []float64 {
	xs := make([]float64, a.Bins)
	for k := range xs {
		xs[k] = a.Center(k)
	}
	return xs
}

// AxisFor derives the shared mass axis of an animation from its mass range
// and predicted widths. The span is padded on each side by the larger of
// PadFraction of the span and PadFWHM widest FWHMs, and clamped at zero.
// A bin wider than the narrowest FWHM is rejected.
func AxisFor(ds *resonance.Dataset, b *estimate.Bound, bins int) (Axis, error) {
	lo, hi := ds.MassRange()
	pad := math.Max(PadFraction*(hi-lo), PadFWHM*b.MaxFWHM)
	axis, err := NewAxis(math.Max(0, lo-pad), hi+pad, bins)
	if err != nil {
		return Axis{}, err
	}
	if w := axis.BinWidth(); w > b.MinFWHM {
		need := int(math.Ceil((axis.Max - axis.Min) / b.MinFWHM))
		return Axis{}, resonance.Configf("bin width %.4g GeV exceeds the narrowest peak FWHM %.4g GeV; use at least %d bins", w, b.MinFWHM, need)
	}
	return axis, nil
}

// Prepare runs the height scan, derives the axis and raises the bound for
// curves the axis truncates. It is the single entry point used before any
// frame is sampled.
func Prepare(est *estimate.Estimator, ds *resonance.Dataset, bins int) (*estimate.Bound, Axis, error) {
	b, err := est.Estimate(ds)
	if err != nil {
		return nil, Axis{}, err
	}
	axis, err := AxisFor(ds, b, bins)
	if err != nil {
		return b, Axis{}, err
	}
	est.Cover(b, ds, axis.Centers(), axis.BinWidth())
	return b, axis, nil
}
