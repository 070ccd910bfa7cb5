// Package estimate predicts the tallest peak of an animation before any frame
// is sampled, so the y-axis can be fixed for the whole run.
package estimate

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/higgsanim/internal/lineshape"
	"github.com/san-kum/higgsanim/internal/resonance"
	"github.com/san-kum/higgsanim/internal/sigma"
)

// K converts br·xs·L/FWHM into an upper bound on the peak in events/GeV.
const K = resonance.UnitScale * resonance.PeakCeiling

// Estimator computes the global height bound of a dataset.
type Estimator struct {
	Shape      lineshape.Shape
	Sigma      sigma.Spec
	Luminosity float64
	Workers    int
}

// Bound is the result of a height scan. Heights and FWHM are indexed
// [particle][frame]. Total bounds the sum of the particles marked Summed.
type Bound struct {
	Height   float64
	Total    float64
	Frame    int
	Particle int
	Heights  [][]float64
	FWHM     [][]float64
	MinFWHM  float64
	MaxFWHM  float64
}

// YMax returns the axis maximum: Total when a summed curve is drawn,
// otherwise Height.
func (b *Bound) YMax(summed bool) float64 {
	if summed {
		return math.Max(b.Height, b.Total)
	}
	return b.Height
}

// FrameMax returns the largest predicted height of frame i over all particles.
func (b *Bound) FrameMax(i int) float64 {
	m := 0.0
	for n := range b.Heights {
		m = math.Max(m, b.Heights[n][i])
	}
	return m
}

// Estimate scans every (particle, frame) pair once and returns the maximum
// predicted peak. It fails on a zero FWHM or when the total cross-section of
// the dataset is zero.
func (e *Estimator) Estimate(ds *resonance.Dataset) (*Bound, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if e.Luminosity <= 0 || math.IsNaN(e.Luminosity) {
		return nil, resonance.Configf("luminosity must be positive, got %v", e.Luminosity)
	}

	frames := ds.Frames()
	particles := len(ds.Particles)
	b := &Bound{
		Heights: make([][]float64, particles),
		FWHM:    make([][]float64, particles),
		MinFWHM: math.Inf(1),
	}
	for n := range ds.Particles {
		b.Heights[n] = make([]float64, frames)
		b.FWHM[n] = make([]float64, frames)
	}

	errs := make([]error, particles*frames)
	resonance.ParallelFor(particles*frames, 256, e.Workers, func(start, end int) {
		for idx := start; idx < end; idx++ {
			n, i := idx/frames, idx%frames
			p := ds.Particles[n].At(i)
			f := e.Shape.FWHM(p.Width, e.Sigma.Resolve(p.Mass))
			if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
				errs[idx] = &resonance.FrameError{
					Frame:    i,
					Particle: ds.Particles[n].Label,
					Wrapped:  resonance.Degeneracyf("lineshape FWHM is %v", f),
				}
				continue
			}
			b.FWHM[n][i] = f
			b.Heights[n][i] = K * p.BR * p.CrossSection * e.Luminosity / f
		}
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	total := 0.0
	for n := range ds.Particles {
		for i := 0; i < frames; i++ {
			total += ds.Particles[n].CrossSection[i] * ds.Particles[n].BR(i)
			b.MinFWHM = math.Min(b.MinFWHM, b.FWHM[n][i])
			b.MaxFWHM = math.Max(b.MaxFWHM, b.FWHM[n][i])
		}
	}
	if total == 0 {
		return nil, resonance.Degeneracyf("total cross-section is zero across all frames")
	}
	b.summarise(ds)
	return b, nil
}

// Cover raises each predicted height to the tallest value a curve sampled on
// centers can reach. Curves are normalised to their area on the axis, so a
// lineshape cut off by an axis edge peaks above K·br·xs·L/FWHM. The raised
// height is the density at the mass scaled exactly as the sampler scales it,
// which holds for any lineshape whose maximum is at the mass.
func (e *Estimator) Cover(b *Bound, ds *resonance.Dataset, centers []float64, dx float64) {
	frames := ds.Frames()
	resonance.ParallelFor(len(ds.Particles)*frames, 16, e.Workers, func(start, end int) {
		y := make([]float64, len(centers))
		for idx := start; idx < end; idx++ {
			n, i := idx/frames, idx%frames
			p := ds.Particles[n].At(i)
			sig := e.Sigma.Resolve(p.Mass)
			for k, x := range centers {
				y[k] = e.Shape.Density(x, p.Mass, p.Width, sig)
			}
			area := floats.Sum(y) * dx
			if !(area > 0) || math.IsInf(area, 0) {
				continue
			}
			peak := e.Shape.Density(p.Mass, p.Mass, p.Width, sig) * (resonance.Yield(p, e.Luminosity) / area)
			b.Heights[n][i] = math.Max(b.Heights[n][i], peak)
		}
	})
	b.summarise(ds)
}

// summarise recomputes Height, its location and Total from Heights.
func (b *Bound) summarise(ds *resonance.Dataset) {
	b.Height, b.Total = 0, 0
	b.Frame, b.Particle = 0, 0
	for n := range b.Heights {
		for i, h := range b.Heights[n] {
			if h > b.Height {
				b.Height = h
				b.Frame, b.Particle = i, n
			}
		}
	}
	for i := 0; i < ds.Frames(); i++ {
		sum := 0.0
		for n := range ds.Particles {
			if ds.Particles[n].Summed {
				sum += b.Heights[n][i]
			}
		}
		b.Total = math.Max(b.Total, sum)
	}
}
