package resonance

import (
	"fmt"
	"math"
)

// Particle is the per-frame description of one resonance.
// All series have one entry per frame. A nil BranchingRatio means the decay
// channel is not modelled and every frame uses 1.
type Particle struct {
	Label          string
	Mass           []float64 // GeV
	Width          []float64 // GeV, Lorentzian half-width
	CrossSection   []float64 // pb
	BranchingRatio []float64
	Summed         bool
}

// Frames returns the length of the mass series.
func (p *Particle) Frames() int { return len(p.Mass) }

// BR returns the branching ratio at frame i, defaulting to 1.
func (p *Particle) BR(i int) float64 {
	if p.BranchingRatio == nil {
		return 1
	}
	return p.BranchingRatio[i]
}

// HasBranching reports whether the particle carries a branching-ratio series.
func (p *Particle) HasBranching() bool { return p.BranchingRatio != nil }

// At returns the parameters of frame i.
func (p *Particle) At(i int) Point {
	return Point{
		Mass:         p.Mass[i],
		Width:        p.Width[i],
		CrossSection: p.CrossSection[i],
		BR:           p.BR(i),
	}
}

func (p *Particle) validate(frames int) error {
	if p.Label == "" {
		return Configf("particle without label")
	}
	series := map[string][]float64{
		"mass":          p.Mass,
		"width":         p.Width,
		"cross-section": p.CrossSection,
	}
	if p.BranchingRatio != nil {
		series["branching ratio"] = p.BranchingRatio
	}
	for name, s := range series {
		if len(s) != frames {
			return fmt.Errorf("%w: particle %s %s has %d values, want %d", ErrSeriesLength, p.Label, name, len(s), frames)
		}
		for i, v := range s {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return Configf("particle %s %s[%d] = %v", p.Label, name, i, v)
			}
		}
	}
	for i, br := range p.BranchingRatio {
		if br > 1 {
			return Configf("particle %s branching ratio[%d] = %v exceeds 1", p.Label, i, br)
		}
	}
	return nil
}

// Point is a particle's parameters at a single frame.
type Point struct {
	Mass         float64
	Width        float64
	CrossSection float64
	BR           float64
}

// ScanAxis holds the m_A value of each frame in increasing order.
type ScanAxis []float64

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) ScanAxis {
	if n <= 0 {
		return ScanAxis{}
	}
	if n == 1 {
		return ScanAxis{lo}
	}
	axis := make(ScanAxis, n)
	step := (hi - lo) / float64(n-1)
	for i := range axis {
		axis[i] = lo + float64(i)*step
	}
	axis[n-1] = hi
	return axis
}

// Monotonic reports whether the axis never decreases.
func (a ScanAxis) Monotonic() bool {
	for i := 1; i < len(a); i++ {
		if a[i] < a[i-1] {
			return false
		}
	}
	return true
}

// Dataset is the complete read-only input of one animation.
type Dataset struct {
	Scan      ScanAxis
	TanBeta   float64
	Particles []Particle
}

// Frames returns the number of frames.
func (d *Dataset) Frames() int { return len(d.Scan) }

// Labels returns the particle labels in order.
func (d *Dataset) Labels() []string {
	labels := make([]string, len(d.Particles))
	for i := range d.Particles {
		labels[i] = d.Particles[i].Label
	}
	return labels
}

// AnySummed reports whether at least one particle contributes to the sum.
func (d *Dataset) AnySummed() bool {
	for i := range d.Particles {
		if d.Particles[i].Summed {
			return true
		}
	}
	return false
}

// MassRange returns the smallest and largest mass over all particles and frames.
func (d *Dataset) MassRange() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for i := range d.Particles {
		for _, m := range d.Particles[i].Mass {
			lo = math.Min(lo, m)
			hi = math.Max(hi, m)
		}
	}
	return lo, hi
}

// Validate checks that the dataset is non-empty and that every series
// matches the scan axis length.
func (d *Dataset) Validate() error {
	if len(d.Scan) == 0 || len(d.Particles) == 0 {
		return fmt.Errorf("%w: %d frames, %d particles", ErrEmptyDataset, len(d.Scan), len(d.Particles))
	}
	if !d.Scan.Monotonic() {
		return Configf("scan axis is not monotonic")
	}
	seen := make(map[string]bool, len(d.Particles))
	for i := range d.Particles {
		p := &d.Particles[i]
		if seen[p.Label] {
			return Configf("duplicate particle %s", p.Label)
		}
		seen[p.Label] = true
		if err := p.validate(len(d.Scan)); err != nil {
			return err
		}
	}
	return nil
}
