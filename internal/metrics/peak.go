package metrics

import (
	"math"

	"github.com/san-kum/higgsanim/internal/anim"
)

// PeakUtilization is the largest ratio of a rendered peak to the fixed axis
// maximum. Values above 1 mean a curve left the plot.
type PeakUtilization struct {
	name string
	max  float64
}

func NewPeakUtilization() *PeakUtilization {
	return &PeakUtilization{name: "peak_utilization"}
}

func (p *PeakUtilization) Name() string { return p.name }

func (p *PeakUtilization) Observe(f *anim.Frame) {
	if f.YMax <= 0 {
		return
	}
	p.max = math.Max(p.max, f.Peak()/f.YMax)
	if f.Total != nil {
		p.max = math.Max(p.max, f.Total.Max()/f.YMax)
	}
}

func (p *PeakUtilization) Value() float64 { return p.max }

func (p *PeakUtilization) Reset() { p.max = 0 }

// PeakOffset is the mean distance in GeV between each curve's maximum bin
// centre and the particle mass.
type PeakOffset struct {
	name    string
	total   float64
	samples int
}

func NewPeakOffset() *PeakOffset {
	return &PeakOffset{name: "peak_offset_gev"}
}

func (p *PeakOffset) Name() string { return p.name }

func (p *PeakOffset) Observe(f *anim.Frame) {
	for k, c := range f.Curves {
		if k >= len(f.Points) || c.Max() == 0 {
			continue
		}
		p.total += math.Abs(c.Axis.Center(c.ArgMax()) - f.Points[k].Mass)
		p.samples++
	}
}

func (p *PeakOffset) Value() float64 {
	if p.samples == 0 {
		return 0
	}
	return p.total / float64(p.samples)
}

func (p *PeakOffset) Reset() {
	p.total = 0
	p.samples = 0
}
