// Package metrics measures rendered frames against the quantities the engine
// promises: peaks under the fixed axis, areas equal to the event yield, and
// maxima near the resonance mass.
package metrics

import (
	"image"
	"sort"

	"github.com/san-kum/higgsanim/internal/anim"
)

type Metric interface {
	Name() string
	Observe(f *anim.Frame)
	Value() float64
	Reset()
}

// Collector feeds every rendered frame to its metrics.
type Collector struct {
	metrics []Metric
}

func NewCollector(ms ...Metric) *Collector {
	return &Collector{metrics: ms}
}

// Default returns the collector used for stored runs.
func Default() *Collector {
	return NewCollector(NewPeakUtilization(), NewYieldClosure(), NewPeakOffset())
}

func (c *Collector) OnFrame(f *anim.Frame, _ image.Image) error {
	for _, m := range c.metrics {
		m.Observe(f)
	}
	return nil
}

// Values returns the current value of every metric by name.
func (c *Collector) Values() map[string]float64 {
	out := make(map[string]float64, len(c.metrics))
	for _, m := range c.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// Names returns the metric names in sorted order.
func (c *Collector) Names() []string {
	names := make([]string, len(c.metrics))
	for i, m := range c.metrics {
		names[i] = m.Name()
	}
	sort.Strings(names)
	return names
}

func (c *Collector) Reset() {
	for _, m := range c.metrics {
		m.Reset()
	}
}
