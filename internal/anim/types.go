package anim

import (
	"fmt"
	"image"
	"math"
	"strings"
	"time"

	"github.com/san-kum/higgsanim/internal/lineshape"
	"github.com/san-kum/higgsanim/internal/resonance"
	"github.com/san-kum/higgsanim/internal/sampler"
	"github.com/san-kum/higgsanim/internal/sigma"
)

// TotalLabel names the summed curve.
const TotalLabel = "all"

// State is the driver lifecycle stage.
type State int

const (
	Idle State = iota
	HeightBound
	Rendering
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case HeightBound:
		return "height-bound"
	case Rendering:
		return "rendering"
	case Done:
		return "done"
	default:
		return "failed"
	}
}

// Config holds the settings of one animation. Mode is shown in titles only.
type Config struct {
	Shape      lineshape.Shape
	Sigma      sigma.Spec
	Luminosity float64
	Bins       int
	Sum        bool
	LogScale   bool
	LogMin     float64
	Mode       string
	FrameTime  time.Duration
	LoopCount  int
	Workers    int
	Debug      bool
}

func (c *Config) validate() error {
	if c.Shape == nil {
		return resonance.Configf("no lineshape selected")
	}
	if !(c.Luminosity > 0) {
		return resonance.Configf("luminosity must be positive, got %v", c.Luminosity)
	}
	if c.Bins < 2 {
		return resonance.Configf("bin count must be at least 2, got %d", c.Bins)
	}
	if c.FrameTime <= 0 {
		return resonance.Configf("frame time must be positive, got %v", c.FrameTime)
	}
	if c.LogScale && !(c.LogMin > 0) {
		return resonance.Configf("log scale needs a positive minimum, got %v", c.LogMin)
	}
	return nil
}

// Frame is everything the renderer needs to draw one animation frame.
// Curves, Points, Yields and Legend are indexed by particle.
type Frame struct {
	Index     int
	Count     int
	ScanValue float64
	TanBeta   float64
	Mode      string
	Title     string
	Curves    []*sampler.Curve
	Points    []resonance.Point
	Yields    []float64
	Legend    []string
	Total     *sampler.Curve
	YMax      float64
	YMin      float64
	LogScale  bool
}

// Peak returns the largest per-particle bin value of the frame.
func (f *Frame) Peak() float64 {
	m := 0.0
	for _, c := range f.Curves {
		if v := c.Max(); v > m {
			m = v
		}
	}
	return m
}

// Renderer draws one frame onto a raster image. It may reuse a single
// drawing surface between calls; the driver never calls it concurrently.
type Renderer interface {
	Render(f *Frame) (image.Image, error)
}

// Encoder writes the ordered frames into one animated image.
type Encoder interface {
	Encode(frames []image.Image, delay time.Duration, loopCount int) error
}

// Observer is notified after each frame has been rendered.
type Observer interface {
	OnFrame(f *Frame, img image.Image) error
}

// Title returns the frame heading for the given particle labels.
func Title(labels []string, scan float64, mode string) string {
	var b strings.Builder
	if len(labels) == 1 {
		fmt.Fprintf(&b, "%s Higgs boson peak", labels[0])
	} else {
		b.WriteString("Higgs boson peaks")
	}
	fmt.Fprintf(&b, " (m_A = %g GeV)", roundTo(scan, 2))
	if mode != "" {
		fmt.Fprintf(&b, " [%s]", mode)
	}
	return b.String()
}

// LegendEntry returns the legend text of one particle in one frame.
func LegendEntry(label string, p resonance.Point) string {
	return fmt.Sprintf("%s (m = %.1f; w = %.4f)", label, p.Mass, p.Width)
}

func roundTo(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
