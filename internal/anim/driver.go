package anim

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"time"

	"github.com/san-kum/higgsanim/internal/estimate"
	"github.com/san-kum/higgsanim/internal/resonance"
	"github.com/san-kum/higgsanim/internal/sampler"
)

// Result summarises a completed run.
type Result struct {
	Bound   *estimate.Bound
	Axis    sampler.Axis
	YMax    float64
	Frames  int
	PeakMax float64
	Elapsed time.Duration
}

// Driver runs one animation.
type Driver struct {
	cfg       Config
	renderer  Renderer
	encoder   Encoder
	observers []Observer
	logger    *log.Logger

	state  State
	bound  *estimate.Bound
	axis   sampler.Axis
	ymax   float64
	images []image.Image
}

// New returns an idle driver.
func New(cfg Config, renderer Renderer, encoder Encoder) *Driver {
	return &Driver{
		cfg:       cfg,
		renderer:  renderer,
		encoder:   encoder,
		observers: make([]Observer, 0),
		logger:    log.New(io.Discard, "", 0),
	}
}

func (d *Driver) AddObserver(o Observer)  { d.observers = append(d.observers, o) }
func (d *Driver) SetLogger(l *log.Logger) { d.logger = l }

// State returns the current lifecycle stage.
func (d *Driver) State() State { return d.state }

// Bound returns the height bound once the driver has left Idle.
func (d *Driver) Bound() *estimate.Bound { return d.bound }

// Run renders every frame of ds and encodes the result. Configuration and
// dataset problems are reported before any frame is sampled. A frame whose
// curves exceed the height bound, or the first renderer, observer or encoder
// failure, stops the run before anything is encoded.
func (d *Driver) Run(ctx context.Context, ds *resonance.Dataset) (*Result, error) {
	if d.state != Idle {
		return nil, fmt.Errorf("driver already %s", d.state)
	}
	start := time.Now()
	lap := start

	if d.renderer == nil || d.encoder == nil {
		d.state = Failed
		return nil, resonance.Configf("renderer and encoder are required")
	}
	if err := d.prepare(ds); err != nil {
		d.state = Failed
		return nil, err
	}
	d.state = HeightBound
	lap = d.debugf(lap, "height bound %.6g (particle %s, frame %d), axis [%.4g, %.4g] x %d",
		d.bound.Height, ds.Particles[d.bound.Particle].Label, d.bound.Frame, d.axis.Min, d.axis.Max, d.axis.Bins)

	s := &sampler.Sampler{
		Shape:      d.cfg.Shape,
		Sigma:      d.cfg.Sigma,
		Luminosity: d.cfg.Luminosity,
		Axis:       d.axis,
	}

	d.state = Rendering
	d.images = make([]image.Image, 0, ds.Frames())
	peakMax := 0.0
	for i := 0; i < ds.Frames(); i++ {
		select {
		case <-ctx.Done():
			d.state = Failed
			return nil, ctx.Err()
		default:
		}

		f, err := d.sampleFrame(s, ds, i)
		if err != nil {
			d.state = Failed
			return nil, err
		}
		if err := d.checkBound(f); err != nil {
			d.state = Failed
			return nil, err
		}
		if p := f.Peak(); p > peakMax {
			peakMax = p
		}

		img, err := d.renderer.Render(f)
		if err != nil {
			d.state = Failed
			return nil, &resonance.FrameError{Frame: i, Wrapped: fmt.Errorf("%w: render: %w", resonance.ErrCollaborator, err)}
		}
		for _, o := range d.observers {
			if err := o.OnFrame(f, img); err != nil {
				d.state = Failed
				return nil, &resonance.FrameError{Frame: i, Wrapped: fmt.Errorf("%w: observer: %w", resonance.ErrCollaborator, err)}
			}
		}
		d.images = append(d.images, img)
		lap = d.debugf(lap, "frame %d/%d m_A=%g peak=%.6g", i+1, ds.Frames(), f.ScanValue, f.Peak())
	}

	if err := d.encoder.Encode(d.images, d.cfg.FrameTime, d.cfg.LoopCount); err != nil {
		d.state = Failed
		return nil, fmt.Errorf("%w: encode: %w", resonance.ErrCollaborator, err)
	}
	d.debugf(lap, "encoded %d frames", len(d.images))
	d.state = Done

	return &Result{
		Bound:   d.bound,
		Axis:    d.axis,
		YMax:    d.ymax,
		Frames:  len(d.images),
		PeakMax: peakMax,
		Elapsed: time.Since(start),
	}, nil
}

// Sample computes the bound and axis of ds and returns frame i without
// rendering it. The driver is left in HeightBound and cannot Run afterwards.
func (d *Driver) Sample(ds *resonance.Dataset, i int) (*Frame, error) {
	if d.state != Idle {
		return nil, fmt.Errorf("driver already %s", d.state)
	}
	if err := d.prepare(ds); err != nil {
		d.state = Failed
		return nil, err
	}
	d.state = HeightBound
	if i < 0 || i >= ds.Frames() {
		return nil, resonance.Configf("frame %d outside [0, %d)", i, ds.Frames())
	}
	s := &sampler.Sampler{
		Shape:      d.cfg.Shape,
		Sigma:      d.cfg.Sigma,
		Luminosity: d.cfg.Luminosity,
		Axis:       d.axis,
	}
	return d.sampleFrame(s, ds, i)
}

func (d *Driver) prepare(ds *resonance.Dataset) error {
	if ds == nil {
		return fmt.Errorf("%w: no dataset", resonance.ErrEmptyDataset)
	}
	if err := d.cfg.validate(); err != nil {
		return err
	}
	est := &estimate.Estimator{
		Shape:      d.cfg.Shape,
		Sigma:      d.cfg.Sigma,
		Luminosity: d.cfg.Luminosity,
		Workers:    d.cfg.Workers,
	}
	bound, axis, err := sampler.Prepare(est, ds, d.cfg.Bins)
	if err != nil {
		return err
	}
	d.bound, d.axis = bound, axis
	d.ymax = bound.YMax(d.cfg.Sum && ds.AnySummed())
	return nil
}

func (d *Driver) sampleFrame(s *sampler.Sampler, ds *resonance.Dataset, i int) (*Frame, error) {
	n := len(ds.Particles)
	f := &Frame{
		Index:     i,
		Count:     ds.Frames(),
		ScanValue: ds.Scan[i],
		TanBeta:   ds.TanBeta,
		Mode:      d.cfg.Mode,
		Title:     Title(ds.Labels(), ds.Scan[i], d.cfg.Mode),
		Curves:    make([]*sampler.Curve, n),
		Points:    make([]resonance.Point, n),
		Yields:    make([]float64, n),
		Legend:    make([]string, n),
		YMax:      d.ymax,
		LogScale:  d.cfg.LogScale,
	}
	if d.cfg.LogScale {
		f.YMin = d.cfg.LogMin
	}

	errs := make([]error, n)
	resonance.ParallelFor(n, 1, d.cfg.Workers, func(start, end int) {
		for k := start; k < end; k++ {
			p := &ds.Particles[k]
			pt := p.At(i)
			c, err := s.Sample(p.Label, pt)
			if err != nil {
				errs[k] = &resonance.FrameError{Frame: i, Particle: p.Label, Wrapped: err}
				continue
			}
			f.Curves[k] = c
			f.Points[k] = pt
			f.Yields[k] = resonance.Yield(pt, d.cfg.Luminosity)
			f.Legend[k] = LegendEntry(p.Label, pt)
		}
	})
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if d.cfg.Sum {
		summed := make([]*sampler.Curve, 0, n)
		for k := range ds.Particles {
			if ds.Particles[k].Summed {
				summed = append(summed, f.Curves[k])
			}
		}
		if len(summed) > 0 {
			total, err := sampler.Sum(TotalLabel, summed)
			if err != nil {
				return nil, &resonance.FrameError{Frame: i, Wrapped: err}
			}
			f.Total = total
		}
	}
	return f, nil
}

// checkBound fails a frame whose curves would be clipped by the fixed axis.
func (d *Driver) checkBound(f *Frame) error {
	for _, c := range f.Curves {
		if m := c.Max(); m > d.bound.Height {
			return &resonance.FrameError{Frame: f.Index, Particle: c.Label,
				Wrapped: resonance.Degeneracyf("peak %.6g exceeds height bound %.6g", m, d.bound.Height)}
		}
	}
	if f.Total != nil {
		if m := f.Total.Max(); m > d.ymax {
			return &resonance.FrameError{Frame: f.Index, Particle: f.Total.Label,
				Wrapped: resonance.Degeneracyf("summed peak %.6g exceeds axis maximum %.6g", m, d.ymax)}
		}
	}
	return nil
}

func (d *Driver) debugf(since time.Time, format string, args ...any) time.Time {
	now := time.Now()
	if d.cfg.Debug {
		d.logger.Printf("Δt = %v %s", now.Sub(since).Round(time.Microsecond), fmt.Sprintf(format, args...))
	}
	return now
}
