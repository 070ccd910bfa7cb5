// Package experiment wires one configured animation run end to end: the
// lookup grid, the driver with its renderer and encoder, the optional
// observers, and the run store.
package experiment

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/higgsanim/internal/anim"
	"github.com/san-kum/higgsanim/internal/config"
	"github.com/san-kum/higgsanim/internal/estimate"
	"github.com/san-kum/higgsanim/internal/lookup"
	"github.com/san-kum/higgsanim/internal/metrics"
	"github.com/san-kum/higgsanim/internal/render"
	"github.com/san-kum/higgsanim/internal/resonance"
	"github.com/san-kum/higgsanim/internal/sampler"
	"github.com/san-kum/higgsanim/internal/storage"
	"github.com/san-kum/higgsanim/internal/tui"
)

type Options struct {
	Debug bool
	// Progress, when set, receives a live progress view.
	Progress io.Writer
	Logger   *log.Logger
}

type Experiment struct {
	cfg    *config.Config
	grid   *lookup.Store
	runs   *storage.Store
	opts   Options
	logger *log.Logger
}

// New prepares a run of cfg. runs may be nil to skip recording.
func New(cfg *config.Config, grid *lookup.Store, runs *storage.Store, opts Options) *Experiment {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Experiment{cfg: cfg, grid: grid, runs: runs, opts: opts, logger: logger}
}

// Outcome describes a finished run.
type Outcome struct {
	RunID   string
	Result  *anim.Result
	Metrics map[string]float64
}

// Dataset interpolates the configured particles along the scan.
func (e *Experiment) Dataset(ctx context.Context) (*resonance.Dataset, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	return e.grid.BuildDataset(ctx, lookup.Request{
		Particles: e.cfg.Particles,
		Mode:      e.cfg.Mode,
		Channel:   e.cfg.Channel,
		Scan:      e.cfg.ScanAxis(),
		TanBeta:   e.cfg.TanBeta,
		Summed:    e.cfg.Summed,
	})
}

// Estimate runs only the height scan and derives the axis, as a render
// would before its first frame.
func (e *Experiment) Estimate(ctx context.Context) (*resonance.Dataset, *estimate.Bound, sampler.Axis, error) {
	ac, err := e.cfg.Anim(e.opts.Debug)
	if err != nil {
		return nil, nil, sampler.Axis{}, err
	}
	ds, err := e.Dataset(ctx)
	if err != nil {
		return nil, nil, sampler.Axis{}, err
	}
	est := &estimate.Estimator{Shape: ac.Shape, Sigma: ac.Sigma, Luminosity: ac.Luminosity, Workers: ac.Workers}
	b, axis, err := sampler.Prepare(est, ds, ac.Bins)
	if err != nil {
		return ds, b, sampler.Axis{}, err
	}
	return ds, b, axis, nil
}

// Snapshot renders frame i alone to path; the extension picks the format.
func (e *Experiment) Snapshot(ctx context.Context, i int, path string) (*anim.Frame, error) {
	ac, err := e.cfg.Anim(e.opts.Debug)
	if err != nil {
		return nil, err
	}
	ds, err := e.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	plotter := render.NewPlotter()
	d := anim.New(ac, plotter, nil)
	d.SetLogger(e.logger)
	f, err := d.Sample(ds, i)
	if err != nil {
		return nil, err
	}
	if err := plotter.Save(f, path); err != nil {
		return nil, fmt.Errorf("%w: snapshot: %w", resonance.ErrCollaborator, err)
	}
	return f, nil
}

// Run renders the animation, writes the optional side outputs and records
// the run.
func (e *Experiment) Run(ctx context.Context) (*Outcome, error) {
	ac, err := e.cfg.Anim(e.opts.Debug)
	if err != nil {
		return nil, err
	}
	ds, err := e.Dataset(ctx)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(e.cfg.Out), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	enc := &render.GIFEncoder{Path: e.cfg.Out, Workers: ac.Workers, Logger: e.logger}
	driver := anim.New(ac, render.NewPlotter(), enc)
	driver.SetLogger(e.logger)

	collector := metrics.Default()
	recorder := storage.NewRecorder()
	driver.AddObserver(collector)
	driver.AddObserver(recorder)

	var frames *render.FrameDir
	if e.cfg.FramesDir != "" {
		if frames, err = render.NewFrameDir(e.cfg.FramesDir); err != nil {
			return nil, err
		}
		driver.AddObserver(frames)
	}
	var report *render.Report
	if e.cfg.Report != "" {
		report = render.NewReport(anim.Title(ds.Labels(), ds.Scan[0], e.cfg.Mode))
		driver.AddObserver(report)
	}

	runCtx := ctx
	var progress *tui.Progress
	if e.opts.Progress != nil {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithCancel(ctx)
		defer cancel()
		title := fmt.Sprintf("%s  m_A %g-%g GeV  tan β %g", strings.Join(e.cfg.Particles, ","), e.cfg.MAMin, e.cfg.MAMax, e.cfg.TanBeta)
		progress = tui.NewProgress(title, ds.Frames(), e.opts.Progress, cancel)
		progress.Start()
		driver.AddObserver(progress)
	}

	res, err := driver.Run(runCtx, ds)
	if progress != nil {
		progress.Finish(err)
	}
	if err != nil {
		if frames != nil {
			if cerr := frames.Cleanup(); cerr != nil {
				e.logger.Printf("[render] cleanup frames: %v", cerr)
			}
		}
		return nil, err
	}

	if report != nil {
		if err := writeReport(e.cfg.Report, report, res.Bound); err != nil {
			return nil, err
		}
	}

	out := &Outcome{Result: res, Metrics: collector.Values()}
	if e.runs == nil {
		return out, nil
	}
	meta := storage.RunMetadata{
		Particles:  e.cfg.Particles,
		Mode:       e.cfg.Mode,
		Channel:    e.cfg.Channel,
		TanBeta:    e.cfg.TanBeta,
		ScanMin:    e.cfg.MAMin,
		ScanMax:    e.cfg.MAMax,
		Frames:     res.Frames,
		Bins:       e.cfg.Bins,
		Shape:      e.cfg.Shape,
		Sigma:      ac.Sigma.String(),
		Luminosity: e.cfg.Luminosity,
		Sum:        e.cfg.Sum,
		LogScale:   e.cfg.LogScale,
		Bound:      res.Bound.Height,
		YMax:       res.YMax,
		AxisMin:    res.Axis.Min,
		AxisMax:    res.Axis.Max,
		Output:     e.cfg.Out,
		ElapsedMS:  res.Elapsed.Milliseconds(),
		Metrics:    out.Metrics,
	}
	if out.RunID, err = e.runs.Save(meta, recorder.Recording()); err != nil {
		return out, fmt.Errorf("failed to record run: %w", err)
	}
	return out, nil
}

func writeReport(path string, r *render.Report, b *estimate.Bound) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Write(f, b); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
