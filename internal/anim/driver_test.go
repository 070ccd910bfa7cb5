package anim_test

import (
	"context"
	"errors"
	"image"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/higgsanim/internal/anim"
	"github.com/san-kum/higgsanim/internal/lineshape"
	"github.com/san-kum/higgsanim/internal/resonance"
	"github.com/san-kum/higgsanim/internal/sigma"
)

type recordingRenderer struct {
	frames []*anim.Frame
	failAt int
}

func (r *recordingRenderer) Render(f *anim.Frame) (image.Image, error) {
	if r.failAt >= 0 && f.Index == r.failAt {
		return nil, errors.New("canvas lost")
	}
	r.frames = append(r.frames, f)
	return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
}

type recordingEncoder struct {
	calls  int
	frames int
	delay  time.Duration
	loop   int
	err    error
}

func (e *recordingEncoder) Encode(frames []image.Image, delay time.Duration, loop int) error {
	e.calls++
	e.frames = len(frames)
	e.delay = delay
	e.loop = loop
	return e.err
}

// offCentre peaks 40 GeV above the mass and is four times narrower than the
// FWHM it reports, so its curves break the height bound.
type offCentre struct{}

func (offCentre) Name() string { return "off-centre" }

func (offCentre) FWHM(width, sig float64) float64 { return lineshape.Voigt{}.FWHM(width, sig) }

func (offCentre) Density(x, mean, width, sig float64) float64 {
	return lineshape.Voigt{}.Density(x, mean+40, width/4, sig/4)
}

type stateProbe struct {
	driver *anim.Driver
	seen   []anim.State
}

func (p *stateProbe) OnFrame(f *anim.Frame, img image.Image) error {
	p.seen = append(p.seen, p.driver.State())
	return nil
}

func twoParticles() *resonance.Dataset {
	return &resonance.Dataset{
		Scan:    resonance.ScanAxis{300, 350, 400, 450},
		TanBeta: 8,
		Particles: []resonance.Particle{
			{Label: "H", Mass: []float64{305, 352, 401, 451}, Width: []float64{2, 3, 4, 5}, CrossSection: []float64{1, 0.8, 0.6, 0.4}, Summed: true},
			{Label: "A", Mass: []float64{300, 350, 400, 450}, Width: []float64{3, 4, 5, 6}, CrossSection: []float64{1.2, 0.9, 0.5, 0.3}, BranchingRatio: []float64{0.1, 0.1, 0.1, 0.1}, Summed: true},
		},
	}
}

var _ = Describe("Driver", func() {
	var (
		cfg      anim.Config
		renderer *recordingRenderer
		encoder  *recordingEncoder
		driver   *anim.Driver
	)

	BeforeEach(func() {
		cfg = anim.Config{
			Shape:      lineshape.Voigt{},
			Sigma:      sigma.MustParse("5%"),
			Luminosity: 100,
			Bins:       400,
			Sum:        true,
			FrameTime:  40 * time.Millisecond,
			Workers:    2,
		}
		renderer = &recordingRenderer{failAt: -1}
		encoder = &recordingEncoder{}
	})

	JustBeforeEach(func() {
		driver = anim.New(cfg, renderer, encoder)
	})

	It("starts idle", func() {
		Expect(driver.State()).To(Equal(anim.Idle))
		Expect(driver.Bound()).To(BeNil())
	})

	Context("with a valid dataset", func() {
		var (
			result *anim.Result
			probe  *stateProbe
		)

		JustBeforeEach(func() {
			probe = &stateProbe{driver: driver}
			driver.AddObserver(probe)
			var err error
			result, err = driver.Run(context.Background(), twoParticles())
			Expect(err).NotTo(HaveOccurred())
		})

		It("visits every frame once in order", func() {
			Expect(renderer.frames).To(HaveLen(4))
			for i, f := range renderer.frames {
				Expect(f.Index).To(Equal(i))
				Expect(f.Count).To(Equal(4))
			}
		})

		It("uses one fixed y maximum for every frame", func() {
			Expect(result.YMax).To(Equal(result.Bound.Total))
			Expect(result.YMax).To(BeNumerically(">=", result.Bound.Height))
			for _, f := range renderer.frames {
				Expect(f.YMax).To(Equal(result.YMax))
				Expect(f.Peak()).To(BeNumerically("<=", result.Bound.Height))
				Expect(f.Total.Max()).To(BeNumerically("<=", f.YMax))
			}
			Expect(result.PeakMax).To(BeNumerically("<=", result.Bound.Height))
		})

		It("renders only while in the Rendering state and ends Done", func() {
			Expect(probe.seen).To(HaveLen(4))
			for _, s := range probe.seen {
				Expect(s).To(Equal(anim.Rendering))
			}
			Expect(driver.State()).To(Equal(anim.Done))
		})

		It("hands the ordered frames to the encoder once", func() {
			Expect(encoder.calls).To(Equal(1))
			Expect(encoder.frames).To(Equal(4))
			Expect(encoder.delay).To(Equal(40 * time.Millisecond))
			Expect(result.Frames).To(Equal(4))
		})

		It("sums the particle curves bin by bin", func() {
			f := renderer.frames[2]
			Expect(f.Total).NotTo(BeNil())
			Expect(f.Total.Label).To(Equal(anim.TotalLabel))
			for k := range f.Total.Y {
				Expect(f.Total.Y[k]).To(BeNumerically("~", f.Curves[0].Y[k]+f.Curves[1].Y[k], 1e-9))
			}
		})

		It("scales each curve to its yield", func() {
			for _, f := range renderer.frames {
				for k, c := range f.Curves {
					Expect(c.Integral()).To(BeNumerically("~", f.Yields[k], 1e-6*f.Yields[k]))
				}
			}
		})

		It("labels frames with the scan value", func() {
			Expect(renderer.frames[1].Title).To(Equal("Higgs boson peaks (m_A = 350 GeV)"))
			Expect(renderer.frames[1].Legend[0]).To(Equal("H (m = 352.0; w = 3.0000)"))
		})

		It("refuses a second run", func() {
			_, err := driver.Run(context.Background(), twoParticles())
			Expect(err).To(HaveOccurred())
		})
	})

	Context("when summation is disabled", func() {
		BeforeEach(func() { cfg.Sum = false })

		It("produces no total curve", func() {
			_, err := driver.Run(context.Background(), twoParticles())
			Expect(err).NotTo(HaveOccurred())
			for _, f := range renderer.frames {
				Expect(f.Total).To(BeNil())
			}
		})
	})

	Context("with a malformed configuration", func() {
		DescribeTable("fails before the height bound",
			func(mutate func(*anim.Config, *resonance.Dataset), want error) {
				ds := twoParticles()
				mutate(&cfg, ds)
				d := anim.New(cfg, renderer, encoder)
				_, err := d.Run(context.Background(), ds)
				Expect(errors.Is(err, want)).To(BeTrue(), "got %v", err)
				Expect(d.State()).To(Equal(anim.Failed))
				Expect(d.Bound()).To(BeNil())
				Expect(renderer.frames).To(BeEmpty())
				Expect(encoder.calls).To(BeZero())
			},
			Entry("zero luminosity", func(c *anim.Config, _ *resonance.Dataset) { c.Luminosity = 0 }, resonance.ErrConfiguration),
			Entry("one bin", func(c *anim.Config, _ *resonance.Dataset) { c.Bins = 1 }, resonance.ErrConfiguration),
			Entry("too coarse", func(c *anim.Config, _ *resonance.Dataset) { c.Bins = 3 }, resonance.ErrConfiguration),
			Entry("log scale without minimum", func(c *anim.Config, _ *resonance.Dataset) { c.LogScale = true }, resonance.ErrConfiguration),
			Entry("empty dataset", func(_ *anim.Config, d *resonance.Dataset) { d.Scan = nil }, resonance.ErrEmptyDataset),
			Entry("mismatched series", func(_ *anim.Config, d *resonance.Dataset) { d.Particles[1].Width = d.Particles[1].Width[:3] }, resonance.ErrSeriesLength),
			Entry("zero cross-section", func(_ *anim.Config, d *resonance.Dataset) {
				for n := range d.Particles {
					d.Particles[n].CrossSection = []float64{0, 0, 0, 0}
				}
			}, resonance.ErrNumericDegeneracy),
		)
	})

	Context("when the renderer fails", func() {
		BeforeEach(func() { renderer.failAt = 2 })

		It("aborts without encoding", func() {
			_, err := driver.Run(context.Background(), twoParticles())
			Expect(errors.Is(err, resonance.ErrCollaborator)).To(BeTrue())
			var fe *resonance.FrameError
			Expect(errors.As(err, &fe)).To(BeTrue())
			Expect(fe.Frame).To(Equal(2))
			Expect(renderer.frames).To(HaveLen(2))
			Expect(encoder.calls).To(BeZero())
			Expect(driver.State()).To(Equal(anim.Failed))
		})
	})

	Context("when the encoder fails", func() {
		BeforeEach(func() { encoder.err = errors.New("disk full") })

		It("reports a collaborator failure", func() {
			_, err := driver.Run(context.Background(), twoParticles())
			Expect(errors.Is(err, resonance.ErrCollaborator)).To(BeTrue())
			Expect(driver.State()).To(Equal(anim.Failed))
		})
	})

	Context("when a curve exceeds the height bound", func() {
		BeforeEach(func() { cfg.Shape = offCentre{} })

		It("fails the frame before rendering or encoding", func() {
			_, err := driver.Run(context.Background(), twoParticles())
			Expect(errors.Is(err, resonance.ErrNumericDegeneracy)).To(BeTrue())
			var fe *resonance.FrameError
			Expect(errors.As(err, &fe)).To(BeTrue())
			Expect(fe.Frame).To(Equal(0))
			Expect(renderer.frames).To(BeEmpty())
			Expect(encoder.calls).To(BeZero())
			Expect(driver.State()).To(Equal(anim.Failed))
		})
	})

	Context("when the context is cancelled", func() {
		It("stops before rendering", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := driver.Run(ctx, twoParticles())
			Expect(err).To(MatchError(context.Canceled))
			Expect(renderer.frames).To(BeEmpty())
			Expect(encoder.calls).To(BeZero())
		})
	})

	Context("when sampling a single frame", func() {
		It("uses the same bound as a full run", func() {
			f, err := driver.Sample(twoParticles(), 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver.State()).To(Equal(anim.HeightBound))
			Expect(f.Index).To(Equal(1))
			Expect(f.YMax).To(Equal(driver.Bound().YMax(true)))
			Expect(renderer.frames).To(BeEmpty())
		})

		It("rejects an index outside the scan", func() {
			_, err := driver.Sample(twoParticles(), 9)
			Expect(errors.Is(err, resonance.ErrConfiguration)).To(BeTrue())
		})
	})

	Context("without collaborators", func() {
		It("fails before the height bound", func() {
			d := anim.New(cfg, nil, encoder)
			_, err := d.Run(context.Background(), twoParticles())
			Expect(errors.Is(err, resonance.ErrConfiguration)).To(BeTrue())
			Expect(d.State()).To(Equal(anim.Failed))
		})
	})
})

var _ = Describe("Title", func() {
	It("names a single particle", func() {
		Expect(anim.Title([]string{"H"}, 125.456, "")).To(Equal("H Higgs boson peak (m_A = 125.46 GeV)"))
	})

	It("appends the production mode", func() {
		Expect(anim.Title([]string{"H", "A"}, 300, "bbH")).To(Equal("Higgs boson peaks (m_A = 300 GeV) [bbH]"))
	})
})
