package render

import (
	"image"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/higgsanim/internal/anim"
)

const (
	DefaultWidth  = 1300
	DefaultHeight = 750
	DefaultDPI    = 96
)

// Plotter draws frames as line plots. Width and Height are in pixels.
type Plotter struct {
	Width  int
	Height int
	DPI    int
	XLabel string
	YLabel string
}

// NewPlotter returns a plotter with the default canvas size.
func NewPlotter() *Plotter {
	return &Plotter{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		DPI:    DefaultDPI,
		XLabel: "m / GeV",
		YLabel: "events / GeV",
	}
}

func (p *Plotter) size() (vg.Length, vg.Length) {
	dpi := vg.Length(p.DPI)
	return vg.Length(p.Width) * vg.Inch / dpi, vg.Length(p.Height) * vg.Inch / dpi
}

// Plot builds the gonum plot of one frame with a fixed y range.
func (p *Plotter) Plot(f *anim.Frame) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = f.Title
	pl.X.Label.Text = p.XLabel
	pl.Y.Label.Text = p.YLabel
	pl.Legend.Top = true
	pl.Add(plotter.NewGrid())

	floor := 0.0
	if f.LogScale {
		floor = f.YMin
		pl.Y.Scale = plot.LogScale{}
		pl.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	for k, c := range f.Curves {
		line, err := plotter.NewLine(floored{XYer: c, min: floor})
		if err != nil {
			return nil, err
		}
		line.Color = plotutil.Color(k)
		line.Width = vg.Points(2)
		pl.Add(line)
		if len(f.Curves) > 1 {
			pl.Legend.Add(f.Legend[k], line)
		}
	}
	if f.Total != nil {
		line, err := plotter.NewLine(floored{XYer: f.Total, min: floor})
		if err != nil {
			return nil, err
		}
		line.Color = color.Black
		line.Width = vg.Points(1.5)
		line.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
		pl.Add(line)
		pl.Legend.Add(f.Total.Label, line)
	}

	if len(f.Curves) > 0 {
		axis := f.Curves[0].Axis
		pl.X.Min, pl.X.Max = axis.Min, axis.Max
	}
	pl.Y.Min, pl.Y.Max = f.YMin, f.YMax
	return pl, nil
}

// Render rasterises the frame onto a fresh canvas.
func (p *Plotter) Render(f *anim.Frame) (image.Image, error) {
	pl, err := p.Plot(f)
	if err != nil {
		return nil, err
	}
	w, h := p.size()
	c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(p.DPI), vgimg.UseBackgroundColor(color.White))
	pl.Draw(draw.New(c))
	return c.Image(), nil
}

// Save writes the frame to path; the extension selects png, svg, pdf or eps.
func (p *Plotter) Save(f *anim.Frame, path string) error {
	pl, err := p.Plot(f)
	if err != nil {
		return err
	}
	w, h := p.size()
	return pl.Save(w, h, path)
}

// floored lifts y values to min so they stay drawable on a log axis.
type floored struct {
	plotter.XYer
	min float64
}

func (f floored) XY(i int) (float64, float64) {
	x, y := f.XYer.XY(i)
	return x, math.Max(y, f.min)
}
