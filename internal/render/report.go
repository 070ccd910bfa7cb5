package render

import (
	"fmt"
	"image"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/san-kum/higgsanim/internal/anim"
	"github.com/san-kum/higgsanim/internal/estimate"
)

// Report collects per-frame peaks during a run and writes them as an HTML
// page comparing rendered peaks against the predicted heights.
type Report struct {
	Title string

	scan   []float64
	labels []string
	peaks  [][]float64
	totals []float64
}

func NewReport(title string) *Report {
	return &Report{Title: title}
}

func (r *Report) OnFrame(f *anim.Frame, _ image.Image) error {
	if r.labels == nil {
		r.labels = make([]string, len(f.Curves))
		r.peaks = make([][]float64, len(f.Curves))
		for k, c := range f.Curves {
			r.labels[k] = c.Label
		}
	}
	if len(f.Curves) != len(r.labels) {
		return fmt.Errorf("frame %d has %d curves, expected %d", f.Index, len(f.Curves), len(r.labels))
	}
	r.scan = append(r.scan, f.ScanValue)
	for k, c := range f.Curves {
		r.peaks[k] = append(r.peaks[k], c.Max())
	}
	if f.Total != nil {
		r.totals = append(r.totals, f.Total.Max())
	}
	return nil
}

// Frames returns how many frames have been observed.
func (r *Report) Frames() int { return len(r.scan) }

// Write renders the page. b supplies the predicted heights and bound.
func (r *Report) Write(w io.Writer, b *estimate.Bound) error {
	if len(r.scan) == 0 {
		return fmt.Errorf("report has no frames")
	}
	x := make([]string, len(r.scan))
	for i, v := range r.scan {
		x[i] = fmt.Sprintf("%g", roundScan(v))
	}

	peaks := charts.NewLine()
	peaks.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: r.Title, Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Peak heights", Subtitle: fmt.Sprintf("bound=%.6g frames=%d", b.Height, len(r.scan))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "m_A (GeV)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "events / GeV", NameLocation: "middle", NameGap: 50}),
	)
	peaks.SetXAxis(x)
	for k, label := range r.labels {
		peaks.AddSeries(label+" rendered", lineData(r.peaks[k]))
		if k < len(b.Heights) && len(b.Heights[k]) == len(r.scan) {
			peaks.AddSeries(label+" predicted", lineData(b.Heights[k]),
				charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}))
		}
	}
	if len(r.totals) == len(r.scan) {
		peaks.AddSeries(anim.TotalLabel, lineData(r.totals))
	}
	bound := make([]float64, len(r.scan))
	for i := range bound {
		bound[i] = b.Height
	}
	peaks.AddSeries("bound", lineData(bound), charts.WithLineStyleOpts(opts.LineStyle{Type: "dotted"}))

	util := charts.NewBar()
	util.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Peak utilisation", Subtitle: "largest rendered peak / bound per frame"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	ratio := make([]opts.BarData, len(r.scan))
	for i := range r.scan {
		top := 0.0
		for k := range r.labels {
			if v := r.peaks[k][i]; v > top {
				top = v
			}
		}
		ratio[i] = opts.BarData{Value: top / b.Height}
	}
	util.SetXAxis(x).AddSeries("utilisation", ratio)

	page := components.NewPage()
	page.PageTitle = r.Title
	page.AddCharts(peaks, util)
	return page.Render(w)
}

func lineData(v []float64) []opts.LineData {
	data := make([]opts.LineData, len(v))
	for i, y := range v {
		data[i] = opts.LineData{Value: y}
	}
	return data
}

func roundScan(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
