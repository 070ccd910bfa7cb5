package render

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/higgsanim/internal/anim"
	"github.com/san-kum/higgsanim/internal/estimate"
	"github.com/san-kum/higgsanim/internal/lineshape"
	"github.com/san-kum/higgsanim/internal/resonance"
	"github.com/san-kum/higgsanim/internal/sampler"
	"github.com/san-kum/higgsanim/internal/sigma"
)

func testFrame(t *testing.T, index int, labels ...string) *anim.Frame {
	t.Helper()
	axis, err := sampler.NewAxis(80, 160, 64)
	require.NoError(t, err)
	s := &sampler.Sampler{Shape: lineshape.Voigt{}, Sigma: sigma.MustParse("2"), Luminosity: 10, Axis: axis}

	f := &anim.Frame{Index: index, Count: 3, ScanValue: 120, Title: anim.Title(labels, 120, "")}
	for k, label := range labels {
		pt := resonance.Point{Mass: 110 + 10*float64(k), Width: 1, CrossSection: 0.5, BR: 1}
		c, err := s.Sample(label, pt)
		require.NoError(t, err)
		f.Curves = append(f.Curves, c)
		f.Points = append(f.Points, pt)
		f.Legend = append(f.Legend, anim.LegendEntry(label, pt))
		f.YMax = max(f.YMax, 1.2*c.Max())
	}
	return f
}

func solid(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestCentiseconds(t *testing.T) {
	assert.Equal(t, 10, Centiseconds(100*time.Millisecond))
	assert.Equal(t, 4, Centiseconds(35*time.Millisecond))
	assert.Equal(t, 1, Centiseconds(time.Millisecond))
	assert.Equal(t, 150, Centiseconds(1500*time.Millisecond))
}

func TestGIFEncoder_Encode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gif")
	enc := &GIFEncoder{Path: path}

	frames := []image.Image{solid(color.White), solid(color.Black), solid(color.RGBA{R: 255, A: 255})}
	require.NoError(t, enc.Encode(frames, 200*time.Millisecond, 0))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	g, err := gif.DecodeAll(file)
	require.NoError(t, err)
	assert.Len(t, g.Image, 3)
	assert.Equal(t, []int{20, 20, 20}, g.Delay)
	assert.Equal(t, 0, g.LoopCount)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestGIFEncoder_NoFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gif")
	enc := &GIFEncoder{Path: path}
	assert.Error(t, enc.Encode(nil, time.Second, 0))
	assert.NoFileExists(t, path)
}

func TestGIFEncoder_MissingDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing", "out.gif")
	enc := &GIFEncoder{Path: path}
	assert.Error(t, enc.Encode([]image.Image{solid(color.White)}, time.Second, 0))
	assert.NoFileExists(t, path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPlotter_Render(t *testing.T) {
	p := &Plotter{Width: 200, Height: 100, DPI: 100, XLabel: "m", YLabel: "y"}
	img, err := p.Render(testFrame(t, 0, "h", "H"))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestPlotter_FixedRange(t *testing.T) {
	p := NewPlotter()
	f := testFrame(t, 1, "A")
	f.YMax = 42
	pl, err := p.Plot(f)
	require.NoError(t, err)
	assert.Equal(t, 42.0, pl.Y.Max)
	assert.Equal(t, 0.0, pl.Y.Min)
	assert.Equal(t, 80.0, pl.X.Min)
	assert.Equal(t, 160.0, pl.X.Max)
	assert.Equal(t, f.Title, pl.Title.Text)
}

func TestPlotter_LogScaleWithTotal(t *testing.T) {
	p := &Plotter{Width: 200, Height: 100, DPI: 100}
	f := testFrame(t, 0, "h", "H")
	f.LogScale = true
	f.YMin = 1e-3
	total, err := sampler.Sum(anim.TotalLabel, f.Curves)
	require.NoError(t, err)
	f.Total = total
	f.YMax = 2 * total.Max()

	_, err = p.Render(f)
	require.NoError(t, err)
}

func TestPlotter_Save(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.svg")
	require.NoError(t, NewPlotter().Save(testFrame(t, 0, "A"), path))
	assert.FileExists(t, path)
}

func TestFrameDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	fd, err := NewFrameDir(dir)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, fd.OnFrame(&anim.Frame{Index: i}, solid(color.White)))
	}
	assert.FileExists(t, filepath.Join(dir, "frame_0002.png"))
	assert.Len(t, fd.Files, 3)

	require.NoError(t, fd.Cleanup())
	assert.NoFileExists(t, filepath.Join(dir, "frame_0000.png"))
}

func TestReport_Write(t *testing.T) {
	r := NewReport("run")
	for i := 0; i < 3; i++ {
		require.NoError(t, r.OnFrame(testFrame(t, i, "h", "H"), nil))
	}
	assert.Equal(t, 3, r.Frames())

	b := &estimate.Bound{
		Height:  10,
		Heights: [][]float64{{1, 2, 3}, {4, 5, 6}},
	}
	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf, b))
	assert.Contains(t, buf.String(), "Peak heights")
	assert.Contains(t, buf.String(), "h predicted")
}

func TestReport_Errors(t *testing.T) {
	r := NewReport("run")
	var buf bytes.Buffer
	assert.Error(t, r.Write(&buf, &estimate.Bound{Height: 1}))

	require.NoError(t, r.OnFrame(testFrame(t, 0, "h", "H"), nil))
	assert.Error(t, r.OnFrame(testFrame(t, 1, "h"), nil))
}
