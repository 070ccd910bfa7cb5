package render

import (
	"fmt"
	"image"
	"image/color/palette"
	imgdraw "image/draw"
	"image/gif"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/san-kum/higgsanim/internal/resonance"
)

// GIFEncoder writes frames to Path. The file is assembled under a temporary
// name in the same directory and only renamed into place once complete.
type GIFEncoder struct {
	Path    string
	Workers int
	Logger  *log.Logger
}

// Centiseconds converts a frame duration into a GIF delay, at least 1.
func Centiseconds(d time.Duration) int {
	cs := int(math.Round(float64(d) / float64(10*time.Millisecond)))
	if cs < 1 {
		cs = 1
	}
	return cs
}

// Encode quantises the frames to the Plan 9 palette and writes them with the
// given per-frame delay. loopCount 0 loops forever and -1 plays once.
func (e *GIFEncoder) Encode(frames []image.Image, delay time.Duration, loopCount int) (err error) {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to encode")
	}

	anim := &gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		LoopCount: loopCount,
	}
	cs := Centiseconds(delay)
	resonance.ParallelFor(len(frames), 4, e.Workers, func(start, end int) {
		for i := start; i < end; i++ {
			anim.Image[i] = quantize(frames[i])
			anim.Delay[i] = cs
		}
	})

	dir := filepath.Dir(e.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(e.Path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = gif.EncodeAll(tmp, anim); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), e.Path); err != nil {
		return err
	}
	if e.Logger != nil {
		e.Logger.Printf("wrote %s (%d frames, %d cs/frame)", e.Path, len(frames), cs)
	}
	return nil
}

func quantize(img image.Image) *image.Paletted {
	if p, ok := img.(*image.Paletted); ok {
		return p
	}
	b := img.Bounds()
	dst := image.NewPaletted(b, palette.Plan9)
	imgdraw.FloydSteinberg.Draw(dst, b, img, b.Min)
	return dst
}
