package storage

import (
	"fmt"
	"image"

	"github.com/san-kum/higgsanim/internal/anim"
)

// FrameCurves holds the sampled curves of one frame. Y is indexed like
// Recording.Labels.
type FrameCurves struct {
	Index     int         `json:"index"`
	ScanValue float64     `json:"m_a"`
	X         []float64   `json:"x"`
	Y         [][]float64 `json:"y"`
}

type Recording struct {
	Labels []string      `json:"labels"`
	Frames []FrameCurves `json:"frames"`
}

// Recorder copies every rendered frame so the run can be stored afterwards.
type Recorder struct {
	rec Recording
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) OnFrame(f *anim.Frame, _ image.Image) error {
	labels := make([]string, 0, len(f.Curves)+1)
	for _, c := range f.Curves {
		labels = append(labels, c.Label)
	}
	if f.Total != nil {
		labels = append(labels, f.Total.Label)
	}
	if r.rec.Labels == nil {
		r.rec.Labels = labels
	} else if len(labels) != len(r.rec.Labels) {
		return fmt.Errorf("frame %d has %d series, expected %d", f.Index, len(labels), len(r.rec.Labels))
	}

	fc := FrameCurves{Index: f.Index, ScanValue: f.ScanValue, Y: make([][]float64, 0, len(labels))}
	for _, c := range f.Curves {
		if fc.X == nil {
			fc.X = c.Axis.Centers()
		}
		fc.Y = append(fc.Y, append([]float64(nil), c.Y...))
	}
	if f.Total != nil {
		fc.Y = append(fc.Y, append([]float64(nil), f.Total.Y...))
	}
	r.rec.Frames = append(r.rec.Frames, fc)
	return nil
}

// Series returns the curve called label in frame i.
func (r *Recording) Series(i int, label string) ([]float64, bool) {
	if i < 0 || i >= len(r.Frames) {
		return nil, false
	}
	for k, l := range r.Labels {
		if l == label {
			return r.Frames[i].Y[k], true
		}
	}
	return nil, false
}

func (r *Recorder) Recording() *Recording { return &r.rec }
