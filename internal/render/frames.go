package render

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/san-kum/higgsanim/internal/anim"
)

// FrameDir saves each rendered frame as frame_NNNN.png under Dir.
type FrameDir struct {
	Dir   string
	Files []string
}

// NewFrameDir creates dir if needed.
func NewFrameDir(dir string) (*FrameDir, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create frames dir: %w", err)
	}
	return &FrameDir{Dir: dir}, nil
}

func (d *FrameDir) OnFrame(f *anim.Frame, img image.Image) error {
	path := filepath.Join(d.Dir, fmt.Sprintf("frame_%04d.png", f.Index))
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	d.Files = append(d.Files, path)
	return nil
}

// Cleanup removes the files written so far.
func (d *FrameDir) Cleanup() error {
	for _, path := range d.Files {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	d.Files = nil
	return nil
}
