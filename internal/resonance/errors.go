package resonance

import (
	"errors"
	"fmt"
)

// Error classes for animation runs.
var (
	// ErrConfiguration indicates an out-of-range or unparseable setting.
	ErrConfiguration = errors.New("resonance: invalid configuration")

	// ErrNumericDegeneracy indicates a zero width or zero normalisation.
	ErrNumericDegeneracy = errors.New("resonance: numeric degeneracy")

	// ErrCollaborator indicates the renderer or encoder failed.
	ErrCollaborator = errors.New("resonance: collaborator failure")

	// ErrEmptyDataset indicates a dataset without particles or frames.
	ErrEmptyDataset = errors.New("resonance: empty dataset")

	// ErrSeriesLength indicates per-frame series of different lengths.
	ErrSeriesLength = errors.New("resonance: mismatched series lengths")
)

// Configf builds an error wrapping ErrConfiguration.
func Configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// Degeneracyf builds an error wrapping ErrNumericDegeneracy.
func Degeneracyf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNumericDegeneracy, fmt.Sprintf(format, args...))
}

// FrameError wraps an error with the frame and particle it occurred at.
// Particle is empty for frame-level failures.
type FrameError struct {
	Frame    int
	Particle string
	Wrapped  error
}

func (e *FrameError) Error() string {
	if e.Particle == "" {
		return fmt.Sprintf("frame %d: %v", e.Frame, e.Wrapped)
	}
	return fmt.Sprintf("frame %d, particle %s: %v", e.Frame, e.Particle, e.Wrapped)
}

func (e *FrameError) Unwrap() error {
	return e.Wrapped
}
