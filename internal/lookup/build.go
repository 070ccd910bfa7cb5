package lookup

import (
	"context"
	"fmt"

	"github.com/san-kum/higgsanim/internal/resonance"
)

// ScanParticle is the pseudoscalar whose mass is the scan variable.
const ScanParticle = "A"

func MassDataset(p string) string { return "m_" + p }
func WidthDataset(p string) string { return "width_" + p }
func CrossSectionDataset(mode, p string) string { return fmt.Sprintf("xs_%s_%s", mode, p) }
func BranchingDataset(p, channel string) string { return fmt.Sprintf("br_%s_%s", p, channel) }

// Request selects what BuildDataset reads. Channel is optional; without it
// no branching ratios are applied. Summed nil means every particle is summed.
type Request struct {
	Particles []string
	Mode      string
	Channel   string
	Scan      resonance.ScanAxis
	TanBeta   float64
	Summed    []string
}

// BuildDataset interpolates every series of req along its scan.
func (s *Store) BuildDataset(ctx context.Context, req Request) (*resonance.Dataset, error) {
	if len(req.Particles) == 0 {
		return nil, fmt.Errorf("%w: no particles requested", resonance.ErrEmptyDataset)
	}
	if req.Mode == "" {
		return nil, resonance.Configf("production mode is required")
	}

	ds := &resonance.Dataset{Scan: req.Scan, TanBeta: req.TanBeta}
	for _, label := range req.Particles {
		p := resonance.Particle{Label: label, Summed: summed(req.Summed, label)}

		var err error
		if p.Mass, err = s.massSeries(ctx, label, req.Scan, req.TanBeta); err != nil {
			return nil, err
		}
		if p.Width, err = s.series(ctx, WidthDataset(label), req.Scan, req.TanBeta); err != nil {
			return nil, err
		}
		if p.CrossSection, err = s.series(ctx, CrossSectionDataset(req.Mode, label), req.Scan, req.TanBeta); err != nil {
			return nil, err
		}
		if req.Channel != "" {
			if p.BranchingRatio, err = s.series(ctx, BranchingDataset(label, req.Channel), req.Scan, req.TanBeta); err != nil {
				return nil, err
			}
		}
		ds.Particles = append(ds.Particles, p)
	}
	s.logger.Printf("[lookup] built %d particles x %d frames at tan β %g", len(ds.Particles), ds.Frames(), req.TanBeta)
	return ds, nil
}

func (s *Store) massSeries(ctx context.Context, label string, scan resonance.ScanAxis, tanb float64) ([]float64, error) {
	if label == ScanParticle {
		ok, err := s.Has(ctx, MassDataset(label))
		if err != nil {
			return nil, err
		}
		if !ok {
			return append([]float64(nil), scan...), nil
		}
	}
	return s.series(ctx, MassDataset(label), scan, tanb)
}

func (s *Store) series(ctx context.Context, dataset string, scan resonance.ScanAxis, tanb float64) ([]float64, error) {
	g, err := s.Grid(ctx, dataset)
	if err != nil {
		return nil, err
	}
	return g.Series(scan, tanb)
}

func summed(list []string, label string) bool {
	if list == nil {
		return true
	}
	for _, l := range list {
		if l == label {
			return true
		}
	}
	return false
}
