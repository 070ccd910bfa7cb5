package resonance

// Cross-sections are in pb and luminosity in fb⁻¹; UnitScale converts their
// product into an event count.
const UnitScale = 1000.0

// PeakCeiling bounds peak·FWHM of a normalised lineshape whose area lies on
// the axis. The pseudo-Voigt maximum is √(4 ln2/π) ≈ 0.9394.
const PeakCeiling = 1.0

// Yield returns the expected number of events for a frame point.
func Yield(p Point, luminosity float64) float64 {
	return p.CrossSection * luminosity * UnitScale * p.BR
}
