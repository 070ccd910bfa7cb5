package lineshape

// BreitWigner is the Lorentzian-only shape used by low-fidelity renders.
// Its values are unnormalised; the sampler supplies the scale.
type BreitWigner struct{}

func (BreitWigner) Name() string { return "breit-wigner" }

// FWHM of 1/((x−m)² + (Γ/2)²) is Γ; sigma is ignored.
func (BreitWigner) FWHM(width, _ float64) float64 { return width }

func (BreitWigner) Density(x, mean, width, _ float64) float64 {
	d := x - mean
	h := width / 2
	den := d*d + h*h
	if den == 0 {
		return 0
	}
	return 1 / den
}
