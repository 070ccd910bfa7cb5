package lineshape

import "math"

var gaussNorm = math.Sqrt(4 * math.Ln2 / math.Pi)

// Voigt is the Thompson–Cox–Hastings pseudo-Voigt: a mix of a Lorentzian and
// a Gaussian sharing the Olivero–Longbothum FWHM.
type Voigt struct{}

func (Voigt) Name() string { return "voigt" }

// FWHM returns the pseudo-Voigt FWHM for half-width width and spread sigma.
func (Voigt) FWHM(width, sigma float64) float64 {
	return VoigtFWHM(2*width, GaussianFWHM*sigma)
}

// Mixing returns the Lorentzian fraction η for the given parameters.
func (v Voigt) Mixing(width, sigma float64) float64 {
	f := v.FWHM(width, sigma)
	if f == 0 {
		return 0
	}
	r := 2 * width / f
	eta := 1.36603*r - 0.47719*r*r + 0.11116*r*r*r
	return math.Max(0, math.Min(1, eta))
}

// Density returns the unit-area pseudo-Voigt density at x. A zero FWHM
// yields zero everywhere.
func (v Voigt) Density(x, mean, width, sigma float64) float64 {
	f := v.FWHM(width, sigma)
	if f <= 0 {
		return 0
	}
	eta := v.Mixing(width, sigma)
	d := x - mean
	half := f / 2
	lorentz := (half / math.Pi) / (d*d + half*half)
	gauss := gaussNorm / f * math.Exp(-4*math.Ln2*d*d/(f*f))
	return eta*lorentz + (1-eta)*gauss
}

// Peak returns the density at the centre, gaussNorm/f for a pure Gaussian
// down to 2/(πf) for a pure Lorentzian.
func (v Voigt) Peak(width, sigma float64) float64 {
	return v.Density(0, 0, width, sigma)
}
