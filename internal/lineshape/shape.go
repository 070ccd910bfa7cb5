package lineshape

import (
	"fmt"
	"math"
	"sort"
)

// GaussianFWHM converts a Gaussian sigma into its full width at half maximum.
const GaussianFWHM = 2.35482

// Shape is a resonance lineshape evaluated at mass-axis points.
type Shape interface {
	Name() string
	// Density returns the (possibly unnormalised) lineshape value at x.
	Density(x, mean, width, sigma float64) float64
	// FWHM returns the full width at half maximum for the given parameters.
	FWHM(width, sigma float64) float64
}

// VoigtFWHM is the Olivero–Longbothum approximation of the Voigt FWHM from
// the Lorentzian FWHM fl and the Gaussian FWHM fg.
func VoigtFWHM(fl, fg float64) float64 {
	return 0.5346*fl + math.Sqrt(0.2166*fl*fl+fg*fg)
}

var registry = map[string]func() Shape{
	"voigt":        func() Shape { return Voigt{} },
	"breit-wigner": func() Shape { return BreitWigner{} },
}

// Lookup returns the shape registered under name.
func Lookup(name string) (Shape, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown lineshape: %s", name)
	}
	return fn(), nil
}

// Names lists the registered shapes in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
