// Package lineshape evaluates resonance lineshapes on the mass axis.
//
//   - [Voigt]: pseudo-Voigt profile (Lorentzian half-width Γ convolved with a
//     Gaussian of spread σ), normalised to unit area
//   - [BreitWigner]: unnormalised Lorentzian 1/((x−m)² + (Γ/2)²)
//
// Both report the full width at half maximum the height estimate is based on,
// so a sampled curve and its predicted peak stay consistent.
package lineshape
