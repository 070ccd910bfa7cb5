package lineshape

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/integrate"
)

func TestVoigtFWHM_Limits(t *testing.T) {
	tests := []struct {
		name         string
		width, sigma float64
		want         float64
	}{
		{"pure gaussian", 0, 10, GaussianFWHM * 10},
		{"pure lorentzian", 2, 0, 4 * (0.5346 + math.Sqrt(0.2166))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Voigt{}.FWHM(tt.width, tt.sigma)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("FWHM = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVoigt_HalfMaximum(t *testing.T) {
	v := Voigt{}
	for _, p := range []struct{ width, sigma float64 }{{1, 22}, {5, 1}, {0.001, 3}, {3, 0}} {
		f := v.FWHM(p.width, p.sigma)
		peak := v.Density(110, 110, p.width, p.sigma)
		for _, x := range []float64{110 - f/2, 110 + f/2} {
			if got := v.Density(x, 110, p.width, p.sigma); math.Abs(got-peak/2) > 1e-9*peak {
				t.Errorf("w=%v s=%v: density at half width = %v, want %v", p.width, p.sigma, got, peak/2)
			}
		}
	}
}

func TestVoigt_UnitArea(t *testing.T) {
	v := Voigt{}
	tests := []struct {
		width, sigma float64
		tol          float64
	}{
		{0, 5, 1e-6},
		{1, 22, 2e-3},
		{4, 1, 2e-3},
	}
	for _, tt := range tests {
		f := v.FWHM(tt.width, tt.sigma)
		const n = 400001
		span := 1000 * f
		xs := make([]float64, n)
		ys := make([]float64, n)
		for i := range xs {
			xs[i] = -span + 2*span*float64(i)/float64(n-1)
			ys[i] = v.Density(xs[i], 0, tt.width, tt.sigma)
		}
		area := integrate.Simpsons(xs, ys)
		if math.Abs(area-1) > tt.tol {
			t.Errorf("w=%v s=%v: area = %v, want 1±%v", tt.width, tt.sigma, area, tt.tol)
		}
	}
}

func TestVoigt_PeakBetweenLimits(t *testing.T) {
	v := Voigt{}
	for _, p := range []struct{ width, sigma float64 }{{0, 1}, {1, 1}, {10, 1}, {1, 0}} {
		f := v.FWHM(p.width, p.sigma)
		peak := v.Peak(p.width, p.sigma) * f
		if peak < 2/math.Pi-1e-9 || peak > gaussNorm+1e-9 {
			t.Errorf("w=%v s=%v: peak*FWHM = %v outside [2/π, √(4ln2/π)]", p.width, p.sigma, peak)
		}
	}
}

func TestVoigt_ZeroWidth(t *testing.T) {
	if got := (Voigt{}).Density(100, 100, 0, 0); got != 0 {
		t.Errorf("degenerate density = %v, want 0", got)
	}
}

func TestBreitWigner(t *testing.T) {
	bw := BreitWigner{}
	peak := bw.Density(125, 125, 2, 0)
	if peak != 1 {
		t.Errorf("peak = %v, want 1", peak)
	}
	if got := bw.Density(126, 125, 2, 0); got != 0.5 {
		t.Errorf("density at half width = %v, want 0.5", got)
	}
	if bw.FWHM(2, 99) != 2 {
		t.Error("FWHM should equal the width and ignore sigma")
	}
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		s, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
		if s.Name() != name {
			t.Errorf("Lookup(%q).Name() = %q", name, s.Name())
		}
	}
	if _, err := Lookup("gauss"); err == nil {
		t.Error("expected error for unknown shape")
	}
}
