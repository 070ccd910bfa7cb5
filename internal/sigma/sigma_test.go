package sigma

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/higgsanim/internal/resonance"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		spec string
		mass float64
		want float64
	}{
		{"10%", 200, 20.0},
		{"5.0", 200, 5.0},
		{"", 200, 40.0},
		{"none", 200, 40.0},
		{" 2.5 % ", 400, 10.0},
		{"0", 125, 0},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			spec, err := Parse(tt.spec)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.spec, err)
			}
			if got := spec.Resolve(tt.mass); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Resolve(%v) = %v, want %v", tt.mass, got, tt.want)
			}
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, s := range []string{"abc", "%", "ten%", "-1", "NaN", "Inf", "1e400"} {
		t.Run(s, func(t *testing.T) {
			_, err := Parse(s)
			if !errors.Is(err, resonance.ErrConfiguration) {
				t.Errorf("Parse(%q) error = %v, want configuration error", s, err)
			}
		})
	}
}

func TestSpec_TextRoundTrip(t *testing.T) {
	for _, s := range []string{"", "10%", "5"} {
		spec := MustParse(s)
		b, err := spec.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var back Spec
		if err := back.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", b, err)
		}
		if back != spec {
			t.Errorf("round trip %q: got %+v, want %+v", s, back, spec)
		}
	}
}
