// Package sigma resolves the Gaussian resolution of a resonance from the
// configured specification and the particle mass.
package sigma

import (
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/higgsanim/internal/resonance"
)

// DefaultFraction is the resolution used when no specification is given.
const DefaultFraction = 0.20

// Kind tells how a Spec turns a mass into a sigma.
type Kind int

const (
	Default Kind = iota
	Percent
	Absolute
)

// Spec is a parsed sigma specification. The zero value is the default
// 20 % of mass.
type Spec struct {
	Kind  Kind
	Value float64
}

// Parse validates a sigma specification string. An empty string selects the
// default, "P%" a percentage of the mass and any other value an absolute
// sigma in GeV.
func Parse(s string) (Spec, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return Spec{}, nil
	}
	kind := Absolute
	num := s
	if strings.HasSuffix(s, "%") {
		kind = Percent
		num = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Spec{}, resonance.Configf("sigma %q: %v", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return Spec{}, resonance.Configf("sigma %q must be a finite non-negative number", s)
	}
	return Spec{Kind: kind, Value: v}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Spec {
	spec, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return spec
}

// Resolve returns the sigma in GeV for a particle of the given mass.
func (s Spec) Resolve(mass float64) float64 {
	switch s.Kind {
	case Percent:
		return mass * s.Value / 100.0
	case Absolute:
		return s.Value
	default:
		return mass * DefaultFraction
	}
}

func (s Spec) String() string {
	switch s.Kind {
	case Percent:
		return strconv.FormatFloat(s.Value, 'g', -1, 64) + "%"
	case Absolute:
		return strconv.FormatFloat(s.Value, 'g', -1, 64)
	default:
		return "none"
	}
}

// MarshalText encodes the specification in the form Parse accepts.
func (s Spec) MarshalText() ([]byte, error) {
	if s.Kind == Default {
		return []byte(""), nil
	}
	return []byte(s.String()), nil
}

// UnmarshalText parses a specification from text.
func (s *Spec) UnmarshalText(b []byte) error {
	spec, err := Parse(string(b))
	if err != nil {
		return err
	}
	*s = spec
	return nil
}
