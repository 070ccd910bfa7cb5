package config

import (
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/higgsanim/internal/anim"
	"github.com/san-kum/higgsanim/internal/lineshape"
	"github.com/san-kum/higgsanim/internal/resonance"
	"github.com/san-kum/higgsanim/internal/sigma"
)

const (
	DefaultTanBeta     = 10.0
	DefaultMAMin       = 150.0
	DefaultMAMax       = 600.0
	DefaultMode        = "gg"
	DefaultLuminosity  = 139.0
	DefaultBins        = 500
	DefaultDurationMS  = 5000
	DefaultFrameTimeMS = 40
	DefaultLogMin      = 1e-3
	DefaultOut         = "animation.gif"
	DefaultGrid        = "higgs.db"

	MinMA      = 90.0
	MaxMA      = 2000.0
	MinTanBeta = 0.5
	MaxTanBeta = 60.0
)

type Config struct {
	TanBeta     float64  `yaml:"tan_beta"`
	MAMin       float64  `yaml:"ma_min"`
	MAMax       float64  `yaml:"ma_max"`
	Particles   []string `yaml:"particles"`
	Summed      []string `yaml:"summed,omitempty"`
	Mode        string   `yaml:"mode"`
	Channel     string   `yaml:"channel,omitempty"`
	Sigma       string   `yaml:"sigma,omitempty"`
	Luminosity  float64  `yaml:"luminosity"`
	Bins        int      `yaml:"bins"`
	DurationMS  int      `yaml:"duration_ms"`
	FrameTimeMS int      `yaml:"frame_time_ms"`
	LogScale    bool     `yaml:"log_scale"`
	LogMin      float64  `yaml:"log_min"`
	Shape       string   `yaml:"shape"`
	Sum         bool     `yaml:"sum"`
	LoopCount   int      `yaml:"loop_count"`
	Out         string   `yaml:"out"`
	FramesDir   string   `yaml:"frames_dir,omitempty"`
	Report      string   `yaml:"report,omitempty"`
	Grid        string   `yaml:"grid"`
	Workers     int      `yaml:"workers"`
}

func DefaultConfig() *Config {
	return &Config{
		TanBeta:     DefaultTanBeta,
		MAMin:       DefaultMAMin,
		MAMax:       DefaultMAMax,
		Particles:   []string{"h", "H", "A"},
		Mode:        DefaultMode,
		Luminosity:  DefaultLuminosity,
		Bins:        DefaultBins,
		DurationMS:  DefaultDurationMS,
		FrameTimeMS: DefaultFrameTimeMS,
		LogMin:      DefaultLogMin,
		Shape:       lineshape.Voigt{}.Name(),
		Out:         DefaultOut,
		Grid:        DefaultGrid,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, resonance.Configf("%s: %v", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// FrameCount is round(duration / frame time), at least 1 for a valid config.
func (c *Config) FrameCount() int {
	if c.FrameTimeMS <= 0 {
		return 0
	}
	return int(math.Round(float64(c.DurationMS) / float64(c.FrameTimeMS)))
}

// ScanAxis spreads the frames evenly over [MAMin, MAMax].
func (c *Config) ScanAxis() resonance.ScanAxis {
	return resonance.Linspace(c.MAMin, c.MAMax, c.FrameCount())
}

// Validate checks value ranges. Every failure wraps resonance.ErrConfiguration.
func (c *Config) Validate() error {
	if c.MAMin < MinMA || c.MAMax > MaxMA {
		return resonance.Configf("m_A range [%g, %g] must lie within [%g, %g] GeV", c.MAMin, c.MAMax, MinMA, MaxMA)
	}
	if !(c.MAMin < c.MAMax) {
		return resonance.Configf("m_A minimum %g must be below maximum %g", c.MAMin, c.MAMax)
	}
	if c.TanBeta < MinTanBeta || c.TanBeta > MaxTanBeta || math.IsNaN(c.TanBeta) {
		return resonance.Configf("tan β %g must lie within [%g, %g]", c.TanBeta, MinTanBeta, MaxTanBeta)
	}
	if len(c.Particles) == 0 {
		return resonance.Configf("no particles selected")
	}
	seen := make(map[string]bool, len(c.Particles))
	for _, p := range c.Particles {
		if strings.TrimSpace(p) == "" {
			return resonance.Configf("empty particle label")
		}
		if seen[p] {
			return resonance.Configf("particle %s listed twice", p)
		}
		seen[p] = true
	}
	for _, p := range c.Summed {
		if !seen[p] {
			return resonance.Configf("summed particle %s is not selected", p)
		}
	}
	if c.Mode == "" {
		return resonance.Configf("production mode is required")
	}
	if !(c.Luminosity > 0) || math.IsInf(c.Luminosity, 0) {
		return resonance.Configf("luminosity must be positive, got %v", c.Luminosity)
	}
	if c.Bins < 2 {
		return resonance.Configf("bin count must be at least 2, got %d", c.Bins)
	}
	if c.DurationMS <= 0 || c.FrameTimeMS <= 0 {
		return resonance.Configf("duration and frame time must be positive")
	}
	if c.FrameCount() < 1 {
		return resonance.Configf("duration %d ms is shorter than one frame of %d ms", c.DurationMS, c.FrameTimeMS)
	}
	if c.LogScale && !(c.LogMin > 0) {
		return resonance.Configf("log scale needs a positive minimum, got %v", c.LogMin)
	}
	if c.LoopCount < -1 {
		return resonance.Configf("loop count must be -1 or more, got %d", c.LoopCount)
	}
	if c.Workers < 0 {
		return resonance.Configf("workers must not be negative")
	}
	if c.Out == "" {
		return resonance.Configf("output path is required")
	}
	if _, err := sigma.Parse(c.Sigma); err != nil {
		return err
	}
	if _, err := lineshape.Lookup(c.Shape); err != nil {
		return resonance.Configf("%v", err)
	}
	return nil
}

// Anim converts the file settings into driver settings.
func (c *Config) Anim(debug bool) (anim.Config, error) {
	if err := c.Validate(); err != nil {
		return anim.Config{}, err
	}
	shape, err := lineshape.Lookup(c.Shape)
	if err != nil {
		return anim.Config{}, err
	}
	spec, err := sigma.Parse(c.Sigma)
	if err != nil {
		return anim.Config{}, err
	}
	return anim.Config{
		Shape:      shape,
		Sigma:      spec,
		Luminosity: c.Luminosity,
		Bins:       c.Bins,
		Sum:        c.Sum,
		LogScale:   c.LogScale,
		LogMin:     c.LogMin,
		Mode:       c.Mode,
		FrameTime:  time.Duration(c.FrameTimeMS) * time.Millisecond,
		LoopCount:  c.LoopCount,
		Workers:    c.Workers,
		Debug:      debug,
	}, nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Particles = append([]string(nil), c.Particles...)
	if c.Summed != nil {
		out.Summed = append([]string(nil), c.Summed...)
	}
	return &out
}
