package automation

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/higgsanim/internal/config"
	"github.com/san-kum/higgsanim/internal/experiment"
	"github.com/san-kum/higgsanim/internal/lookup"
	"github.com/san-kum/higgsanim/internal/resonance"
	"github.com/san-kum/higgsanim/internal/storage"
)

// Scenario is a batch of animations sharing common settings.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Preset      string         `yaml:"preset"`
	Defaults    yaml.Node      `yaml:"defaults"`
	Steps       []ScenarioStep `yaml:"steps"`
	Sweep       *Sweep         `yaml:"sweep"`
}

// ScenarioStep overrides the scenario defaults for one animation.
type ScenarioStep struct {
	Name   string    `yaml:"name"`
	Config yaml.Node `yaml:"config"`
}

// Sweep renders one animation per value of Param, evenly spaced over
// [Min, Max]. Outputs get the step index appended to their name.
type Sweep struct {
	Param string  `yaml:"param"`
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
	Steps int     `yaml:"steps"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, resonance.Configf("%s: %v", path, err)
	}
	return &scenario, nil
}

// Configs resolves every animation of the scenario and validates it.
func (s *Scenario) Configs() ([]*config.Config, error) {
	base := config.DefaultConfig()
	if s.Preset != "" {
		mode, name, ok := strings.Cut(s.Preset, "/")
		if !ok {
			return nil, resonance.Configf("preset %q must be mode/name", s.Preset)
		}
		if base = config.GetPreset(mode, name); base == nil {
			return nil, resonance.Configf("unknown preset %q", s.Preset)
		}
	}
	if !s.Defaults.IsZero() {
		if err := s.Defaults.Decode(base); err != nil {
			return nil, resonance.Configf("defaults: %v", err)
		}
	}

	var out []*config.Config
	for i, step := range s.Steps {
		cfg := base.Clone()
		if !step.Config.IsZero() {
			if err := step.Config.Decode(cfg); err != nil {
				return nil, resonance.Configf("step %d: %v", i+1, err)
			}
		}
		out = append(out, cfg)
	}
	if s.Sweep != nil {
		swept, err := s.Sweep.expand(base)
		if err != nil {
			return nil, err
		}
		out = append(out, swept...)
	}
	if len(out) == 0 {
		return nil, resonance.Configf("scenario %q has no steps", s.Name)
	}

	for i, cfg := range out {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return out, nil
}

func (sw *Sweep) expand(base *config.Config) ([]*config.Config, error) {
	if sw.Steps < 1 {
		return nil, resonance.Configf("sweep needs at least one step")
	}
	var set func(*config.Config, float64)
	switch sw.Param {
	case "tan_beta":
		set = func(c *config.Config, v float64) { c.TanBeta = v }
	case "luminosity":
		set = func(c *config.Config, v float64) { c.Luminosity = v }
	default:
		return nil, resonance.Configf("cannot sweep %q", sw.Param)
	}

	values := resonance.Linspace(sw.Min, sw.Max, sw.Steps)
	out := make([]*config.Config, 0, len(values))
	for i, v := range values {
		cfg := base.Clone()
		set(cfg, v)
		cfg.Out = indexed(cfg.Out, i)
		if cfg.Report != "" {
			cfg.Report = indexed(cfg.Report, i)
		}
		if cfg.FramesDir != "" {
			cfg.FramesDir = fmt.Sprintf("%s_%03d", cfg.FramesDir, i)
		}
		out = append(out, cfg)
	}
	return out, nil
}

func indexed(path string, i int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%03d%s", strings.TrimSuffix(path, ext), i, ext)
}

// RunScenario renders every animation of the scenario in order and stops at
// the first failure. Progress lines go to w.
func RunScenario(ctx context.Context, scenario *Scenario, grid *lookup.Store, runs *storage.Store, opts experiment.Options, w io.Writer) ([]*experiment.Outcome, error) {
	cfgs, err := scenario.Configs()
	if err != nil {
		return nil, err
	}

	results := make([]*experiment.Outcome, 0, len(cfgs))
	for i, cfg := range cfgs {
		fmt.Fprintf(w, "Running step %d/%d: %s tan β=%g -> %s\n", i+1, len(cfgs), strings.Join(cfg.Particles, ","), cfg.TanBeta, cfg.Out)

		out, err := experiment.New(cfg, grid, runs, opts).Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		results = append(results, out)
	}
	return results, nil
}
