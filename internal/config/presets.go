package config

import "sort"

// Presets are keyed by production mode, then by scenario name.
var Presets = map[string]map[string]*Config{
	"gg": {
		"light": preset(func(c *Config) {
			c.MAMin, c.MAMax, c.TanBeta = 150, 400, 5
		}),
		"heavy": preset(func(c *Config) {
			c.MAMin, c.MAMax, c.TanBeta = 400, 1200, 10
			c.Particles = []string{"H", "A"}
		}),
		"tautau": preset(func(c *Config) {
			c.MAMin, c.MAMax, c.TanBeta = 200, 800, 8
			c.Channel = "tautau"
			c.Sum = true
		}),
	},
	"bb": {
		"high-tanb": preset(func(c *Config) {
			c.Mode = "bb"
			c.MAMin, c.MAMax, c.TanBeta = 300, 1500, 40
			c.Particles = []string{"H", "A"}
			c.Sum = true
			c.Sigma = "10%"
		}),
		"log": preset(func(c *Config) {
			c.Mode = "bb"
			c.MAMin, c.MAMax, c.TanBeta = 200, 1000, 20
			c.LogScale = true
			c.LogMin = 1e-2
		}),
	},
}

func preset(edit func(*Config)) *Config {
	c := DefaultConfig()
	edit(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(mode, preset string) *Config {
	modePresets, ok := Presets[mode]
	if !ok {
		return nil
	}
	cfg, ok := modePresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(mode string) []string {
	modePresets, ok := Presets[mode]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modePresets))
	for name := range modePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Modes lists the production modes that have presets.
func Modes() []string {
	modes := make([]string, 0, len(Presets))
	for m := range Presets {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	return modes
}
