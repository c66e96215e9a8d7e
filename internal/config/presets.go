package config

import (
	"sort"

	"github.com/san-kum/wavesim/internal/field"
)

func preset(mutate func(c *Config)) *Config {
	c := DefaultConfig()
	mutate(c)
	return c
}

var Presets = map[string]*Config{
	"ripple": DefaultConfig(),
	"still": preset(func(c *Config) {
		c.Medium = field.Params{C: 0.2, K: 0}
		c.Ticks = 4 * DefaultTicks
	}),
	"wide": preset(func(c *Config) {
		c.Pulse.Sigma = 4
		c.Pulse.Power = 0.5
	}),
	"corner": preset(func(c *Config) {
		c.Pulse.X, c.Pulse.Y = 12, 12
		c.Mics.Left = Point{X: 12, Y: 24}
		c.Mics.Right = Point{X: 24, Y: 12}
	}),
	// two rooms joined by a gap in a rigid wall down the middle column
	"doorway": preset(func(c *Config) {
		c.Pulse.X, c.Pulse.Y = 24, DefaultSize/2
		c.Mics.Left = Point{X: 24, Y: DefaultSize / 2}
		c.Mics.Right = Point{X: 72, Y: DefaultSize / 2}
		wall := field.Params{C: 0, K: 2}
		c.Regions = []Region{
			{X0: 47, Y0: 1, X1: 48, Y1: 40, Params: wall},
			{X0: 47, Y0: 56, X1: 48, Y1: DefaultSize - 2, Params: wall},
		}
	}),
	"rain": preset(func(c *Config) {
		c.Pulse.Power = 0
		c.Events = []Event{
			{Tick: 0, Kind: "drop", X: 30, Y: 30, Value: 5},
			{Tick: 2000, Kind: "drop", X: 60, Y: 40, Value: -4},
			{Tick: 4000, Kind: "drop", X: 45, Y: 70, Value: 6},
			{Tick: 6000, Kind: "drop", X: 70, Y: 65, Value: -3},
			{Tick: 8000, Kind: "damping", X: 48, Y: 48, Value: 2},
		}
	}),
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	cp := *cfg
	cp.Regions = append([]Region(nil), cfg.Regions...)
	cp.Events = append([]Event(nil), cfg.Events...)
	return &cp
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var PresetDescriptions = map[string]string{
	"ripple":  "single pulse in the default medium",
	"still":   "undamped medium, long ring-out",
	"wide":    "broad low-power pulse",
	"corner":  "pulse near a corner, mics on both walls",
	"doorway": "two rooms joined through a gap",
	"rain":    "scripted drops over time",
}
