package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/wavesim/internal/field"
	"github.com/san-kum/wavesim/internal/wave"
)

const (
	DefaultSize          = 96
	DefaultWorkers       = 2
	DefaultDt            = 1.0 / 60.0
	DefaultDx            = 0.1
	DefaultTicks         = 44100
	DefaultSampleRate    = 44100
	DefaultFrameInterval = 10
	DefaultPulseSigma    = 1.0
	DefaultPulsePower    = 1.0
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Size       int          `yaml:"size"`
	Workers    int          `yaml:"workers"`
	Dt         float64      `yaml:"dt"`
	Dx         float64      `yaml:"dx"`
	Medium     field.Params `yaml:"medium"`
	Regions    []Region     `yaml:"regions,omitempty"`
	Pulse      PulseConfig  `yaml:"pulse"`
	Mics       MicConfig    `yaml:"mics"`
	Events     []Event      `yaml:"events,omitempty"`
	Ticks      int          `yaml:"ticks"`
	SampleRate int          `yaml:"sample_rate"`
	// FrameInterval is the minimum gap between visualizer frames, in milliseconds.
	FrameInterval int    `yaml:"frame_interval_ms"`
	Output        string `yaml:"output,omitempty"`
}

type PulseConfig struct {
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Sigma float64 `yaml:"sigma"`
	Power float64 `yaml:"power"`
}

type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type MicConfig struct {
	Left  Point `yaml:"left"`
	Right Point `yaml:"right"`
}

// Region paints a rectangle of the medium, bounds inclusive.
type Region struct {
	X0     int          `yaml:"x0"`
	Y0     int          `yaml:"y0"`
	X1     int          `yaml:"x1"`
	Y1     int          `yaml:"y1"`
	Params field.Params `yaml:"params"`
}

// Event is an order submitted once the run reaches Tick.
type Event struct {
	Tick  int     `yaml:"tick"`
	Kind  string  `yaml:"kind"`
	X     int     `yaml:"x"`
	Y     int     `yaml:"y"`
	Value float64 `yaml:"value"`
}

func DefaultConfig() *Config {
	return &Config{
		Size:    DefaultSize,
		Workers: DefaultWorkers,
		Dt:      DefaultDt,
		Dx:      DefaultDx,
		Medium:  field.DefaultParams,
		Pulse: PulseConfig{
			X:     DefaultSize / 2,
			Y:     DefaultSize / 2,
			Sigma: DefaultPulseSigma,
			Power: DefaultPulsePower,
		},
		Mics: MicConfig{
			Left:  Point{X: DefaultSize/2 - 10, Y: DefaultSize / 2},
			Right: Point{X: DefaultSize/2 + 10, Y: DefaultSize / 2},
		},
		Ticks:         DefaultTicks,
		SampleRate:    DefaultSampleRate,
		FrameInterval: DefaultFrameInterval,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
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

func (c *Config) Validate() error {
	if c.Size < 3 {
		return fmt.Errorf("%w: size %d must be at least 3", ErrInvalid, c.Size)
	}
	if c.Workers < 1 || c.Size%c.Workers != 0 {
		return fmt.Errorf("%w: size %d must be divisible by %d workers", ErrInvalid, c.Size, c.Workers)
	}
	if c.Dt <= 0 || c.Dx <= 0 {
		return fmt.Errorf("%w: dt and dx must be positive", ErrInvalid)
	}
	if err := c.Medium.Validate(); err != nil {
		return fmt.Errorf("%w: medium: %v", ErrInvalid, err)
	}
	if c.Pulse.Power != 0 && c.Pulse.Sigma <= 0 {
		return fmt.Errorf("%w: pulse sigma must be positive", ErrInvalid)
	}
	for _, p := range []Point{c.Mics.Left, c.Mics.Right} {
		if !c.inGrid(p.X, p.Y) {
			return fmt.Errorf("%w: microphone (%d, %d) outside %dx%d grid", ErrInvalid, p.X, p.Y, c.Size, c.Size)
		}
	}
	for i, r := range c.Regions {
		if !c.inGrid(r.X0, r.Y0) || !c.inGrid(r.X1, r.Y1) || r.X0 > r.X1 || r.Y0 > r.Y1 {
			return fmt.Errorf("%w: region %d out of bounds", ErrInvalid, i)
		}
		if err := r.Params.Validate(); err != nil {
			return fmt.Errorf("%w: region %d: %v", ErrInvalid, i, err)
		}
	}
	for i, e := range c.Events {
		if e.Tick < 0 {
			return fmt.Errorf("%w: event %d has negative tick", ErrInvalid, i)
		}
		o, err := e.Order()
		if err == nil {
			err = wave.Validate(o, c.Size)
		}
		if err != nil {
			return fmt.Errorf("%w: event %d: %w", ErrInvalid, i, err)
		}
	}
	if c.Ticks < 0 {
		return fmt.Errorf("%w: ticks must not be negative", ErrInvalid)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive", ErrInvalid)
	}
	return nil
}

func (c *Config) inGrid(x, y int) bool {
	return x >= 0 && y >= 0 && x < c.Size && y < c.Size
}

// Options returns the driver options described by the config.
func (c *Config) Options() wave.Options {
	opts := wave.DefaultOptions()
	opts.Size = c.Size
	opts.Workers = c.Workers
	opts.Dt = c.Dt
	opts.Dx = c.Dx
	opts.Medium = c.Medium
	return opts
}

// Order converts the event into the order it submits. Range checks against
// the grid happen at submission.
func (e Event) Order() (wave.Order, error) {
	switch e.Kind {
	case "drop":
		return wave.Drop{X: e.X, Y: e.Y, Amount: e.Value}, nil
	case "quit":
		return wave.Quit{}, nil
	}
	which, err := field.ParseCoefficient(e.Kind)
	if err != nil {
		return nil, fmt.Errorf("unknown event kind %q", e.Kind)
	}
	return wave.ChangeParameter{X: e.X, Y: e.Y, Which: which, Value: e.Value}, nil
}

// Set assigns a scalar setting by name. It accepts the medium coefficient
// names plus dt, dx, sigma and power, and does not validate the result.
func (c *Config) Set(name string, v float64) error {
	switch name {
	case "dt":
		c.Dt = v
	case "dx":
		c.Dx = v
	case "sigma":
		c.Pulse.Sigma = v
	case "power":
		c.Pulse.Power = v
	default:
		which, err := field.ParseCoefficient(name)
		if err != nil {
			return fmt.Errorf("%w: unknown setting %q", ErrInvalid, name)
		}
		c.Medium = c.Medium.With(which, v)
	}
	return nil
}
