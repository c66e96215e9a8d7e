package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/wavesim/internal/config"
	"github.com/san-kum/wavesim/internal/experiment"
	"github.com/san-kum/wavesim/internal/storage"
)

// Scenario defines a scripted sequence of runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single run. It starts from a preset or a config file
// (the default config when both are empty) and applies Settings by name.
type ScenarioStep struct {
	Preset   string             `yaml:"preset"`
	Config   string             `yaml:"config"`
	Settings map[string]float64 `yaml:"settings"`
	Ticks    int                `yaml:"ticks"`
	Output   string             `yaml:"output"`
	SaveAs   string             `yaml:"save_as"`
}

type StepResult struct {
	Name   string
	RunID  string
	Result *experiment.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// Resolve turns the step into a validated run configuration.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	switch {
	case s.Preset != "" && s.Config != "":
		return nil, fmt.Errorf("%w: step sets both preset and config", config.ErrInvalid)
	case s.Preset != "":
		if cfg = config.GetPreset(s.Preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	case s.Config != "":
		var err error
		if cfg, err = config.Load(s.Config); err != nil {
			return nil, err
		}
	}
	for name, v := range s.Settings {
		if err := cfg.Set(name, v); err != nil {
			return nil, err
		}
	}
	if s.Ticks > 0 {
		cfg.Ticks = s.Ticks
	}
	if s.Output != "" {
		cfg.Output = s.Output
	}
	cfg.FrameInterval = 0
	return cfg, cfg.Validate()
}

func (s ScenarioStep) name(i int) string {
	switch {
	case s.SaveAs != "":
		return s.SaveAs
	case s.Preset != "":
		return s.Preset
	}
	return fmt.Sprintf("step%d", i+1)
}

// RunScenario executes all steps in order and stores every finished run.
// The first failing step ends the scenario.
func RunScenario(ctx context.Context, scenario *Scenario, store *storage.Store, opts ...experiment.Option) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.name(i)
		slog.Info("automation: running step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "name", name)

		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		sess, err := newSession(cfg, name, opts)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		res, runErr := sess.Run(ctx)
		if res == nil {
			return results, fmt.Errorf("step %d run: %w", i+1, runErr)
		}
		runID, err := store.Save(sess.Metadata(res), res.Trace)
		if err != nil {
			return results, fmt.Errorf("step %d save: %w", i+1, err)
		}
		results = append(results, StepResult{Name: name, RunID: runID, Result: res})
		if runErr != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, runErr)
		}
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
	}

	return results, nil
}
