package automation

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/wavesim/internal/config"
	"github.com/san-kum/wavesim/internal/experiment"
	"github.com/san-kum/wavesim/internal/field"
	"github.com/san-kum/wavesim/internal/storage"
)

var quiet = experiment.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

const scenarioYAML = `
name: two rooms
description: corner then ripple
steps:
  - preset: corner
    ticks: 20
    settings:
      damping: 0.5
  - preset: ripple
    ticks: 10
    save_as: second
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sc.Name != "two rooms" || len(sc.Steps) != 2 {
		t.Fatalf("unexpected scenario %+v", sc)
	}

	store := storage.New(t.TempDir())
	results, err := RunScenario(context.Background(), sc, store, quiet)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Name != "corner" || results[1].Name != "second" {
		t.Errorf("unexpected names %s, %s", results[0].Name, results[1].Name)
	}
	if results[0].Result.Steps != 20 || results[1].Result.Steps != 10 {
		t.Errorf("unexpected step counts %d, %d", results[0].Result.Steps, results[1].Result.Steps)
	}

	meta, err := store.Load(results[0].RunID)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Medium.K != 0.5 {
		t.Errorf("setting not applied, damping %f", meta.Medium.K)
	}
	runs, _ := store.List()
	if len(runs) != 2 {
		t.Errorf("expected 2 stored runs, got %d", len(runs))
	}
}

func TestRunScenarioStopsOnBadStep(t *testing.T) {
	sc := &Scenario{Name: "bad", Steps: []ScenarioStep{
		{Preset: "ripple", Ticks: 5},
		{Preset: "nope"},
		{Preset: "ripple", Ticks: 5},
	}}
	results, err := RunScenario(context.Background(), sc, storage.New(t.TempDir()), quiet)
	if err == nil {
		t.Fatal("expected an error for the unknown preset")
	}
	if len(results) != 1 {
		t.Errorf("expected the first step to finish, got %d results", len(results))
	}
}

func TestLoadScenarioEmpty(t *testing.T) {
	if _, err := LoadScenario(writeScenario(t, "name: empty\n")); err == nil {
		t.Error("expected an error for a scenario without steps")
	}
}

func TestResolve(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "cfg.yaml")
	base := config.DefaultConfig()
	base.Size = 12
	base.Workers = 3
	base.Pulse.X, base.Pulse.Y = 6, 6
	base.Mics = config.MicConfig{Left: config.Point{X: 2, Y: 6}, Right: config.Point{X: 9, Y: 6}}
	if err := config.Save(cfgPath, base); err != nil {
		t.Fatal(err)
	}

	cfg, err := ScenarioStep{Config: cfgPath, Settings: map[string]float64{"c": 0.3}}.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Size != 12 || cfg.Medium.C != 0.3 || cfg.FrameInterval != 0 {
		t.Errorf("unexpected config %+v", cfg)
	}

	if _, err := (ScenarioStep{Preset: "ripple", Config: cfgPath}).Resolve(); err == nil {
		t.Error("expected an error for preset and config together")
	}
	if _, err := (ScenarioStep{Settings: map[string]float64{"damping": -1}}).Resolve(); err == nil {
		t.Error("expected a validation error")
	}
}

func smallBase() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Size = 8
	cfg.Pulse = config.PulseConfig{X: 4, Y: 4, Sigma: 1, Power: 1}
	cfg.Mics = config.MicConfig{Left: config.Point{X: 2, Y: 4}, Right: config.Point{X: 6, Y: 4}}
	return cfg
}

func TestRunMonteCarlo(t *testing.T) {
	mc := &MonteCarloConfig{Base: smallBase(), Jitter: 2, PowerSpread: 0.5, NumTrials: 5, Ticks: 10, Seed: 7}
	results, err := RunMonteCarlo(context.Background(), mc, quiet)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 trials, got %d", len(results))
	}
	for _, r := range results {
		if r.Pulse.X < 0 || r.Pulse.X > 7 || r.Pulse.Y < 0 || r.Pulse.Y > 7 {
			t.Errorf("pulse left the grid: %+v", r.Pulse)
		}
	}
	stable, unstable := MonteCarloStats(results)
	if stable != 5 || unstable != 0 {
		t.Errorf("expected all trials stable, got %d/%d", stable, unstable)
	}
}

func TestRunMonteCarloUnstable(t *testing.T) {
	base := smallBase()
	base.Dt = 1
	base.Medium = field.Params{C: 1, K: 0}
	mc := &MonteCarloConfig{Base: base, NumTrials: 2, Ticks: 5000, Seed: 1}
	results, err := RunMonteCarlo(context.Background(), mc, quiet)
	if err != nil {
		t.Fatal(err)
	}
	if _, unstable := MonteCarloStats(results); unstable != 2 {
		t.Errorf("expected both trials to diverge, got %+v", results)
	}
}
