package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/wavesim/internal/config"
	"github.com/san-kum/wavesim/internal/field"
	"github.com/san-kum/wavesim/internal/viz"
)

var (
	dataDir  string
	logLevel string

	configFile  string
	preset      string
	size        int
	workers     int
	ticks       int
	dt          float64
	dx          float64
	propagation float64
	damping     float64
	output      string
	settings    []string
	runName     string

	liveAudio bool
	frameRate int

	benchTicks int
	maxWorkers int

	sweepParams []string
	sweepMetric string
	sweepTicks  int

	exportOut  string
	presetSave string
	svgOut     string

	mcTrials int
	mcJitter float64
	mcSpread float64
	mcSeed   int64
)

// main registers the wavesim commands. With no subcommand it opens the
// preset picker and starts a live session.
func main() {
	rootCmd := &cobra.Command{
		Use:           "wavesim",
		Short:         "parallel 2d wave simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(os.Stderr)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			items := make([]viz.PresetInfo, 0, len(config.Presets))
			for _, name := range config.ListPresets() {
				items = append(items, viz.PresetInfo{Name: name, Description: config.PresetDescriptions[name]})
			}
			name, err := viz.PickPreset(items)
			if err != nil || name == "" {
				return err
			}
			preset = name
			return runLive(cmd, nil)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".wavesim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and store the microphone trace",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().StringVar(&svgOut, "svg", "", "write the final field to an svg file")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with the interactive view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().BoolVar(&liveAudio, "audio", true, "play the microphones on the default output device")
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "view refresh rate")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the microphone trace of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&svgOut, "svg", "", "also write the trace to an svg file")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency and stereo analysis of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}
	presetsCmd.Flags().StringVar(&presetSave, "save", "", "write the preset to a config file")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure ticks per second for each worker count",
		Args:  cobra.NoArgs,
		RunE:  benchWorkers,
	}
	addConfigFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchTicks, "ticks", 500, "ticks per measurement")
	benchCmd.Flags().IntVar(&maxWorkers, "max-workers", 8, "largest worker count to try")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search over settings, minimising a metric",
		Args:  cobra.NoArgs,
		RunE:  sweepSettings,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "setting range as name=lo:hi:n or name=v1,v2,...")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "energy_drift", "metric to minimise")
	sweepCmd.Flags().IntVar(&sweepTicks, "ticks", 2000, "ticks per trial")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run every step of a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "repeat a run with randomly perturbed pulses",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addConfigFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&mcTrials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&mcJitter, "jitter", 4, "largest pulse displacement in cells")
	monteCarloCmd.Flags().Float64Var(&mcSpread, "spread", 0.2, "relative pulse power spread")
	monteCarloCmd.Flags().Int64Var(&mcSeed, "seed", 0, "random seed (0 uses the clock)")
	monteCarloCmd.Flags().IntVar(&sweepTicks, "ticks", 2000, "ticks per trial")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, analyzeCmd, exportJSONCmd, presetsCmd,
		benchCmd, sweepCmd, scenarioCmd, monteCarloCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "start from a preset")
	cmd.Flags().IntVar(&size, "size", config.DefaultSize, "grid side length")
	cmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "band workers, must divide size")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "time step")
	cmd.Flags().Float64Var(&dx, "dx", config.DefaultDx, "cell spacing")
	cmd.Flags().Float64Var(&propagation, "propagation", field.DefaultParams.C, "medium propagation coefficient")
	cmd.Flags().Float64Var(&damping, "damping", field.DefaultParams.K, "medium damping coefficient")
	cmd.Flags().StringArrayVar(&settings, "set", nil, "override a setting as name=value (repeatable)")
}

func addSimFlags(cmd *cobra.Command) {
	addConfigFlags(cmd)
	cmd.Flags().IntVar(&ticks, "ticks", config.DefaultTicks, "ticks to run, 0 runs until quit")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the microphones to a wav file")
	cmd.Flags().StringVar(&runName, "name", "", "run name (default preset name)")
}

func setupLogging(w *os.File) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("log level %q: %w", logLevel, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// loadConfig starts from the preset, then the config file, then applies
// every flag the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("size") {
		cfg.Size = size
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("dx") {
		cfg.Dx = dx
	}
	if flags.Changed("propagation") {
		cfg.Medium.C = propagation
	}
	if flags.Changed("damping") {
		cfg.Medium.K = damping
	}
	if flags.Lookup("ticks") != nil && flags.Changed("ticks") {
		cfg.Ticks = ticks
	}
	if flags.Lookup("output") != nil && flags.Changed("output") {
		cfg.Output = output
	}
	for _, kv := range settings {
		name, val, err := parseSetting(kv)
		if err != nil {
			return nil, err
		}
		if err := cfg.Set(name, val); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseSetting(kv string) (string, float64, error) {
	name, raw, ok := strings.Cut(kv, "=")
	if !ok {
		return "", 0, fmt.Errorf("setting %q: expected name=value", kv)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", 0, fmt.Errorf("setting %q: %w", kv, err)
	}
	return strings.TrimSpace(name), v, nil
}

func sessionName() string {
	switch {
	case runName != "":
		return runName
	case preset != "":
		return preset
	}
	return "wave"
}
