package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/wavesim/internal/automation"
	"github.com/san-kum/wavesim/internal/experiment"
	"github.com/san-kum/wavesim/internal/optim"
	"github.com/san-kum/wavesim/internal/storage"
)

func benchWorkers(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	counts := experiment.WorkerCounts(cfg.Size, maxWorkers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("benchmarking %dx%d grid, %d ticks per run\n\n", cfg.Size, cfg.Size, benchTicks)
	results, err := experiment.Bench(ctx, cfg, benchTicks, counts, slog.Default())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORKERS\tTICKS\tELAPSED\tTICKS/S\tSPEEDUP")
	for _, r := range results {
		speedup := 0.0
		if base := results[0].TicksPerSec; base > 0 {
			speedup = r.TicksPerSec / base
		}
		fmt.Fprintf(w, "%d\t%d\t%v\t%.0f\t%.2fx\n",
			r.Workers, r.Steps, r.Elapsed.Round(time.Millisecond), r.TicksPerSec, speedup)
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

// parseRange reads name=lo:hi:n or name=v1,v2,...
func parseRange(arg string) (string, []float64, error) {
	name, raw, ok := strings.Cut(arg, "=")
	if !ok || name == "" {
		return "", nil, fmt.Errorf("param %q: expected name=lo:hi:n or name=v1,v2", arg)
	}
	if parts := strings.Split(raw, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || n < 1 {
			return "", nil, fmt.Errorf("param %q: bad range", arg)
		}
		return name, optim.Linspace(lo, hi, n), nil
	}
	var vals []float64
	for _, s := range strings.Split(raw, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return "", nil, fmt.Errorf("param %q: %w", arg, err)
		}
		vals = append(vals, v)
	}
	return name, vals, nil
}

func sweepSettings(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}

	names := make([]string, 0, len(sweepParams))
	ranges := make([][]float64, 0, len(sweepParams))
	for _, arg := range sweepParams {
		name, vals, err := parseRange(arg)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}
	search, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	build := func(params map[string]float64) (*experiment.Session, error) {
		c := *base
		c.Ticks = sweepTicks
		c.FrameInterval = 0
		c.Output = ""
		for name, v := range params {
			if err := c.Set(name, v); err != nil {
				return nil, err
			}
		}
		return experiment.New(&c, "sweep", experiment.WithoutTrace())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("sweeping %d points, %d ticks each, minimising %s\n\n", search.Size(), sweepTicks, sweepMetric)
	best, val, trials, err := search.Search(ctx, build, sweepMetric)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\tOUTCOME\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(sweepMetric))
	for _, t := range trials {
		row := make([]string, 0, len(names)+2)
		for _, name := range names {
			row = append(row, strconv.FormatFloat(t.Params[name], 'g', 4, 64))
		}
		metric := "-"
		if v, ok := t.Metrics[sweepMetric]; ok {
			metric = strconv.FormatFloat(v, 'g', 6, 64)
		}
		outcome := t.Outcome
		if t.Err != nil && outcome == "" {
			outcome = "invalid"
		}
		row = append(row, metric, outcome)
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nbest %s = %.6g at", sweepMetric, val)
	for _, name := range names {
		fmt.Printf(" %s=%g", name, best[name])
	}
	fmt.Println()
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("scenario: %s (%d steps)\n", sc.Name, len(sc.Steps))
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}
	fmt.Println()
	results, err := automation.RunScenario(ctx, sc, st)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN ID\tSTEPS\tOUTCOME\tENERGY")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%.6g\n",
			r.Name, r.RunID, r.Result.Steps, r.Result.Outcome, r.Result.Metrics["energy"])
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	mc := &automation.MonteCarloConfig{
		Base:        cfg,
		Jitter:      mcJitter,
		PowerSpread: mcSpread,
		NumTrials:   mcTrials,
		Ticks:       sweepTicks,
		Seed:        mcSeed,
	}
	fmt.Printf("monte carlo: %d trials, %d ticks each\n\n", mcTrials, sweepTicks)
	results, err := automation.RunMonteCarlo(ctx, mc)
	if err != nil && len(results) == 0 {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tPULSE\tPOWER\tOUTCOME\tPEAK\tENERGY DRIFT")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t(%.1f, %.1f)\t%.3f\t%s\t%.4g\t%.4g\n",
			r.TrialID, r.Pulse.X, r.Pulse.Y, r.Pulse.Power, r.Outcome, r.Metrics["peak"], r.Metrics["energy_drift"])
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("\nstable: %d, unstable: %d\n", stable, unstable)
	return err
}
