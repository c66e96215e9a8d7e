package optim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/san-kum/wavesim/internal/experiment"
)

var ErrNoTrials = errors.New("optim: no trial completed")

// Trial is one point of the grid and the metrics its run produced.
type Trial struct {
	Params  map[string]float64
	Metrics map[string]float64
	Outcome string
	Err     error
}

// Builder turns one grid point into a ready session.
type Builder func(params map[string]float64) (*experiment.Session, error)

// GridSearch runs a session for every combination of the given parameter
// values and keeps the one with the lowest value of a metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	log        *slog.Logger
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("optim: empty range for %q", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, log: slog.Default()}, nil
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search returns the best parameters, their metric value and every trial in
// visiting order. Trials that fail or go unstable are kept in the list but
// never win.
func (g *GridSearch) Search(ctx context.Context, build Builder, metricName string) (map[string]float64, float64, []Trial, error) {
	best := math.Inf(1)
	var bestParams map[string]float64
	var trials []Trial

	err := g.searchRecursive(ctx, 0, map[string]float64{}, func(params map[string]float64) {
		t := g.runTrial(ctx, build, params)
		trials = append(trials, t)
		if t.Err != nil || t.Outcome != experiment.OutcomeCompleted {
			return
		}
		val, ok := t.Metrics[metricName]
		if !ok || math.IsNaN(val) {
			return
		}
		if val < best {
			best = val
			bestParams = t.Params
		}
	})
	if err != nil {
		return nil, 0, trials, err
	}
	if bestParams == nil {
		return nil, 0, trials, ErrNoTrials
	}
	return bestParams, best, trials, nil
}

func (g *GridSearch) runTrial(ctx context.Context, build Builder, params map[string]float64) Trial {
	t := Trial{Params: params}
	sess, err := build(params)
	if err != nil {
		t.Err = err
		g.log.Warn("optim: trial skipped", "params", params, "error", err)
		return t
	}
	res, err := sess.Run(ctx)
	t.Err = err
	if res != nil {
		t.Metrics = res.Metrics
		t.Outcome = res.Outcome
	}
	g.log.Debug("optim: trial done", "params", params, "outcome", t.Outcome)
	return t
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, visit func(map[string]float64)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		visit(current)
		return nil
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[name] = val
		if err := g.searchRecursive(ctx, depth+1, next, visit); err != nil {
			return err
		}
	}
	return nil
}

// Rank orders completed trials by the metric, lowest first.
func Rank(trials []Trial, metricName string) []Trial {
	out := make([]Trial, 0, len(trials))
	for _, t := range trials {
		if t.Err == nil && t.Outcome == experiment.OutcomeCompleted {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Metrics[metricName] < out[j].Metrics[metricName]
	})
	return out
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
