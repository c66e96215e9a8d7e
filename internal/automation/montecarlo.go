package automation

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/san-kum/wavesim/internal/config"
	"github.com/san-kum/wavesim/internal/experiment"
)

// MonteCarloConfig perturbs the pulse of a base config at random.
type MonteCarloConfig struct {
	Base *config.Config
	// Jitter is the largest pulse displacement in cells.
	Jitter float64
	// PowerSpread scales the pulse power by a factor in [1-s, 1+s].
	PowerSpread float64
	NumTrials   int
	Ticks       int
	Seed        int64
}

type MonteCarloResult struct {
	TrialID int
	Pulse   config.PulseConfig
	Outcome string
	Metrics map[string]float64
	Stable  bool
}

// RunMonteCarlo executes NumTrials runs, each with its own perturbed pulse.
// Trials that diverge are recorded, not returned as errors.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, opts ...experiment.Option) ([]MonteCarloResult, error) {
	results := make([]MonteCarloResult, 0, cfg.NumTrials)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	n := float64(cfg.Base.Size - 1)
	opts = append([]experiment.Option{experiment.WithoutTrace()}, opts...)
	for trial := 0; trial < cfg.NumTrials; trial++ {
		c := *cfg.Base
		c.FrameInterval = 0
		c.Output = ""
		if cfg.Ticks > 0 {
			c.Ticks = cfg.Ticks
		}
		c.Pulse.X = clamp(c.Pulse.X+(rng.Float64()-0.5)*2*cfg.Jitter, 0, n)
		c.Pulse.Y = clamp(c.Pulse.Y+(rng.Float64()-0.5)*2*cfg.Jitter, 0, n)
		c.Pulse.Power *= 1 + (rng.Float64()-0.5)*2*cfg.PowerSpread

		sess, err := experiment.New(&c, "montecarlo", opts...)
		if err != nil {
			return results, err
		}
		res, err := sess.Run(ctx)
		if res == nil {
			return results, err
		}
		if ctx.Err() != nil {
			return results, ctx.Err()
		}

		results = append(results, MonteCarloResult{
			TrialID: trial,
			Pulse:   c.Pulse,
			Outcome: res.Outcome,
			Metrics: res.Metrics,
			Stable:  res.Outcome == experiment.OutcomeCompleted,
		})

		if (trial+1)%10 == 0 {
			slog.Info("automation: monte carlo progress", "done", trial+1, "trials", cfg.NumTrials)
		}
	}

	return results, nil
}

// MonteCarloStats counts stable and diverged trials.
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
