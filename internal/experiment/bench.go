package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/wavesim/internal/config"
)

type BenchResult struct {
	Workers     int
	Steps       int
	Elapsed     time.Duration
	TicksPerSec float64
}

// WorkerCounts lists the worker counts that split a grid of size n into
// equal bands, up to max.
func WorkerCounts(n, max int) []int {
	var out []int
	for w := 1; w <= n && w <= max; w++ {
		if n%w == 0 {
			out = append(out, w)
		}
	}
	return out
}

// Bench runs cfg for ticks steps once per worker count, without audio,
// frames or a stored trace.
func Bench(ctx context.Context, cfg *config.Config, ticks int, workers []int, log *slog.Logger) ([]BenchResult, error) {
	if ticks <= 0 {
		return nil, fmt.Errorf("%w: bench needs a positive tick count", config.ErrInvalid)
	}
	out := make([]BenchResult, 0, len(workers))
	for _, w := range workers {
		c := *cfg
		c.Workers = w
		c.Ticks = ticks
		c.FrameInterval = 0
		c.Output = ""

		s, err := New(&c, fmt.Sprintf("bench-%d", w), WithLogger(log), WithMetrics(), WithoutTrace())
		if err != nil {
			return out, fmt.Errorf("workers=%d: %w", w, err)
		}
		res, err := s.Run(ctx)
		if err != nil {
			return out, fmt.Errorf("workers=%d: %w", w, err)
		}
		if res.Outcome != OutcomeCompleted {
			return out, fmt.Errorf("workers=%d: run %s", w, res.Outcome)
		}
		r := BenchResult{Workers: w, Steps: res.Steps, Elapsed: res.Elapsed}
		if secs := res.Elapsed.Seconds(); secs > 0 {
			r.TicksPerSec = float64(res.Steps) / secs
		}
		out = append(out, r)
	}
	return out, nil
}
