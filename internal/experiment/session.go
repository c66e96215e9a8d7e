package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/wavesim/internal/audio"
	"github.com/san-kum/wavesim/internal/config"
	"github.com/san-kum/wavesim/internal/field"
	"github.com/san-kum/wavesim/internal/metrics"
	"github.com/san-kum/wavesim/internal/storage"
	"github.com/san-kum/wavesim/internal/viz"
	"github.com/san-kum/wavesim/internal/wave"
)

// Outcomes recorded for a finished run.
const (
	OutcomeCompleted = "completed"
	OutcomeQuit      = "quit"
	OutcomeCancelled = "cancelled"
	OutcomeUnstable  = "unstable"
	OutcomeFailed    = "failed"
)

var _ viz.Session = (*Session)(nil)

type Option func(*Session)

// WithSink streams every tick's stereo frame to sink. The session closes it.
func WithSink(sink audio.Sink) Option {
	return func(s *Session) { s.sink = sink }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Session) { s.log = log }
}

func WithMetrics(ms ...metrics.Metric) Option {
	return func(s *Session) { s.metrics = ms }
}

// DefaultTraceLimit bounds the recorded trace of runs without a tick
// count: ten seconds of audio at the default sample rate.
const DefaultTraceLimit = 10 * config.DefaultSampleRate

// WithTraceLimit keeps only the newest n trace rows. Zero keeps every row.
func WithTraceLimit(n int) Option {
	return func(s *Session) { s.traceLimit = n }
}

// WithoutTrace skips recording the microphone trace in memory.
func WithoutTrace() Option {
	return func(s *Session) { s.trace = nil }
}

// Session runs one configured simulation with its consumers: the driver
// loop, an optional audio sink and the frame publisher.
type Session struct {
	cfg     *config.Config
	name    string
	log     *slog.Logger
	sim     *wave.Simulator
	sampler *audio.Sampler
	sink    audio.Sink
	metrics []metrics.Metric
	frames  viz.FrameBuffer
	events  []config.Event

	traceLimit int

	mu     sync.Mutex
	status viz.Status
	trace  *storage.Trace
}

type Result struct {
	Name    string
	Steps   int
	Outcome string
	Metrics map[string]float64
	Trace   *storage.Trace
	Elapsed time.Duration
}

func New(cfg *config.Config, name string, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		cfg:     cfg,
		name:    name,
		log:     slog.Default(),
		metrics: metrics.Default(),
		trace:   &storage.Trace{},
	}
	if cfg.Ticks == 0 {
		s.traceLimit = DefaultTraceLimit
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.trace != nil {
		s.trace.Limit = s.traceLimit
	}

	wopts := cfg.Options()
	wopts.Logger = s.log
	sim, err := wave.New(wopts)
	if err != nil {
		return nil, err
	}
	s.sim = sim

	if err := s.prepare(); err != nil {
		sim.Close()
		return nil, err
	}
	return s, nil
}

func (s *Session) prepare() error {
	cur := s.sim.Current()
	for i, r := range s.cfg.Regions {
		if err := cur.FillRect(r.X0, r.Y0, r.X1, r.Y1, r.Params); err != nil {
			return fmt.Errorf("region %d: %w", i, err)
		}
	}
	if p := s.cfg.Pulse; p.Power != 0 {
		if err := s.sim.Seed(p.X, p.Y, p.Sigma, p.Power); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	mics := s.cfg.Mics
	sampler, err := audio.NewSampler(s.cfg.Size,
		audio.Point{X: mics.Left.X, Y: mics.Left.Y},
		audio.Point{X: mics.Right.X, Y: mics.Right.Y})
	if err != nil {
		return err
	}
	s.sampler = sampler

	s.events = append([]config.Event(nil), s.cfg.Events...)
	sort.SliceStable(s.events, func(i, j int) bool { return s.events[i].Tick < s.events[j].Tick })
	return s.submitDue(0)
}

// submitDue queues every event scheduled for the given step.
func (s *Session) submitDue(step int) error {
	for len(s.events) > 0 && s.events[0].Tick <= step {
		ev := s.events[0]
		s.events = s.events[1:]
		o, err := ev.Order()
		if err != nil {
			return err
		}
		if err := s.sim.Submit(o); err != nil {
			return fmt.Errorf("event at tick %d: %w", ev.Tick, err)
		}
	}
	return nil
}

func (s *Session) Name() string               { return s.name }
func (s *Session) Config() *config.Config     { return s.cfg }
func (s *Session) Size() int                  { return s.sim.Size() }
func (s *Session) Frames() *viz.FrameBuffer   { return &s.frames }
func (s *Session) Simulator() *wave.Simulator { return s.sim }

func (s *Session) Submit(o wave.Order) error { return s.sim.Submit(o) }

func (s *Session) MoveMic(ch audio.Channel, x, y int) error {
	if err := s.sampler.MoveMic(ch, x, y); err != nil {
		return err
	}
	s.log.Debug("experiment: microphone moved", "channel", ch.String(), "x", x, "y", y)
	return nil
}

func (s *Session) Mic(ch audio.Channel) audio.Point { return s.sampler.Mic(ch) }

func (s *Session) Status() viz.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	st.State = s.sim.State()
	st.Pending = s.sim.Pending()
	return st
}

func (s *Session) publish(step int) {
	snap := s.sim.Current().Snapshot()
	s.frames.Publish(viz.BuildFrame(snap, step, s.sampler.Mic(audio.Left), s.sampler.Mic(audio.Right)))
}

// Run drives the simulation until the configured tick count is reached
// (zero runs until Quit), a Quit order arrives or ctx ends. Quit and
// cancellation end the run without error; instability and worker failure
// are returned together with the partial result.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	var out chan audio.Frame
	if s.sink != nil {
		out = make(chan audio.Frame, audio.BufferSize)
		g.Go(func() error {
			for f := range out {
				if err := s.sink.Write(f); err != nil {
					return fmt.Errorf("audio sink: %w", err)
				}
			}
			return nil
		})
	}

	done := make(chan struct{})
	interval := time.Duration(s.cfg.FrameInterval) * time.Millisecond
	if interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return nil
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					s.publish(s.sim.Step())
				}
			}
		})
	}

	reached := false
	g.Go(func() error {
		defer close(done)
		if out != nil {
			defer close(out)
		}
		amp := make([]float64, 0, s.cfg.Size*s.cfg.Size)
		dt := s.cfg.Dt
		runErr := s.sim.Run(gctx, func(step int, grid *field.Grid) bool {
			frame, err := s.sampler.Sample(grid)
			if err != nil {
				s.log.Warn("experiment: sample failed", "step", step, "error", err)
			}
			if out != nil {
				select {
				case out <- frame:
				case <-gctx.Done():
					return false
				}
			}

			amp = grid.Amplitudes(amp)
			energy := 0.0
			for _, v := range amp {
				energy += v * v
			}
			t := float64(step) * dt
			for _, m := range s.metrics {
				m.Observe(amp, t)
			}

			s.mu.Lock()
			if s.trace != nil {
				s.trace.Append(t, frame.L, frame.R)
			}
			s.status.Step = step
			s.status.Energy = energy
			s.status.Last = frame
			s.mu.Unlock()

			if err := s.submitDue(step); err != nil {
				s.log.Warn("experiment: event rejected", "step", step, "error", err)
			}
			if s.cfg.Ticks > 0 && step >= s.cfg.Ticks {
				reached = true
				return false
			}
			return true
		})
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			return nil
		}
		return runErr
	})

	waitErr := g.Wait()
	s.sim.Close()
	s.publish(s.sim.Step())
	if s.sink != nil {
		if err := s.sink.Close(); err != nil && waitErr == nil {
			waitErr = fmt.Errorf("audio sink: %w", err)
		}
	}

	res := &Result{
		Name:    s.name,
		Steps:   s.sim.Step(),
		Metrics: metrics.Collect(s.metrics),
		Elapsed: time.Since(start),
	}
	s.mu.Lock()
	if s.trace != nil {
		s.trace.Trim()
	}
	res.Trace = s.trace
	s.mu.Unlock()

	switch {
	case waitErr == nil && reached:
		res.Outcome = OutcomeCompleted
	case waitErr == nil && ctx.Err() != nil:
		res.Outcome = OutcomeCancelled
	case waitErr == nil:
		res.Outcome = OutcomeQuit
	case errors.Is(waitErr, wave.ErrUnstable):
		res.Outcome = OutcomeUnstable
	default:
		res.Outcome = OutcomeFailed
	}

	s.mu.Lock()
	s.status.Done = true
	s.status.Err = waitErr
	s.mu.Unlock()

	s.log.Info("experiment: run finished",
		"name", s.name,
		"outcome", res.Outcome,
		"steps", res.Steps,
		"elapsed", res.Elapsed.Round(time.Millisecond))
	return res, waitErr
}

// Metadata describes a finished run for the store.
func (s *Session) Metadata(res *Result) storage.RunMetadata {
	c := s.cfg
	return storage.RunMetadata{
		Name:       s.name,
		Size:       c.Size,
		Workers:    c.Workers,
		Dt:         c.Dt,
		Dx:         c.Dx,
		Medium:     c.Medium,
		Ticks:      c.Ticks,
		Steps:      res.Steps,
		SampleRate: c.SampleRate,
		LeftMic:    [2]int{c.Mics.Left.X, c.Mics.Left.Y},
		RightMic:   [2]int{c.Mics.Right.X, c.Mics.Right.Y},
		Outcome:    res.Outcome,
		Elapsed:    res.Elapsed.Seconds(),
		Audio:      c.Output,
		Metrics:    res.Metrics,
	}
}
