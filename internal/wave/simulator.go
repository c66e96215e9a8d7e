package wave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/san-kum/wavesim/internal/field"
)

// State is the driver's position in its step cycle.
type State int32

const (
	Idle State = iota
	Dispatching
	AwaitingBarrier
	Rotated
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dispatching:
		return "dispatching"
	case AwaitingBarrier:
		return "awaiting-barrier"
	case Rotated:
		return "rotated"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

type Options struct {
	Size    int
	Workers int
	Constants
	Medium field.Params
	Logger *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		Size:      96,
		Workers:   2,
		Constants: DefaultConstants,
		Medium:    field.DefaultParams,
	}
}

func (o Options) validate() error {
	if o.Workers < 1 {
		return fmt.Errorf("%w: worker count %d", ErrConfiguration, o.Workers)
	}
	if o.Size < 1 {
		return fmt.Errorf("%w: grid size %d", ErrConfiguration, o.Size)
	}
	if o.Size%o.Workers != 0 {
		return fmt.Errorf("%w: grid size %d not divisible by %d workers", ErrConfiguration, o.Size, o.Workers)
	}
	if !(o.Dt > 0) || !(o.Dx > 0) {
		return fmt.Errorf("%w: dt=%g dx=%g must be positive", ErrConfiguration, o.Dt, o.Dx)
	}
	if err := o.Medium.Validate(); err != nil {
		return fmt.Errorf("%w: medium: %v", ErrConfiguration, err)
	}
	return nil
}

// Simulator drives the band workers one barrier-synchronised step at a time.
type Simulator struct {
	n      int
	consts Constants
	log    *slog.Logger

	prev, cur, next *field.Grid
	workers         []*worker
	orders          orderQueue

	// tickMu serialises steps against Close.
	tickMu sync.Mutex
	state  atomic.Int32
	step   atomic.Int64
}

// New builds the triple buffer and spawns one goroutine per band.
func New(opts Options) (*Simulator, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Simulator{n: opts.Size, consts: opts.Constants, log: log}
	grids := make([]*field.Grid, 3)
	for i := range grids {
		g, err := field.NewWithMedium(opts.Size, opts.Medium)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		grids[i] = g
	}
	s.prev, s.cur, s.next = grids[0], grids[1], grids[2]

	band := opts.Size / opts.Workers
	s.workers = make([]*worker, opts.Workers)
	for i := range s.workers {
		s.workers[i] = newWorker(i, i*band, (i+1)*band, opts.Size, opts.Constants, s.prev, s.cur, s.next)
		go s.workers[i].loop()
	}

	log.Info("wave: simulator started",
		"size", opts.Size,
		"workers", opts.Workers,
		"dt", opts.Dt,
		"dx", opts.Dx)
	return s, nil
}

func (s *Simulator) Size() int            { return s.n }
func (s *Simulator) Workers() int         { return len(s.workers) }
func (s *Simulator) Constants() Constants { return s.consts }
func (s *Simulator) State() State         { return State(s.state.Load()) }

// Step returns the number of completed steps.
func (s *Simulator) Step() int { return int(s.step.Load()) }

// Current returns the shared handle to state t.
func (s *Simulator) Current() *field.Grid { return s.cur }

// Previous returns the shared handle to state t-1.
func (s *Simulator) Previous() *field.Grid { return s.prev }

// Pending reports how many orders are queued.
func (s *Simulator) Pending() int { return s.orders.len() }

// Seed adds the same gaussian pulse to the current and previous states, so
// the pulse starts at rest.
func (s *Simulator) Seed(cx, cy, sigma, power float64) error {
	if err := s.cur.AddGauss(cx, cy, sigma, power); err != nil {
		return err
	}
	return s.prev.AddGauss(cx, cy, sigma, power)
}

// Submit validates an order and queues it. Invalid orders are rejected here
// and never reach a running step.
func (s *Simulator) Submit(o Order) error {
	if err := Validate(o, s.n); err != nil {
		s.log.Warn("wave: order rejected", "order", o.String(), "error", err)
		return err
	}
	if s.State() == Stopped {
		return ErrStopped
	}
	return s.orders.push(o)
}

// Next performs one step and returns the handle to the new current state.
// After Quit, a worker failure, instability or context cancellation the
// simulator is stopped and every call returns an error.
func (s *Simulator) Next(ctx context.Context) (*field.Grid, error) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	if s.State() == Stopped {
		return nil, ErrStopped
	}
	if err := ctx.Err(); err != nil {
		s.stopLocked("context done")
		return nil, err
	}
	if s.applyPending() {
		s.stopLocked("quit order")
		return nil, ErrStopped
	}

	step := s.Step()
	s.state.Store(int32(Dispatching))
	done := make(chan report, len(s.workers))
	for _, w := range s.workers {
		w.tokens <- token{step: step, done: done}
	}

	s.state.Store(int32(AwaitingBarrier))
	var failed error
	nonFinite := 0
	for received := 0; received < len(s.workers); received++ {
		select {
		case r := <-done:
			if r.err != nil {
				s.log.Error("wave: worker failed", "worker", r.worker, "step", r.step, "error", r.err)
				failed = errors.Join(failed, r.err)
			}
			nonFinite += r.nonFinite
		case <-ctx.Done():
			s.stopLocked("context done")
			return nil, ctx.Err()
		}
	}
	if failed != nil {
		s.stopLocked("worker failure")
		return nil, &StepError{Step: step, Err: failed}
	}

	if err := field.Rotate(s.prev, s.cur, s.next); err != nil {
		s.stopLocked("rotation failure")
		return nil, &StepError{Step: step, Err: err}
	}
	s.step.Add(1)
	s.state.Store(int32(Rotated))

	if nonFinite > 0 {
		s.stopLocked("unstable")
		return nil, &StepError{Step: step, Err: fmt.Errorf("%w: %d cells", ErrUnstable, nonFinite)}
	}
	return s.cur, nil
}

// applyPending applies at most one queued order to the current state and
// reports whether it was Quit.
func (s *Simulator) applyPending() bool {
	o, ok := s.orders.pop()
	if !ok {
		return false
	}

	var err error
	switch o := o.(type) {
	case Quit:
		return true
	case Drop:
		if err = s.cur.Add(o.X, o.Y, o.Amount); err == nil {
			err = s.prev.Add(o.X, o.Y, o.Amount)
		}
	case ChangeParameter:
		if err = s.cur.Tune(o.X, o.Y, o.Which, o.Value); err == nil {
			err = s.prev.Put(o.X, o.Y, 0)
		}
	}
	if err != nil {
		s.log.Warn("wave: order dropped", "order", o.String(), "error", err)
		return false
	}
	s.log.Debug("wave: order applied", "order", o.String(), "step", s.Step())
	return false
}

// Run steps until fn returns false, the context ends or the simulator
// stops. A Quit order ends the run without error.
func (s *Simulator) Run(ctx context.Context, fn func(step int, g *field.Grid) bool) error {
	for {
		g, err := s.Next(ctx)
		if errors.Is(err, ErrStopped) {
			return nil
		}
		if err != nil {
			return err
		}
		if !fn(s.Step(), g) {
			return nil
		}
	}
}

// Close stops the simulator and lets the worker goroutines exit. It is safe
// to call more than once.
func (s *Simulator) Close() error {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	if s.State() != Stopped {
		s.stopLocked("closed")
	}
	return nil
}

func (s *Simulator) stopLocked(reason string) {
	s.state.Store(int32(Stopped))
	s.orders.close()
	for _, w := range s.workers {
		close(w.tokens)
	}
	s.log.Info("wave: simulator stopped", "reason", reason, "steps", s.Step())
}
