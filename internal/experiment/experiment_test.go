package experiment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/san-kum/wavesim/internal/audio"
	"github.com/san-kum/wavesim/internal/config"
	"github.com/san-kum/wavesim/internal/field"
	"github.com/san-kum/wavesim/internal/wave"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func smallConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Size = 8
	cfg.Workers = 2
	cfg.Ticks = 50
	cfg.FrameInterval = 1
	cfg.Pulse = config.PulseConfig{X: 4, Y: 4, Sigma: 1, Power: 1}
	cfg.Mics = config.MicConfig{Left: config.Point{X: 2, Y: 4}, Right: config.Point{X: 6, Y: 4}}
	return cfg
}

func TestSessionCompletes(t *testing.T) {
	rec := &audio.Recorder{}
	s, err := New(smallConfig(), "small", WithLogger(quiet), WithSink(rec))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.Outcome != OutcomeCompleted || res.Steps != 50 {
		t.Errorf("expected 50 completed steps, got %d (%s)", res.Steps, res.Outcome)
	}
	if res.Trace.Len() != 50 {
		t.Errorf("expected 50 trace rows, got %d", res.Trace.Len())
	}
	if len(rec.Frames()) != 50 {
		t.Errorf("expected 50 audio frames, got %d", len(rec.Frames()))
	}
	if _, ok := res.Metrics["energy"]; !ok {
		t.Errorf("missing energy metric: %v", res.Metrics)
	}
	if res.Metrics["stability"] != 1 {
		t.Errorf("expected a stable run, got %v", res.Metrics["stability"])
	}

	f, seq := s.Frames().Latest()
	if seq == 0 || f.Step != 50 {
		t.Errorf("expected a final frame at step 50, got step %d seq %d", f.Step, seq)
	}
	st := s.Status()
	if !st.Done || st.State != wave.Stopped || st.Step != 50 {
		t.Errorf("unexpected final status %+v", st)
	}
}

func TestSessionPulseReachesMics(t *testing.T) {
	s, _ := New(smallConfig(), "mics", WithLogger(quiet))
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	heard := false
	for i := range res.Trace.Left {
		if res.Trace.Left[i] != 0 && res.Trace.Right[i] != 0 {
			heard = true
		}
	}
	if !heard {
		t.Error("microphones recorded only silence")
	}
}

func TestSessionQuitEvent(t *testing.T) {
	cfg := smallConfig()
	cfg.Ticks = 0
	cfg.Events = []config.Event{{Tick: 10, Kind: "quit"}}
	s, _ := New(cfg, "quit", WithLogger(quiet))

	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("quit should not be an error: %v", err)
	}
	if res.Outcome != OutcomeQuit || res.Steps != 10 {
		t.Errorf("expected quit after 10 steps, got %d (%s)", res.Steps, res.Outcome)
	}
}

func TestSessionSubmit(t *testing.T) {
	cfg := smallConfig()
	cfg.Pulse.Power = 0
	cfg.Ticks = 0
	s, _ := New(cfg, "submit", WithLogger(quiet))

	if err := s.Submit(wave.Drop{X: 9, Y: 0, Amount: 1}); !errors.Is(err, wave.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if err := s.Submit(wave.Drop{X: 4, Y: 4, Amount: 3}); err != nil {
		t.Fatal(err)
	}
	if err := s.Submit(wave.Quit{}); err != nil {
		t.Fatal(err)
	}
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeQuit || res.Steps != 1 {
		t.Errorf("expected quit after one step, got %d (%s)", res.Steps, res.Outcome)
	}
	if res.Metrics["peak"] == 0 {
		t.Error("drop should have left a displacement")
	}
	if err := s.Submit(wave.Quit{}); !errors.Is(err, wave.ErrStopped) {
		t.Errorf("expected ErrStopped after the run, got %v", err)
	}
}

func TestSessionCancel(t *testing.T) {
	cfg := smallConfig()
	cfg.Ticks = 0
	s, _ := New(cfg, "cancel", WithLogger(quiet))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	res, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("cancellation should not be an error: %v", err)
	}
	if res.Outcome != OutcomeCancelled {
		t.Errorf("expected cancelled, got %s", res.Outcome)
	}
}

func TestSessionUnstable(t *testing.T) {
	cfg := smallConfig()
	cfg.Ticks = 0
	cfg.Dt = 1
	cfg.Medium = field.Params{C: 1, K: 0}
	s, _ := New(cfg, "unstable", WithLogger(quiet))

	res, err := s.Run(context.Background())
	if !errors.Is(err, wave.ErrUnstable) {
		t.Fatalf("expected ErrUnstable, got %v", err)
	}
	var se *wave.StepError
	if !errors.As(err, &se) {
		t.Errorf("expected a StepError, got %T", err)
	}
	if res.Outcome != OutcomeUnstable {
		t.Errorf("expected unstable outcome, got %s", res.Outcome)
	}
	if !s.Status().Done || s.Status().Err == nil {
		t.Error("status should carry the failure")
	}
}

func TestSessionRegions(t *testing.T) {
	cfg := smallConfig()
	wall := field.Params{C: 0, K: 2}
	cfg.Regions = []config.Region{{X0: 3, Y0: 1, X1: 3, Y1: 6, Params: wall}}
	s, err := New(cfg, "regions", WithLogger(quiet))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Simulator().Close()

	for y := 1; y <= 6; y++ {
		if p, _ := s.Simulator().Current().Params(3, y); p != wall {
			t.Errorf("cell (3,%d) not in the wall: %+v", y, p)
		}
	}
	if p, _ := s.Simulator().Current().Params(3, 7); p != cfg.Medium {
		t.Errorf("cell outside the region changed: %+v", p)
	}
}

func TestSessionInvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Workers = 3
	if _, err := New(cfg, "bad"); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestSessionMoveMic(t *testing.T) {
	s, _ := New(smallConfig(), "mic", WithLogger(quiet))
	defer s.Simulator().Close()
	if err := s.MoveMic(audio.Left, 1, 1); err != nil {
		t.Fatal(err)
	}
	if s.Mic(audio.Left) != (audio.Point{X: 1, Y: 1}) {
		t.Errorf("mic not moved: %+v", s.Mic(audio.Left))
	}
	if err := s.MoveMic(audio.Right, 8, 8); err == nil {
		t.Error("expected an error for a mic outside the grid")
	}
}

func TestMetadata(t *testing.T) {
	cfg := smallConfig()
	s, _ := New(cfg, "meta", WithLogger(quiet))
	res, _ := s.Run(context.Background())
	meta := s.Metadata(res)
	if meta.Name != "meta" || meta.Steps != 50 || meta.Outcome != OutcomeCompleted {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.LeftMic != [2]int{2, 4} || meta.RightMic != [2]int{6, 4} {
		t.Errorf("unexpected mics %v %v", meta.LeftMic, meta.RightMic)
	}
}

func TestWorkerCounts(t *testing.T) {
	got := WorkerCounts(12, 8)
	want := []int{1, 2, 3, 4, 6}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
		}
	}
}

func TestBench(t *testing.T) {
	res, err := Bench(context.Background(), smallConfig(), 20, []int{1, 2, 4}, quiet)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 3 {
		t.Fatalf("expected 3 results, got %d", len(res))
	}
	for _, r := range res {
		if r.Steps != 20 {
			t.Errorf("workers=%d ran %d steps", r.Workers, r.Steps)
		}
	}
	if _, err := Bench(context.Background(), smallConfig(), 0, []int{1}, quiet); err == nil {
		t.Error("expected an error for zero ticks")
	}
}

func TestSessionTraceLimit(t *testing.T) {
	cfg := smallConfig()
	cfg.Ticks = 0
	cfg.Events = []config.Event{{Tick: 50, Kind: "quit"}}
	s, _ := New(cfg, "bounded", WithLogger(quiet), WithTraceLimit(10))

	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Steps != 50 || res.Trace.Len() != 10 {
		t.Fatalf("expected the last 10 of 50 rows, got %d of %d", res.Trace.Len(), res.Steps)
	}
	if last := res.Trace.Times[9]; math.Abs(last-50*cfg.Dt) > 1e-12 {
		t.Errorf("expected the newest row last, got t=%f", last)
	}
}

func TestSessionOpenEndedTraceIsBounded(t *testing.T) {
	cfg := smallConfig()
	cfg.Ticks = 0
	s, _ := New(cfg, "open", WithLogger(quiet))
	defer s.Simulator().Close()
	if s.trace.Limit != DefaultTraceLimit {
		t.Errorf("expected the default limit for an open-ended run, got %d", s.trace.Limit)
	}

	b, _ := New(smallConfig(), "bounded", WithLogger(quiet))
	defer b.Simulator().Close()
	if b.trace.Limit != 0 {
		t.Errorf("a run with a tick count should keep every row, got limit %d", b.trace.Limit)
	}
}
