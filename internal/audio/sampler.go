package audio

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/san-kum/wavesim/internal/field"
)

const (
	SampleRate = 44100
	BufferSize = 1024
	Channels   = 2
	BitDepth   = 16

	// Amplitude maps a field value of 10 to full scale.
	Amplitude = math.MaxInt16 / 10.0
)

var (
	ErrUnavailable = errors.New("audio: live output not available in this build")
	ErrClosed      = errors.New("audio: sink closed")
)

type Channel int

const (
	Left Channel = iota
	Right
)

func (c Channel) String() string {
	switch c {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

type Point struct {
	X, Y int
}

// Frame is one stereo sample.
type Frame struct {
	L, R int16
}

// Sink consumes stereo frames in tick order.
type Sink interface {
	Write(Frame) error
	Close() error
}

// ToPCM scales a field value to a 16-bit sample, saturating at the int16
// range. NaN maps to silence.
func ToPCM(v float64) int16 {
	s := v * Amplitude
	switch {
	case math.IsNaN(s):
		return 0
	case s >= math.MaxInt16:
		return math.MaxInt16
	case s <= math.MinInt16:
		return math.MinInt16
	}
	return int16(s)
}

// Sampler reads a pair of microphone cells from the field every tick.
// Microphones may be moved from another goroutine while a run is active.
type Sampler struct {
	mu   sync.Mutex
	n    int
	mics [2]Point
}

func NewSampler(n int, left, right Point) (*Sampler, error) {
	s := &Sampler{n: n}
	if err := s.MoveMic(Left, left.X, left.Y); err != nil {
		return nil, err
	}
	if err := s.MoveMic(Right, right.X, right.Y); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sampler) MoveMic(ch Channel, x, y int) error {
	if ch != Left && ch != Right {
		return fmt.Errorf("audio: unknown %s", ch)
	}
	if x < 0 || y < 0 || x >= s.n || y >= s.n {
		return fmt.Errorf("%w: microphone (%d, %d) not in [0, %d)", field.ErrIndexOutOfRange, x, y, s.n)
	}
	s.mu.Lock()
	s.mics[ch] = Point{X: x, Y: y}
	s.mu.Unlock()
	return nil
}

func (s *Sampler) Mic(ch Channel) Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mics[ch]
}

// Sample reads both microphone cells of g.
func (s *Sampler) Sample(g *field.Grid) (Frame, error) {
	l, r := s.Mic(Left), s.Mic(Right)
	lv, err := g.Get(l.X, l.Y)
	if err != nil {
		return Frame{}, err
	}
	rv, err := g.Get(r.X, r.Y)
	if err != nil {
		return Frame{}, err
	}
	return Frame{L: ToPCM(lv), R: ToPCM(rv)}, nil
}

// Recorder is an in-memory sink.
type Recorder struct {
	mu     sync.Mutex
	frames []Frame
}

func (r *Recorder) Write(f Frame) error {
	r.mu.Lock()
	r.frames = append(r.frames, f)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Frame(nil), r.frames...)
}

// Tee fans every frame out to all sinks.
type Tee []Sink

func (t Tee) Write(f Frame) error {
	for _, s := range t {
		if err := s.Write(f); err != nil {
			return err
		}
	}
	return nil
}

func (t Tee) Close() error {
	var errs []error
	for _, s := range t {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
