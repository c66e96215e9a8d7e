package audio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"

	"github.com/san-kum/wavesim/internal/field"
)

func TestToPCM(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int16
	}{
		{"zero", 0, 0},
		{"unit", 1, 3276},
		{"negative unit", -1, -3276},
		{"full scale", 10, 32767},
		{"clip high", 50, math.MaxInt16},
		{"clip low", -50, math.MinInt16},
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), math.MaxInt16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToPCM(tt.in); got != tt.want {
				t.Errorf("ToPCM(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestSampler(t *testing.T) {
	g, _ := field.New(8)
	_ = g.Put(2, 3, 1)
	_ = g.Put(5, 5, -2)

	s, err := NewSampler(8, Point{X: 2, Y: 3}, Point{X: 5, Y: 5})
	if err != nil {
		t.Fatalf("new sampler: %v", err)
	}
	f, err := s.Sample(g)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if f.L != ToPCM(1) || f.R != ToPCM(-2) {
		t.Errorf("unexpected frame %+v", f)
	}

	if err := s.MoveMic(Left, 5, 5); err != nil {
		t.Fatalf("move mic: %v", err)
	}
	f, _ = s.Sample(g)
	if f.L != f.R {
		t.Errorf("both microphones on one cell should agree, got %+v", f)
	}
}

func TestMoveMicBounds(t *testing.T) {
	s, _ := NewSampler(8, Point{}, Point{})
	if err := s.MoveMic(Right, 8, 0); !errors.Is(err, field.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if err := s.MoveMic(Channel(7), 1, 1); err == nil {
		t.Error("expected error for unknown channel")
	}
	if p := s.Mic(Right); p != (Point{}) {
		t.Errorf("rejected move must not change the mic, got %+v", p)
	}
	if _, err := NewSampler(4, Point{X: -1}, Point{}); err == nil {
		t.Error("expected error for microphone outside the grid")
	}
}

func TestWAVSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	sink, err := NewWAVSink(path, SampleRate)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	const n = 3000
	for i := 0; i < n; i++ {
		if err := sink.Write(Frame{L: int16(i), R: int16(-i)}); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := sink.Write(Frame{}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("invalid wav file")
	}
	if dec.SampleRate != SampleRate || dec.NumChans != Channels || dec.BitDepth != BitDepth {
		t.Errorf("unexpected format %d Hz, %d ch, %d bit", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(buf.Data) != 2*n {
		t.Fatalf("expected %d samples, got %d", 2*n, len(buf.Data))
	}
	if buf.Data[2*1234] != 1234 || buf.Data[2*1234+1] != -1234 {
		t.Errorf("sample 1234 mismatch: %d %d", buf.Data[2*1234], buf.Data[2*1234+1])
	}
}

func TestTeeAndRecorder(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	tee := Tee{a, b}
	for i := 0; i < 4; i++ {
		_ = tee.Write(Frame{L: int16(i)})
	}
	if err := tee.Close(); err != nil {
		t.Fatal(err)
	}
	if len(a.Frames()) != 4 || len(b.Frames()) != 4 {
		t.Errorf("expected 4 frames in both recorders, got %d and %d", len(a.Frames()), len(b.Frames()))
	}
}
