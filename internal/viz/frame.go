package viz

import (
	"sync"

	"github.com/san-kum/wavesim/internal/audio"
	"github.com/san-kum/wavesim/internal/field"
)

// MicMarker is written to microphone cells so they stand out in any palette.
const MicMarker = 100.0

// Frame is the rescaled view of a grid: per cell v/20 + (1-c) + k/2, so
// stiff or damped regions show through a quiet field.
type Frame struct {
	Size   int
	Step   int
	Values []float64
}

func (f Frame) At(x, y int) float64 { return f.Values[x+y*f.Size] }

// Empty reports whether no frame has been built yet.
func (f Frame) Empty() bool { return f.Size == 0 }

func BuildFrame(snap field.Snapshot, step int, mics ...audio.Point) Frame {
	f := Frame{Size: snap.Size, Step: step, Values: make([]float64, len(snap.Amplitude))}
	for i, v := range snap.Amplitude {
		p := snap.Params[i]
		f.Values[i] = v/20 + (1 - p.C) + p.K/2
	}
	for _, m := range mics {
		if m.X >= 0 && m.Y >= 0 && m.X < snap.Size && m.Y < snap.Size {
			f.Values[m.X+m.Y*snap.Size] = MicMarker
		}
	}
	return f
}

// FrameBuffer holds the most recent frame. The publisher replaces it whole;
// readers get the frame they asked for and never see a partial one.
type FrameBuffer struct {
	mu    sync.Mutex
	frame Frame
	seq   uint64
}

func (b *FrameBuffer) Publish(f Frame) {
	b.mu.Lock()
	b.frame = f
	b.seq++
	b.mu.Unlock()
}

// Latest returns the current frame and how many frames have been published.
func (b *FrameBuffer) Latest() (Frame, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frame, b.seq
}
