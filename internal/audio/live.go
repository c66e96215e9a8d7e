//go:build portaudio

package audio

import (
	"log/slog"
	"math"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// LiveSink plays frames on the default output device. Write blocks once a
// second of audio is queued, which paces the run to real time.
type LiveSink struct {
	stream *portaudio.Stream
	frames chan Frame
	once   sync.Once
}

func NewLiveSink(sampleRate int) (*LiveSink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	l := &LiveSink{frames: make(chan Frame, sampleRate)}
	stream, err := portaudio.OpenDefaultStream(0, Channels, float64(sampleRate), BufferSize, l.process)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, err
	}
	l.stream = stream
	slog.Info("audio: live output started", "sample_rate", sampleRate)
	return l, nil
}

func (l *LiveSink) process(out [][]float32) {
	for i := range out[0] {
		select {
		case f := <-l.frames:
			out[0][i] = float32(f.L) / math.MaxInt16
			out[1][i] = float32(f.R) / math.MaxInt16
		default:
			out[0][i], out[1][i] = 0, 0
		}
	}
}

func (l *LiveSink) Write(f Frame) error {
	l.frames <- f
	return nil
}

func (l *LiveSink) Close() error {
	var err error
	l.once.Do(func() {
		if err = l.stream.Stop(); err == nil {
			err = l.stream.Close()
		}
		portaudio.Terminate()
	})
	return err
}
