package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVSink encodes frames as 16-bit stereo PCM.
type WAVSink struct {
	f      *os.File
	enc    *wav.Encoder
	buf    *goaudio.IntBuffer
	closed bool
}

func NewWAVSink(path string, sampleRate int) (*WAVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &WAVSink{
		f:   f,
		enc: wav.NewEncoder(f, sampleRate, BitDepth, Channels, 1),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: Channels, SampleRate: sampleRate},
			SourceBitDepth: BitDepth,
			Data:           make([]int, 0, BufferSize*Channels),
		},
	}, nil
}

func (w *WAVSink) Write(fr Frame) error {
	if w.closed {
		return ErrClosed
	}
	w.buf.Data = append(w.buf.Data, int(fr.L), int(fr.R))
	if len(w.buf.Data) >= cap(w.buf.Data) {
		return w.flush()
	}
	return nil
}

func (w *WAVSink) flush() error {
	if len(w.buf.Data) == 0 {
		return nil
	}
	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("audio: encode: %w", err)
	}
	w.buf.Data = w.buf.Data[:0]
	return nil
}

// Close flushes pending frames, finalises the header and closes the file.
func (w *WAVSink) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.flush(); err != nil {
		w.f.Close()
		return err
	}
	if err := w.enc.Close(); err != nil {
		w.f.Close()
		return fmt.Errorf("audio: finalise: %w", err)
	}
	return w.f.Close()
}
