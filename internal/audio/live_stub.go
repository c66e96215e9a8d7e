//go:build !portaudio

package audio

// LiveSink is unavailable without the portaudio build tag.
type LiveSink struct{}

func NewLiveSink(sampleRate int) (*LiveSink, error) { return nil, ErrUnavailable }

func (*LiveSink) Write(Frame) error { return ErrUnavailable }
func (*LiveSink) Close() error      { return nil }
