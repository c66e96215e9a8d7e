package automation

import (
	"github.com/san-kum/wavesim/internal/audio"
	"github.com/san-kum/wavesim/internal/config"
	"github.com/san-kum/wavesim/internal/experiment"
)

// newSession builds a session, attaching a WAV sink when the config names
// an output file.
func newSession(cfg *config.Config, name string, opts []experiment.Option) (*experiment.Session, error) {
	var sink *audio.WAVSink
	if cfg.Output != "" {
		var err error
		if sink, err = audio.NewWAVSink(cfg.Output, cfg.SampleRate); err != nil {
			return nil, err
		}
		opts = append(append([]experiment.Option(nil), opts...), experiment.WithSink(sink))
	}
	sess, err := experiment.New(cfg, name, opts...)
	if err != nil && sink != nil {
		sink.Close()
	}
	return sess, err
}
