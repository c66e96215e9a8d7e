package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/wavesim/internal/audio"
	"github.com/san-kum/wavesim/internal/field"
	"github.com/san-kum/wavesim/internal/viz"
)

func TestFrameToSVG(t *testing.T) {
	g, _ := field.New(4)
	_ = g.Put(1, 1, 3)
	f := viz.BuildFrame(g.Snapshot(), 0, audio.Point{X: 2, Y: 2})
	h := viz.NewHeatmap(viz.ThemeOcean)

	out := FrameToSVG(f, h, 10)
	if !strings.HasPrefix(out, "<?xml") || !strings.HasSuffix(out, "</svg>") {
		t.Fatal("not an svg document")
	}
	if got := strings.Count(out, "<rect x="); got != 16 {
		t.Errorf("expected 16 cells, got %d", got)
	}
	if !strings.Contains(out, string(h.Theme().Mic)) {
		t.Error("microphone cell missing its colour")
	}
	if FrameToSVG(viz.Frame{}, h, 10) != "" {
		t.Error("empty frame should produce nothing")
	}
}

func TestTraceToSVG(t *testing.T) {
	out := TraceToSVG([]float64{0, 1, 0, -1}, []float64{1, 0, -1, 0}, 200, 100, "#ff0000", "#00ff00")
	if strings.Count(out, "<path") != 2 {
		t.Errorf("expected two paths, got %q", out)
	}
	if TraceToSVG([]float64{1}, []float64{1}, 10, 10, "", "") != "" {
		t.Error("single sample should produce nothing")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.svg")
	if err := WriteFile(path, ""); err == nil {
		t.Error("expected an error for an empty document")
	}
	if err := WriteFile(path, "<svg/>"); err != nil {
		t.Fatal(err)
	}
	if b, _ := os.ReadFile(path); string(b) != "<svg/>" {
		t.Errorf("unexpected content %q", b)
	}
}
