package analysis

import (
	"math"
	"strings"
	"testing"
)

func sine(freq, rate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / rate)
	}
	return out
}

func TestDominantFrequency(t *testing.T) {
	tests := []struct {
		name string
		freq float64
		n    int
	}{
		{"power of two", 440, 4096},
		{"odd length", 1000, 4410},
		{"low tone", 120, 8000},
	}
	const rate = 44100.0
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, mag := DominantFrequency(sine(tt.freq, rate, tt.n), rate)
			resolution := rate / float64(tt.n)
			if math.Abs(got-tt.freq) > resolution {
				t.Errorf("expected %.1f Hz within %.1f, got %.1f", tt.freq, resolution, got)
			}
			if mag <= 0 {
				t.Error("expected a positive magnitude")
			}
		})
	}
}

func TestDominantFrequencySilence(t *testing.T) {
	if f, m := DominantFrequency(make([]float64, 256), 44100); f != 0 || m != 0 {
		t.Errorf("silence should give zeros, got %f %f", f, m)
	}
	if ps := PowerSpectrum([]float64{1}); ps != nil {
		t.Errorf("expected nil spectrum for a single sample, got %v", ps)
	}
}

func TestPowerSpectrumLength(t *testing.T) {
	data := sine(100, 1000, 500)
	if ps := PowerSpectrum(data); len(ps) != 250 {
		t.Errorf("expected 250 bins, got %d", len(ps))
	}
	if data[1] == 0 {
		t.Error("input must not be windowed in place")
	}
}

func TestCorrelation(t *testing.T) {
	a := sine(5, 100, 200)
	b := make([]float64, len(a))
	for i, v := range a {
		b[i] = -2 * v
	}

	if c := Correlation(a, a); math.Abs(c-1) > 1e-9 {
		t.Errorf("expected 1 for identical traces, got %f", c)
	}
	if c := Correlation(a, b); math.Abs(c+1) > 1e-9 {
		t.Errorf("expected -1 for inverted traces, got %f", c)
	}
	if c := Correlation(a, make([]float64, len(a))); c != 0 {
		t.Errorf("expected 0 against silence, got %f", c)
	}
}

func TestStereoPortrait(t *testing.T) {
	a := sine(3, 100, 100)
	out := StereoPortrait(a, a, 21, 11)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 11 {
		t.Fatalf("expected 11 rows, got %d", len(lines))
	}
	if !strings.Contains(out, "•") || !strings.Contains(out, "┼") {
		t.Error("expected points and origin on the canvas")
	}
	if StereoPortrait(nil, nil, 10, 10) != "" {
		t.Error("expected empty output for empty traces")
	}
}

func TestStereoPortraitKeepsOrigin(t *testing.T) {
	out := StereoPortrait([]float64{0, 0, 1, -1}, []float64{0, 0, 1, -1}, 21, 11)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if got := []rune(lines[5])[10]; got != '┼' {
		t.Errorf("expected the origin marker at the centre, got %q", got)
	}
	if strings.Count(out, "•") != 2 {
		t.Errorf("expected two off-origin points, got %q", out)
	}
}
