package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// PowerSpectrum returns the magnitudes of the first len(data)/2 bins of the
// Hann-windowed trace. Any length is accepted.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}
	x := make([]float64, len(data))
	copy(x, data)
	window.Apply(x, window.Hann)

	coef := fft.FFTReal(x)
	ps := make([]float64, len(coef)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(coef[i])
	}
	return ps
}

// BinFrequency is the centre frequency of bin i of an n-point spectrum.
func BinFrequency(i, n int, sampleRate float64) float64 {
	return float64(i) * sampleRate / float64(n)
}

// DominantFrequency returns the frequency and magnitude of the strongest
// bin, ignoring DC. A silent or too short trace yields zeros.
func DominantFrequency(data []float64, sampleRate float64) (float64, float64) {
	ps := PowerSpectrum(data)
	best, mag := 0, 0.0
	for i := 1; i < len(ps); i++ {
		if ps[i] > mag {
			best, mag = i, ps[i]
		}
	}
	if best == 0 {
		return 0, 0
	}
	return BinFrequency(best, len(data), sampleRate), mag
}
