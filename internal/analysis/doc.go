// Package analysis inspects recorded microphone traces.
//
//   - [PowerSpectrum]: windowed magnitude spectrum of a trace
//   - [DominantFrequency]: strongest non-DC component in Hz
//   - [Correlation]: normalised correlation of the two channels
//   - [StereoPortrait]: left against right, the goniometer view of a run
//
// # Resonance
//
// A closed grid rings at frequencies set by its size and medium. The
// dominant frequency of a microphone trace finds the strongest one:
//
//	hz, _ := analysis.DominantFrequency(trace, 44100)
package analysis
