package metrics

// Metric accumulates a scalar over the amplitude fields of successive ticks.
type Metric interface {
	Name() string
	Observe(amp []float64, t float64)
	Value() float64
	Reset()
}

// Default returns the metrics recorded with every run.
func Default() []Metric {
	return []Metric{
		NewEnergy(),
		NewEnergyDrift(),
		NewPeak(),
		NewActivity(),
		NewStability(10.0),
	}
}

// Collect reads every metric into a map keyed by name.
func Collect(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}

func sumSquares(amp []float64) float64 {
	s := 0.0
	for _, v := range amp {
		s += v * v
	}
	return s
}
