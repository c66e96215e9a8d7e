package field

import (
	"fmt"
	"math"
)

// Coefficient names one member of a cell's parameter pair.
type Coefficient int

const (
	Propagation Coefficient = iota
	Damping
)

func (c Coefficient) String() string {
	switch c {
	case Propagation:
		return "propagation"
	case Damping:
		return "damping"
	default:
		return fmt.Sprintf("coefficient(%d)", int(c))
	}
}

// ParseCoefficient maps a CLI or config name to a Coefficient.
func ParseCoefficient(s string) (Coefficient, error) {
	switch s {
	case "propagation", "c":
		return Propagation, nil
	case "damping", "k":
		return Damping, nil
	}
	return 0, fmt.Errorf("%w: unknown coefficient %q", ErrParameterBounds, s)
}

// Params is the medium description of a single cell.
type Params struct {
	C float64 `yaml:"propagation" json:"propagation"` // propagation ratio, [0,1]
	K float64 `yaml:"damping" json:"damping"`         // damping ratio, >= 0
}

// DefaultParams is the medium every new grid starts with.
var DefaultParams = Params{C: 0.2, K: 0.2}

func (p Params) Validate() error {
	if err := ValidateCoefficient(Propagation, p.C); err != nil {
		return err
	}
	return ValidateCoefficient(Damping, p.K)
}

// With returns a copy of p with the named coefficient replaced.
func (p Params) With(which Coefficient, v float64) Params {
	switch which {
	case Propagation:
		p.C = v
	case Damping:
		p.K = v
	}
	return p
}

func ValidateCoefficient(which Coefficient, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be finite", ErrParameterBounds, which)
	}
	switch which {
	case Propagation:
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: propagation %g not in [0, 1]", ErrParameterBounds, v)
		}
	case Damping:
		if v < 0 {
			return fmt.Errorf("%w: damping %g is negative", ErrParameterBounds, v)
		}
	default:
		return fmt.Errorf("%w: unknown %s", ErrParameterBounds, which)
	}
	return nil
}
