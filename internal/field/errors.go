package field

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange indicates a point access outside [0,N) on either axis.
	ErrIndexOutOfRange = errors.New("field: index out of range")

	// ErrInvalidSize indicates a grid size that cannot hold a field.
	ErrInvalidSize = errors.New("field: invalid grid size")

	// ErrParameterBounds indicates a coefficient or kernel argument outside its valid range.
	ErrParameterBounds = errors.New("field: parameter out of valid bounds")
)

func outOfRange(x, y, n int) error {
	return fmt.Errorf("%w: (%d, %d) not in [0, %d)", ErrIndexOutOfRange, x, y, n)
}
