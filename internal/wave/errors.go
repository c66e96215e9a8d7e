package wave

import (
	"errors"
	"fmt"

	"github.com/san-kum/wavesim/internal/field"
)

// Domain errors for simulation operations.
var (
	// ErrConfiguration indicates a grid size / worker count combination that
	// cannot be partitioned into equal bands, or invalid constants.
	ErrConfiguration = errors.New("wave: invalid configuration")

	// ErrIndexOutOfRange indicates an order addressing a cell outside the grid.
	ErrIndexOutOfRange = field.ErrIndexOutOfRange

	// ErrParameterBounds indicates an order carrying an invalid coefficient or amount.
	ErrParameterBounds = field.ErrParameterBounds

	// ErrWorkerFailed indicates a band worker failed during a step.
	ErrWorkerFailed = errors.New("wave: worker failed")

	// ErrUnstable indicates the step produced non-finite amplitudes.
	ErrUnstable = errors.New("wave: simulation unstable (non-finite amplitude)")

	// ErrStopped indicates the simulator no longer produces steps.
	ErrStopped = errors.New("wave: simulator stopped")
)

// StepError wraps a terminal failure with the step it happened on.
type StepError struct {
	Step int
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
