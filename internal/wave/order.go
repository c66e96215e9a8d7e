package wave

import (
	"fmt"
	"math"
	"sync"

	"github.com/san-kum/wavesim/internal/field"
)

// Order is a command for the driver. It is applied at most once, on the
// step following its submission at the earliest.
type Order interface {
	validate(n int) error
	fmt.Stringer
}

// Drop injects an impulse: Amount is added to the amplitude at (X, Y) in
// both the current and the previous state, so the displaced cell starts at
// rest the same way a seeded pulse does.
type Drop struct {
	X, Y   int
	Amount float64
}

// ChangeParameter overwrites one coefficient at (X, Y) of the current medium
// and puts the cell at rest (zero amplitude in current and previous state).
type ChangeParameter struct {
	X, Y  int
	Which field.Coefficient
	Value float64
}

// Quit stops the driver before its next dispatch.
type Quit struct{}

func inGrid(x, y, n int) error {
	if x < 0 || x >= n || y < 0 || y >= n {
		return fmt.Errorf("%w: (%d, %d) not in [0, %d)", ErrIndexOutOfRange, x, y, n)
	}
	return nil
}

func (o Drop) validate(n int) error {
	if err := inGrid(o.X, o.Y, n); err != nil {
		return err
	}
	if math.IsNaN(o.Amount) || math.IsInf(o.Amount, 0) {
		return fmt.Errorf("%w: drop amount must be finite", ErrParameterBounds)
	}
	return nil
}

func (o ChangeParameter) validate(n int) error {
	if err := inGrid(o.X, o.Y, n); err != nil {
		return err
	}
	return field.ValidateCoefficient(o.Which, o.Value)
}

func (Quit) validate(int) error { return nil }

// Validate checks an order against a grid of side n without queueing it.
// Submit applies the same checks.
func Validate(o Order, n int) error {
	if o == nil {
		return fmt.Errorf("%w: nil order", ErrParameterBounds)
	}
	return o.validate(n)
}

func (o Drop) String() string { return fmt.Sprintf("drop(%d, %d, %g)", o.X, o.Y, o.Amount) }

func (o ChangeParameter) String() string {
	return fmt.Sprintf("change(%d, %d, %s=%g)", o.X, o.Y, o.Which, o.Value)
}

func (Quit) String() string { return "quit" }

// orderQueue is an unbounded FIFO. Pushes never block and nothing is
// dropped; the driver pops at most one entry per step.
type orderQueue struct {
	mu     sync.Mutex
	items  []Order
	closed bool
}

func (q *orderQueue) push(o Order) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrStopped
	}
	q.items = append(q.items, o)
	return nil
}

func (q *orderQueue) pop() (Order, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	o := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return o, true
}

func (q *orderQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *orderQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.mu.Unlock()
}
