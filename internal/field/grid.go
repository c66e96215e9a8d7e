package field

import (
	"fmt"
	"math"
	"strings"
	"sync"
)

// Grid is an N×N amplitude field with a coincident parameter field.
type Grid struct {
	mu     sync.Mutex
	n      int
	amp    []float64
	params []Params
}

// New allocates an all-zero grid with the default medium.
func New(n int) (*Grid, error) {
	return NewWithMedium(n, DefaultParams)
}

// NewWithMedium allocates an all-zero grid whose every cell carries medium.
func NewWithMedium(n int, medium Params) (*Grid, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}
	if err := medium.Validate(); err != nil {
		return nil, err
	}
	g := &Grid{
		n:      n,
		amp:    make([]float64, n*n),
		params: make([]Params, n*n),
	}
	for i := range g.params {
		g.params[i] = medium
	}
	return g, nil
}

func (g *Grid) Size() int { return g.n }

func (g *Grid) inRange(x, y int) bool {
	return x >= 0 && x < g.n && y >= 0 && y < g.n
}

func (g *Grid) Get(x, y int) (float64, error) {
	if !g.inRange(x, y) {
		return 0, outOfRange(x, y, g.n)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.amp[x+y*g.n], nil
}

func (g *Grid) Put(x, y int, v float64) error {
	if !g.inRange(x, y) {
		return outOfRange(x, y, g.n)
	}
	g.mu.Lock()
	g.amp[x+y*g.n] = v
	g.mu.Unlock()
	return nil
}

// Add adds delta to the amplitude at (x, y).
func (g *Grid) Add(x, y int, delta float64) error {
	if !g.inRange(x, y) {
		return outOfRange(x, y, g.n)
	}
	g.mu.Lock()
	g.amp[x+y*g.n] += delta
	g.mu.Unlock()
	return nil
}

func (g *Grid) Params(x, y int) (Params, error) {
	if !g.inRange(x, y) {
		return Params{}, outOfRange(x, y, g.n)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.params[x+y*g.n], nil
}

// SetParam overwrites one coefficient of the cell at (x, y).
func (g *Grid) SetParam(x, y int, which Coefficient, v float64) error {
	if !g.inRange(x, y) {
		return outOfRange(x, y, g.n)
	}
	if err := ValidateCoefficient(which, v); err != nil {
		return err
	}
	g.mu.Lock()
	i := x + y*g.n
	g.params[i] = g.params[i].With(which, v)
	g.mu.Unlock()
	return nil
}

// Tune overwrites one coefficient and puts the cell at rest, as a single
// locked update.
func (g *Grid) Tune(x, y int, which Coefficient, v float64) error {
	if !g.inRange(x, y) {
		return outOfRange(x, y, g.n)
	}
	if err := ValidateCoefficient(which, v); err != nil {
		return err
	}
	g.mu.Lock()
	i := x + y*g.n
	g.params[i] = g.params[i].With(which, v)
	g.amp[i] = 0
	g.mu.Unlock()
	return nil
}

// Fill sets the parameter pair of every cell.
func (g *Grid) Fill(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	g.mu.Lock()
	for i := range g.params {
		g.params[i] = p
	}
	g.mu.Unlock()
	return nil
}

// FillRect sets the parameter pair of every cell in [x0,x1]×[y0,y1].
func (g *Grid) FillRect(x0, y0, x1, y1 int, p Params) error {
	if !g.inRange(x0, y0) {
		return outOfRange(x0, y0, g.n)
	}
	if !g.inRange(x1, y1) {
		return outOfRange(x1, y1, g.n)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for y := min(y0, y1); y <= max(y0, y1); y++ {
		row := g.params[y*g.n : (y+1)*g.n]
		for x := min(x0, x1); x <= max(x0, x1); x++ {
			row[x] = p
		}
	}
	return nil
}

// Zero clears the amplitude field; the medium is kept.
func (g *Grid) Zero() {
	g.mu.Lock()
	clear(g.amp)
	g.mu.Unlock()
}

// Gauss is the seeding kernel. The trailing sigma factor (instead of a
// division) is the established pulse shape and is kept as is.
func Gauss(r, sigma float64) float64 {
	return 1.0 / math.Sqrt(2*math.Pi) * sigma * math.Exp(-(r*r)/(2*sigma*sigma))
}

// AddGauss adds power·Gauss(dist((x,y),(cx,cy)), sigma) to every cell.
func (g *Grid) AddGauss(cx, cy, sigma, power float64) error {
	if !(sigma > 0) || math.IsInf(sigma, 0) || math.IsNaN(power) || math.IsInf(power, 0) {
		return fmt.Errorf("%w: gauss sigma=%g power=%g", ErrParameterBounds, sigma, power)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for y := 0; y < g.n; y++ {
		for x := 0; x < g.n; x++ {
			r := math.Hypot(cx-float64(x), cy-float64(y))
			g.amp[x+y*g.n] += Gauss(r, sigma) * power
		}
	}
	return nil
}

// CopyBand copies rows [y0, y1) of the amplitude field into amp and, when
// params is non-nil, of the parameter field into params. Rows outside the
// grid are zero-filled. Both destinations must hold (y1-y0)*N entries.
func (g *Grid) CopyBand(amp []float64, params []Params, y0, y1 int) {
	n := g.n
	g.mu.Lock()
	defer g.mu.Unlock()
	for y := y0; y < y1; y++ {
		off := (y - y0) * n
		if y < 0 || y >= n {
			clear(amp[off : off+n])
			if params != nil {
				clear(params[off : off+n])
			}
			continue
		}
		copy(amp[off:off+n], g.amp[y*n:(y+1)*n])
		if params != nil {
			copy(params[off:off+n], g.params[y*n:(y+1)*n])
		}
	}
}

// WriteRows splices whole rows starting at row y0 into the amplitude field.
func (g *Grid) WriteRows(src []float64, y0 int) error {
	n := g.n
	if len(src)%n != 0 || y0 < 0 || y0*n+len(src) > len(g.amp) {
		return fmt.Errorf("%w: %d values at row %d", ErrIndexOutOfRange, len(src), y0)
	}
	g.mu.Lock()
	copy(g.amp[y0*n:], src)
	g.mu.Unlock()
	return nil
}

// Rotate advances a triple buffer by one step: prev takes cur's amplitudes,
// cur takes next's, and next is handed the old prev storage zero-filled.
// Parameter fields stay where they are. Locks are taken prev, cur, next.
func Rotate(prev, cur, next *Grid) error {
	if prev.n != cur.n || cur.n != next.n {
		return fmt.Errorf("%w: rotate %d/%d/%d", ErrInvalidSize, prev.n, cur.n, next.n)
	}
	prev.mu.Lock()
	defer prev.mu.Unlock()
	cur.mu.Lock()
	defer cur.mu.Unlock()
	next.mu.Lock()
	defer next.mu.Unlock()

	recycled := prev.amp
	prev.amp = cur.amp
	cur.amp = next.amp
	clear(recycled)
	next.amp = recycled
	return nil
}

// Snapshot is a detached copy of a grid.
type Snapshot struct {
	Size      int
	Amplitude []float64
	Params    []Params
}

func (s Snapshot) At(x, y int) float64 { return s.Amplitude[x+y*s.Size] }

// Snapshot copies the whole grid under a single lock.
func (g *Grid) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := Snapshot{
		Size:      g.n,
		Amplitude: make([]float64, len(g.amp)),
		Params:    make([]Params, len(g.params)),
	}
	copy(s.Amplitude, g.amp)
	copy(s.Params, g.params)
	return s
}

// Amplitudes copies the amplitude field into dst, growing it if needed.
func (g *Grid) Amplitudes(dst []float64) []float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cap(dst) < len(g.amp) {
		dst = make([]float64, len(g.amp))
	}
	dst = dst[:len(g.amp)]
	copy(dst, g.amp)
	return dst
}

// String dumps one "x y value" line per cell.
func (g *Grid) String() string {
	s := g.Snapshot()
	var sb strings.Builder
	for y := 0; y < s.Size; y++ {
		for x := 0; x < s.Size; x++ {
			fmt.Fprintf(&sb, "%d %d %g\n", x, y, s.At(x, y))
		}
	}
	return sb.String()
}
