package wave

import (
	"math"

	"github.com/san-kum/wavesim/internal/field"
)

// Constants are the fixed discretisation steps of a run.
type Constants struct {
	Dt float64 `yaml:"dt" json:"dt"`
	Dx float64 `yaml:"dx" json:"dx"`
}

// DefaultConstants matches a 60 Hz time step on a 0.1 spatial step.
var DefaultConstants = Constants{Dt: 1.0 / 60.0, Dx: 0.1}

// Coefficient returns dt²·c²/dx² for a cell with propagation ratio c.
func (k Constants) Coefficient(c float64) float64 {
	return (k.Dt * k.Dt) * (c * c) / (k.Dx * k.Dx)
}

// Stencil computes the next amplitude of one cell from its current value,
// previous value, four neighbours and parameter pair.
func (k Constants) Stencil(cur, prev, left, right, top, bottom float64, p field.Params) float64 {
	coef := k.Coefficient(p.C)
	damp := -p.K * k.Dt * (cur - prev)
	return 2*cur - prev + coef*(-4*cur+left+right+top+bottom) + damp
}

// updateBand writes the next state of a band into out.
//
// cur, prev and params hold rows+2 rows of width n: local row 0 is the halo
// above the band, local row rows+1 the halo below it. y0 is the global index
// of the band's first row. Cells on the grid's outer ring are not computed;
// they carry their current value forward, which is zero unless an order set it.
// It returns the number of non-finite values produced.
func updateBand(out, cur, prev []float64, params []field.Params, n, y0, rows int, k Constants) int {
	nonFinite := 0
	for ly := 1; ly <= rows; ly++ {
		y := y0 + ly - 1
		row := ly * n
		dst := out[(ly-1)*n : ly*n]
		if y == 0 || y == n-1 {
			copy(dst, cur[row:row+n])
			continue
		}
		dst[0] = cur[row]
		dst[n-1] = cur[row+n-1]
		up := row - n
		down := row + n
		for x := 1; x < n-1; x++ {
			c := cur[row+x]
			v := k.Stencil(c, prev[row+x], cur[row+x-1], cur[row+x+1], cur[up+x], cur[down+x], params[row+x])
			if math.IsNaN(v) || math.IsInf(v, 0) {
				nonFinite++
			}
			dst[x] = v
		}
	}
	return nonFinite
}
