package analysis

import (
	"math"
	"strings"
)

// Correlation is the Pearson correlation of the two traces over their
// common length: 1 for mono, -1 for opposite phase. Flat input gives 0.
func Correlation(left, right []float64) float64 {
	n := min(len(left), len(right))
	if n == 0 {
		return 0
	}
	var ml, mr float64
	for i := 0; i < n; i++ {
		ml += left[i]
		mr += right[i]
	}
	ml /= float64(n)
	mr /= float64(n)

	var cov, vl, vr float64
	for i := 0; i < n; i++ {
		dl, dr := left[i]-ml, right[i]-mr
		cov += dl * dr
		vl += dl * dl
		vr += dr * dr
	}
	if vl == 0 || vr == 0 {
		return 0
	}
	return cov / math.Sqrt(vl*vr)
}

// StereoPortrait plots left (x axis) against right (y axis) on a
// width×height character canvas. Both axes share one symmetric scale so a
// mono signal lies on the diagonal.
func StereoPortrait(left, right []float64, width, height int) string {
	n := min(len(left), len(right))
	if n == 0 || width < 2 || height < 2 {
		return ""
	}

	limit := 0.0
	for i := 0; i < n; i++ {
		limit = math.Max(limit, math.Max(math.Abs(left[i]), math.Abs(right[i])))
	}
	if limit == 0 {
		limit = 1
	}
	limit *= 1.1

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	// points are drawn over the axes, the origin marker stays on top
	col0 := (width - 1) / 2
	row0 := (height - 1) / 2
	for row := 0; row < height; row++ {
		canvas[row][col0] = '│'
	}
	for col := 0; col < width; col++ {
		canvas[row0][col] = '─'
	}

	for i := 0; i < n; i++ {
		col := int((left[i] + limit) / (2 * limit) * float64(width-1))
		row := height - 1 - int((right[i]+limit)/(2*limit)*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}
	canvas[row0][col0] = '┼'

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
