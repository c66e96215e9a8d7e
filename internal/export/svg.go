package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/san-kum/wavesim/internal/viz"
)

// FrameToSVG draws every cell of a frame as a square, coloured with the
// heatmap palette.
func FrameToSVG(f viz.Frame, h *viz.Heatmap, scale float64) string {
	if f.Empty() {
		return ""
	}
	side := float64(f.Size) * scale
	lv := viz.Levels(f)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f" shape-rendering="crispEdges">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, side, side, side, side)

	for y := 0; y < f.Size; y++ {
		for x := 0; x < f.Size; x++ {
			fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>
`, float64(x)*scale, float64(y)*scale, scale, scale, h.Color(lv[x+y*f.Size]))
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// TraceToSVG plots the left and right microphone traces over each other.
func TraceToSVG(left, right []float64, width, height int, leftColor, rightColor string) string {
	n := min(len(left), len(right))
	if n < 2 {
		return ""
	}

	lo, hi := left[0], left[0]
	for i := 0; i < n; i++ {
		lo, hi = min(lo, left[i], right[i]), max(hi, left[i], right[i])
	}

	// Add padding
	span := hi - lo
	if span == 0 {
		span = 1
	}
	lo -= span * 0.1
	hi += span * 0.1
	span = hi - lo

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for _, ch := range []struct {
		data  []float64
		color string
	}{{left, leftColor}, {right, rightColor}} {
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, ch.color)
		for i := 0; i < n; i++ {
			x := float64(i) / float64(n-1) * float64(width)
			y := float64(height) - (ch.data[i]-lo)/span*float64(height)
			if i == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// WriteFile writes an SVG document, refusing an empty one.
func WriteFile(path, svg string) error {
	if svg == "" {
		return fmt.Errorf("export: nothing to draw")
	}
	return os.WriteFile(path, []byte(svg), 0644)
}
