package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const levels = 32

// Heatmap draws frames with upper half blocks: each terminal cell shows two
// vertically adjacent samples, top as foreground and bottom as background.
// Contrast is stretched to the value range of each frame.
type Heatmap struct {
	theme   Theme
	palette [levels]lipgloss.Color
	styles  map[[2]int]lipgloss.Style
}

// micLevel marks a microphone sample in the style cache.
const micLevel = -1

func NewHeatmap(theme Theme) *Heatmap {
	h := &Heatmap{theme: theme, styles: make(map[[2]int]lipgloss.Style)}
	for i := range h.palette {
		t := float64(i) / float64(levels-1)
		if t < 0.5 {
			h.palette[i] = lerpColor(theme.Low, theme.Mid, t*2)
		} else {
			h.palette[i] = lerpColor(theme.Mid, theme.High, (t-0.5)*2)
		}
	}
	return h
}

func (h *Heatmap) Theme() Theme { return h.theme }

// Color is the palette entry for a quantised level, or the microphone colour.
func (h *Heatmap) Color(level int) lipgloss.Color {
	if level == micLevel {
		return h.theme.Mic
	}
	return h.palette[level]
}

func (h *Heatmap) style(top, bottom int) lipgloss.Style {
	key := [2]int{top, bottom}
	s, ok := h.styles[key]
	if !ok {
		s = lipgloss.NewStyle().Foreground(h.Color(top)).Background(h.Color(bottom))
		h.styles[key] = s
	}
	return s
}

// Levels quantises a frame. Microphone cells map to micLevel.
func Levels(f Frame) []int {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range f.Values {
		if v >= MicMarker || math.IsNaN(v) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	span := hi - lo
	if !(span > 0) {
		span = 1
	}

	out := make([]int, len(f.Values))
	for i, v := range f.Values {
		switch {
		case v >= MicMarker:
			out[i] = micLevel
		case math.IsNaN(v):
			out[i] = 0
		default:
			out[i] = max(0, min(levels-1, int((v-lo)/span*(levels-1)+0.5)))
		}
	}
	return out
}

// Render draws f into cols×rows terminal cells. The cursor cell, when inside
// the grid, is drawn as a marker.
func (h *Heatmap) Render(f Frame, cols, rows, cursorX, cursorY int) string {
	if f.Empty() || cols <= 0 || rows <= 0 {
		return ""
	}
	lv := Levels(f)
	n := f.Size
	sample := func(col, sub int) (int, int) {
		return col * n / cols, sub * n / (rows * 2)
	}
	cursor := lipgloss.NewStyle().Foreground(h.theme.Cursor).Bold(true)
	cc, cr := -1, -1
	if cursorX >= 0 && cursorY >= 0 && cursorX < n && cursorY < n {
		cc, cr = cursorX*cols/n, cursorY*rows*2/n/2
	}

	var b strings.Builder
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if col == cc && row == cr {
				b.WriteString(cursor.Render("◆"))
				continue
			}
			x, yt := sample(col, 2*row)
			_, yb := sample(col, 2*row+1)
			b.WriteString(h.style(lv[x+yt*n], lv[x+yb*n]).Render("▀"))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
