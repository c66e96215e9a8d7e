package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/wavesim/internal/audio"
	"github.com/san-kum/wavesim/internal/field"
	"github.com/san-kum/wavesim/internal/wave"
)

const historyCapacity = 240

// Status is what the live view shows about a running session.
type Status struct {
	Step    int
	State   wave.State
	Pending int
	Energy  float64
	Last    audio.Frame
	Done    bool
	Err     error
}

// Session is the run the live view drives. Every edit goes through Submit
// or MoveMic; the view never touches the grid.
type Session interface {
	Size() int
	Submit(wave.Order) error
	MoveMic(ch audio.Channel, x, y int) error
	Mic(ch audio.Channel) audio.Point
	Frames() *FrameBuffer
	Status() Status
}

type TickMsg time.Time

// Model is the bubbletea control surface of a live run.
type Model struct {
	session  Session
	heatmap  *Heatmap
	interval time.Duration

	cols, rows       int
	cursorX, cursorY int
	dropAmount       float64
	which            field.Coefficient
	staged           field.Params

	frame         Frame
	status        Status
	energyHistory []float64
	micHistory    []float64
	message       string
	showHelp      bool
}

func NewModel(s Session, medium field.Params, interval time.Duration) Model {
	n := s.Size()
	cols := min(n, 96)
	return Model{
		session:    s,
		heatmap:    NewHeatmap(Themes[0]),
		interval:   interval,
		cols:       cols,
		rows:       max(1, cols/2),
		cursorX:    n / 2,
		cursorY:    n / 2,
		dropAmount: 5,
		staged:     medium,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		n := m.session.Size()
		m.cols = max(8, min(n, msg.Width-50))
		m.rows = max(4, min(n/2, msg.Height-2))
	case TickMsg:
		m.refresh()
		if m.status.Done {
			return m, tea.Quit
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := m.session.Size()
	switch msg.String() {
	case "q", "ctrl+c":
		m.submit(wave.Quit{})
		return m, tea.Quit
	case "up", "k":
		m.cursorY = max(0, m.cursorY-1)
	case "down", "j":
		m.cursorY = min(n-1, m.cursorY+1)
	case "left", "h":
		m.cursorX = max(0, m.cursorX-1)
	case "right", "l":
		m.cursorX = min(n-1, m.cursorX+1)
	case "K":
		m.cursorY = max(0, m.cursorY-8)
	case "J":
		m.cursorY = min(n-1, m.cursorY+8)
	case "H":
		m.cursorX = max(0, m.cursorX-8)
	case "L":
		m.cursorX = min(n-1, m.cursorX+8)
	case " ", "d":
		m.submit(wave.Drop{X: m.cursorX, Y: m.cursorY, Amount: m.dropAmount})
	case "+", "=":
		m.dropAmount = min(10, m.dropAmount+0.5)
	case "-", "_":
		m.dropAmount = max(-10, m.dropAmount-0.5)
	case "tab":
		if m.which == field.Propagation {
			m.which = field.Damping
		} else {
			m.which = field.Propagation
		}
	case "]":
		m.adjustStaged(0.05)
	case "[":
		m.adjustStaged(-0.05)
	case "enter", "c":
		m.submit(m.change(m.cursorX, m.cursorY))
	case "f":
		m.fill()
	case "1":
		m.moveMic(audio.Left)
	case "2":
		m.moveMic(audio.Right)
	case "t":
		m.heatmap = NewHeatmap(NextTheme(m.heatmap.Theme()))
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) change(x, y int) wave.ChangeParameter {
	v := m.staged.C
	if m.which == field.Damping {
		v = m.staged.K
	}
	return wave.ChangeParameter{X: x, Y: y, Which: m.which, Value: v}
}

// adjustStaged moves the staged coefficient within the slider range:
// propagation in [0,1], damping in [0,2].
func (m *Model) adjustStaged(delta float64) {
	if m.which == field.Propagation {
		m.staged.C = max(0, min(1, m.staged.C+delta))
	} else {
		m.staged.K = max(0, min(2, m.staged.K+delta))
	}
}

func (m *Model) submit(o wave.Order) {
	if err := m.session.Submit(o); err != nil {
		m.message = err.Error()
		return
	}
	m.message = "queued " + o.String()
}

// fill queues the staged coefficient for every cell. Orders drain one per
// tick, so the medium changes progressively.
func (m *Model) fill() {
	n := m.session.Size()
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if err := m.session.Submit(m.change(x, y)); err != nil {
				m.message = err.Error()
				return
			}
		}
	}
	m.message = fmt.Sprintf("queued %s fill of %d cells", m.which, n*n)
}

func (m *Model) moveMic(ch audio.Channel) {
	if err := m.session.MoveMic(ch, m.cursorX, m.cursorY); err != nil {
		m.message = err.Error()
		return
	}
	m.message = fmt.Sprintf("%s mic at (%d, %d)", ch, m.cursorX, m.cursorY)
}

func (m *Model) refresh() {
	m.frame, _ = m.session.Frames().Latest()
	m.status = m.session.Status()
	m.energyHistory = appendCapped(m.energyHistory, m.status.Energy)
	m.micHistory = appendCapped(m.micHistory, float64(m.status.Last.L))
}

func appendCapped(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[len(h)-historyCapacity:]
	}
	return h
}

// rowProfile is the cursor row of the frame with its mean removed and
// microphone markers flattened.
func (m Model) rowProfile() ([]float64, float64) {
	n := m.frame.Size
	if n == 0 || m.cursorY >= n {
		return nil, 0
	}
	row := make([]float64, n)
	copy(row, m.frame.Values[m.cursorY*n:(m.cursorY+1)*n])
	mean, count := 0.0, 0
	for _, v := range row {
		if v < MicMarker {
			mean += v
			count++
		}
	}
	if count > 0 {
		mean /= float64(count)
	}
	limit := 0.0
	for i, v := range row {
		if v >= MicMarker {
			v = mean
		}
		row[i] = v - mean
		limit = max(limit, row[i], -row[i])
	}
	return row, limit
}

func (m Model) View() string {
	theme := m.heatmap.Theme()
	title := lipgloss.NewStyle().Foreground(theme.Title).Bold(true)

	var s strings.Builder
	s.WriteString(title.Render("WAVESIM") + "  " + valueStyle.Render(m.status.State.String()) + "\n\n")
	s.WriteString(labelStyle.Render("Step") + valueStyle.Render(fmt.Sprintf("%d", m.status.Step)) + "\n")
	s.WriteString(labelStyle.Render("Pending") + valueStyle.Render(fmt.Sprintf("%d", m.status.Pending)) + "\n")
	s.WriteString(labelStyle.Render("Energy") + valueStyle.Render(fmt.Sprintf("%.4f", m.status.Energy)) + "\n")
	s.WriteString(labelStyle.Render("") + Sparkline(m.energyHistory, 30) + "\n")

	if len(m.micHistory) > 1 {
		chart := asciigraph.Plot(m.micHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("left mic"))
		s.WriteString("\n" + graphStyle.Render(chart) + "\n")
	}

	if profile, limit := m.rowProfile(); profile != nil {
		c := NewCanvas(30, 2)
		c.Profile(profile, limit)
		s.WriteString("\n" + labelStyle.Render(fmt.Sprintf("Row %d", m.cursorY)) + "\n" + graphStyle.Render(c.String()))
	}

	s.WriteString("\n")
	s.WriteString(labelStyle.Render("Cursor") + valueStyle.Render(fmt.Sprintf("(%d, %d)", m.cursorX, m.cursorY)) + "\n")
	s.WriteString(labelStyle.Render("Drop") + valueStyle.Render(fmt.Sprintf("%+.1f", m.dropAmount)) + "\n")
	for _, c := range []field.Coefficient{field.Propagation, field.Damping} {
		v := m.staged.C
		if c == field.Damping {
			v = m.staged.K
		}
		line := fmt.Sprintf("%-12s%.2f", c, v)
		if c == m.which {
			s.WriteString(activeStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}
	l, r := m.session.Mic(audio.Left), m.session.Mic(audio.Right)
	s.WriteString(labelStyle.Render("Mics") + valueStyle.Render(fmt.Sprintf("L(%d,%d) R(%d,%d)", l.X, l.Y, r.X, r.Y)) + "\n")

	if m.status.Err != nil {
		s.WriteString("\n" + errorStyle.Render(m.status.Err.Error()) + "\n")
	} else if m.message != "" {
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(theme.Muted).Render(m.message) + "\n")
	}

	if m.showHelp {
		s.WriteString(helpStyle.Render(strings.Join([]string{
			"hjkl/arrows  move cursor (HJKL by 8)",
			"space/d      drop impulse",
			"+/-          drop amount",
			"tab          select coefficient",
			"[/]          adjust coefficient",
			"enter/c      apply at cursor",
			"f            apply to every cell",
			"1/2          move left/right mic",
			"t            theme",
			"q            quit",
		}, "\n")))
	} else {
		s.WriteString(helpStyle.Render("SP:Drop ENTER:Apply 1/2:Mics ?:Help Q:Quit"))
	}

	grid := m.heatmap.Render(m.frame, m.cols, m.rows, m.cursorX, m.cursorY)
	if grid == "" {
		grid = lipgloss.NewStyle().Foreground(theme.Muted).Render("waiting for first frame")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, grid, panelStyle.Render(s.String()))
}

// Run blocks until the user quits or the session finishes.
func Run(s Session, medium field.Params, interval time.Duration) error {
	_, err := tea.NewProgram(NewModel(s, medium, interval), tea.WithAltScreen()).Run()
	return err
}
