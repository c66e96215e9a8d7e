package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	pickTitle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	pickSub     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	pickMarker  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	pickActive  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	pickDesc    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	pickIdle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	pickIdleDsc = lipgloss.NewStyle().Foreground(lipgloss.Color("#444455"))
	pickKey     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

type PresetInfo struct {
	Name        string
	Description string
}

type picker struct {
	items  []PresetInfo
	cursor int
	chosen string
}

func (m picker) Init() tea.Cmd { return nil }

func (m picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.items) > 0 {
			m.chosen = m.items[m.cursor].Name
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m picker) View() string {
	var b strings.Builder
	b.WriteString("\n\n    " + pickTitle.Render("WAVESIM") + "\n    " + pickSub.Render("2d wave simulation") + "\n    " + pickSub.Render("─────────────────────────") + "\n\n")
	for i, it := range m.items {
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", pickMarker.Render("▸"), pickActive.Render(fmt.Sprintf("%-10s", it.Name)), pickDesc.Render(it.Description)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", pickIdle.Render(fmt.Sprintf("  %-10s", it.Name)), pickIdleDsc.Render(it.Description)))
		}
	}
	b.WriteString("\n    " + pickKey.Render("j/k") + pickSub.Render(" navigate  ") + pickKey.Render("enter") + pickSub.Render(" start  ") + pickKey.Render("q") + pickSub.Render(" quit") + "\n")
	return b.String()
}

// PickPreset shows a menu of presets and returns the chosen name, or "" if
// the user backed out.
func PickPreset(items []PresetInfo) (string, error) {
	final, err := tea.NewProgram(picker{items: items}, tea.WithAltScreen()).Run()
	if err != nil {
		return "", err
	}
	return final.(picker).chosen, nil
}
