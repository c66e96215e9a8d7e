package viz

import "github.com/charmbracelet/lipgloss"

// Theme is a heatmap palette plus the accents drawn over it. Field values
// run from Low through Mid to High.
type Theme struct {
	Name   string
	Low    lipgloss.Color
	Mid    lipgloss.Color
	High   lipgloss.Color
	Mic    lipgloss.Color
	Cursor lipgloss.Color
	Title  lipgloss.Color
	Muted  lipgloss.Color
}

var (
	ThemeOcean = Theme{
		Name:   "ocean",
		Low:    lipgloss.Color("#001a33"),
		Mid:    lipgloss.Color("#0077be"),
		High:   lipgloss.Color("#e0f0ff"),
		Mic:    lipgloss.Color("#ffd700"),
		Cursor: lipgloss.Color("#ff4444"),
		Title:  lipgloss.Color("#00a8cc"),
		Muted:  lipgloss.Color("#4488aa"),
	}

	ThemeThermal = Theme{
		Name:   "thermal",
		Low:    lipgloss.Color("#0a0a0a"),
		Mid:    lipgloss.Color("#ff4757"),
		High:   lipgloss.Color("#feca57"),
		Mic:    lipgloss.Color("#00ffff"),
		Cursor: lipgloss.Color("#ffffff"),
		Title:  lipgloss.Color("#ff6b6b"),
		Muted:  lipgloss.Color("#8b6b8c"),
	}

	ThemeRetroGreen = Theme{
		Name:   "retro",
		Low:    lipgloss.Color("#001100"),
		Mid:    lipgloss.Color("#00cc00"),
		High:   lipgloss.Color("#88ff88"),
		Mic:    lipgloss.Color("#ffff00"),
		Cursor: lipgloss.Color("#ff0000"),
		Title:  lipgloss.Color("#00ff00"),
		Muted:  lipgloss.Color("#005500"),
	}

	ThemeMinimal = Theme{
		Name:   "minimal",
		Low:    lipgloss.Color("#000000"),
		Mid:    lipgloss.Color("#808080"),
		High:   lipgloss.Color("#ffffff"),
		Mic:    lipgloss.Color("#0088ff"),
		Cursor: lipgloss.Color("#ffaa00"),
		Title:  lipgloss.Color("#ffffff"),
		Muted:  lipgloss.Color("#888888"),
	}

	Themes = []Theme{
		ThemeOcean,
		ThemeThermal,
		ThemeRetroGreen,
		ThemeMinimal,
	}
)

// GetTheme returns a theme by name, falling back to the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func NextTheme(current Theme) Theme {
	for i, t := range Themes {
		if t.Name == current.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
