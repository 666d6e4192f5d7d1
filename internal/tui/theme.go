package tui

import "github.com/charmbracelet/lipgloss"

// Theme defines the colors of the demo list.
type Theme struct {
	Name string

	Surface     string
	SelectionBg string
	Text        string
	Muted       string
	Accent      string
	Fresh       string
	Danger      string
}

// Styles are the lipgloss styles built from a Theme.
type Styles struct {
	Row      lipgloss.Style
	Selected lipgloss.Style
	Fresh    lipgloss.Style
	Header   lipgloss.Style
	Footer   lipgloss.Style
	Error    lipgloss.Style
}

// Styles returns lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Row: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)),

		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.Text)).
			Bold(true),

		Fresh: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Fresh)),

		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true).
			Padding(0, 1),

		Footer: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 1),

		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)).
			Bold(true),
	}
}

var themes = map[string]Theme{
	"Dracula": {
		Name:        "Dracula",
		Surface:     "#44475A",
		SelectionBg: "#6272A4",
		Text:        "#F8F8F2",
		Muted:       "#6272A4",
		Accent:      "#BD93F9",
		Fresh:       "#50FA7B",
		Danger:      "#FF5555",
	},
	"Slate": {
		Name:        "Slate",
		Surface:     "#1E293B",
		SelectionBg: "#334155",
		Text:        "#E2E8F0",
		Muted:       "#64748B",
		Accent:      "#38BDF8",
		Fresh:       "#4ADE80",
		Danger:      "#F87171",
	},
}

// ThemeNames lists the built-in themes.
var ThemeNames = []string{"Dracula", "Slate"}

// GetTheme returns a theme by name, falling back to Dracula.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes["Dracula"]
}
