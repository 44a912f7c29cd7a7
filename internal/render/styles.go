package render

import "github.com/charmbracelet/lipgloss"

// Styles is the palette for one theme.
type Styles struct {
	Title    lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Muted    lipgloss.Style
	Accent   lipgloss.Style
	Selected lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
}

// Theme names accepted by NewStyles.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// NewStyles returns the palette for theme. Unknown themes get the light one.
func NewStyles(theme string) Styles {
	accent, muted, value := lipgloss.Color("25"), lipgloss.Color("245"), lipgloss.Color("236")
	selFg, selBg := lipgloss.Color("231"), lipgloss.Color("25")
	if theme == ThemeDark {
		accent, muted, value = lipgloss.Color("39"), lipgloss.Color("243"), lipgloss.Color("252")
		selFg, selBg = lipgloss.Color("229"), lipgloss.Color("57")
	}
	return Styles{
		Title:    lipgloss.NewStyle().Foreground(accent).Bold(true),
		Label:    lipgloss.NewStyle().Foreground(muted),
		Value:    lipgloss.NewStyle().Foreground(value),
		Muted:    lipgloss.NewStyle().Foreground(muted).Italic(true),
		Accent:   lipgloss.NewStyle().Foreground(accent),
		Selected: lipgloss.NewStyle().Foreground(selFg).Background(selBg).Bold(true),
		Status:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
}

// Plain returns a palette that emits no escape codes.
func Plain() Styles {
	s := lipgloss.NewStyle()
	return Styles{Title: s, Label: s, Value: s, Muted: s, Accent: s, Selected: s, Status: s, Error: s}
}
