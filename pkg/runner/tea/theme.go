package teaui

import "github.com/charmbracelet/lipgloss"

// Theme centralizes Lip Gloss styles for the Bubble Tea UI.
type Theme struct {
	Title    lipgloss.Style
	Status   lipgloss.Style
	Help     lipgloss.Style
	Panel    lipgloss.Style
	Dialog   lipgloss.Style
	Label    lipgloss.Style
	Focused  lipgloss.Style
	Cursor   lipgloss.Style
	Checked  lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
}

// DefaultTheme returns the built-in theme used across the UI.
func DefaultTheme() Theme {
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	return Theme{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Status: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Help:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2),
		Dialog: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("212")).
			Padding(1, 2),
		Label:    label,
		Focused:  label.Copy().Foreground(lipgloss.Color("212")).Bold(true),
		Cursor:   lipgloss.NewStyle().Foreground(lipgloss.Color("218")),
		Checked:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Selected: lipgloss.NewStyle().Reverse(true),
	}
}
