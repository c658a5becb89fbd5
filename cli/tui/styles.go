// Package tui provides Bubble Tea views for the ftclient CLI.
//
// TUI is opt-in (--tui) and read-only. Views render the same payloads as the
// non-TUI output; there is no TUI-exclusive data.
package tui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	primaryColor = lipgloss.Color("#7C3AED") // Purple
	successColor = lipgloss.Color("#10B981") // Green
	warningColor = lipgloss.Color("#F59E0B") // Amber
	errorColor   = lipgloss.Color("#EF4444") // Red
	mutedColor   = lipgloss.Color("#6B7280") // Gray
)

// Styles for TUI components.
var (
	// TitleStyle for headers and titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	// LabelStyle for field labels.
	LabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(14)

	// ValueStyle for field values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	// EntryStyle for listing entries.
	EntryStyle = lipgloss.NewStyle().PaddingLeft(2)

	// SelectedStyle for the entry under the cursor.
	SelectedStyle = lipgloss.NewStyle().
			PaddingLeft(1).
			Foreground(primaryColor).
			Bold(true)

	// BoxStyle for bordered containers.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(1, 2)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)
)

// OutcomeStyle returns a style for a session outcome.
func OutcomeStyle(outcome string) lipgloss.Style {
	switch outcome {
	case "listed", "received":
		return lipgloss.NewStyle().Foreground(successColor)
	case "rejected", "not_found":
		return lipgloss.NewStyle().Foreground(warningColor)
	case "failed":
		return lipgloss.NewStyle().Foreground(errorColor)
	default:
		return ValueStyle
	}
}
