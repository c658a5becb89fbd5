package tui

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/ftclient/types"
)

// View types that support TUI mode.
const (
	ViewListing = "listing"
	ViewSummary = "summary"
)

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
	Up   key.Binding
	Down key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
}

// SupportedTUIViews returns the view types that support TUI.
func SupportedTUIViews() []string {
	return []string{ViewListing, ViewSummary}
}

// IsTUISupported reports whether viewType supports TUI mode.
func IsTUISupported(viewType string) bool {
	return slices.Contains(SupportedTUIViews(), viewType)
}

// NewModel builds the model for viewType.
func NewModel(viewType string, data any) (tea.Model, error) {
	switch viewType {
	case ViewListing:
		l, ok := data.(*types.Listing)
		if !ok {
			return nil, fmt.Errorf("listing view needs *types.Listing, got %T", data)
		}
		return NewListingModel(l), nil
	case ViewSummary:
		r, ok := data.(*types.TransferRecord)
		if !ok {
			return nil, fmt.Errorf("summary view needs *types.TransferRecord, got %T", data)
		}
		return NewSummaryModel(r), nil
	default:
		return nil, fmt.Errorf("TUI mode is not supported for %s", viewType)
	}
}

// Run starts the TUI for viewType and blocks until the user quits.
func Run(viewType string, data any) error {
	model, err := NewModel(viewType, data)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

// RenderStatic renders a view once without starting a program.
func RenderStatic(viewType string, data any) (string, error) {
	model, err := NewModel(viewType, data)
	if err != nil {
		return "", err
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View()), nil
}
