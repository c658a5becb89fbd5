package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pithecene-io/ftclient/types"
)

// SummaryModel shows the outcome of one transfer.
type SummaryModel struct {
	record   *types.TransferRecord
	quitting bool
}

// NewSummaryModel creates a summary model.
func NewSummaryModel(r *types.TransferRecord) SummaryModel {
	return SummaryModel{record: r}
}

// Init implements tea.Model.
func (m SummaryModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m SummaryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m SummaryModel) View() string {
	if m.quitting {
		return ""
	}
	r := m.record

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Transfer"))
	b.WriteString("\n")
	row := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render(label), ValueStyle.Render(value))
	}

	row("Session:", r.SessionID)
	row("Server:", r.Server)
	row("Operation:", string(r.Operation))
	fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render("Outcome:"),
		OutcomeStyle(string(r.Outcome)).Render(string(r.Outcome)))
	if r.RemoteName != "" {
		row("Remote:", r.RemoteName)
	}
	if r.LocalName != "" {
		row("Saved as:", r.LocalName)
	}
	if len(r.Collisions) > 0 {
		row("Taken:", strings.Join(r.Collisions, ", "))
	}
	row("Bytes:", fmt.Sprintf("%d", r.Bytes))
	row("Chunks:", fmt.Sprintf("%d", r.Chunks))
	row("Duration:", fmt.Sprintf("%dms", r.DurationMs))

	return BoxStyle.Render(b.String()) + "\n" + HelpStyle.Render("Press q to quit")
}
