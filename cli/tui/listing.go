package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pithecene-io/ftclient/types"
)

// ListingModel is a scrollable view of a remote directory listing.
type ListingModel struct {
	listing  *types.Listing
	cursor   int
	offset   int
	height   int
	quitting bool
}

// NewListingModel creates a listing model.
func NewListingModel(l *types.Listing) ListingModel {
	return ListingModel{listing: l, height: 20}
}

// Init implements tea.Model.
func (m ListingModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ListingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// title, blank line and help take 4 rows
		m.height = max(msg.Height-4, 1)
		m.clampOffset()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.listing.Entries)-1 {
				m.cursor++
			}
		}
		m.clampOffset()
	}
	return m, nil
}

func (m *ListingModel) clampOffset() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

// Cursor returns the index of the selected entry.
func (m ListingModel) Cursor() int { return m.cursor }

// View implements tea.Model.
func (m ListingModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("%s (%d entries)", m.listing.Server, len(m.listing.Entries))))
	b.WriteString("\n")

	if len(m.listing.Entries) == 0 {
		b.WriteString(EntryStyle.Render("(empty directory)"))
		b.WriteString("\n")
	}
	end := min(m.offset+m.height, len(m.listing.Entries))
	for i := m.offset; i < end; i++ {
		if i == m.cursor {
			b.WriteString(SelectedStyle.Render("> " + m.listing.Entries[i]))
		} else {
			b.WriteString(EntryStyle.Render(" " + m.listing.Entries[i]))
		}
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render("↑/↓ move • q quit"))
	return b.String()
}
