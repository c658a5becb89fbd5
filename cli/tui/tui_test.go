package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pithecene-io/ftclient/types"
)

func TestIsTUISupported(t *testing.T) {
	tests := []struct {
		viewType string
		want     bool
	}{
		{ViewListing, true},
		{ViewSummary, true},
		{"version", false},
		{"get", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.viewType, func(t *testing.T) {
			if got := IsTUISupported(tt.viewType); got != tt.want {
				t.Errorf("IsTUISupported(%q) = %v, want %v", tt.viewType, got, tt.want)
			}
		})
	}
}

func TestRun_UnsupportedViewType(t *testing.T) {
	if err := Run("version", nil); err == nil {
		t.Error("expected error for unsupported view type")
	}
}

func TestNewModel_WrongPayload(t *testing.T) {
	if _, err := NewModel(ViewListing, &types.TransferRecord{}); err == nil {
		t.Error("expected error for mismatched payload")
	}
	if _, err := NewModel(ViewSummary, &types.Listing{}); err == nil {
		t.Error("expected error for mismatched payload")
	}
}

func TestListingModel_Navigation(t *testing.T) {
	l := types.NewListing("flip1:30020", "id", "a.txt\nb.txt\nc.txt\n")
	var m tea.Model = NewListingModel(l)

	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 6})
	down := tea.KeyMsg{Type: tea.KeyDown}
	for range 5 {
		m, _ = m.Update(down)
	}
	if got := m.(ListingModel).Cursor(); got != 2 {
		t.Errorf("cursor = %d, want 2 (clamped to last entry)", got)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if got := m.(ListingModel).Cursor(); got != 1 {
		t.Errorf("cursor = %d, want 1", got)
	}

	view := m.View()
	if !strings.Contains(view, "b.txt") || !strings.Contains(view, "3 entries") {
		t.Errorf("view missing content: %s", view)
	}
}

func TestListingModel_Quit(t *testing.T) {
	m := NewListingModel(types.NewListing("s", "id", "a.txt\n"))
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if next.View() != "" {
		t.Error("view should be empty after quitting")
	}
}

func TestRenderStatic_Summary(t *testing.T) {
	out, err := RenderStatic(ViewSummary, &types.TransferRecord{
		SessionID:  "id-1",
		Server:     "flip1:30020",
		Operation:  types.OpGet,
		Outcome:    types.OutcomeReceived,
		RemoteName: "report.txt",
		LocalName:  "report_new.txt",
		Collisions: []string{"report.txt"},
		Bytes:      11,
	})
	if err != nil {
		t.Fatalf("RenderStatic failed: %v", err)
	}
	for _, want := range []string{"report_new.txt", "received", "flip1:30020"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRenderStatic_EmptyListing(t *testing.T) {
	out, err := RenderStatic(ViewListing, types.NewListing("s", "id", ""))
	if err != nil {
		t.Fatalf("RenderStatic failed: %v", err)
	}
	if !strings.Contains(out, "(empty directory)") {
		t.Errorf("expected empty marker:\n%s", out)
	}
}
