package browser

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
)

// TestBrowseAndFilterByType drives the browser end to end: initial listing,
// preview rendering, and cycling the type filter.
func TestBrowseAndFilterByType(t *testing.T) {
	p := setupTestPortfolio(t)
	m := newTestBrowser(t, p)

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 40))

	// Both elements appear in the initial listing
	waitForString(t, tm, "Creative Writer")
	waitForString(t, tm, "Code Review")

	// Cycle to the persona-only view
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	waitForString(t, tm, "type: persona")

	// Quit cleanly
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	tm.WaitFinished(t, teatest.WithFinalTimeout(time.Second*3))
}

// Helper function to wait for a specific string in the output
func waitForString(t *testing.T, tm *teatest.TestModel, s string) {
	teatest.WaitFor(
		t,
		tm.Output(),
		func(b []byte) bool {
			return strings.Contains(string(b), s)
		},
		teatest.WithCheckInterval(time.Millisecond*100),
		teatest.WithDuration(time.Second*3),
	)
}
