package tui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"dollhouse/internal/config"
	"dollhouse/internal/logging"
	"dollhouse/internal/portfolio"
)

func newTestMainModel(t *testing.T) *MainModel {
	t.Helper()

	logger, _ := logging.NewTestLogger()
	p, err := portfolio.Open(filepath.Join(t.TempDir(), "portfolio"), logger)
	if err != nil {
		t.Fatalf("portfolio.Open failed: %v", err)
	}
	t.Cleanup(func() { p.Close() })

	cfg := &config.Config{PortfolioDir: p.Dir()}
	return NewMainModel(cfg, p, logger)
}

func TestNewMainModel(t *testing.T) {
	model := newTestMainModel(t)

	if model.state != StateBrowsing {
		t.Errorf("expected initial state StateBrowsing, got %v", model.state)
	}
	if model.err != nil {
		t.Errorf("expected no initial error, got %v", model.err)
	}
}

func TestMainModelErrorState(t *testing.T) {
	model := newTestMainModel(t)
	model.windowWidth = 100
	model.windowHeight = 40

	boom := errors.New("portfolio exploded")
	updated, _ := model.Update(ErrorMsg{Err: boom})
	model = updated.(*MainModel)

	if model.state != StateError {
		t.Fatalf("expected StateError, got %v", model.state)
	}
	if !strings.Contains(model.View(), "portfolio exploded") {
		t.Error("error view should show the error message")
	}

	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyEscape})
	model = updated.(*MainModel)
	if model.state != StateBrowsing {
		t.Errorf("esc should return to browsing, got %v", model.state)
	}
	if model.err != nil {
		t.Errorf("error should be cleared after esc, got %v", model.err)
	}
}

func TestMainModelQuit(t *testing.T) {
	model := newTestMainModel(t)

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	model = updated.(*MainModel)

	if model.state != StateQuitting {
		t.Errorf("ctrl+c should quit, got state %v", model.state)
	}
	if cmd == nil {
		t.Fatal("ctrl+c should return the quit command")
	}
	if !strings.Contains(model.View(), "Goodbye") {
		t.Error("quitting view should show the goodbye message")
	}
}

func TestMainModelWindowResizeForwarded(t *testing.T) {
	model := newTestMainModel(t)

	updated, _ := model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	model = updated.(*MainModel)

	if model.windowWidth != 120 || model.windowHeight != 40 {
		t.Errorf("window dimensions not stored: %dx%d", model.windowWidth, model.windowHeight)
	}
}
