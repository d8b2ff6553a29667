// Package tui provides the terminal user interface for browsing the
// portfolio.
//
// The interface is built on Bubble Tea with Lipgloss styling. A root model
// owns window sizing, error display, and quitting; the element browser
// submodel does the actual work. Browsing is strictly read-only: nothing
// in this package writes to the portfolio.
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"dollhouse/internal/config"
	"dollhouse/internal/logging"
	"dollhouse/internal/portfolio"
	"dollhouse/internal/tui/browser"
	"dollhouse/internal/tui/components"
	"dollhouse/internal/tui/helpers"
)

// AppState represents the current state of the TUI application.
type AppState int

const (
	StateBrowsing AppState = iota
	StateError
	StateQuitting
)

// ErrorMsg surfaces an error in the root model's error view.
type ErrorMsg struct {
	Err error
}

// MainModel is the root model. It forwards messages to the browser and
// renders error and goodbye screens through the shared layout.
type MainModel struct {
	config *config.Config
	logger *logging.AppLogger
	state  AppState

	browser browser.Model
	layout  components.LayoutModel

	windowWidth  int
	windowHeight int

	err error
}

func NewMainModel(cfg *config.Config, p *portfolio.Portfolio, logger *logging.AppLogger) *MainModel {
	ctx := helpers.NewUIContext(0, 0, cfg, logger)
	layout := components.NewLayout(components.LayoutConfig{
		MarginX:  2,
		MarginY:  1,
		MaxWidth: 100,
	})

	return &MainModel{
		config:  cfg,
		logger:  logger,
		state:   StateBrowsing,
		browser: browser.New(p, ctx),
		layout:  layout,
	}
}

func (m *MainModel) Init() tea.Cmd {
	m.logger.Info("MainModel initialized")
	return m.browser.Init()
}

func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.layout, _ = m.layout.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.logger.Debug("window resize", "width", msg.Width, "height", msg.Height)
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		if msg.Width <= 0 || msg.Height <= 0 {
			m.logger.Warn("Invalid window dimensions received", "width", msg.Width, "height", msg.Height)
			return m, nil
		}
		return m.forwardToBrowser(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.state = StateQuitting
			return m, tea.Quit
		}

		switch m.state {
		case StateError:
			if msg.String() == "esc" {
				m.state = StateBrowsing
				m.err = nil
				m.layout = m.layout.ClearError()
			}
			return m, nil
		case StateBrowsing:
			return m.forwardToBrowser(msg)
		}
		return m, nil

	case ErrorMsg:
		m.logger.Error("Application error occurred", "error", msg.Err)
		m.err = msg.Err
		m.state = StateError
		m.layout = m.layout.SetError(msg.Err)
		return m, nil

	default:
		return m.forwardToBrowser(msg)
	}
}

func (m *MainModel) forwardToBrowser(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.browser.Update(msg)
	if b, ok := updated.(browser.Model); ok {
		m.browser = b
	}
	return m, cmd
}

func (m *MainModel) View() string {
	switch m.state {
	case StateQuitting:
		m.layout = m.layout.SetConfig(components.LayoutConfig{
			Title: "👋 Goodbye!",
		})
		return m.layout.Render("Thank you for using Dollhouse!")

	case StateError:
		m.layout = m.layout.SetConfig(components.LayoutConfig{
			Title:    "❌ Error",
			Subtitle: "Something went wrong",
			HelpText: "Press Esc to return • Ctrl+C to quit",
		})
		content := ""
		if m.err != nil {
			content = m.err.Error()
		}
		return m.layout.Render(content)

	default:
		return m.browser.View()
	}
}

// Run opens the portfolio browser in the alternate screen and blocks until
// the user quits.
func Run(cfg *config.Config, p *portfolio.Portfolio, logger *logging.AppLogger) error {
	model := NewMainModel(cfg, p, logger)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
