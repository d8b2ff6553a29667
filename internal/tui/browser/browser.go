// Package browser implements the read-only portfolio element browser: a
// filterable element list on the left and a glamour-rendered markdown
// preview on the right.
package browser

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"dollhouse/internal/elements"
	"dollhouse/internal/logging"
	"dollhouse/internal/portfolio"
	"dollhouse/internal/tui/helpers"
	"dollhouse/internal/tui/styles"
)

type KeyMap struct {
	Up           key.Binding
	Down         key.Binding
	Quit         key.Binding
	Filter       key.Binding
	NextType     key.Binding
	Quarantine   key.Binding
	ToggleFormat key.Binding
	FocusLeft    key.Binding
	FocusRight   key.Binding
}

// focusedPane identifies which pane (list or preview) has keyboard focus
type focusedPane int

const (
	focusList focusedPane = iota
	focusPreview
)

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Quit:         key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q/esc", "quit")),
		Filter:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		NextType:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "cycle type")),
		Quarantine:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "quarantined")),
		ToggleFormat: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "toggle format")),
		FocusLeft:    key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "focus list")),
		FocusRight:   key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "focus preview")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Filter, k.NextType, k.Quarantine, k.ToggleFormat, k.FocusRight, k.FocusLeft, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Filter, k.NextType, k.Quarantine, k.ToggleFormat, k.FocusRight, k.FocusLeft, k.Quit},
	}
}

// elementItem adapts an ElementInfo to the bubbles list item interface.
type elementItem struct {
	info portfolio.ElementInfo
}

func (i elementItem) Title() string {
	title := i.info.Name
	if i.info.TrustLevel == "quarantined" {
		title += " " + styles.QuarantineStyle.Render("[quarantined]")
	}
	return title
}

func (i elementItem) Description() string {
	if i.info.Description == "" {
		return string(i.info.Type)
	}
	return fmt.Sprintf("%s - %s", i.info.Type, i.info.Description)
}

func (i elementItem) FilterValue() string {
	return i.info.Name + " " + i.info.Identifier + " " + string(i.info.Type)
}

// previewKey identifies one element's rendered preview.
func (i elementItem) previewKey() string {
	return string(i.info.Type) + "/" + i.info.Identifier
}

type (
	// elementsLoadedMsg carries a fresh listing after a load or filter change
	elementsLoadedMsg struct {
		infos []portfolio.ElementInfo
	}

	loadErrorMsg struct {
		err error
	}

	// internal: sent after a debounce period to trigger preview
	debouncedPreviewMsg struct {
		key string
		seq uint64
	}

	previewReadyMsg struct {
		key     string
		content string
		seq     uint64
	}

	previewErrorMsg struct {
		key string
		err error
		seq uint64
	}
)

// Model is the element browser. It never writes to the portfolio.
type Model struct {
	logger    *logging.AppLogger
	portfolio *portfolio.Portfolio

	elementList list.Model
	viewport    viewport.Model
	keys        KeyMap
	help        help.Model

	windowWidth  int
	windowHeight int

	// typeCycle holds the type filter rotation: empty string means all
	// types, followed by each element type in display order.
	typeCycle []string
	typeIdx   int

	showQuarantined bool
	useGlamour      bool
	glamourStyle    string

	// Stale-result protection for async preview renders
	renderSeq        uint64
	pendingPreview   uint64
	displayedPreview uint64

	// rendered previews keyed by previewKey + format
	previewCache map[string]string

	debounceDuration time.Duration
	isLoading        bool
	loadErr          error

	focusPane focusedPane
}

// detectGlamourStyle attempts to detect terminal background using termenv,
// but will respect GLAMOUR_STYLE if set to a concrete value (not "auto").
// A timeout ensures we never hang on terminals that don't respond.
func detectGlamourStyle(timeout time.Duration) string {
	defaultStyle := "dark"

	style := os.Getenv("GLAMOUR_STYLE")
	if style != "" && style != "auto" {
		return style
	}

	ch := make(chan string, 1)
	go func() {
		out := termenv.NewOutput(os.Stdout)
		if out.HasDarkBackground() {
			ch <- "dark"
			return
		}
		ch <- "light"
	}()

	select {
	case s := <-ch:
		return s
	case <-time.After(timeout):
		return defaultStyle
	}
}

// New builds the browser over an open portfolio.
func New(p *portfolio.Portfolio, ctx helpers.UIContext) Model {
	elementList := list.New(nil, list.NewDefaultDelegate(), ctx.Width, ctx.Height)
	elementList.Title = "Elements"
	elementList.SetShowStatusBar(false)
	elementList.SetFilteringEnabled(true)
	elementList.SetShowHelp(false)

	vp := viewport.New(ctx.Width, ctx.Height)
	vp.MouseWheelEnabled = true

	typeCycle := []string{""}
	for _, typ := range elements.AllElementTypes() {
		typeCycle = append(typeCycle, typ.String())
	}

	// Detect the glamour style once (with timeout and env override) to
	// avoid repeated terminal queries during rendering.
	return Model{
		logger:           ctx.Logger,
		portfolio:        p,
		elementList:      elementList,
		viewport:         vp,
		keys:             DefaultKeyMap(),
		help:             help.New(),
		windowWidth:      ctx.Width,
		windowHeight:     ctx.Height,
		typeCycle:        typeCycle,
		useGlamour:       true,
		glamourStyle:     detectGlamourStyle(50 * time.Millisecond),
		previewCache:     make(map[string]string),
		debounceDuration: 150 * time.Millisecond,
		focusPane:        focusList,
	}
}

func (m Model) Init() tea.Cmd {
	return m.loadElements()
}

// currentTypeFilter returns the active type filter, empty for all types.
func (m Model) currentTypeFilter() string {
	return m.typeCycle[m.typeIdx]
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	var oldSelectedKey string
	if item, ok := m.elementList.SelectedItem().(elementItem); ok {
		oldSelectedKey = item.previewKey()
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case list.FilterMatchesMsg:
		m.elementList, cmd = m.elementList.Update(msg)
		return m, cmd

	case elementsLoadedMsg:
		items := make([]list.Item, len(msg.infos))
		for i, info := range msg.infos {
			items[i] = elementItem{info: info}
		}
		m.elementList.SetItems(items)
		m.elementList.ResetSelected()
		m.viewport.GotoTop()
		m.isLoading = false
		m.loadErr = nil

		if len(items) > 0 {
			first := items[0].(elementItem)
			cmds = append(cmds, m.schedulePreview(first.previewKey()))
		} else {
			m.viewport.SetContent("No elements to show.")
		}
		return m, tea.Batch(cmds...)

	case loadErrorMsg:
		m.isLoading = false
		m.loadErr = msg.err
		m.logger.Error("Failed to load elements", "error", msg.err)
		m.viewport.SetContent(styles.ErrorStyle.Render("Error: " + msg.err.Error()))
		return m, nil

	case debouncedPreviewMsg:
		if msg.seq != m.pendingPreview {
			return m, nil
		}
		item, ok := m.elementList.SelectedItem().(elementItem)
		if !ok || item.previewKey() != msg.key {
			return m, nil
		}
		if cached, ok := m.previewCache[m.cacheKey(msg.key)]; ok {
			m.viewport.SetContent(cached)
			return m, nil
		}
		cmd = m.renderPreview(item)
		return m, cmd

	case previewReadyMsg:
		m.previewCache[m.cacheKey(msg.key)] = msg.content

		item, ok := m.elementList.SelectedItem().(elementItem)
		if ok && item.previewKey() == msg.key && msg.seq >= m.displayedPreview {
			m.displayedPreview = msg.seq
			m.viewport.SetContent(msg.content)
			m.viewport.GotoTop()
		}
		return m, nil

	case previewErrorMsg:
		item, ok := m.elementList.SelectedItem().(elementItem)
		if ok && item.previewKey() == msg.key && msg.seq >= m.displayedPreview {
			m.displayedPreview = msg.seq
			m.logger.Error("Failed to render element preview", "key", msg.key, "error", msg.err)
			m.viewport.SetContent(fmt.Sprintf("Error reading element %s: %v", msg.key, msg.err))
		}
		return m, nil

	case tea.KeyMsg:
		// If filtering is active, ESC only exits the filter
		if msg.String() == "esc" && m.elementList.FilterState() == list.Filtering {
			m.elementList, cmd = m.elementList.Update(msg)
			return m, cmd
		}

		if key.Matches(msg, m.keys.FocusRight) {
			m.focusPane = focusPreview
			return m, nil
		}
		if key.Matches(msg, m.keys.FocusLeft) {
			m.focusPane = focusList
			return m, nil
		}

		// When the preview has focus, route scroll keys to the viewport
		if m.focusPane == focusPreview {
			switch msg.String() {
			case "up", "down", "pgup", "pgdown", "ctrl+u", "ctrl+d", "home", "end", "k", "j":
				m.viewport, cmd = m.viewport.Update(msg)
				return m, cmd
			}
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.NextType):
			if m.elementList.FilterState() == list.Filtering {
				break
			}
			m.typeIdx = (m.typeIdx + 1) % len(m.typeCycle)
			m.isLoading = true
			return m, m.loadElements()

		case key.Matches(msg, m.keys.Quarantine):
			if m.elementList.FilterState() == list.Filtering {
				break
			}
			m.showQuarantined = !m.showQuarantined
			m.isLoading = true
			return m, m.loadElements()

		case key.Matches(msg, m.keys.ToggleFormat):
			if m.elementList.FilterState() == list.Filtering {
				break
			}
			m.useGlamour = !m.useGlamour
			if item, ok := m.elementList.SelectedItem().(elementItem); ok {
				if cached, ok := m.previewCache[m.cacheKey(item.previewKey())]; ok {
					m.viewport.SetContent(cached)
					return m, nil
				}
				cmd = m.renderPreview(item)
				return m, cmd
			}
			return m, nil
		}

		// Forward everything else to the list, then react to selection moves
		prev := m.elementList.FilterState()
		m.elementList, cmd = m.elementList.Update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}

		if item, ok := m.elementList.SelectedItem().(elementItem); ok {
			newKey := item.previewKey()
			filterJustEnded := prev == list.Filtering && m.elementList.FilterState() != list.Filtering
			if (newKey != oldSelectedKey || filterJustEnded) && m.elementList.FilterState() != list.Filtering {
				if cached, ok := m.previewCache[m.cacheKey(newKey)]; ok {
					m.viewport.SetContent(cached)
					m.viewport.GotoTop()
				} else {
					cmds = append(cmds, m.schedulePreview(newKey))
				}
			}
		}
		return m, tea.Batch(cmds...)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) resize(width, height int) {
	m.windowWidth = width
	m.windowHeight = height
	m.help.Width = width

	frameW, frameH := styles.PaneStyle.GetFrameSize()
	const mainLeftMargin = 1
	avail := max(width-frameW*2-mainLeftMargin, 0)

	listWidth := avail / 3
	vpWidth := avail - listWidth
	if listWidth < 20 {
		listWidth = 20
	}
	if vpWidth < 30 {
		vpWidth = 30
	}

	headerH := lipgloss.Height(m.headerView())
	helpH := lipgloss.Height(m.helpView())
	contentHeight := max(height-headerH-helpH-frameH, 5)

	m.elementList.SetSize(listWidth, contentHeight)
	m.viewport.Width = vpWidth
	m.viewport.Height = contentHeight
}

func (m Model) View() string {
	header := m.headerView()

	listStyle := styles.PaneStyle
	vpStyle := styles.PaneStyle
	switch m.focusPane {
	case focusList:
		listStyle = styles.PaneFocusedStyle
	case focusPreview:
		vpStyle = styles.PaneFocusedStyle
	}

	listStyle = listStyle.Width(m.elementList.Width()).Height(m.elementList.Height())
	vpStyle = vpStyle.Width(m.viewport.Width).Height(m.viewport.Height)

	panes := lipgloss.JoinHorizontal(
		lipgloss.Top,
		listStyle.Render(m.elementList.View()),
		vpStyle.Render(m.viewport.View()),
	)
	panes = styles.MainContainerStyle.Render(panes)

	return lipgloss.JoinVertical(lipgloss.Left, header, panes, m.helpView())
}

func (m Model) headerView() string {
	title := styles.TitleStyle.Render("🏠 Dollhouse Portfolio")
	subtitle := styles.SubtitleStyle.Render(m.subtitleText())
	return styles.HeaderContainerStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, subtitle))
}

func (m Model) subtitleText() string {
	var parts []string
	if filter := m.currentTypeFilter(); filter != "" {
		parts = append(parts, "type: "+filter)
	} else {
		parts = append(parts, "all types")
	}
	if m.showQuarantined {
		parts = append(parts, "showing quarantined")
	}
	return "Browsing elements (" + strings.Join(parts, ", ") + ")"
}

func (m Model) helpView() string {
	return styles.HelpContainerStyle.Render(styles.HelpStyle.Render(m.help.View(m.keys)))
}

//  HELPERS / COMMANDS

func (m Model) cacheKey(previewKey string) string {
	if m.useGlamour {
		return previewKey + "|glamour"
	}
	return previewKey + "|plain"
}

func (m Model) loadElements() tea.Cmd {
	p := m.portfolio
	filter := m.currentTypeFilter()
	opts := portfolio.ListOptions{IncludeQuarantined: m.showQuarantined}

	return func() tea.Msg {
		var infos []portfolio.ElementInfo
		var err error
		if filter == "" {
			infos, err = p.ListAll(opts)
		} else {
			var typ elements.ElementType
			typ, err = elements.ParseElementType(filter)
			if err == nil {
				infos, err = p.List(typ, opts)
			}
		}
		if err != nil {
			return loadErrorMsg{err: err}
		}
		return elementsLoadedMsg{infos: infos}
	}
}

func (m *Model) schedulePreview(key string) tea.Cmd {
	m.viewport.SetContent("Loading " + key + "...")
	seq := atomic.AddUint64(&m.pendingPreview, 1)
	return tea.Tick(m.debounceDuration, func(time.Time) tea.Msg {
		return debouncedPreviewMsg{key: key, seq: seq}
	})
}

// renderPreview loads the selected element and renders its markdown. The
// sequence number lets Update discard results that arrive after the
// selection has moved on.
func (m *Model) renderPreview(item elementItem) tea.Cmd {
	seq := atomic.AddUint64(&m.renderSeq, 1)
	p := m.portfolio
	info := item.info
	key := item.previewKey()
	glamourOn := m.useGlamour
	style := m.glamourStyle
	if style == "" {
		style = "dark"
	}
	width := m.viewport.Width - 2
	if width <= 0 {
		width = 80
	}

	return func() tea.Msg {
		elem, err := p.Load(info.Type, info.Identifier)
		if err != nil {
			return previewErrorMsg{key: key, err: err, seq: seq}
		}

		md := composeMarkdown(elem, info.Identifier)
		if !glamourOn {
			return previewReadyMsg{key: key, content: md, seq: seq}
		}

		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return previewErrorMsg{key: key, err: err, seq: seq}
		}
		rendered, err := renderer.Render(md)
		if err != nil {
			return previewErrorMsg{key: key, err: err, seq: seq}
		}
		return previewReadyMsg{key: key, content: rendered, seq: seq}
	}
}

// composeMarkdown builds the preview document from element metadata and
// body.
func composeMarkdown(elem *elements.Element, identifier string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", elem.Metadata.Name)
	if elem.Metadata.Description != "" {
		fmt.Fprintf(&b, "> %s\n\n", elem.Metadata.Description)
	}
	fmt.Fprintf(&b, "`%s/%s`", elem.Type, identifier)
	if elem.Metadata.Version != "" {
		fmt.Fprintf(&b, " · v%s", elem.Metadata.Version)
	}
	if elem.Metadata.Author != "" {
		fmt.Fprintf(&b, " · by %s", elem.Metadata.Author)
	}
	b.WriteString("\n\n")
	if elem.Type == elements.ElementTypeMemory {
		fmt.Fprintf(&b, "Trust level: **%s**\n\n", elem.Metadata.TrustLevel)
	}
	b.WriteString("---\n\n")
	b.WriteString(elem.Content)
	return b.String()
}
