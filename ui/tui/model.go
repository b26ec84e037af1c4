package tui

import (
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/drake/scythe/event"
	"github.com/drake/scythe/terminal"
	"github.com/drake/scythe/ui"
	"github.com/drake/scythe/ui/style"
	"github.com/drake/scythe/ui/tui/widget"
	"github.com/drake/scythe/workspace"
)

// InputMode represents the current input handling mode.
type InputMode int

const (
	ModeTerminal InputMode = iota // Keys go to the focused shell
	ModePrefix                    // Next key is a command
	ModeAI                        // Keys go to the AI prompt
	ModeMenu                      // Picker traps all keys
)

func (m InputMode) String() string {
	switch m {
	case ModePrefix:
		return "PREFIX"
	case ModeAI:
		return "AI"
	case ModeMenu:
		return "MENU"
	default:
		return "TERM"
	}
}

// Config sets the UI's geometry.
type Config struct {
	Metrics    Metrics
	PanelWidth int
	ShowPanel  bool
}

// copiedMsg reports the result of a clipboard write.
type copiedMsg struct{ err error }

// noticeTTL is how long a notice stays in the status bar.
const noticeTTL = 5 * time.Second

type clearNoticeMsg struct{ seq int }

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	// Widgets
	styles style.Styles
	status *widget.Status
	panel  *widget.AIPanel
	picker *widget.Picker[ui.MenuItem]

	// Input mode
	mode InputMode

	// Push-based state from Session
	layout  workspace.Layout
	screens map[string]terminal.Screen

	// Sizes last reported to the session per shell
	sizes map[string]size

	// Geometry
	metrics    Metrics
	panelWidth int
	showPanel  bool

	// State
	width       int
	height      int
	outbound    chan<- event.Event
	noticeSeq   int
	quitting    bool
	initialized bool
}

type size struct{ cols, rows int }

// NewModel creates a new TUI model.
func NewModel(outbound chan<- event.Event, cfg Config) *Model {
	styles := style.DefaultStyles()
	if cfg.Metrics.CellWidth <= 0 || cfg.Metrics.CellHeight <= 0 {
		cfg.Metrics = DefaultMetrics
	}
	if cfg.PanelWidth < 20 {
		cfg.PanelWidth = 36
	}
	return &Model{
		styles:     styles,
		status:     widget.NewStatus(styles),
		panel:      widget.NewAIPanel(styles),
		picker:     widget.NewPicker[ui.MenuItem](widget.PickerConfig{MaxVisible: 12}, styles),
		screens:    make(map[string]terminal.Screen),
		sizes:      make(map[string]size),
		metrics:    cfg.Metrics,
		panelWidth: cfg.PanelWidth,
		showPanel:  cfg.ShowPanel,
		outbound:   outbound,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.initialized = true
		m.syncSizes()
		return m, nil

	case ui.LayoutMsg:
		m.layout = workspace.Layout(msg)
		m.syncSizes()
		return m, nil

	case ui.ScreenMsg:
		m.screens[msg.Session] = msg.Screen
		return m, nil

	case ui.DropScreenMsg:
		delete(m.screens, string(msg))
		delete(m.sizes, string(msg))
		return m, nil

	case ui.AIMsg:
		m.panel.SetState(ui.AIState(msg))
		return m, nil

	case ui.NoticeMsg:
		return m, m.setNotice(ui.Status(msg))

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.status.SetNotice(ui.Status{})
		}
		return m, nil

	case ui.MenuMsg:
		m.openMenu(ui.Menu(msg))
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			log.Warn("clipboard write failed", "err", msg.err)
			return m, m.setNotice(ui.Status{Notice: "Copy failed: " + msg.err.Error(), Error: true})
		}
		return m, m.setNotice(ui.Status{Notice: "Answer copied"})

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)
	}

	if m.mode == ModeAI {
		return m, m.panel.Update(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case ModeMenu:
		return m.handleMenuKey(msg)
	case ModeAI:
		return m.handleAIKey(msg)
	case ModePrefix:
		return m.handlePrefixKey(msg)
	}

	if key.Matches(msg, prefixKey) {
		m.mode = ModePrefix
		return m, nil
	}
	if data := encodeKey(msg); data != "" {
		m.sendOutbound(event.Event{Type: event.UserInput, Payload: data})
	}
	return m, nil
}

func (m *Model) handlePrefixKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = ModeTerminal
	action, ok := lookupCommand(msg)
	if !ok {
		return m, nil
	}

	switch action {
	case uiLiteralPrefix:
		m.sendOutbound(event.Event{Type: event.UserInput, Payload: "\x01"})
		return m, nil
	case uiFocusAI:
		return m, m.focusAI()
	case uiTogglePanel:
		m.showPanel = !m.showPanel
		m.syncSizes()
		return m, nil
	case uiCopy:
		return m, m.copyAnswer()
	case event.ActionQuit:
		m.quitting = true
		m.control(action, "")
		return m, nil
	}

	m.control(action, "")
	return m, nil
}

func (m *Model) handleAIKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEsc:
		m.panel.Blur()
		m.mode = ModeTerminal
		return m, nil
	case msg.Type == tea.KeyEnter:
		if text := m.panel.Submit(); text != "" {
			m.control(event.ActionAsk, text)
		}
		return m, nil
	case msg.Type == tea.KeyCtrlY:
		return m, m.copyAnswer()
	case key.Matches(msg, prefixKey):
		m.panel.Blur()
		m.mode = ModePrefix
		return m, nil
	}
	return m, m.panel.Update(msg)
}

func (m *Model) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.closeMenu()
	case tea.KeyUp, tea.KeyShiftTab:
		m.picker.SelectUp()
	case tea.KeyDown, tea.KeyTab:
		m.picker.SelectDown()
	case tea.KeyEnter:
		item, ok := m.picker.Selected()
		m.closeMenu()
		if ok {
			m.control(item.Action, item.Arg)
		}
	case tea.KeyBackspace:
		m.picker.Backspace()
	case tea.KeySpace:
		m.picker.Type(" ")
	case tea.KeyRunes:
		m.picker.Type(string(msg.Runes))
	}
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	if m.mode == ModeMenu {
		m.closeMenu()
		return m, nil
	}

	switch {
	case msg.Y == 0:
		for _, z := range m.headerZones() {
			if msg.X >= z.x0 && msg.X < z.x1 {
				m.control(z.action, "")
			}
		}
		return m, nil

	case msg.Y == 1:
		for _, z := range m.tabZones() {
			if msg.X >= z.x0 && msg.X < z.x1 {
				m.control(event.ActionFocus, z.arg)
			}
		}
		return m, nil
	}

	if r, ok := m.panelRect(); ok && r.Contains(msg.X, msg.Y) {
		row := msg.Y - r.Y
		if row == widget.AISendRow && m.panel.Value() != "" {
			if text := m.panel.Submit(); text != "" {
				m.control(event.ActionAsk, text)
			}
		}
		return m, m.focusAI()
	}

	for _, p := range m.placements() {
		if p.Frame.Contains(msg.X, msg.Y) {
			if m.mode == ModeAI {
				m.panel.Blur()
			}
			m.mode = ModeTerminal
			m.control(event.ActionFocus, p.Session)
			break
		}
	}
	return m, nil
}

func (m *Model) focusAI() tea.Cmd {
	if !m.showPanel {
		m.showPanel = true
		m.syncSizes()
	}
	m.mode = ModeAI
	return m.panel.Focus()
}

func (m *Model) copyAnswer() tea.Cmd {
	text := m.panel.State().Response
	if text == "" {
		return m.setNotice(ui.Status{Notice: "Nothing to copy"})
	}
	return func() tea.Msg {
		return copiedMsg{err: clipboard.WriteAll(text)}
	}
}

func (m *Model) openMenu(menu ui.Menu) {
	if m.mode == ModeAI {
		m.panel.Blur()
	}
	m.picker.SetItems(menu.Items)
	m.picker.SetHeader(menu.Title + ": ")
	m.mode = ModeMenu
}

func (m *Model) closeMenu() {
	m.picker.Reset()
	m.mode = ModeTerminal
}

func (m *Model) setNotice(st ui.Status) tea.Cmd {
	m.noticeSeq++
	m.status.SetNotice(st)
	seq := m.noticeSeq
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}

func (m *Model) control(action, arg string) {
	m.sendOutbound(event.Event{
		Type:    event.SystemControl,
		Control: event.ControlOp{Action: action, Arg: arg},
	})
}

func (m *Model) sendOutbound(ev event.Event) {
	if m.outbound == nil {
		return
	}
	select {
	case m.outbound <- ev:
	default:
		log.Warn("ui event dropped, session lagging", "type", ev.Type)
	}
}

// syncSizes tells the session about every visible shell whose body size
// changed.
func (m *Model) syncSizes() {
	if !m.initialized {
		return
	}
	for _, p := range m.placements() {
		if p.Body.Empty() {
			continue
		}
		s := size{cols: p.Body.W, rows: p.Body.H}
		if m.sizes[p.Session] == s {
			continue
		}
		m.sizes[p.Session] = s
		m.sendOutbound(event.Event{Type: event.Resize, Session: p.Session, Cols: s.cols, Rows: s.rows})
	}
}
