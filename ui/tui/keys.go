package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/drake/scythe/event"
)

// prefixKey starts a command, like tmux's prefix.
var prefixKey = key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "prefix"))

// command is a key pressed after the prefix.
type command struct {
	binding key.Binding
	action  string
}

// commands are the bindings available after the prefix. Actions starting
// with "ui:" are handled by the model itself.
var commands = []command{
	{key.NewBinding(key.WithKeys("t", "c"), key.WithHelp("t", "new tab")), event.ActionNewTab},
	{key.NewBinding(key.WithKeys("w", "&"), key.WithHelp("w", "close tab")), event.ActionCloseTab},
	{key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n", "next tab")), event.ActionNextTab},
	{key.NewBinding(key.WithKeys("p", "left"), key.WithHelp("p", "previous tab")), event.ActionPrevTab},
	{key.NewBinding(key.WithKeys("%", "|"), key.WithHelp("%", "split side by side")), event.ActionSplitH},
	{key.NewBinding(key.WithKeys("\"", "-"), key.WithHelp("\"", "split stacked")), event.ActionSplitV},
	{key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "collapse")), event.ActionCollapse},
	{key.NewBinding(key.WithKeys("o", "tab"), key.WithHelp("o", "next pane")), event.ActionFocusNext},
	{key.NewBinding(key.WithKeys("O", "shift+tab"), key.WithHelp("O", "previous pane")), event.ActionFocusPrev},
	{key.NewBinding(key.WithKeys("m", "a"), key.WithHelp("m", "automate")), event.ActionMenuAuto},
	{key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "session")), event.ActionMenuSession},
	{key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "pane menu")), event.ActionMenuPane},
	{key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")), event.ActionQuit},
	{key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "ask ai")), uiFocusAI},
	{key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "toggle ai panel")), uiTogglePanel},
	{key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy answer")), uiCopy},
	{key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "send ctrl+a")), uiLiteralPrefix},
}

const (
	uiFocusAI       = "ui:focus_ai"
	uiTogglePanel   = "ui:toggle_panel"
	uiCopy          = "ui:copy"
	uiLiteralPrefix = "ui:literal_prefix"
)

// lookupCommand returns the action bound to msg after the prefix.
func lookupCommand(msg tea.KeyMsg) (string, bool) {
	for _, c := range commands {
		if key.Matches(msg, c.binding) {
			return c.action, true
		}
	}
	return "", false
}

var specialKeys = map[tea.KeyType]string{
	tea.KeyUp:         "\x1b[A",
	tea.KeyDown:       "\x1b[B",
	tea.KeyRight:      "\x1b[C",
	tea.KeyLeft:       "\x1b[D",
	tea.KeyShiftUp:    "\x1b[1;2A",
	tea.KeyShiftDown:  "\x1b[1;2B",
	tea.KeyShiftRight: "\x1b[1;2C",
	tea.KeyShiftLeft:  "\x1b[1;2D",
	tea.KeyCtrlUp:     "\x1b[1;5A",
	tea.KeyCtrlDown:   "\x1b[1;5B",
	tea.KeyCtrlRight:  "\x1b[1;5C",
	tea.KeyCtrlLeft:   "\x1b[1;5D",
	tea.KeyHome:       "\x1b[H",
	tea.KeyEnd:        "\x1b[F",
	tea.KeyPgUp:       "\x1b[5~",
	tea.KeyPgDown:     "\x1b[6~",
	tea.KeyDelete:     "\x1b[3~",
	tea.KeyInsert:     "\x1b[2~",
	tea.KeyShiftTab:   "\x1b[Z",
	tea.KeySpace:      " ",
	tea.KeyF1:         "\x1bOP",
	tea.KeyF2:         "\x1bOQ",
	tea.KeyF3:         "\x1bOR",
	tea.KeyF4:         "\x1bOS",
	tea.KeyF5:         "\x1b[15~",
	tea.KeyF6:         "\x1b[17~",
	tea.KeyF7:         "\x1b[18~",
	tea.KeyF8:         "\x1b[19~",
	tea.KeyF9:         "\x1b[20~",
	tea.KeyF10:        "\x1b[21~",
	tea.KeyF11:        "\x1b[23~",
	tea.KeyF12:        "\x1b[24~",
}

// encodeKey turns a key press into the bytes a terminal would send to the
// shell. It returns "" for keys with no encoding.
func encodeKey(msg tea.KeyMsg) string {
	var s string
	switch {
	case msg.Type == tea.KeyRunes:
		s = string(msg.Runes)
		if msg.Paste {
			s = "\x1b[200~" + s + "\x1b[201~"
		}
	case msg.Type >= 0 && msg.Type <= 31, msg.Type == 127:
		// Control characters, Enter, Tab, Esc and Backspace map to their
		// own byte value.
		s = string(rune(msg.Type))
	default:
		s = specialKeys[msg.Type]
	}
	if s != "" && msg.Alt {
		s = "\x1b" + s
	}
	return s
}
