package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drake/scythe/event"
	"github.com/drake/scythe/pane"
	"github.com/drake/scythe/terminal"
	"github.com/drake/scythe/ui"
	"github.com/drake/scythe/workspace"
)

func newTestModel(t *testing.T) (*Model, chan event.Event) {
	t.Helper()
	out := make(chan event.Event, 64)
	m := NewModel(out, Config{Metrics: DefaultMetrics, PanelWidth: 30, ShowPanel: true})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m.Update(ui.LayoutMsg(workspace.Layout{
		Tabs: []workspace.TabLayout{{
			Title: "Terminal 1",
			Focus: "b",
			Root: &workspace.LayoutNode{
				Split:       true,
				Orientation: pane.Horizontal,
				Position:    400,
				First:       &workspace.LayoutNode{Session: "a"},
				Second:      &workspace.LayoutNode{Session: "b"},
			},
		}},
	}))
	return m, out
}

func received(out chan event.Event) []event.Event {
	var evs []event.Event
	for {
		select {
		case ev := <-out:
			evs = append(evs, ev)
		default:
			return evs
		}
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func controls(evs []event.Event) []event.ControlOp {
	var ops []event.ControlOp
	for _, ev := range evs {
		if ev.Type == event.SystemControl {
			ops = append(ops, ev.Control)
		}
	}
	return ops
}

func TestLayoutReportsPaneSizes(t *testing.T) {
	_, out := newTestModel(t)

	sizes := map[string][2]int{}
	for _, ev := range received(out) {
		if ev.Type == event.Resize {
			sizes[ev.Session] = [2]int{ev.Cols, ev.Rows}
		}
	}
	// 120 wide minus a 30 cell panel and its separator leaves 89 cells.
	assert.Equal(t, [2]int{50, 26}, sizes["a"])
	assert.Equal(t, [2]int{38, 26}, sizes["b"])
}

func TestKeysGoToShellUntilPrefix(t *testing.T) {
	m, out := newTestModel(t)
	received(out)

	m.Update(runes("l"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlA})
	assert.Equal(t, ModePrefix, m.mode)
	m.Update(runes("%"))
	assert.Equal(t, ModeTerminal, m.mode)
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlA})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlA})

	evs := received(out)
	require.Len(t, evs, 4)
	assert.Equal(t, event.Event{Type: event.UserInput, Payload: "l"}, evs[0])
	assert.Equal(t, event.Event{Type: event.UserInput, Payload: "\r"}, evs[1])
	assert.Equal(t, event.ControlOp{Action: event.ActionSplitH}, evs[2].Control)
	assert.Equal(t, event.Event{Type: event.UserInput, Payload: "\x01"}, evs[3])
}

func TestMenuFiltersAndRuns(t *testing.T) {
	m, out := newTestModel(t)
	received(out)

	m.Update(ui.MenuMsg{Title: "Automate", Items: []ui.MenuItem{
		{Label: "Auto Recon", Action: event.ActionAutomate, Arg: "Auto Recon"},
		{Label: "Scan Network", Action: event.ActionAutomate, Arg: "Scan Network"},
		{Label: "Exploit Search", Action: event.ActionAutomate, Arg: "Exploit Search"},
	}})
	require.Equal(t, ModeMenu, m.mode)
	assert.Contains(t, ansi.Strip(m.View()), "Exploit Search")

	m.Update(runes("scan"))
	assert.Equal(t, 1, m.picker.Len())
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ModeTerminal, m.mode)
	assert.Equal(t, []event.ControlOp{{Action: event.ActionAutomate, Arg: "Scan Network"}}, controls(received(out)))
}

func TestMenuEscapeSendsNothing(t *testing.T) {
	m, out := newTestModel(t)
	received(out)

	m.Update(ui.MenuMsg{Title: "Session", Items: []ui.MenuItem{{Label: "Save Session", Action: event.ActionSave}}})
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, ModeTerminal, m.mode)
	assert.Empty(t, received(out))
}

func TestAIPromptSubmits(t *testing.T) {
	m, out := newTestModel(t)
	received(out)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlA})
	m.Update(runes("i"))
	require.Equal(t, ModeAI, m.mode)

	m.Update(runes("what is nmap"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, ModeTerminal, m.mode)
	assert.Equal(t, []event.ControlOp{{Action: event.ActionAsk, Arg: "what is nmap"}}, controls(received(out)))
}

func TestViewShowsPanesPanelAndStatus(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(ui.ScreenMsg{Session: "a", Screen: terminal.Screen{
		Cols: 50, Rows: 26, Lines: []string{"root@box:~# id"}, Title: "box",
	}})
	m.Update(ui.AIMsg{Model: "llama3", Response: "nmap is a network scanner"})
	m.Update(ui.NoticeMsg{Notice: "Session saved"})

	view := ansi.Strip(m.View())
	lines := strings.Split(view, "\n")
	require.Len(t, lines, 30)

	assert.Contains(t, lines[0], "New Terminal")
	assert.Contains(t, lines[0], "Automate")
	assert.Contains(t, lines[0], "Session")
	assert.Contains(t, lines[1], "Terminal 1")
	assert.Contains(t, view, "root@box:~# id")
	assert.Contains(t, view, "AI Assistant")
	assert.Contains(t, view, "nmap is a network")
	assert.Contains(t, lines[29], "TERM")
	assert.Contains(t, lines[29], "Session saved")
	for i, l := range lines {
		assert.LessOrEqual(t, ansi.StringWidth(l), 120, "line %d", i)
	}
}

func TestViewShowsPlaceholderBeforeFirstAnswer(t *testing.T) {
	m, _ := newTestModel(t)
	assert.Contains(t, ansi.Strip(m.View()), "AI Response will appear")
}

func TestMouseClicks(t *testing.T) {
	m, out := newTestModel(t)
	received(out)

	click := func(x, y int) {
		m.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	}

	click(2, 0)    // New Terminal
	click(1, 1)    // first tab
	click(10, 10)  // pane a
	click(110, 10) // AI panel

	ops := controls(received(out))
	require.Len(t, ops, 3)
	assert.Equal(t, event.ActionNewTab, ops[0].Action)
	assert.Equal(t, event.ControlOp{Action: event.ActionFocus, Arg: "b"}, ops[1])
	assert.Equal(t, event.ControlOp{Action: event.ActionFocus, Arg: "a"}, ops[2])
	assert.Equal(t, ModeAI, m.mode)
}

func TestTogglePanelResizesPanes(t *testing.T) {
	m, out := newTestModel(t)
	received(out)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlA})
	m.Update(runes("b"))

	var resized []string
	for _, ev := range received(out) {
		if ev.Type == event.Resize {
			resized = append(resized, ev.Session)
		}
	}
	assert.Equal(t, []string{"b"}, resized, "only the right pane grows")
	assert.NotContains(t, ansi.Strip(m.View()), "AI Assistant")
}
