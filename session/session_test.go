package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drake/scythe/event"
	"github.com/drake/scythe/pane"
	"github.com/drake/scythe/ui"
)

func newTestSession(t *testing.T, gen Generator) (*Session, *mockUI, *mockTerms) {
	t.Helper()
	u := newMockUI()
	terms := newMockTerms()
	s := New(u, Config{
		Terminals:  func(chan<- event.Event) Terminals { return terms },
		AI:         gen,
		AIModel:    "test-model",
		AITimeout:  time.Second,
		LayoutPath: filepath.Join(t.TempDir(), "session.yaml"),
	})
	s.boot()
	t.Cleanup(func() {
		s.shutdown()
		s.engine.Close()
	})
	return s, u, terms
}

func control(action, arg string) event.Event {
	return event.Event{Type: event.SystemControl, Control: event.ControlOp{Action: action, Arg: arg}}
}

// drain runs queued session events until want have been handled.
func drain(t *testing.T, s *Session, want int) {
	t.Helper()
	for i := 0; i < want; i++ {
		select {
		case ev := <-s.events:
			s.handleEvent(ev)
		case <-time.After(2 * time.Second):
			t.Fatalf("event %d of %d never arrived", i+1, want)
		}
	}
}

func TestBootOpensOneShell(t *testing.T) {
	s, u, _ := newTestSession(t, nil)

	l := u.lastLayout()
	require.Len(t, l.Tabs, 1)
	assert.Equal(t, "Terminal 1", l.Tabs[0].Title)
	assert.Equal(t, "t1", l.Tabs[0].Root.Session)
	assert.Equal(t, "t1", l.Tabs[0].Focus)

	assert.True(t, u.lastAI().Disabled)
	assert.NotEmpty(t, s.engine.Actions())
}

func TestSplitThenCollapseKeepsFocusedShell(t *testing.T) {
	s, u, terms := newTestSession(t, nil)

	s.handleEvent(event.Event{Type: event.TermOutput, Session: "t1"})
	s.handleEvent(control(event.ActionSplitH, ""))

	root := u.lastLayout().Tabs[0].Root
	require.True(t, root.Split)
	assert.Equal(t, pane.Horizontal, root.Orientation)
	assert.Equal(t, 400, root.Position)
	assert.Equal(t, "t1", root.First.Session)
	assert.Equal(t, "t2", root.Second.Session)
	assert.Equal(t, "t2", u.lastLayout().Tabs[0].Focus)

	s.handleEvent(control(event.ActionCollapse, ""))

	root = u.lastLayout().Tabs[0].Root
	assert.False(t, root.Split)
	assert.Equal(t, "t2", root.Session)
	assert.Equal(t, []string{"t1"}, terms.destroyed)
	assert.Contains(t, u.dropped, "t1")

	s.handleEvent(control(event.ActionCollapse, ""))
	assert.Equal(t, "Nothing to collapse", u.lastNotice().Notice)
}

func TestVerticalSplitUsesVerticalDivider(t *testing.T) {
	s, u, _ := newTestSession(t, nil)

	s.handleEvent(control(event.ActionSplitV, ""))

	root := u.lastLayout().Tabs[0].Root
	require.True(t, root.Split)
	assert.Equal(t, pane.Vertical, root.Orientation)
	assert.Equal(t, 300, root.Position)
}

func TestUserInputGoesToFocusedShell(t *testing.T) {
	s, _, terms := newTestSession(t, nil)

	s.handleEvent(event.Event{Type: event.UserInput, Payload: "ls\r"})
	s.handleEvent(control(event.ActionSplitV, ""))
	s.handleEvent(event.Event{Type: event.UserInput, Payload: "pwd\r"})
	s.handleEvent(control(event.ActionFocusNext, ""))
	s.handleEvent(event.Event{Type: event.UserInput, Payload: "id\r"})

	assert.Equal(t, "ls\rid\r", terms.term("t1").input())
	assert.Equal(t, "pwd\r", terms.term("t2").input())
}

func TestOutputPushesScreen(t *testing.T) {
	s, u, terms := newTestSession(t, nil)
	terms.term("t1").text = "$ whoami\nroot"

	s.handleEvent(event.Event{Type: event.TermOutput, Session: "t1"})
	s.handleEvent(event.Event{Type: event.TermOutput, Session: "gone"})

	require.Contains(t, u.screens, "t1")
	assert.Equal(t, []string{"$ whoami", "root"}, u.screens["t1"].Lines)
	assert.NotContains(t, u.screens, "gone")
}

func TestResizeReachesShell(t *testing.T) {
	s, _, terms := newTestSession(t, nil)

	s.handleEvent(event.Event{Type: event.Resize, Session: "t1", Cols: 100, Rows: 30})
	s.handleEvent(event.Event{Type: event.Resize, Session: "t1", Cols: 0, Rows: 30})

	assert.Equal(t, 100, terms.term("t1").cols)
	assert.Equal(t, 30, terms.term("t1").rows)
}

func TestTitleRenamesTab(t *testing.T) {
	s, u, _ := newTestSession(t, nil)

	s.handleEvent(event.Event{Type: event.TermTitle, Session: "t1", Payload: "root@kali: ~"})

	assert.Equal(t, "root@kali: ~", u.lastLayout().Tabs[0].Title)
}

func TestShellExitCollapsesThenQuits(t *testing.T) {
	s, u, terms := newTestSession(t, nil)
	s.handleEvent(control(event.ActionSplitH, ""))

	s.handleEvent(event.Event{Type: event.TermExit, Session: "t2", Code: 0})

	root := u.lastLayout().Tabs[0].Root
	assert.Equal(t, "t1", root.Session)
	assert.Equal(t, "t1", u.lastLayout().Tabs[0].Focus)
	assert.Equal(t, "Shell exited (code 0)", u.lastNotice().Notice)
	assert.Contains(t, terms.forgotten, "t2")

	s.handleEvent(event.Event{Type: event.TermExit, Session: "t1", Code: 1})
	assert.Equal(t, 0, s.ws.Len())
	assert.Equal(t, 1, u.quits)
	assert.True(t, terms.closedAll)
}

func TestTabsOpenCycleAndClose(t *testing.T) {
	s, u, _ := newTestSession(t, nil)

	s.handleEvent(control(event.ActionNewTab, ""))
	l := u.lastLayout()
	require.Len(t, l.Tabs, 2)
	assert.Equal(t, 1, l.Active)

	s.handleEvent(control(event.ActionNextTab, ""))
	assert.Equal(t, 0, u.lastLayout().Active)
	s.handleEvent(control(event.ActionPrevTab, ""))
	assert.Equal(t, 1, u.lastLayout().Active)

	s.handleEvent(control(event.ActionCloseTab, ""))
	assert.Len(t, u.lastLayout().Tabs, 1)
	assert.Equal(t, 0, u.quits)

	s.handleEvent(control(event.ActionCloseTab, ""))
	assert.Equal(t, 1, u.quits)
}

func TestNewTabFailureIsReported(t *testing.T) {
	s, u, terms := newTestSession(t, nil)
	terms.failNext = true

	s.handleEvent(control(event.ActionNewTab, ""))

	assert.True(t, u.lastNotice().Error)
	assert.Contains(t, u.lastNotice().Notice, "spawn failed")
	assert.Len(t, u.lastLayout().Tabs, 1)
}

func TestFocusBySession(t *testing.T) {
	s, u, _ := newTestSession(t, nil)
	s.handleEvent(control(event.ActionSplitH, ""))

	s.handleEvent(control(event.ActionFocus, "t1"))

	assert.Equal(t, "t1", u.lastLayout().Tabs[0].Focus)
}

func TestCloseAllLeavesOneFreshShell(t *testing.T) {
	s, u, terms := newTestSession(t, nil)
	s.handleEvent(control(event.ActionSplitH, ""))
	s.handleEvent(control(event.ActionNewTab, ""))

	s.handleEvent(control(event.ActionCloseAll, ""))

	l := u.lastLayout()
	require.Len(t, l.Tabs, 1)
	assert.Equal(t, "t4", l.Tabs[0].Root.Session)
	assert.ElementsMatch(t, []string{"t1", "t2", "t3"}, terms.destroyed)
	assert.Equal(t, "All terminals closed", u.lastNotice().Notice)
}

func TestSaveAndLoadSession(t *testing.T) {
	s, u, terms := newTestSession(t, nil)
	terms.term("t1").dir = "/tmp"
	s.handleEvent(control(event.ActionSplitV, ""))
	terms.term("t2").dir = "/var"

	s.handleEvent(control(event.ActionSave, ""))
	assert.Equal(t, "Session saved to "+s.cfg.LayoutPath, u.lastNotice().Notice)

	s.handleEvent(control(event.ActionCloseAll, ""))
	s.handleEvent(control(event.ActionLoad, ""))

	assert.Equal(t, "Session loaded from "+s.cfg.LayoutPath, u.lastNotice().Notice)
	root := u.lastLayout().Tabs[0].Root
	require.True(t, root.Split)
	assert.Equal(t, pane.Vertical, root.Orientation)
	assert.Equal(t, []string{"/tmp", "/var"}, terms.dirs[len(terms.dirs)-2:])
}

func TestLoadMissingSessionKeepsTabs(t *testing.T) {
	s, u, _ := newTestSession(t, nil)

	s.handleEvent(control(event.ActionLoad, filepath.Join(t.TempDir(), "none.yaml")))

	assert.True(t, u.lastNotice().Error)
	assert.GreaterOrEqual(t, s.ws.Len(), 1)
}

func TestAskWithoutInferenceEchoes(t *testing.T) {
	s, u, _ := newTestSession(t, nil)

	s.handleEvent(control(event.ActionAsk, "  what is nmap?  "))
	s.handleEvent(control(event.ActionAsk, "   "))

	st := u.lastAI()
	assert.Equal(t, "what is nmap?", st.Prompt)
	assert.Equal(t, "AI Response: what is nmap?", st.Response)
	assert.False(t, st.Pending)
}

func TestAskShowsOnlyNewestAnswer(t *testing.T) {
	s, u, _ := newTestSession(t, echoGen{})

	s.handleEvent(control(event.ActionAsk, "one"))
	assert.True(t, u.lastAI().Pending)
	s.handleEvent(control(event.ActionAsk, "two"))
	drain(t, s, 2)

	st := u.lastAI()
	assert.False(t, st.Pending)
	assert.Equal(t, "two", st.Prompt)
	assert.Equal(t, "TWO", st.Response)
	assert.Equal(t, uint64(2), s.Stats().Questions)
}

func TestAskReportsInferenceErrors(t *testing.T) {
	s, u, _ := newTestSession(t, echoGen{})

	s.handleEvent(control(event.ActionAsk, "fail"))
	drain(t, s, 1)

	st := u.lastAI()
	assert.False(t, st.Pending)
	assert.Equal(t, "model not loaded", st.Err)
}

func TestAutomateMenuRunsAction(t *testing.T) {
	s, u, terms := newTestSession(t, nil)

	s.handleEvent(control(event.ActionMenuAuto, ""))
	require.Len(t, u.menus, 1)
	menu := u.menus[0]
	assert.Equal(t, "Automate", menu.Title)

	var recon ui.MenuItem
	for _, it := range menu.Items {
		if it.Label == "Auto Recon" {
			recon = it
		}
	}
	require.Equal(t, event.ActionAutomate, recon.Action)

	s.handleEvent(control(recon.Action, recon.Arg))
	assert.Equal(t, "whoami; hostname; uname -a\r", terms.term("t1").input())

	s.handleEvent(control(event.ActionAutomate, "No Such Thing"))
	assert.True(t, u.lastNotice().Error)
}

func TestScriptTimerFiresOnLoop(t *testing.T) {
	s, _, terms := newTestSession(t, nil)
	require.NoError(t, s.engine.DoString("tick.lua", `scythe.after(10, function() scythe.send("tick") end)`))

	select {
	case evt := <-s.timerEvents:
		s.handleEvent(event.Event{Type: event.Timer, Code: evt.ID, Payload: repeatFlag(evt.Repeating)})
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
	assert.Equal(t, "tick", terms.term("t1").input())
}

func TestScriptSplitsAreShown(t *testing.T) {
	s, u, terms := newTestSession(t, nil)

	s.handleEvent(control(event.ActionAutomate, "Scan Network"))

	root := u.lastLayout().Tabs[0].Root
	require.True(t, root.Split)
	assert.Equal(t, pane.Vertical, root.Orientation)
	assert.Contains(t, terms.term("t2").input(), "ip route")
}

func TestSessionAndPaneMenus(t *testing.T) {
	s, u, _ := newTestSession(t, nil)

	s.handleEvent(control(event.ActionMenuSession, ""))
	s.handleEvent(control(event.ActionMenuPane, ""))

	require.Len(t, u.menus, 2)
	assert.Equal(t, "Session", u.menus[0].Title)
	assert.Equal(t, event.ActionSave, u.menus[0].Items[0].Action)
	assert.Equal(t, event.ActionSplitH, u.menus[1].Items[0].Action)
}

func TestRunStopsOnQuit(t *testing.T) {
	u := newMockUI()
	terms := newMockTerms()
	s := New(u, Config{Terminals: func(chan<- event.Event) Terminals { return terms }})

	errc := make(chan error, 1)
	go func() { errc <- s.Run() }()
	u.out <- control(event.ActionQuit, "")

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.True(t, terms.closedAll)
	assert.Equal(t, 1, u.quits)
}
