package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/drake/scythe/automate"
	"github.com/drake/scythe/config"
	"github.com/drake/scythe/event"
	"github.com/drake/scythe/internal/buffer"
	"github.com/drake/scythe/pane"
	"github.com/drake/scythe/terminal"
	"github.com/drake/scythe/timer"
	"github.com/drake/scythe/ui"
	"github.com/drake/scythe/workspace"
)

// Ensure Session implements automate.Host at compile time
var _ automate.Host = (*Session)(nil)

// UI is the front end the session drives. Every method may be called from
// the session loop and must not block on the UI's own goroutine.
type UI interface {
	Run() error
	Quit()
	Outbound() <-chan event.Event

	SetLayout(l workspace.Layout)
	SetScreen(id string, scr terminal.Screen)
	DropScreen(id string)
	SetAI(st ui.AIState)
	Notify(st ui.Status)
	ShowMenu(m ui.Menu)
}

// Config holds session configuration
type Config struct {
	// Terminals builds the shell provider. Nil spawns real shells from
	// Terminal.
	Terminals func(events chan<- event.Event) Terminals
	Terminal  terminal.Config
	Dividers  pane.Dividers

	AI        Generator // nil answers locally without inference
	AIModel   string
	AITimeout time.Duration

	ScriptsDir  string // user automation scripts
	LayoutPath  string // default Save/Load Session file
	StartLayout string // layout to open at startup instead of one tab
	ConfigFile  string // watched for live reload; empty disables watching

	// Overrides is applied to the config file on every reload so command
	// line flags keep winning.
	Overrides func(config.Config) config.Config
}

// Session orchestrates the workspace, the automation engine and the UI.
// All state is owned by the goroutine running processEvents.
type Session struct {
	cfg    Config
	ui     UI
	terms  Terminals
	ws     *workspace.Workspace
	layout *layoutHost
	engine *automate.Engine
	timer  *timer.Service

	// Channels
	events      chan event.Event
	termOut     <-chan event.Event
	timerEvents chan timer.Event
	watcher     *config.Watcher
	changes     <-chan config.Change

	ai       Generator
	aiState  ui.AIState
	askSeq   int
	probeSeq int

	screens map[string]bool // sessions the UI holds a screen for

	stats counters

	// Shutdown coordination
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	loopDone  chan struct{}
	closeOnce sync.Once
}

// New creates a new Session. It is passive - no goroutines start here
// except the terminal event buffer.
func New(u UI, cfg Config) *Session {
	timerEvents := make(chan timer.Event, 1024)
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		cfg:         cfg,
		ui:          u,
		timer:       timer.NewService(timerEvents),
		timerEvents: timerEvents,
		events:      make(chan event.Event, 4096),
		ai:          cfg.AI,
		screens:     make(map[string]bool),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		loopDone:    make(chan struct{}),
	}
	if s.cfg.AITimeout <= 0 {
		s.cfg.AITimeout = 2 * time.Minute
	}

	termIn, termOut := buffer.Unbounded[event.Event](256, 50000, func(n int) {
		s.stats.dropped.Store(uint64(n))
	})
	s.termOut = termOut
	if cfg.Terminals != nil {
		s.terms = cfg.Terminals(termIn)
	} else {
		s.terms = NewShellTerminals(cfg.Terminal, termIn)
	}

	s.layout = &layoutHost{}
	s.ws = workspace.New(s.terms, s.layout, cfg.Dividers)
	s.engine = automate.NewEngine(s)
	s.aiState = ui.AIState{Model: cfg.AIModel, Disabled: cfg.AI == nil}

	return s
}

// Run starts the session and blocks until exit.
func (s *Session) Run() error {
	defer s.engine.Close()

	s.boot()

	// Start event loop
	go s.processEvents()

	// Block on UI
	err := s.ui.Run()
	// Ensure shutdown of goroutines/resources when UI exits
	s.shutdown()
	<-s.loopDone
	return err
}

// boot loads scripts, opens the first tab and pushes the initial state.
func (s *Session) boot() {
	if err := s.engine.Boot(s.cfg.ScriptsDir); err != nil {
		log.Error("automation boot failed", "err", err)
		s.notifyErr("Automation: %v", err)
	}

	if s.cfg.ConfigFile != "" {
		w, err := config.Watch(s.cfg.ConfigFile, s.cfg.ScriptsDir, 0)
		if err != nil {
			log.Warn("live reload disabled", "err", err)
		} else {
			s.watcher = w
			s.changes = w.Changes()
		}
	}

	if s.cfg.StartLayout != "" {
		if err := s.ws.LoadLayout(s.cfg.StartLayout); err != nil {
			log.Warn("startup layout failed", "path", s.cfg.StartLayout, "err", err)
			s.notifyErr("Load %s: %v", s.cfg.StartLayout, err)
		}
	}
	if s.ws.Len() == 0 {
		if _, err := s.ws.NewTab(); err != nil {
			log.Error("first shell failed", "err", err)
			s.notifyErr("Cannot start shell: %v", err)
		}
	}

	s.ui.SetAI(s.aiState)
	s.probeAI()
	s.flush()
}

// processEvents is the main event loop.
func (s *Session) processEvents() {
	defer close(s.loopDone)
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.events:
			s.handleEvent(ev)
		case ev, ok := <-s.termOut:
			if !ok {
				s.termOut = nil
				continue
			}
			s.handleEvent(ev)
		case ev := <-s.ui.Outbound():
			s.handleEvent(ev)
		case evt := <-s.timerEvents:
			s.handleEvent(event.Event{Type: event.Timer, Code: evt.ID, Payload: repeatFlag(evt.Repeating)})
		case c := <-s.changes:
			s.onChange(c)
			s.flush()
		}
	}
}

func repeatFlag(repeating bool) string {
	if repeating {
		return "every"
	}
	return ""
}

// handleEvent executes a single event on the session loop and pushes the
// layout if it changed.
func (s *Session) handleEvent(ev event.Event) {
	s.stats.events.Add(1)

	switch ev.Type {
	case event.UserInput:
		t := s.focused()
		if t == nil {
			return
		}
		if _, err := t.Write([]byte(ev.Payload)); err != nil {
			log.Debug("input dropped", "session", t.ID(), "err", err)
		}

	case event.TermOutput:
		t, ok := s.terms.Lookup(ev.Session)
		if !ok {
			return
		}
		s.screens[ev.Session] = true
		s.ui.SetScreen(ev.Session, t.Screen())

	case event.TermTitle:
		s.ws.SetTitle(ev.Session, ev.Payload)
		s.layout.touch()

	case event.TermExit:
		log.Info("shell exited", "session", ev.Session, "code", ev.Code)
		if s.ws.RemoveSession(ev.Session) {
			s.notify(fmt.Sprintf("Shell exited (code %d)", ev.Code))
		}
		s.terms.Forget(ev.Session)
		if s.ws.Len() == 0 {
			s.shutdown()
			return
		}

	case event.Resize:
		if t, ok := s.terms.Lookup(ev.Session); ok {
			if err := t.Resize(ev.Cols, ev.Rows); err != nil {
				log.Debug("resize failed", "session", ev.Session, "err", err)
			}
		}

	case event.Timer:
		s.engine.OnTimer(ev.Code, ev.Payload != "")

	case event.AsyncResult:
		if ev.Callback != nil {
			ev.Callback()
		}

	case event.SystemControl:
		s.handleControl(ev.Control)
	}

	s.flush()
}

// handleControl processes system control events.
func (s *Session) handleControl(ctrl event.ControlOp) {
	switch ctrl.Action {
	case event.ActionQuit:
		s.shutdown()

	case event.ActionNewTab:
		if err := s.NewTab(); err != nil {
			s.notifyErr("New tab: %v", err)
		}

	case event.ActionCloseTab:
		if err := s.ws.CloseActive(); err != nil {
			log.Debug("close tab", "err", err)
		}
		if s.ws.Len() == 0 {
			s.shutdown()
		}

	case event.ActionNextTab:
		s.ws.NextTab()
		s.layout.touch()

	case event.ActionPrevTab:
		s.ws.PrevTab()
		s.layout.touch()

	case event.ActionSplitH:
		if err := s.Split(pane.Horizontal); err != nil {
			s.notifyErr("Split: %v", err)
		}

	case event.ActionSplitV:
		if err := s.Split(pane.Vertical); err != nil {
			s.notifyErr("Split: %v", err)
		}

	case event.ActionCollapse:
		err := s.ws.CollapseFocused()
		switch {
		case errors.Is(err, pane.ErrNothingToCollapse):
			s.notify("Nothing to collapse")
		case err != nil:
			s.notifyErr("Collapse: %v", err)
		}

	case event.ActionFocusNext:
		s.ws.FocusNext()
		s.layout.touch()

	case event.ActionFocusPrev:
		s.ws.FocusPrev()
		s.layout.touch()

	case event.ActionFocus:
		if s.ws.Focus(ctrl.Arg) {
			s.layout.touch()
		}

	case event.ActionAutomate:
		if err := s.engine.Run(ctrl.Arg); err != nil {
			log.Warn("automation failed", "action", ctrl.Arg, "err", err)
			s.notifyErr("%v", err)
		}

	case event.ActionSave:
		s.saveLayout(ctrl.Arg)

	case event.ActionLoad:
		s.loadLayout(ctrl.Arg)

	case event.ActionCloseAll:
		s.closeAll()

	case event.ActionAsk:
		s.Ask(ctrl.Arg)

	case event.ActionReload:
		s.reloadScripts()

	case event.ActionMenuAuto:
		s.ui.ShowMenu(s.automateMenu())

	case event.ActionMenuSession:
		s.ui.ShowMenu(sessionMenu())

	case event.ActionMenuPane:
		s.ui.ShowMenu(paneMenu())

	default:
		log.Warn("unknown control action", "action", ctrl.Action)
	}
}

// flush pushes the layout when the tree or focus changed since the last
// push, and drops screens of sessions that are gone.
func (s *Session) flush() {
	s.stats.callbacks.Store(int64(s.engine.PendingCallbacks()))
	if !s.layout.take() {
		return
	}
	l := s.ws.Snapshot()
	s.ui.SetLayout(l)
	s.stats.pushes.Add(1)

	live := make(map[string]bool)
	panes := 0
	for _, id := range s.ws.Sessions() {
		live[id] = true
		panes++
	}
	for id := range s.screens {
		if !live[id] {
			delete(s.screens, id)
			s.ui.DropScreen(id)
		}
	}
	s.stats.tabs.Store(int64(s.ws.Len()))
	s.stats.panes.Store(int64(panes))
}

// post enqueues ev onto the session loop unless the session is shutting
// down.
func (s *Session) post(ev event.Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// Post lets other goroutines queue work for the session loop.
func (s *Session) Post(ev event.Event) { s.post(ev) }

func (s *Session) focused() Terminal {
	id := s.ws.FocusedSession()
	if id == "" {
		return nil
	}
	t, ok := s.terms.Lookup(id)
	if !ok {
		return nil
	}
	return t
}

func (s *Session) notify(text string) {
	s.ui.Notify(ui.Status{Notice: text})
}

func (s *Session) notifyErr(format string, args ...any) {
	s.ui.Notify(ui.Status{Notice: fmt.Sprintf(format, args...), Error: true})
}

// shutdown attempts a coordinated shutdown of goroutines, timers, shells, and UI.
func (s *Session) shutdown() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.cancel()
		s.timer.Stop()
		if s.watcher != nil {
			s.watcher.Close()
		}
		s.terms.CloseAll()
		s.ui.Quit()
	})
}

// Done is closed once the session starts shutting down.
func (s *Session) Done() <-chan struct{} { return s.done }

// layoutHost follows pane tree rewrites so the session knows when the UI's
// layout is stale.
type layoutHost struct {
	dirty    bool
	attaches int
	detaches int
	replaces int
}

func (h *layoutHost) Attach(node, parent *pane.Node) {
	h.attaches++
	h.dirty = true
}

func (h *layoutHost) Detach(node *pane.Node) {
	h.detaches++
	h.dirty = true
}

func (h *layoutHost) Replace(old, replacement *pane.Node) {
	h.replaces++
	h.dirty = true
}

// touch marks the layout stale for changes the tree does not see, such as
// focus or the active tab.
func (h *layoutHost) touch() { h.dirty = true }

func (h *layoutHost) take() bool {
	d := h.dirty
	h.dirty = false
	return d
}

type counters struct {
	events    atomic.Uint64
	pushes    atomic.Uint64
	dropped   atomic.Uint64
	asks      atomic.Uint64
	tabs      atomic.Int64
	panes     atomic.Int64
	callbacks atomic.Int64
}
