package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/drake/scythe/event"
	"github.com/drake/scythe/pane"
	"github.com/drake/scythe/terminal"
	"github.com/drake/scythe/ui"
	"github.com/drake/scythe/workspace"
)

// mockUI records everything the session pushes.
type mockUI struct {
	mu sync.Mutex

	layouts []workspace.Layout
	screens map[string]terminal.Screen
	dropped []string
	ai      []ui.AIState
	notices []ui.Status
	menus   []ui.Menu
	quits   int

	out  chan event.Event
	quit chan struct{}
	once sync.Once
}

func newMockUI() *mockUI {
	return &mockUI{
		screens: make(map[string]terminal.Screen),
		out:     make(chan event.Event, 16),
		quit:    make(chan struct{}),
	}
}

func (m *mockUI) Run() error {
	<-m.quit
	return nil
}

func (m *mockUI) Quit() {
	m.mu.Lock()
	m.quits++
	m.mu.Unlock()
	m.once.Do(func() { close(m.quit) })
}

func (m *mockUI) Outbound() <-chan event.Event { return m.out }

func (m *mockUI) SetLayout(l workspace.Layout) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layouts = append(m.layouts, l)
}

func (m *mockUI) SetScreen(id string, scr terminal.Screen) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.screens[id] = scr
}

func (m *mockUI) DropScreen(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.screens, id)
	m.dropped = append(m.dropped, id)
}

func (m *mockUI) SetAI(st ui.AIState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ai = append(m.ai, st)
}

func (m *mockUI) Notify(st ui.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, st)
}

func (m *mockUI) ShowMenu(menu ui.Menu) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.menus = append(m.menus, menu)
}

func (m *mockUI) lastLayout() workspace.Layout {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.layouts) == 0 {
		return workspace.Layout{}
	}
	return m.layouts[len(m.layouts)-1]
}

func (m *mockUI) lastAI() ui.AIState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.ai) == 0 {
		return ui.AIState{}
	}
	return m.ai[len(m.ai)-1]
}

func (m *mockUI) lastNotice() ui.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.notices) == 0 {
		return ui.Status{}
	}
	return m.notices[len(m.notices)-1]
}

// mockTerm is a shell that records what it is sent.
type mockTerm struct {
	id      string
	dir     string
	text    string
	written []string
	cols    int
	rows    int
}

func (t *mockTerm) ID() string  { return t.id }
func (t *mockTerm) Cwd() string { return t.dir }

func (t *mockTerm) Write(p []byte) (int, error) {
	t.written = append(t.written, string(p))
	return len(p), nil
}

func (t *mockTerm) Resize(cols, rows int) error {
	if cols <= 0 || rows <= 0 {
		return errors.New("bad size")
	}
	t.cols, t.rows = cols, rows
	return nil
}

func (t *mockTerm) Screen() terminal.Screen {
	return terminal.Screen{Cols: t.cols, Rows: t.rows, Lines: strings.Split(t.text, "\n")}
}

func (t *mockTerm) Text() string { return t.text }

func (t *mockTerm) input() string { return strings.Join(t.written, "") }

// mockTerms hands out t1, t2, ... and remembers what was destroyed.
type mockTerms struct {
	n         int
	live      map[string]*mockTerm
	destroyed []string
	forgotten []string
	closedAll bool
	failNext  bool
	nextDir   string
	dirs      []string
}

func newMockTerms() *mockTerms {
	return &mockTerms{live: make(map[string]*mockTerm)}
}

func (p *mockTerms) CreateSession() (pane.Session, error) {
	if p.failNext {
		p.failNext = false
		return nil, errors.New("spawn failed")
	}
	p.n++
	t := &mockTerm{id: fmt.Sprintf("t%d", p.n), dir: p.nextDir, cols: 80, rows: 24}
	p.dirs = append(p.dirs, p.nextDir)
	p.nextDir = ""
	p.live[t.id] = t
	return t, nil
}

func (p *mockTerms) DestroySession(s pane.Session) {
	p.destroyed = append(p.destroyed, s.ID())
	delete(p.live, s.ID())
}

func (p *mockTerms) Lookup(id string) (Terminal, bool) {
	t, ok := p.live[id]
	if !ok {
		return nil, false
	}
	return t, true
}

func (p *mockTerms) Forget(id string) {
	p.forgotten = append(p.forgotten, id)
	delete(p.live, id)
}

func (p *mockTerms) CloseAll() {
	p.closedAll = true
	p.live = make(map[string]*mockTerm)
}

func (p *mockTerms) Stats() terminal.Stats {
	return terminal.Stats{Alive: len(p.live), Spawned: uint64(p.n)}
}

func (p *mockTerms) SetNextDir(dir string) { p.nextDir = dir }

func (p *mockTerms) term(id string) *mockTerm { return p.live[id] }

// echoGen answers with the prompt in upper case, or fails on "fail".
type echoGen struct{}

func (echoGen) Model() string { return "test-model" }

func (echoGen) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "fail" {
		return "", errors.New("model not loaded")
	}
	return strings.ToUpper(prompt), nil
}

// probeGen is an echoGen that also reports whether its model is served.
type probeGen struct {
	echoGen
	up bool
}

func (g probeGen) Available(ctx context.Context) bool { return g.up }
