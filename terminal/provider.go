package terminal

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/creack/pty"
	"github.com/google/uuid"
	"github.com/hinshun/vt10x"

	"github.com/drake/scythe/event"
	"github.com/drake/scythe/pane"
)

// Config controls how shells are spawned.
type Config struct {
	Shell string   // defaults to $SHELL, then /bin/sh
	Args  []string // extra shell arguments
	Dir   string   // working directory; empty inherits ours
	Env   []string // appended to the inherited environment
	Cols  int      // initial size before the first resize
	Rows  int
	Grace time.Duration // SIGHUP to SIGKILL delay
}

// DefaultShell resolves the user's shell.
func DefaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

// Stats is a point-in-time view for the debug monitor.
type Stats struct {
	Alive     int
	Spawned   uint64
	BytesRead uint64
}

// Provider spawns and tracks shell sessions. It implements
// pane.SessionProvider.
type Provider struct {
	cfg    Config
	events chan<- event.Event

	mu       sync.Mutex
	sessions map[string]*Session
	nextDir  string

	spawned   atomic.Uint64
	bytesRead atomic.Uint64
}

// NewProvider creates a provider that reports session events on events.
// events must never block for long; the session loop feeds it into an
// unbounded buffer.
func NewProvider(cfg Config, events chan<- event.Event) *Provider {
	if cfg.Shell == "" {
		cfg.Shell = DefaultShell()
	}
	if cfg.Cols <= 0 {
		cfg.Cols = 80
	}
	if cfg.Rows <= 0 {
		cfg.Rows = 24
	}
	if cfg.Grace <= 0 {
		cfg.Grace = 2 * time.Second
	}
	return &Provider{
		cfg:      cfg,
		events:   events,
		sessions: make(map[string]*Session),
	}
}

// SetNextDir makes the next spawned shell start in dir.
func (p *Provider) SetNextDir(dir string) {
	p.mu.Lock()
	p.nextDir = dir
	p.mu.Unlock()
}

// CreateSession spawns a shell.
func (p *Provider) CreateSession() (pane.Session, error) {
	s, err := p.Spawn()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// DestroySession closes the shell and forgets it.
func (p *Provider) DestroySession(ps pane.Session) {
	if ps == nil {
		return
	}
	p.mu.Lock()
	s := p.sessions[ps.ID()]
	delete(p.sessions, ps.ID())
	p.mu.Unlock()

	if s != nil {
		s.Close()
	}
}

// Spawn starts a new shell on a fresh PTY.
func (p *Provider) Spawn() (*Session, error) {
	p.mu.Lock()
	dir := p.cfg.Dir
	if p.nextDir != "" {
		dir, p.nextDir = p.nextDir, ""
	}
	p.mu.Unlock()

	cmd := exec.Command(p.cfg.Shell, p.cfg.Args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	cmd.Env = append(cmd.Env, p.cfg.Env...)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Cols: uint16(p.cfg.Cols),
		Rows: uint16(p.cfg.Rows),
	})
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", p.cfg.Shell, err)
	}

	s := &Session{
		id:     uuid.NewString(),
		cmd:    cmd,
		ptmx:   ptmx,
		grace:  p.cfg.Grace,
		events: p.events,
		read:   &p.bytesRead,
		done:   make(chan struct{}),
		vt:     vt10x.New(vt10x.WithSize(p.cfg.Cols, p.cfg.Rows), vt10x.WithWriter(ptmx)),
	}

	p.mu.Lock()
	p.sessions[s.id] = s
	p.mu.Unlock()
	p.spawned.Add(1)

	log.Debug("shell started", "session", s.id, "pid", s.PID(), "shell", p.cfg.Shell, "dir", dir)
	go s.readLoop()
	return s, nil
}

// Get returns a live session by ID.
func (p *Provider) Get(id string) *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessions[id]
}

// Forget drops a session that exited on its own without signalling it.
func (p *Provider) Forget(id string) {
	p.mu.Lock()
	delete(p.sessions, id)
	p.mu.Unlock()
}

// CloseAll closes every tracked session.
func (p *Provider) CloseAll() {
	p.mu.Lock()
	all := make([]*Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		all = append(all, s)
	}
	p.sessions = make(map[string]*Session)
	p.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
}

// Stats reports counters for the debug monitor.
func (p *Provider) Stats() Stats {
	p.mu.Lock()
	alive := len(p.sessions)
	p.mu.Unlock()
	return Stats{
		Alive:     alive,
		Spawned:   p.spawned.Load(),
		BytesRead: p.bytesRead.Load(),
	}
}
