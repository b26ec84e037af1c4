package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/drake/scythe/ai"
	"github.com/drake/scythe/config"
	"github.com/drake/scythe/pane"
)

var errNoTerminal = errors.New("no focused terminal")

// --- automate.Host implementation ---

// Send types text into the focused terminal.
func (s *Session) Send(text string) error {
	t := s.focused()
	if t == nil {
		return errNoTerminal
	}
	_, err := t.Write([]byte(text))
	return err
}

// Screen returns the plain text of the focused terminal.
func (s *Session) Screen() string {
	t := s.focused()
	if t == nil {
		return ""
	}
	return t.Text()
}

// Split splits the focused pane and focuses the new shell.
func (s *Session) Split(o pane.Orientation) error {
	_, err := s.ws.SplitFocused(o)
	return err
}

// NewTab opens a tab with a fresh shell.
func (s *Session) NewTab() error {
	_, err := s.ws.NewTab()
	return err
}

// Notify shows text in the status bar.
func (s *Session) Notify(text string) { s.notify(text) }

// TimerAfter schedules a one-shot timer. Returns the timer ID.
func (s *Session) TimerAfter(d time.Duration) int { return s.timer.After(d) }

// TimerEvery schedules a repeating timer. Returns the timer ID.
func (s *Session) TimerEvery(d time.Duration) int { return s.timer.Every(d) }

// TimerCancel cancels a timer by ID.
func (s *Session) TimerCancel(id int) { s.timer.Cancel(id) }

// TimerCancelAll cancels all timers.
func (s *Session) TimerCancelAll() { s.timer.CancelAll() }

// --- layout persistence ---

func (s *Session) layoutPath(arg string) string {
	if arg != "" {
		return arg
	}
	return s.cfg.LayoutPath
}

func (s *Session) saveLayout(arg string) {
	path := s.layoutPath(arg)
	if path == "" {
		s.notifyErr("Save: no session file configured")
		return
	}
	if err := s.ws.SaveLayout(path); err != nil {
		log.Warn("save layout", "path", path, "err", err)
		s.notifyErr("Save: %v", err)
		return
	}
	log.Info("layout saved", "path", path)
	s.notify("Session saved to " + path)
}

func (s *Session) loadLayout(arg string) {
	path := s.layoutPath(arg)
	if path == "" {
		s.notifyErr("Load: no session file configured")
		return
	}
	if err := s.ws.LoadLayout(path); err != nil {
		log.Warn("load layout", "path", path, "err", err)
		s.notifyErr("Load: %v", err)
		if s.ws.Len() == 0 {
			s.reopen()
		}
		return
	}
	s.layout.touch()
	log.Info("layout loaded", "path", path, "tabs", s.ws.Len())
	s.notify("Session loaded from " + path)
}

// closeAll destroys every tab and leaves one fresh shell behind.
func (s *Session) closeAll() {
	s.ws.CloseAll()
	s.layout.touch()
	s.reopen()
	s.notify("All terminals closed")
}

func (s *Session) reopen() {
	if _, err := s.ws.NewTab(); err != nil {
		log.Error("cannot reopen shell", "err", err)
		s.notifyErr("Cannot start shell: %v", err)
		s.shutdown()
	}
}

// --- live reload ---

func (s *Session) reloadScripts() {
	if err := s.engine.Boot(s.cfg.ScriptsDir); err != nil {
		log.Error("automation reload failed", "err", err)
		s.notifyErr("Reload failed: %v", err)
		return
	}
	s.notify(fmt.Sprintf("Automation reloaded (%d actions)", len(s.engine.Actions())))
}

func (s *Session) onChange(c config.Change) {
	switch c {
	case config.ScriptsChanged:
		log.Info("automation scripts changed")
		s.reloadScripts()
	case config.ConfigChanged:
		log.Info("config changed", "path", s.cfg.ConfigFile)
		s.reloadConfig()
	}
}

// reloadConfig re-reads the AI settings. Shell and layout settings apply
// to shells opened afterwards only through a restart.
func (s *Session) reloadConfig() {
	cfg, err := config.Load(s.cfg.ConfigFile)
	if err != nil && !errors.Is(err, config.ErrUnknownKeys) {
		s.notifyErr("Config: %v", err)
		return
	}
	if err != nil {
		log.Warn("config", "err", err)
	}
	if s.cfg.Overrides != nil {
		cfg = s.cfg.Overrides(cfg)
	}

	if cfg.AI.Enabled {
		s.ai = ai.NewClient(ai.Config{
			Endpoint:  cfg.AI.Endpoint,
			Model:     cfg.AI.Model,
			Timeout:   time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
			CacheSize: cfg.AI.CacheSize,
		})
		s.cfg.AITimeout = time.Duration(cfg.AI.TimeoutSeconds) * time.Second
		s.aiState.Model = cfg.AI.Model
		s.aiState.Disabled = false
	} else {
		s.ai = nil
		s.aiState.Disabled = true
	}
	s.askSeq++ // answers from the old client are stale
	s.aiState.Pending = false
	s.aiState.Unreachable = false
	s.ui.SetAI(s.aiState)
	s.notify("Configuration reloaded")
	s.probeAI()
}
