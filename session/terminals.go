package session

import (
	"context"

	"github.com/drake/scythe/event"
	"github.com/drake/scythe/pane"
	"github.com/drake/scythe/terminal"
)

// Terminal is a running shell as the session sees it.
type Terminal interface {
	pane.Session
	Write(p []byte) (int, error)
	Resize(cols, rows int) error
	Screen() terminal.Screen
	Text() string
}

// Terminals spawns shells for pane leaves and finds them again by ID.
type Terminals interface {
	pane.SessionProvider
	Lookup(id string) (Terminal, bool)
	Forget(id string)
	CloseAll()
	Stats() terminal.Stats
}

// Generator answers AI panel prompts. *ai.Client implements it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Prober is implemented by generators that can check the server and model
// before the first question. *ai.Client implements it.
type Prober interface {
	Available(ctx context.Context) bool
}

// ShellTerminals adapts *terminal.Provider to Terminals. SetNextDir is
// promoted so saved layouts reopen shells in their directories.
type ShellTerminals struct {
	*terminal.Provider
}

// NewShellTerminals creates a provider of real pty-backed shells.
func NewShellTerminals(cfg terminal.Config, events chan<- event.Event) Terminals {
	return ShellTerminals{Provider: terminal.NewProvider(cfg, events)}
}

// Lookup returns the live shell with the given ID.
func (p ShellTerminals) Lookup(id string) (Terminal, bool) {
	s := p.Get(id)
	if s == nil {
		return nil, false
	}
	return s, true
}
