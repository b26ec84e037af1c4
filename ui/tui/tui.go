package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/drake/scythe/event"
	"github.com/drake/scythe/terminal"
	"github.com/drake/scythe/ui"
	"github.com/drake/scythe/workspace"
)

// BubbleTeaUI implements session.UI using Bubble Tea.
// It bridges the channel-based session loop with Bubble Tea's
// model/update/view event loop.
type BubbleTeaUI struct {
	program *tea.Program
	cfg     Config

	// Message queue - buffered channel drained by a single goroutine.
	// This decouples callers from tea.Program.Send() which can block.
	msgQueue chan tea.Msg

	// Outbound events from UI to Session (keys, menu picks, resizes).
	// Session reads from this channel in its event loop.
	outbound chan event.Event

	// Shutdown coordination
	mu       sync.Mutex
	done     chan struct{}
	doneOnce sync.Once
}

// NewBubbleTeaUI creates a new Bubble Tea-based UI.
func NewBubbleTeaUI(cfg Config) *BubbleTeaUI {
	return &BubbleTeaUI{
		cfg:      cfg,
		msgQueue: make(chan tea.Msg, 4096),
		outbound: make(chan event.Event, 1024),
		done:     make(chan struct{}),
	}
}

// send queues a message for delivery to the Bubble Tea program.
// Blocks until message is queued or the UI has exited.
func (b *BubbleTeaUI) send(msg tea.Msg) {
	select {
	case <-b.done:
		return
	case b.msgQueue <- msg:
	}
}

// Run starts the TUI and blocks until exit.
func (b *BubbleTeaUI) Run() error {
	model := NewModel(b.outbound, b.cfg)

	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	b.mu.Lock()
	b.program = program
	b.mu.Unlock()

	// Single goroutine drains message queue to Bubble Tea.
	// This can block on Send() without affecting producers.
	go func() {
		for {
			select {
			case <-b.done:
				return
			case msg := <-b.msgQueue:
				program.Send(msg)
			}
		}
	}()

	// Run blocks until quit
	_, err := program.Run()

	b.doneOnce.Do(func() {
		close(b.done)
	})
	return err
}

// Done returns a channel that closes when the UI exits.
func (b *BubbleTeaUI) Done() <-chan struct{} {
	return b.done
}

// Quit signals the TUI to exit.
func (b *BubbleTeaUI) Quit() {
	b.mu.Lock()
	p := b.program
	b.mu.Unlock()
	if p != nil {
		p.Quit()
	}
	b.doneOnce.Do(func() {
		close(b.done)
	})
}

// --- Push-based messages from Session to UI ---

// SetLayout replaces the tab and pane layout.
func (b *BubbleTeaUI) SetLayout(l workspace.Layout) {
	b.send(ui.LayoutMsg(l))
}

// SetScreen updates the contents of one shell.
func (b *BubbleTeaUI) SetScreen(id string, scr terminal.Screen) {
	b.send(ui.ScreenMsg{Session: id, Screen: scr})
}

// DropScreen forgets a closed shell.
func (b *BubbleTeaUI) DropScreen(id string) {
	b.send(ui.DropScreenMsg(id))
}

// SetAI updates the AI side panel.
func (b *BubbleTeaUI) SetAI(st ui.AIState) {
	b.send(ui.AIMsg(st))
}

// Notify shows a notice in the status bar.
func (b *BubbleTeaUI) Notify(st ui.Status) {
	b.send(ui.NoticeMsg(st))
}

// ShowMenu opens a picker overlay.
func (b *BubbleTeaUI) ShowMenu(m ui.Menu) {
	b.send(ui.MenuMsg(m))
}

// --- Outbound messages from UI to Session ---

// Outbound returns a channel of events from UI to Session.
// Session should read from this channel in its event loop.
func (b *BubbleTeaUI) Outbound() <-chan event.Event {
	return b.outbound
}
