package automate

import (
	"time"

	"github.com/drake/scythe/pane"
)

// Host is what scripts can reach. The session implements it; tests use a
// mock. Every method is called on the session loop.
type Host interface {
	// Terminal
	Send(text string) error // type into the focused terminal
	Screen() string         // plain text of the focused terminal

	// Layout
	Split(o pane.Orientation) error
	NewTab() error

	// Feedback
	Notify(text string)
	Ask(prompt string)

	// Timers - the timer service owns IDs, scheduling and cancellation
	TimerAfter(d time.Duration) int
	TimerEvery(d time.Duration) int
	TimerCancel(id int)
	TimerCancelAll()
}
