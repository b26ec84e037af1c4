package automate

import (
	"errors"
	"sync"
	"time"

	"github.com/drake/scythe/pane"
)

// MockHost implements Host for testing.
type MockHost struct {
	mu sync.Mutex

	// Captured calls
	SendCalls   []string
	NotifyCalls []string
	AskCalls    []string
	SplitCalls  []pane.Orientation
	NewTabCalls int
	Scheduled   []struct {
		ID       int
		Duration time.Duration
		Repeat   bool
	}
	Cancelled     []int
	CancelAllRuns int

	ScreenText string
	SendErr    error

	nextTimerID int
}

func NewMockHost() *MockHost {
	return &MockHost{}
}

func (m *MockHost) Send(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.SendCalls = append(m.SendCalls, text)
	return nil
}

func (m *MockHost) Screen() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ScreenText
}

func (m *MockHost) Split(o pane.Orientation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SplitCalls = append(m.SplitCalls, o)
	return nil
}

func (m *MockHost) NewTab() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NewTabCalls++
	return nil
}

func (m *MockHost) Notify(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotifyCalls = append(m.NotifyCalls, text)
}

func (m *MockHost) Ask(prompt string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AskCalls = append(m.AskCalls, prompt)
}

func (m *MockHost) schedule(d time.Duration, repeat bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTimerID++
	m.Scheduled = append(m.Scheduled, struct {
		ID       int
		Duration time.Duration
		Repeat   bool
	}{m.nextTimerID, d, repeat})
	return m.nextTimerID
}

func (m *MockHost) TimerAfter(d time.Duration) int { return m.schedule(d, false) }

func (m *MockHost) TimerEvery(d time.Duration) int { return m.schedule(d, true) }

func (m *MockHost) TimerCancel(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cancelled = append(m.Cancelled, id)
}

func (m *MockHost) TimerCancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CancelAllRuns++
}

var errNoTerminal = errors.New("no focused terminal")
