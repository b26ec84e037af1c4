package session

import (
	"runtime"

	"github.com/drake/scythe/terminal"
)

// Stats holds runtime metrics for monitoring.
type Stats struct {
	Goroutines      int
	EventsProcessed uint64
	EventQueueLen   int
	EventQueueCap   int
	TimerQueueLen   int
	TimerQueueCap   int
	LayoutPushes    uint64
	DroppedEvents   uint64
	Questions       uint64

	Tabs         int
	Panes        int
	LuaCallbacks int
	ActiveTimers int
	TimersFired  uint64
	Terminals    terminal.Stats
}

// Stats returns current runtime metrics. Safe to call from any goroutine.
func (s *Session) Stats() Stats {
	return Stats{
		Goroutines:      runtime.NumGoroutine(),
		EventsProcessed: s.stats.events.Load(),
		EventQueueLen:   len(s.events),
		EventQueueCap:   cap(s.events),
		TimerQueueLen:   len(s.timerEvents),
		TimerQueueCap:   cap(s.timerEvents),
		LayoutPushes:    s.stats.pushes.Load(),
		DroppedEvents:   s.stats.dropped.Load(),
		Questions:       s.stats.asks.Load(),
		Tabs:            int(s.stats.tabs.Load()),
		Panes:           int(s.stats.panes.Load()),
		LuaCallbacks:    int(s.stats.callbacks.Load()),
		ActiveTimers:    s.timer.Active(),
		TimersFired:     s.timer.Fired(),
		Terminals:       s.terms.Stats(),
	}
}
