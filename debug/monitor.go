// Package debug provides runtime monitoring and diagnostics.
package debug

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/drake/scythe/session"
)

// Enabled returns true if debug mode is active (SCYTHE_DEBUG=1).
func Enabled() bool {
	return os.Getenv("SCYTHE_DEBUG") == "1"
}

// StatsSource is anything that reports session statistics.
type StatsSource interface {
	Stats() session.Stats
}

// Monitor periodically logs session statistics when debug mode is enabled.
type Monitor struct {
	source   StatsSource
	interval time.Duration
	ctx      context.Context
	logger   *log.Logger
}

// NewMonitor creates a new monitor for the given session.
// If force is false and SCYTHE_DEBUG is not set, returns nil.
func NewMonitor(ctx context.Context, s StatsSource, logger *log.Logger, force bool) *Monitor {
	if !force && !Enabled() {
		return nil
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Monitor{
		source:   s,
		interval: 5 * time.Second,
		ctx:      ctx,
		logger:   logger.WithPrefix("monitor"),
	}
}

// Start begins the monitoring loop in a goroutine.
func (m *Monitor) Start() {
	if m == nil {
		return
	}
	go m.run()
}

func (m *Monitor) run() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Debug("started", "interval", m.interval)

	for {
		select {
		case <-m.ctx.Done():
			m.logger.Debug("stopped")
			return
		case <-ticker.C:
			m.logStats()
		}
	}
}

func (m *Monitor) logStats() {
	s := m.source.Stats()

	m.logger.Debug("stats",
		"events", s.EventsProcessed,
		"evtQ", s.EventQueueLen, "evtCap", s.EventQueueCap,
		"timerQ", s.TimerQueueLen, "timerCap", s.TimerQueueCap,
		"goroutines", s.Goroutines,
		"dropped", s.DroppedEvents,
		"pushes", s.LayoutPushes,
		"tabs", s.Tabs,
		"panes", s.Panes,
		"shells", s.Terminals.Alive,
		"spawned", s.Terminals.Spawned,
		"bytesRead", s.Terminals.BytesRead,
		"luaCallbacks", s.LuaCallbacks,
		"timers", s.ActiveTimers,
		"timersFired", s.TimersFired,
		"questions", s.Questions,
	)
}
