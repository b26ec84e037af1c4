package timer

import (
	"sync"
	"time"
)

// Event is sent when a timer fires.
type Event struct {
	ID        int
	Repeating bool
}

// Service schedules wake-ups for automation scripts. Fired timers are
// delivered as Events; the receiver looks up what to run by ID, so no
// callback ever executes on a timer goroutine.
type Service struct {
	mu      sync.Mutex
	events  chan<- Event
	timers  map[int]*entry
	nextID  int
	stopped bool
	fired   uint64
}

type entry struct {
	interval time.Duration // 0 = one-shot
	t        *time.Timer
}

// NewService creates a timer service that sends fired timer events.
func NewService(events chan<- Event) *Service {
	return &Service{
		events: events,
		timers: make(map[int]*entry),
	}
}

// After schedules a one-shot timer and returns its ID. It returns 0 once
// the service is stopped.
func (s *Service) After(d time.Duration) int {
	return s.schedule(d, 0)
}

// Every schedules a repeating timer with fixed-interval semantics.
func (s *Service) Every(d time.Duration) int {
	if d <= 0 {
		d = time.Millisecond
	}
	return s.schedule(d, d)
}

func (s *Service) schedule(d, interval time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return 0
	}
	s.nextID++
	id := s.nextID
	s.timers[id] = &entry{
		interval: interval,
		t:        time.AfterFunc(d, func() { s.fire(id) }),
	}
	return id
}

func (s *Service) fire(id int) {
	s.mu.Lock()
	e, ok := s.timers[id]
	if !ok || s.stopped {
		s.mu.Unlock()
		return
	}
	repeating := e.interval > 0
	if repeating {
		e.t = time.AfterFunc(e.interval, func() { s.fire(id) })
	} else {
		delete(s.timers, id)
	}
	s.fired++
	s.mu.Unlock()

	select {
	case s.events <- Event{ID: id, Repeating: repeating}:
	default:
		// receiver is shutting down or behind
	}
}

// Cancel stops a timer. Unknown IDs are ignored.
func (s *Service) Cancel(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.timers[id]; ok {
		e.t.Stop()
		delete(s.timers, id)
	}
}

// CancelAll stops every pending timer. Used when scripts reload.
func (s *Service) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.timers {
		e.t.Stop()
	}
	s.timers = make(map[int]*entry)
}

// Stop cancels everything and refuses new timers.
func (s *Service) Stop() {
	s.CancelAll()
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

// Active returns the number of pending timers.
func (s *Service) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Fired returns how many timer events have been delivered or attempted.
func (s *Service) Fired() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired
}
