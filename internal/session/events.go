package session

import (
	"sync"
	"time"
)

// Event types emitted on the session stream.
const (
	EventGoalAssigned     = "goal_assigned"
	EventGoalReached      = "goal_reached"
	EventGoalAbandoned    = "goal_abandoned"
	EventAttempt          = "attempt"
	EventStuck            = "stuck"
	EventProbeSent        = "probe_sent"
	EventProgramModified  = "program_modified"
	EventDifficultyChange = "difficulty_change"
	EventVMError          = "vm_error"
)

// Event is one observable session occurrence, shaped for JSON transport.
type Event struct {
	Type    string         `json:"type"`
	Time    time.Time      `json:"time"`
	Payload map[string]any `json:"payload,omitempty"`
}

// eventHub is a buffered, lossy fan-out point: slow consumers drop events
// rather than stalling the session.
type eventHub struct {
	ch      chan Event
	mu      sync.Mutex
	closed  bool
	dropped int
}

const eventBuffer = 128

func newEventHub() *eventHub {
	return &eventHub{ch: make(chan Event, eventBuffer)}
}

func (h *eventHub) send(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	select {
	case h.ch <- e:
	default:
		h.dropped++
	}
}

func (h *eventHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		close(h.ch)
	}
}

func (s *Session) emit(kind string, payload map[string]any) {
	s.events.send(Event{Type: kind, Time: time.Now().UTC(), Payload: payload})
}
