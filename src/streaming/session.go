package streaming

import (
	"sync"
	"time"

	"stock-data-service/src/models"
)

// SessionState is the lifecycle position of a streaming session.
type SessionState int

const (
	StateOpen SessionState = iota
	StateDraining
	StateFlushing
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateDraining:
		return "DRAINING"
	case StateFlushing:
		return "FLUSHING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// -----------------------------------------------------------------------------

// Session is the state of one bidirectional invocation. States only move forward.
type Session struct {
	ID       string
	ClientID string

	// wg tracks spawned workers, Add happens under mu together with the spawning check.
	wg sync.WaitGroup

	mu        sync.Mutex
	state     SessionState
	spawning  bool
	requests  int
	workers   int
	skipped   int
	sent      int
	startedAt time.Time
	cancelled bool
}

// -----------------------------------------------------------------------------

func newSession(id, clientID string, now time.Time) *Session {
	return &Session{
		ID:        id,
		ClientID:  clientID,
		state:     StateOpen,
		spawning:  true,
		startedAt: now,
	}
}

// -----------------------------------------------------------------------------

// advance moves the session to next, a backward or repeated move is ignored.
func (s *Session) advance(next SessionState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if next <= s.state {
		return false
	}
	s.state = next
	if next >= StateDraining {
		s.spawning = false
	}
	return true
}

// -----------------------------------------------------------------------------

// admit records an inbound request and reports whether a worker may still be spawned.
func (s *Session) admit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.spawning {
		return false
	}
	s.requests++
	s.workers++
	s.wg.Add(1)
	return true
}

func (s *Session) skip() {
	s.mu.Lock()
	s.skipped++
	s.mu.Unlock()
}

func (s *Session) delivered() {
	s.mu.Lock()
	s.sent++
	s.mu.Unlock()
}

func (s *Session) markCancelled() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}

// -----------------------------------------------------------------------------

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// -----------------------------------------------------------------------------

// Status returns a snapshot of the session.
func (s *Session) Status() *models.MSessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &models.MSessionStatus{
		SessionID:     s.ID,
		ClientID:      s.ClientID,
		State:         s.state.String(),
		Requests:      s.requests,
		Workers:       s.workers,
		SkippedStocks: s.skipped,
		SamplesSent:   s.sent,
		StartedAt:     s.startedAt,
		Cancelled:     s.cancelled,
	}
}
