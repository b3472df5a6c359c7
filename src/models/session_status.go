package models

import "time"

// -----------------------------------------------------------------------------

// MSessionStatus is a snapshot of one bidirectional streaming session.
// It is logged when the session closes and served on /sessions.
type MSessionStatus struct {
	SessionID     string    `json:"session_id"`     // uuid assigned when the invocation begins
	ClientID      string    `json:"client_id"`      // authenticated client, "" when unknown
	State         string    `json:"state"`          // OPEN, DRAINING, FLUSHING or CLOSED
	Requests      int       `json:"requests"`       // inbound requests read
	Workers       int       `json:"workers"`        // workers spawned
	SkippedStocks int       `json:"skipped_stocks"` // requests for identifiers not in the catalog
	SamplesSent   int       `json:"samples_sent"`   // samples written to the response stream
	StartedAt     time.Time `json:"started_at"`     // creation time of the session
	Cancelled     bool      `json:"cancelled"`      // closed through cancellation
}
