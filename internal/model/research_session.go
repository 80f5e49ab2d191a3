package model

import "time"

// Research session lifecycle states.
const (
	SessionRunning   = "running"
	SessionDone      = "done"
	SessionFailed    = "failed"
	SessionCancelled = "cancelled"
)

// ResearchSession tracks one in-flight or recently finished research
// run. Sessions live in the in-memory repository, not the database.
type ResearchSession struct {
	ID           string    `json:"id"`
	Query        string    `json:"query"`
	Repositories []string  `json:"repositories"`
	Status       string    `json:"status"`
	Rounds       int       `json:"rounds"`
	Hits         int       `json:"hits"`
	StartedAt    time.Time `json:"started_at"`
}

// ResearchActivity is the payload pushed to monitor clients over the
// websocket when a session changes state.
type ResearchActivity struct {
	SessionID string                 `json:"session_id"`
	Kind      string                 `json:"kind"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	At        time.Time              `json:"at"`
}
