package events

import "time"

// Research session lifecycle event types.
const (
	TypeSessionStarted   = "SESSION_STARTED"
	TypeRoundCompleted   = "ROUND_COMPLETED"
	TypeSessionFinished  = "SESSION_FINISHED"
	TypeSessionFailed    = "SESSION_FAILED"
	TypeSessionCancelled = "SESSION_CANCELLED"
	TypeNoteCreated      = "NOTE_CREATED"
)

func NewSessionStarted(sessionID, query string, repositories []string) Event {
	return BaseEvent{
		Type: TypeSessionStarted,
		Data: map[string]interface{}{
			"session_id":   sessionID,
			"query":        query,
			"repositories": repositories,
		},
		OccurredAt: time.Now(),
	}
}

func NewRoundCompleted(sessionID string, round, newHits, newKeywords int) Event {
	return BaseEvent{
		Type: TypeRoundCompleted,
		Data: map[string]interface{}{
			"session_id":   sessionID,
			"round":        round,
			"new_hits":     newHits,
			"new_keywords": newKeywords,
		},
		OccurredAt: time.Now(),
	}
}

func NewSessionFinished(sessionID string, rounds, hits int) Event {
	return BaseEvent{
		Type: TypeSessionFinished,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"rounds":     rounds,
			"hits":       hits,
		},
		OccurredAt: time.Now(),
	}
}

func NewSessionFailed(sessionID, reason string) Event {
	return BaseEvent{
		Type: TypeSessionFailed,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"reason":     reason,
		},
		OccurredAt: time.Now(),
	}
}

func NewSessionCancelled(sessionID string) Event {
	return BaseEvent{
		Type: TypeSessionCancelled,
		Data: map[string]interface{}{
			"session_id": sessionID,
		},
		OccurredAt: time.Now(),
	}
}

func NewNoteCreated(noteID, title string) Event {
	return BaseEvent{
		Type: TypeNoteCreated,
		Data: map[string]interface{}{
			"note_id": noteID,
			"title":   title,
		},
		OccurredAt: time.Now(),
	}
}
