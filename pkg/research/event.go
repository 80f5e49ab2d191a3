package research

// EventKind identifies the externally visible event types of a session.
type EventKind string

const (
	EventPrompt       EventKind = "prompt"
	EventProcessing   EventKind = "processing"
	EventMessage      EventKind = "message"
	EventSystemPrompt EventKind = "systemprompt"
	EventDone         EventKind = "done"
)

// RoundMeta is attached to processing events during deep research so
// clients can render loop progress.
type RoundMeta struct {
	Index       int `json:"index"`
	MaxRounds   int `json:"max_rounds"`
	NewHits     int `json:"new_hits"`
	NewKeywords int `json:"new_keywords"`
}

// EventData is the payload of a ProgressEvent, shaped to match the SSE
// wire format consumed by the UI.
type EventData struct {
	Content string     `json:"content,omitempty"`
	Message string     `json:"message,omitempty"`
	Error   string     `json:"error,omitempty"`
	Round   *RoundMeta `json:"round,omitempty"`
	Done    bool       `json:"done"`
}

// ProgressEvent is one externally visible state change of a session.
// Seq is strictly increasing within the session; the terminal event is
// always kind "done".
type ProgressEvent struct {
	Seq  uint64    `json:"seq"`
	Kind EventKind `json:"event"`
	Data EventData `json:"data"`
}
