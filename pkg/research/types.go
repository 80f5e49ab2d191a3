package research

import "strings"

// SearchHit is a single retrieved item from a repository code search.
// Round and Query record which iteration first surfaced the hit.
type SearchHit struct {
	Repository string `json:"repository"`
	Path       string `json:"path"`
	Branch     string `json:"branch,omitempty"`
	Content    string `json:"content,omitempty"`
	Round      int    `json:"round"`
	Query      string `json:"query"`
}

// HitKey is the dedup identity of a hit within a session.
type HitKey struct {
	Repository string
	Path       string
}

func (h SearchHit) Key() HitKey {
	return HitKey{Repository: h.Repository, Path: h.Path}
}

// Finding is the synthesized partial answer produced for one round.
// FollowUps carries the model-suggested unresolved terms, in the order
// the model produced them.
type Finding struct {
	Round     int
	Text      string
	FollowUps []string
	Refs      []string // paths of hits the finding is grounded on
}

// Round captures one closed iteration of the research loop.
type Round struct {
	Index   int
	Queries []string
	NewHits int
}

// Request describes one deep research session.
type Request struct {
	Query        string
	Repositories []string
	MaxRounds    int // 0 means DefaultConfig().MaxRounds
	CustomPrompt string
	Temperature  float64
}

// Answer is the consolidated result of a completed session.
type Answer struct {
	Text   string
	Rounds int
	Hits   int
}

// NormalizeQuery is the session-wide comparison form of a query string.
// Queries are never issued twice under the same normalized form.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
