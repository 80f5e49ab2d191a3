package research

import (
	"errors"
	"fmt"
)

// ErrNoContent signals a search that returned nothing usable. Surfaced
// to HTTP callers as a 400.
var ErrNoContent = errors.New("unable to find relevant content")

// SearchError is a per-item search failure. Within a round's fan-out it
// is isolated: the round continues with the remaining results.
type SearchError struct {
	Repository string
	Query      string
	Err        error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search %q in %s: %v", e.Query, e.Repository, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// CompletionError is a completion gateway failure. It is fatal to the
// session: no fallback synthesis exists.
type CompletionError struct {
	Op  string // "synthesize" or "stream"
	Err error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion %s: %v", e.Op, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }
