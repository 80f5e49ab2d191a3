package search

import "context"

// CodeResult is one file surfaced by a code search.
type CodeResult struct {
	Repository string `json:"repository"`
	Path       string `json:"path"`
	Branch     string `json:"branch"`
	// ContentMatches counts snippet matches inside the file, used for
	// relevance ordering.
	ContentMatches int `json:"content_matches"`
}

// SearchParams tune a single search call.
type SearchParams struct {
	Branch     string
	MaxResults int
	// AgentSearch relaxes included-path filtering for searches issued by
	// the research loop rather than a person.
	AgentSearch bool
	// WithoutPrefix skips the repository's search prefix (used by scope
	// script search, which supplies its own ext: filter).
	WithoutPrefix bool
}

// ISearchClient is the contract for a code search backend.
type ISearchClient interface {
	// SearchCode searches one repository and returns matching files.
	SearchCode(ctx context.Context, searchText, repository string, params SearchParams) ([]CodeResult, error)

	// FetchContent retrieves the full content of one file.
	FetchContent(ctx context.Context, repository, path, branch string) (string, error)
}
