package research

import "context"

// SearchOptions tune a single gateway search call.
type SearchOptions struct {
	Branch     string
	MaxResults int
}

// SearchGateway executes one query against one named repository and
// returns ranked hits. Ranking itself lives behind the gateway.
type SearchGateway interface {
	Search(ctx context.Context, query, repository string, opts SearchOptions) ([]SearchHit, error)
}

// PromptContext is everything a completion call may need. Adapters
// render it into provider-specific prompts.
type PromptContext struct {
	Question     string
	Context      string // formatted merged hits
	Findings     []Finding
	CustomPrompt string
	Temperature  float64
}

// Chunk is one incremental piece of a streamed completion. A non-nil
// Err terminates the stream.
type Chunk struct {
	Content string
	Err     error
}

// CompletionGateway produces natural-language completions.
type CompletionGateway interface {
	// Synthesize runs one non-streaming completion over the round's
	// aggregated context and returns the round finding.
	Synthesize(ctx context.Context, prompt PromptContext) (*Finding, error)

	// Stream produces the consolidated final answer incrementally. The
	// returned channel is closed when the completion finishes.
	Stream(ctx context.Context, prompt PromptContext) (<-chan Chunk, error)
}
