package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"code-research-be/pkg/llm"
	"code-research-be/pkg/research"
	pkgSearch "code-research-be/pkg/search"
)

// maxContentFetches caps how many file bodies one gateway search pulls.
// The search API ranks results first, so the cap keeps the best files.
const maxContentFetches = 5

const synthesisSystemPrompt = `You are a senior engineer doing deep research over internal code repositories.
You are given code search results and findings from earlier research rounds.
Answer the question using ONLY the provided context.

Respond with a JSON object of this exact shape:
{"answer": "<your findings for this round>", "unresolved": ["<term>", "<term>"]}

List in "unresolved" the concrete identifiers, table names or domain terms
that appear in the context but are still undefined and worth searching next.
Wrap any such term you mention inside "answer" in backticks. Return an empty
"unresolved" list when nothing is left to chase.`

const finalAnswerSystemPrompt = `You are a senior engineer consolidating a multi-round code research session.
Write the final answer to the user's question from the accumulated context and
round findings. Cite file paths where relevant. Do not invent code that is not
in the context. Answer in well-structured markdown.`

// searchGateway adapts the code search client to the research loop.
// Loop-issued searches run as agent searches, so repository
// included-path restrictions do not apply.
type searchGateway struct {
	client   pkgSearch.ISearchClient
	registry *pkgSearch.Registry
	logger   *log.Logger
}

func NewSearchGateway(client pkgSearch.ISearchClient, registry *pkgSearch.Registry, logger *log.Logger) research.SearchGateway {
	if logger == nil {
		logger = log.Default()
	}
	return &searchGateway{
		client:   client,
		registry: registry,
		logger:   logger,
	}
}

func (g *searchGateway) Search(ctx context.Context, query, repository string, opts research.SearchOptions) ([]research.SearchHit, error) {
	results, err := g.client.SearchCode(ctx, query, repository, pkgSearch.SearchParams{
		Branch:      opts.Branch,
		MaxResults:  opts.MaxResults,
		AgentSearch: true,
	})
	if err != nil {
		return nil, &research.SearchError{Repository: repository, Query: query, Err: err}
	}

	hits := make([]research.SearchHit, 0, len(results))
	for i, r := range results {
		hit := research.SearchHit{
			Repository: r.Repository,
			Path:       r.Path,
			Branch:     r.Branch,
		}
		if i < maxContentFetches {
			content, err := g.client.FetchContent(ctx, r.Repository, r.Path, r.Branch)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				// A hit without content still tells the model the file exists.
				g.logger.Printf("[GATEWAY] Content fetch failed for %s/%s: %v", r.Repository, r.Path, err)
			} else {
				hit.Content = content
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// completionGateway adapts the LLM provider to the research loop. Round
// synthesis runs in JSON mode so follow-up terms come back structured;
// the final answer is streamed as plain markdown.
type completionGateway struct {
	provider llm.LLMProvider
	logger   *log.Logger
}

func NewCompletionGateway(provider llm.LLMProvider, logger *log.Logger) research.CompletionGateway {
	if logger == nil {
		logger = log.Default()
	}
	return &completionGateway{
		provider: provider,
		logger:   logger,
	}
}

type synthesisResult struct {
	Answer     string   `json:"answer"`
	Unresolved []string `json:"unresolved"`
}

func (g *completionGateway) Synthesize(ctx context.Context, prompt research.PromptContext) (*research.Finding, error) {
	raw, err := g.provider.Chat(ctx, buildMessages(synthesisSystemPrompt, prompt), g.options(prompt, true)...)
	if err != nil {
		return nil, err
	}

	var parsed synthesisResult
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
		// Some models ignore JSON mode. The raw text still serves as the
		// finding; the expander mines backticked terms out of it.
		g.logger.Printf("[GATEWAY] Synthesis response is not valid JSON, using raw text: %v", err)
		return &research.Finding{Text: raw}, nil
	}
	if parsed.Answer == "" {
		parsed.Answer = raw
	}
	return &research.Finding{
		Text:      parsed.Answer,
		FollowUps: parsed.Unresolved,
	}, nil
}

func (g *completionGateway) Stream(ctx context.Context, prompt research.PromptContext) (<-chan research.Chunk, error) {
	chunks, err := g.provider.ChatStream(ctx, buildMessages(finalAnswerSystemPrompt, prompt), g.options(prompt, false)...)
	if err != nil {
		return nil, err
	}

	out := make(chan research.Chunk)
	go func() {
		defer close(out)
		for chunk := range chunks {
			if chunk.Err != nil {
				out <- research.Chunk{Err: chunk.Err}
				return
			}
			if chunk.Content != "" {
				out <- research.Chunk{Content: chunk.Content}
			}
			if chunk.Done {
				return
			}
		}
	}()
	return out, nil
}

func (g *completionGateway) options(prompt research.PromptContext, jsonMode bool) []llm.Option {
	opts := []llm.Option{}
	if prompt.Temperature > 0 {
		opts = append(opts, llm.WithTemperature(prompt.Temperature))
	}
	if jsonMode {
		opts = append(opts, llm.WithJSONMode())
	}
	return opts
}

func buildMessages(systemPrompt string, prompt research.PromptContext) []llm.Message {
	if prompt.CustomPrompt != "" {
		systemPrompt = prompt.CustomPrompt
	}

	var user strings.Builder
	fmt.Fprintf(&user, "Question: %s\n\n", prompt.Question)
	if findings := research.FormatFindings(prompt.Findings); findings != "" {
		user.WriteString("Previous findings:\n")
		user.WriteString(findings)
		user.WriteByte('\n')
	}
	if prompt.Context != "" {
		user.WriteString("Code context:\n")
		user.WriteString(prompt.Context)
	}

	return []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: user.String()},
	}
}

// stripCodeFences unwraps a ```json ... ``` block if the model added one.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
