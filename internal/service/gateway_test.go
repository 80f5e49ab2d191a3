package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"code-research-be/pkg/llm"
	"code-research-be/pkg/research"
	pkgSearch "code-research-be/pkg/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearchClient struct {
	mu          sync.Mutex
	results     []pkgSearch.CodeResult
	searchErr   error
	contentErr  map[string]error
	contents    map[string]string
	fetched     []string
	lastParams  pkgSearch.SearchParams
	searchCalls int
}

func (f *fakeSearchClient) SearchCode(ctx context.Context, searchText, repository string, params pkgSearch.SearchParams) ([]pkgSearch.CodeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	f.lastParams = params
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

func (f *fakeSearchClient) FetchContent(ctx context.Context, repository, path, branch string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, path)
	if err := f.contentErr[path]; err != nil {
		return "", err
	}
	if c, ok := f.contents[path]; ok {
		return c, nil
	}
	return "content of " + path, nil
}

type fakeLLM struct {
	chatResponse string
	chatErr      error
	chunks       []llm.StreamChunk
	lastHistory  []llm.Message
	lastOpts     llm.Options
}

func (f *fakeLLM) apply(options []llm.Option) {
	var opts llm.Options
	for _, o := range options {
		o(&opts)
	}
	f.lastOpts = opts
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.lastHistory = history
	f.apply(options)
	return f.chatResponse, f.chatErr
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func (f *fakeLLM) ChatStream(ctx context.Context, history []llm.Message, options ...llm.Option) (<-chan llm.StreamChunk, error) {
	f.lastHistory = history
	f.apply(options)
	out := make(chan llm.StreamChunk, len(f.chunks))
	for _, c := range f.chunks {
		out <- c
	}
	close(out)
	return out, nil
}

func TestSearchGatewayFetchesTopContentsOnly(t *testing.T) {
	client := &fakeSearchClient{}
	for i := 0; i < 8; i++ {
		client.results = append(client.results, pkgSearch.CodeResult{
			Repository: "AdsAppsMT",
			Path:       fmt.Sprintf("src/File%d.cs", i),
			Branch:     "master",
		})
	}

	gw := NewSearchGateway(client, pkgSearch.DefaultRegistry(), nil)
	hits, err := gw.Search(context.Background(), "budget", "AdsAppsMT", research.SearchOptions{})
	require.NoError(t, err)

	require.Len(t, hits, 8)
	assert.Len(t, client.fetched, maxContentFetches)
	for i, h := range hits {
		if i < maxContentFetches {
			assert.NotEmpty(t, h.Content, "hit %d should carry content", i)
		} else {
			assert.Empty(t, h.Content, "hit %d should be path-only", i)
		}
	}
}

func TestSearchGatewayRunsAsAgentSearch(t *testing.T) {
	client := &fakeSearchClient{}
	gw := NewSearchGateway(client, pkgSearch.DefaultRegistry(), nil)

	_, err := gw.Search(context.Background(), "budget", "AdsAppsMT", research.SearchOptions{})
	require.NoError(t, err)
	assert.True(t, client.lastParams.AgentSearch)
}

func TestSearchGatewayKeepsHitWhenContentFetchFails(t *testing.T) {
	client := &fakeSearchClient{
		results: []pkgSearch.CodeResult{
			{Repository: "AdsAppsMT", Path: "src/Broken.cs"},
			{Repository: "AdsAppsMT", Path: "src/Good.cs"},
		},
		contentErr: map[string]error{"src/Broken.cs": errors.New("410 gone")},
	}

	gw := NewSearchGateway(client, pkgSearch.DefaultRegistry(), nil)
	hits, err := gw.Search(context.Background(), "budget", "AdsAppsMT", research.SearchOptions{})
	require.NoError(t, err)

	require.Len(t, hits, 2)
	assert.Empty(t, hits[0].Content)
	assert.NotEmpty(t, hits[1].Content)
}

func TestSearchGatewayWrapsSearchErrors(t *testing.T) {
	client := &fakeSearchClient{searchErr: errors.New("503")}
	gw := NewSearchGateway(client, pkgSearch.DefaultRegistry(), nil)

	_, err := gw.Search(context.Background(), "budget", "AdsAppsMT", research.SearchOptions{})
	var se *research.SearchError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "AdsAppsMT", se.Repository)
	assert.Equal(t, "budget", se.Query)
}

func TestCompletionGatewayParsesSynthesisJSON(t *testing.T) {
	provider := &fakeLLM{
		chatResponse: "```json\n{\"answer\": \"Budget lives in `budget_table`.\", \"unresolved\": [\"budget_table\"]}\n```",
	}

	gw := NewCompletionGateway(provider, nil)
	finding, err := gw.Synthesize(context.Background(), research.PromptContext{Question: "where is budget"})
	require.NoError(t, err)

	assert.Equal(t, "Budget lives in `budget_table`.", finding.Text)
	assert.Equal(t, []string{"budget_table"}, finding.FollowUps)
	assert.True(t, provider.lastOpts.JSONMode, "synthesis must request JSON mode")
}

func TestCompletionGatewayFallsBackToRawText(t *testing.T) {
	provider := &fakeLLM{chatResponse: "The schema is defined in `budget_table`."}

	gw := NewCompletionGateway(provider, nil)
	finding, err := gw.Synthesize(context.Background(), research.PromptContext{Question: "where is budget"})
	require.NoError(t, err)

	// Not JSON: the raw text becomes the finding and the expander mines
	// the backticked terms out of it.
	assert.Equal(t, provider.chatResponse, finding.Text)
	assert.Empty(t, finding.FollowUps)
}

func TestCompletionGatewayCustomPromptReplacesSystem(t *testing.T) {
	provider := &fakeLLM{chatResponse: `{"answer":"ok","unresolved":[]}`}

	gw := NewCompletionGateway(provider, nil)
	_, err := gw.Synthesize(context.Background(), research.PromptContext{
		Question:     "q",
		CustomPrompt: "You are a terse bot.",
	})
	require.NoError(t, err)

	require.NotEmpty(t, provider.lastHistory)
	assert.Equal(t, "system", provider.lastHistory[0].Role)
	assert.Equal(t, "You are a terse bot.", provider.lastHistory[0].Content)
}

func TestCompletionGatewayStreamStopsOnDone(t *testing.T) {
	provider := &fakeLLM{chunks: []llm.StreamChunk{
		{Content: "Hello "},
		{Content: "world"},
		{Done: true},
		{Content: "never delivered"},
	}}

	gw := NewCompletionGateway(provider, nil)
	chunks, err := gw.Stream(context.Background(), research.PromptContext{Question: "q"})
	require.NoError(t, err)

	var b strings.Builder
	for c := range chunks {
		require.NoError(t, c.Err)
		b.WriteString(c.Content)
	}
	assert.Equal(t, "Hello world", b.String())
}

func TestCompletionGatewayStreamPropagatesError(t *testing.T) {
	provider := &fakeLLM{chunks: []llm.StreamChunk{
		{Content: "partial"},
		{Err: errors.New("connection reset")},
	}}

	gw := NewCompletionGateway(provider, nil)
	chunks, err := gw.Stream(context.Background(), research.PromptContext{Question: "q"})
	require.NoError(t, err)

	var sawErr bool
	for c := range chunks {
		if c.Err != nil {
			sawErr = true
		}
	}
	assert.True(t, sawErr)
}

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"{\"a\":1}":                      `{"a":1}`,
		"```json\n{\"a\":1}\n```":        `{"a":1}`,
		"```\n{\"a\":1}\n```":            `{"a":1}`,
		"  ```json\n{\"a\":1}\n```  \n ": `{"a":1}`,
	}
	for in, want := range cases {
		assert.Equal(t, want, stripCodeFences(in))
	}
}
