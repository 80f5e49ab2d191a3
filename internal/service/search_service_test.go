package service

import (
	"context"
	"strings"
	"testing"

	"code-research-be/internal/dto"
	"code-research-be/pkg/llm"
	"code-research-be/pkg/research"
	pkgSearch "code-research-be/pkg/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchServiceDocumentSearch(t *testing.T) {
	client := &fakeSearchClient{
		results: []pkgSearch.CodeResult{
			{Repository: "AdsAppsMT", Path: "src/Budget.cs", Branch: "master"},
		},
	}
	provider := &fakeLLM{chatResponse: "The budget lives in Budget.cs."}

	svc := NewSearchService(client, pkgSearch.DefaultRegistry(), provider)
	res, err := svc.DocumentSearch(context.Background(), &dto.DocumentSearchRequest{
		Sources: []dto.SearchSource{{Query: "budget", Repositories: []string{"AdsAppsMT"}}},
	})
	require.NoError(t, err)

	assert.Equal(t, "success", res.Status)
	assert.Equal(t, "The budget lives in Budget.cs.", res.Content)
	require.Len(t, res.Codes, 1)
	assert.Equal(t, "src/Budget.cs", res.Codes[0].Path)
}

func TestSearchServiceEmptySourceSearchesAllRepositories(t *testing.T) {
	client := &fakeSearchClient{
		results: []pkgSearch.CodeResult{{Repository: "AdsAppsMT", Path: "src/A.cs"}},
	}
	provider := &fakeLLM{chatResponse: "ok"}
	registry := pkgSearch.DefaultRegistry()

	svc := NewSearchService(client, registry, provider)
	_, err := svc.DocumentSearch(context.Background(), &dto.DocumentSearchRequest{
		Sources: []dto.SearchSource{{Query: "budget"}},
	})
	require.NoError(t, err)
	assert.Equal(t, len(registry.Names()), client.searchCalls)
}

func TestSearchServiceNoContentFails(t *testing.T) {
	client := &fakeSearchClient{} // no results from any repository
	provider := &fakeLLM{}

	svc := NewSearchService(client, pkgSearch.DefaultRegistry(), provider)
	_, err := svc.DocumentSearch(context.Background(), &dto.DocumentSearchRequest{
		Sources: []dto.SearchSource{{Query: "budget", Repositories: []string{"AdsAppsMT"}}},
	})
	assert.ErrorIs(t, err, research.ErrNoContent)
}

func TestSearchServiceSkipsOversizedFiles(t *testing.T) {
	client := &fakeSearchClient{
		results: []pkgSearch.CodeResult{
			{Repository: "AdsAppsMT", Path: "src/huge.generated.cs"},
			{Repository: "AdsAppsMT", Path: "src/small.cs"},
		},
		contents: map[string]string{
			"src/huge.generated.cs": strings.Repeat("x", maxFileChars+1),
			"src/small.cs":          "class Small {}",
		},
	}
	provider := &fakeLLM{chatResponse: "ok"}

	svc := NewSearchService(client, pkgSearch.DefaultRegistry(), provider)
	res, err := svc.DocumentSearch(context.Background(), &dto.DocumentSearchRequest{
		Sources: []dto.SearchSource{{Query: "q", Repositories: []string{"AdsAppsMT"}}},
	})
	require.NoError(t, err)
	require.Len(t, res.Codes, 1)
	assert.Equal(t, "src/small.cs", res.Codes[0].Path)
}

func TestSearchServiceHonorsMaxLengthBudget(t *testing.T) {
	client := &fakeSearchClient{
		results: []pkgSearch.CodeResult{
			{Repository: "AdsAppsMT", Path: "src/a.cs"},
			{Repository: "AdsAppsMT", Path: "src/b.cs"},
			{Repository: "AdsAppsMT", Path: "src/c.cs"},
		},
		contents: map[string]string{
			"src/a.cs": strings.Repeat("a", 60),
			"src/b.cs": strings.Repeat("b", 60),
			"src/c.cs": strings.Repeat("c", 30),
		},
	}
	provider := &fakeLLM{chatResponse: "ok"}

	svc := NewSearchService(client, pkgSearch.DefaultRegistry(), provider)
	res, err := svc.DocumentSearch(context.Background(), &dto.DocumentSearchRequest{
		Sources:   []dto.SearchSource{{Query: "q", Repositories: []string{"AdsAppsMT"}}},
		MaxLength: 100,
	})
	require.NoError(t, err)

	// a.cs fits, b.cs would blow the budget and is passed over, c.cs
	// still fits in the remainder.
	require.Len(t, res.Codes, 2)
	assert.Equal(t, "src/a.cs", res.Codes[0].Path)
	assert.Equal(t, "src/c.cs", res.Codes[1].Path)
}

func TestSearchServiceDocumentSearchStream(t *testing.T) {
	client := &fakeSearchClient{
		results: []pkgSearch.CodeResult{{Repository: "AdsAppsMT", Path: "src/a.cs"}},
	}
	provider := &fakeLLM{chunks: []llm.StreamChunk{
		{Content: "part one "},
		{Content: "part two"},
		{Done: true},
	}}

	svc := NewSearchService(client, pkgSearch.DefaultRegistry(), provider)
	codes, chunks, err := svc.DocumentSearchStream(context.Background(), &dto.DocumentSearchRequest{
		Sources: []dto.SearchSource{{Query: "q", Repositories: []string{"AdsAppsMT"}}},
	})
	require.NoError(t, err)
	require.Len(t, codes, 1)

	var b strings.Builder
	for c := range chunks {
		b.WriteString(c.Content)
	}
	assert.Equal(t, "part one part two", b.String())
}

func TestSearchServiceScopeSearchDropsRepositoryPrefix(t *testing.T) {
	client := &fakeSearchClient{
		results: []pkgSearch.CodeResult{{Repository: "AdsAppsScopes", Path: "scopes/daily.scope"}},
	}
	provider := &fakeLLM{chatResponse: "Two scope scripts."}

	svc := NewSearchService(client, pkgSearch.DefaultRegistry(), provider)
	res, err := svc.ScopeSearch(context.Background(), &dto.ScopeSearchRequest{
		Repository: "AdsAppsScopes",
		Query:      "ext:scope budget",
	})
	require.NoError(t, err)

	assert.True(t, client.lastParams.WithoutPrefix, "scope queries carry their own filters")
	assert.Equal(t, defaultScopeMaxResults, client.lastParams.MaxResults)
	assert.Contains(t, res.ScopeKnowledge, "scopes/daily.scope")
	assert.Equal(t, "Two scope scripts.", res.Content)
}

func TestSearchServiceScopeSearchWrapsSearchError(t *testing.T) {
	client := &fakeSearchClient{searchErr: assert.AnError}
	provider := &fakeLLM{}

	svc := NewSearchService(client, pkgSearch.DefaultRegistry(), provider)
	_, err := svc.ScopeSearch(context.Background(), &dto.ScopeSearchRequest{
		Repository: "AdsAppsScopes",
		Query:      "ext:scope",
	})
	var se *research.SearchError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "AdsAppsScopes", se.Repository)
}

func TestSearchServiceCustomPromptReplacesAnalysisSystem(t *testing.T) {
	client := &fakeSearchClient{
		results: []pkgSearch.CodeResult{{Repository: "AdsAppsMT", Path: "src/a.cs"}},
	}
	provider := &fakeLLM{chatResponse: "ok"}

	svc := NewSearchService(client, pkgSearch.DefaultRegistry(), provider)
	_, err := svc.DocumentSearch(context.Background(), &dto.DocumentSearchRequest{
		Sources:      []dto.SearchSource{{Query: "q", Repositories: []string{"AdsAppsMT"}}},
		CustomPrompt: "Answer in French.",
	})
	require.NoError(t, err)

	require.NotEmpty(t, provider.lastHistory)
	assert.Equal(t, "Answer in French.", provider.lastHistory[0].Content)
}
