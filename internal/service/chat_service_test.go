package service

import (
	"context"
	"testing"

	"code-research-be/internal/dto"
	"code-research-be/internal/model"
	"code-research-be/internal/repository/memory"
	"code-research-be/pkg/llm"
	"code-research-be/pkg/research"
	pkgSearch "code-research-be/pkg/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChatService(client *fakeSearchClient, provider *fakeLLM) (IChatService, *memory.SessionRepository) {
	sessions := memory.NewSessionRepository()
	svc := NewChatService(client, pkgSearch.DefaultRegistry(), provider, sessions, nil, research.Config{
		MaxRounds: 3,
	})
	return svc, sessions
}

func userMessage(content string) []dto.ChatMessageDTO {
	return []dto.ChatMessageDTO{{Role: "user", Content: content}}
}

func TestDeepResearchSyncCompletes(t *testing.T) {
	client := &fakeSearchClient{
		results: []pkgSearch.CodeResult{
			{Repository: "AdsAppsMT", Path: "src/Budget.cs", Branch: "master"},
		},
	}
	// One round: the synthesis leaves nothing unresolved, then the final
	// answer streams in two chunks.
	provider := &fakeLLM{
		chatResponse: `{"answer": "Budget is stored in Budget.cs", "unresolved": []}`,
		chunks: []llm.StreamChunk{
			{Content: "Budget is stored "},
			{Content: "in Budget.cs."},
		},
	}

	svc, sessions := newTestChatService(client, provider)
	res, err := svc.DeepResearchSync(context.Background(), &dto.ChatRequest{
		Messages:     userMessage("How is budget stored?"),
		Repositories: []string{"AdsAppsMT"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Budget is stored in Budget.cs.", res.Answer)
	assert.Equal(t, 1, res.Rounds)
	assert.Equal(t, 1, res.Hits)

	active := sessions.Active()
	require.Len(t, active, 1)
	assert.Equal(t, model.SessionDone, active[0].Status)
}

func TestDeepResearchRequiresUserMessage(t *testing.T) {
	svc, _ := newTestChatService(&fakeSearchClient{}, &fakeLLM{})

	_, _, err := svc.DeepResearch(context.Background(), &dto.ChatRequest{
		Messages: []dto.ChatMessageDTO{{Role: "assistant", Content: "hello"}},
	})
	assert.ErrorIs(t, err, research.ErrNoContent)
}

func TestDeepResearchStreamsTerminalDone(t *testing.T) {
	provider := &fakeLLM{
		chatResponse: `{"answer": "ok", "unresolved": []}`,
		chunks:       []llm.StreamChunk{{Content: "answer"}},
	}
	svc, _ := newTestChatService(&fakeSearchClient{}, provider)

	sessionID, eventsCh, err := svc.DeepResearch(context.Background(), &dto.ChatRequest{
		Messages:     userMessage("q"),
		Repositories: []string{"AdsAppsMT"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)

	var last research.ProgressEvent
	count := 0
	for ev := range eventsCh {
		last = ev
		count++
	}
	require.Greater(t, count, 1)
	assert.Equal(t, research.EventDone, last.Kind)
	assert.True(t, last.Data.Done)
}

func TestDeepResearchSessionStateConsistentAfterDrain(t *testing.T) {
	client := &fakeSearchClient{
		results: []pkgSearch.CodeResult{
			{Repository: "AdsAppsMT", Path: "src/Budget.cs", Branch: "master"},
		},
	}
	// Round 1 surfaces a follow-up term; round 2 repeats it, which dedups
	// to zero new keywords and ends the loop. Round bookkeeping and the
	// terminal status land on the same session record.
	provider := &fakeLLM{
		chatResponse: "```json\n{\"answer\": \"see `budget_table`\", \"unresolved\": [\"budget_table\"]}\n```",
		chunks:       []llm.StreamChunk{{Content: "answer"}},
	}

	svc, sessions := newTestChatService(client, provider)
	sessionID, eventsCh, err := svc.DeepResearch(context.Background(), &dto.ChatRequest{
		Messages:     userMessage("How is budget stored?"),
		Repositories: []string{"AdsAppsMT"},
	})
	require.NoError(t, err)

	for range eventsCh {
	}

	// Once the stream is drained the stored session must be terminal:
	// the terminal status is recorded before the channel closes.
	stored, ok := sessions.Get(sessionID)
	require.True(t, ok)
	assert.Equal(t, model.SessionDone, stored.Status)
	assert.Equal(t, 2, stored.Rounds)
	assert.Equal(t, 1, stored.Hits)
}

func TestCancelUnknownSession(t *testing.T) {
	svc, _ := newTestChatService(&fakeSearchClient{}, &fakeLLM{})
	assert.False(t, svc.Cancel("not-a-session"))
}

func TestChatInjectsRetrievedContext(t *testing.T) {
	client := &fakeSearchClient{
		results: []pkgSearch.CodeResult{
			{Repository: "AdsAppsMT", Path: "src/Account.cs", Branch: "master"},
		},
	}
	provider := &fakeLLM{chunks: []llm.StreamChunk{{Content: "hi"}}}

	svc, _ := newTestChatService(client, provider)
	chunks, err := svc.Chat(context.Background(), &dto.ChatRequest{
		Messages:     userMessage("what is an account"),
		Repositories: []string{"AdsAppsMT"},
	})
	require.NoError(t, err)
	for range chunks {
	}

	require.NotEmpty(t, provider.lastHistory)
	assert.Equal(t, "system", provider.lastHistory[0].Role)
	assert.Contains(t, provider.lastHistory[0].Content, "src/Account.cs")
	assert.Equal(t, "user", provider.lastHistory[len(provider.lastHistory)-1].Role)
}

func TestChatWithoutRepositoriesSkipsRetrieval(t *testing.T) {
	client := &fakeSearchClient{}
	provider := &fakeLLM{chunks: []llm.StreamChunk{{Content: "hi"}}}

	svc, _ := newTestChatService(client, provider)
	chunks, err := svc.Chat(context.Background(), &dto.ChatRequest{
		Messages: userMessage("hello"),
	})
	require.NoError(t, err)
	for range chunks {
	}

	assert.Zero(t, client.searchCalls)
	require.NotEmpty(t, provider.lastHistory)
	assert.Equal(t, "user", provider.lastHistory[0].Role, "no system context without repositories")
}
