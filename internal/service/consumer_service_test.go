package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"code-research-be/internal/dto"
	"code-research-be/internal/entity"
	"code-research-be/internal/repository/memory"
	"code-research-be/internal/repository/specification"
	"code-research-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTitlerFixture(provider *fakeLLM) (*consumerService, unitofwork.RepositoryFactory) {
	factory := memory.NewNoteRepositoryFactory()
	cs := &consumerService{
		topicName:   "GENERATE_NOTE_TITLE",
		uowFactory:  factory,
		llmProvider: provider,
	}
	return cs, factory
}

func titleMessage(t *testing.T, noteID uuid.UUID) *message.Message {
	t.Helper()
	payload, err := json.Marshal(dto.GenerateTitleMessage{NoteId: noteID})
	require.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), payload)
}

func assertAcked(t *testing.T, msg *message.Message) {
	t.Helper()
	select {
	case <-msg.Acked():
	case <-time.After(time.Second):
		t.Fatal("message was not acked")
	}
}

func TestTitlerNamesUntitledNote(t *testing.T) {
	provider := &fakeLLM{chatResponse: "\"Budget Schema Overview\"\nsecond line ignored"}
	cs, factory := newTitlerFixture(provider)
	ctx := context.Background()

	note := &entity.Note{Id: uuid.New(), Content: "budget_table has daily columns", CreatedAt: time.Now()}
	repo := factory.NewUnitOfWork(ctx).NoteRepository()
	require.NoError(t, repo.Create(ctx, note))

	msg := titleMessage(t, note.Id)
	cs.processMessage(ctx, msg)
	assertAcked(t, msg)

	titled, err := repo.FindOne(ctx, specification.ByID{ID: note.Id})
	require.NoError(t, err)
	require.NotNil(t, titled)
	assert.Equal(t, "Budget Schema Overview", titled.Title)
	assert.NotNil(t, titled.UpdatedAt)
}

func TestTitlerSkipsAlreadyTitledNote(t *testing.T) {
	provider := &fakeLLM{chatResponse: "should never be used"}
	cs, factory := newTitlerFixture(provider)
	ctx := context.Background()

	note := &entity.Note{Id: uuid.New(), Title: "Kept", Content: "c", CreatedAt: time.Now()}
	repo := factory.NewUnitOfWork(ctx).NoteRepository()
	require.NoError(t, repo.Create(ctx, note))

	msg := titleMessage(t, note.Id)
	cs.processMessage(ctx, msg)
	assertAcked(t, msg)

	assert.Nil(t, provider.lastHistory, "titled notes must not hit the model")
}

func TestTitlerAcksInvalidPayload(t *testing.T) {
	cs, _ := newTitlerFixture(&fakeLLM{})

	msg := message.NewMessage(watermill.NewUUID(), []byte("not json"))
	cs.processMessage(context.Background(), msg)
	assertAcked(t, msg) // invalid messages must not be retried
}

func TestTitlerAcksMissingNote(t *testing.T) {
	cs, _ := newTitlerFixture(&fakeLLM{})

	msg := titleMessage(t, uuid.New())
	cs.processMessage(context.Background(), msg)
	assertAcked(t, msg)
}

func TestSanitizeTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Plain Title  ", "Plain Title"},
		{"\"Quoted Title\"", "Quoted Title"},
		{"'Single quoted'", "Single quoted"},
		{"First line\nSecond line", "First line"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, sanitizeTitle(tc.in))
	}

	long := strings.Repeat("word ", 40)
	assert.LessOrEqual(t, len(sanitizeTitle(long)), maxTitleChars)
}
