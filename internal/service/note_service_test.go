package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"testing"

	"code-research-be/internal/dto"
	"code-research-be/internal/repository/memory"
	"code-research-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

type fakeEventPublisher struct {
	published []events.Event
	err       error
}

func (f *fakeEventPublisher) Publish(ctx context.Context, event events.Event) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, event)
	return nil
}

func newTestNoteService() (INoteService, *fakePublisher) {
	pub := &fakePublisher{}
	svc := NewNoteService(memory.NewNoteRepositoryFactory(), pub, nil, nil)
	return svc, pub
}

func TestNoteServiceCreateUntitledQueuesTitleGeneration(t *testing.T) {
	svc, pub := newTestNoteService()

	res, err := svc.Create(context.Background(), &dto.CreateNoteRequest{
		Content: "budget_table has daily and monthly columns",
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Empty(t, res.Title)

	require.Len(t, pub.payloads, 1)
	var msg dto.GenerateTitleMessage
	require.NoError(t, json.Unmarshal(pub.payloads[0], &msg))
	assert.Equal(t, res.Id, msg.NoteId.String())
}

func TestNoteServiceCreateTitledSkipsTitleGeneration(t *testing.T) {
	svc, pub := newTestNoteService()

	res, err := svc.Create(context.Background(), &dto.CreateNoteRequest{
		Title:   "Budget schema",
		Content: "details",
		Tags:    []string{"billing"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Budget schema", res.Title)
	assert.Empty(t, pub.payloads)
}

func TestNoteServiceCreatePublishesLifecycleEvent(t *testing.T) {
	evtPub := &fakeEventPublisher{}
	svc := NewNoteService(memory.NewNoteRepositoryFactory(), &fakePublisher{}, evtPub, nil)

	res, err := svc.Create(context.Background(), &dto.CreateNoteRequest{Title: "t", Content: "c"})
	require.NoError(t, err)

	require.Len(t, evtPub.published, 1)
	evt := evtPub.published[0]
	assert.Equal(t, events.TypeNoteCreated, evt.EventType())
	assert.Equal(t, res.Id, evt.Payload()["note_id"])
}

func TestNoteServiceCreateLogsFailedEventPublish(t *testing.T) {
	var buf bytes.Buffer
	evtPub := &fakeEventPublisher{err: errors.New("nats down")}
	svc := NewNoteService(memory.NewNoteRepositoryFactory(), &fakePublisher{}, evtPub, log.New(&buf, "", 0))

	// The audit event is auxiliary; its failure must not fail the create.
	res, err := svc.Create(context.Background(), &dto.CreateNoteRequest{Title: "t", Content: "c"})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Contains(t, buf.String(), "[WARN] Failed to publish NOTE_CREATED")
}

func TestNoteServiceShowAndUpdate(t *testing.T) {
	svc, _ := newTestNoteService()
	ctx := context.Background()

	created, err := svc.Create(ctx, &dto.CreateNoteRequest{Title: "t", Content: "c"})
	require.NoError(t, err)
	id := uuid.MustParse(created.Id)

	shown, err := svc.Show(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, shown)
	assert.Equal(t, "t", shown.Title)

	newContent := "revised"
	updated, err := svc.Update(ctx, id, &dto.UpdateNoteRequest{Content: &newContent})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "revised", updated.Content)
	assert.Equal(t, "t", updated.Title, "fields not present in the request stay untouched")
	assert.NotNil(t, updated.UpdatedAt)
}

func TestNoteServiceShowMissingReturnsNil(t *testing.T) {
	svc, _ := newTestNoteService()

	res, err := svc.Show(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestNoteServiceDeleteHidesNote(t *testing.T) {
	svc, _ := newTestNoteService()
	ctx := context.Background()

	created, err := svc.Create(ctx, &dto.CreateNoteRequest{Title: "t", Content: "c"})
	require.NoError(t, err)
	id := uuid.MustParse(created.Id)

	require.NoError(t, svc.Delete(ctx, id))

	shown, err := svc.Show(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, shown)

	list, err := svc.List(ctx, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 0, list.Total)
}

func TestNoteServiceListPaginates(t *testing.T) {
	svc, _ := newTestNoteService()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, &dto.CreateNoteRequest{Title: "t", Content: "c"})
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, list.Total)
	assert.Len(t, list.Notes, 2)
	assert.Equal(t, 2, list.Page)
}

func TestNoteServiceSearchFiltersByTermAndTag(t *testing.T) {
	svc, _ := newTestNoteService()
	ctx := context.Background()

	_, err := svc.Create(ctx, &dto.CreateNoteRequest{Title: "Budget notes", Content: "x", Tags: []string{"billing"}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &dto.CreateNoteRequest{Title: "Budget draft", Content: "x"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &dto.CreateNoteRequest{Title: "Unrelated", Content: "x", Tags: []string{"billing"}})
	require.NoError(t, err)

	all, err := svc.Search(ctx, &dto.SearchNotesRequest{Query: "budget"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.Total)

	tagged, err := svc.Search(ctx, &dto.SearchNotesRequest{Query: "budget", Tag: "billing"})
	require.NoError(t, err)
	require.EqualValues(t, 1, tagged.Total)
	assert.Equal(t, "Budget notes", tagged.Notes[0].Title)
}
