package memory

import (
	"testing"
	"time"

	"code-research-be/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepositorySaveStoresSnapshot(t *testing.T) {
	repo := NewSessionRepository()
	session := &model.ResearchSession{
		ID:        "s1",
		Query:     "q",
		Status:    model.SessionRunning,
		StartedAt: time.Now(),
	}
	repo.Save(session)

	// The caller keeps mutating its own struct between saves; readers
	// must only see the snapshots.
	session.Status = model.SessionDone
	session.Rounds = 3

	stored, ok := repo.Get("s1")
	require.True(t, ok)
	assert.Equal(t, model.SessionRunning, stored.Status)
	assert.Zero(t, stored.Rounds)

	repo.Save(session)
	stored, ok = repo.Get("s1")
	require.True(t, ok)
	assert.Equal(t, model.SessionDone, stored.Status)
	assert.Equal(t, 3, stored.Rounds)
}

func TestSessionRepositoryGetReturnsCopy(t *testing.T) {
	repo := NewSessionRepository()
	repo.Save(&model.ResearchSession{ID: "s1", Status: model.SessionRunning})

	first, ok := repo.Get("s1")
	require.True(t, ok)
	first.Status = model.SessionFailed

	second, ok := repo.Get("s1")
	require.True(t, ok)
	assert.Equal(t, model.SessionRunning, second.Status)
}

func TestSessionRepositoryActiveReturnsCopies(t *testing.T) {
	repo := NewSessionRepository()
	repo.Save(&model.ResearchSession{ID: "s1", Status: model.SessionRunning})
	repo.Save(&model.ResearchSession{ID: "s2", Status: model.SessionDone})

	active := repo.Active()
	require.Len(t, active, 2)
	for _, s := range active {
		s.Status = "mutated"
	}

	stored, ok := repo.Get("s1")
	require.True(t, ok)
	assert.NotEqual(t, "mutated", stored.Status)
}
