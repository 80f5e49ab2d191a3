package memory

import (
	"code-research-be/internal/model"
	"time"

	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	// Finished sessions linger for an hour so the monitor can show
	// recent history; expired items are purged every 10 minutes.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

// Save stores a snapshot of the session. Callers keep mutating their
// own struct between saves; readers never observe those writes.
func (r *SessionRepository) Save(session *model.ResearchSession) {
	stored := *session
	r.cache.Set(session.ID, &stored, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*model.ResearchSession, bool) {
	if x, found := r.cache.Get(sessionID); found {
		copied := *(x.(*model.ResearchSession))
		return &copied, true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

// Active returns copies of all tracked sessions, newest first not
// guaranteed.
func (r *SessionRepository) Active() []*model.ResearchSession {
	items := r.cache.Items()
	sessions := make([]*model.ResearchSession, 0, len(items))
	for _, item := range items {
		if s, ok := item.Object.(*model.ResearchSession); ok {
			copied := *s
			sessions = append(sessions, &copied)
		}
	}
	return sessions
}
