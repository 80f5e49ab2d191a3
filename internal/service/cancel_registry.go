package service

import (
	"context"
	"sync"
)

// cancelRegistry maps running session IDs to their cancel funcs so a
// session can be aborted from a different request than the one that
// started it.
type cancelRegistry struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func newCancelRegistry() *cancelRegistry {
	return &cancelRegistry{
		cancels: make(map[string]context.CancelFunc),
	}
}

func (r *cancelRegistry) add(sessionID string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels[sessionID] = cancel
}

func (r *cancelRegistry) remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cancels, sessionID)
}

func (r *cancelRegistry) cancel(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cancel, ok := r.cancels[sessionID]
	if ok {
		cancel()
	}
	return ok
}
