package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type MemoryCache struct {
	store *gocache.Cache
}

var _ Cache = &MemoryCache{}

// NewMemoryCache creates an in-process cache with the given default
// expiration; expired items are purged every 10 minutes.
func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	return &MemoryCache{
		store: gocache.New(defaultTTL, 10*time.Minute),
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) (string, bool) {
	if x, found := m.store.Get(key); found {
		return x.(string), true
	}
	return "", false
}

func (m *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.store.Set(key, value, ttl)
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.store.Delete(key)
	return nil
}
