package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"
)

// Cache is the contract shared by the in-memory and Redis backends.
// Values are opaque strings; callers serialize what they store.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Key builds a namespaced cache key. The variable parts are hashed so
// arbitrary queries and file paths stay within key length limits.
func Key(prefix string, parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, "|")))
	return prefix + ":" + hex.EncodeToString(sum[:])
}
