package search

import (
	"code-research-be/pkg/cache"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	searchTTL  = time.Hour
	contentTTL = 7 * 24 * time.Hour
)

// CachedClient decorates an ISearchClient with a read-through cache.
// Search results are cached for an hour, file content for seven days.
type CachedClient struct {
	inner ISearchClient
	store cache.Cache
}

var _ ISearchClient = &CachedClient{}

func NewCachedClient(inner ISearchClient, store cache.Cache) *CachedClient {
	return &CachedClient{inner: inner, store: store}
}

func (c *CachedClient) SearchCode(ctx context.Context, searchText, repository string, params SearchParams) ([]CodeResult, error) {
	key := cache.Key("search", repository, searchText, params.Branch,
		fmt.Sprintf("%d|%t|%t", params.MaxResults, params.AgentSearch, params.WithoutPrefix))

	if raw, found := c.store.Get(ctx, key); found {
		var results []CodeResult
		if err := json.Unmarshal([]byte(raw), &results); err == nil {
			return results, nil
		}
		// A corrupt entry falls through to a fresh search.
	}

	results, err := c.inner.SearchCode(ctx, searchText, repository, params)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(results); err == nil {
		_ = c.store.Set(ctx, key, string(raw), searchTTL)
	}
	return results, nil
}

func (c *CachedClient) FetchContent(ctx context.Context, repository, path, branch string) (string, error) {
	key := cache.Key("content", repository, path, branch)

	if content, found := c.store.Get(ctx, key); found {
		return content, nil
	}

	content, err := c.inner.FetchContent(ctx, repository, path, branch)
	if err != nil {
		return "", err
	}
	_ = c.store.Set(ctx, key, content, contentTTL)
	return content, nil
}
