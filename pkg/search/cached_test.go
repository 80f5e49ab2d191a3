package search

import (
	"code-research-be/pkg/cache"
	"context"
	"errors"
	"testing"
	"time"
)

type countingClient struct {
	searches int
	fetches  int
	fail     bool
}

func (c *countingClient) SearchCode(_ context.Context, searchText, repository string, _ SearchParams) ([]CodeResult, error) {
	c.searches++
	if c.fail {
		return nil, errors.New("backend down")
	}
	return []CodeResult{{Repository: repository, Path: "/src/" + searchText + ".cs", Branch: "master"}}, nil
}

func (c *countingClient) FetchContent(_ context.Context, _, path, _ string) (string, error) {
	c.fetches++
	if c.fail {
		return "", errors.New("backend down")
	}
	return "content of " + path, nil
}

func TestCachedClientSearchReadThrough(t *testing.T) {
	ctx := context.Background()
	inner := &countingClient{}
	c := NewCachedClient(inner, cache.NewMemoryCache(time.Hour))

	first, err := c.SearchCode(ctx, "account", "AdsAppsMT", SearchParams{})
	if err != nil {
		t.Fatalf("first search: %v", err)
	}
	second, err := c.SearchCode(ctx, "account", "AdsAppsMT", SearchParams{})
	if err != nil {
		t.Fatalf("second search: %v", err)
	}
	if inner.searches != 1 {
		t.Errorf("backend searches = %d, want 1", inner.searches)
	}
	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Errorf("cached result mismatch: %v vs %v", first, second)
	}

	// A different repository misses.
	if _, err := c.SearchCode(ctx, "account", "AdsAppsDB", SearchParams{}); err != nil {
		t.Fatalf("third search: %v", err)
	}
	if inner.searches != 2 {
		t.Errorf("backend searches = %d, want 2", inner.searches)
	}

	// Different params miss too.
	if _, err := c.SearchCode(ctx, "account", "AdsAppsMT", SearchParams{AgentSearch: true}); err != nil {
		t.Fatalf("fourth search: %v", err)
	}
	if inner.searches != 3 {
		t.Errorf("backend searches = %d, want 3", inner.searches)
	}
}

func TestCachedClientContentReadThrough(t *testing.T) {
	ctx := context.Background()
	inner := &countingClient{}
	c := NewCachedClient(inner, cache.NewMemoryCache(time.Hour))

	for i := 0; i < 3; i++ {
		content, err := c.FetchContent(ctx, "AdsAppsMT", "/src/Account.cs", "master")
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if content != "content of /src/Account.cs" {
			t.Errorf("fetch %d content = %q", i, content)
		}
	}
	if inner.fetches != 1 {
		t.Errorf("backend fetches = %d, want 1", inner.fetches)
	}
}

func TestCachedClientDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	inner := &countingClient{fail: true}
	c := NewCachedClient(inner, cache.NewMemoryCache(time.Hour))

	if _, err := c.SearchCode(ctx, "q", "r", SearchParams{}); err == nil {
		t.Fatal("want error from failing backend")
	}
	inner.fail = false
	if _, err := c.SearchCode(ctx, "q", "r", SearchParams{}); err != nil {
		t.Fatalf("recovered search: %v", err)
	}
	if inner.searches != 2 {
		t.Errorf("backend searches = %d, want 2 (error not cached)", inner.searches)
	}
}
