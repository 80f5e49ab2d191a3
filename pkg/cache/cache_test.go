package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Hour)

	if _, found := c.Get(ctx, "missing"); found {
		t.Error("unexpected hit for missing key")
	}

	if err := c.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, found := c.Get(ctx, "k")
	if !found || got != "v" {
		t.Errorf("Get = (%q, %v), want (\"v\", true)", got, found)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found := c.Get(ctx, "k"); found {
		t.Error("key survived Delete")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Hour)
	c.Set(ctx, "k", "v", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	if _, found := c.Get(ctx, "k"); found {
		t.Error("key survived its TTL")
	}
}

func TestKeyIsStableAndNamespaced(t *testing.T) {
	a := Key("search", "AdsAppsMT", "account schema")
	b := Key("search", "AdsAppsMT", "account schema")
	if a != b {
		t.Errorf("same inputs produced %q and %q", a, b)
	}
	if !strings.HasPrefix(a, "search:") {
		t.Errorf("key %q missing namespace prefix", a)
	}
	if c := Key("content", "AdsAppsMT", "account schema"); c == a {
		t.Error("different prefixes collided")
	}
	if d := Key("search", "CosmosWiki", "account schema"); d == a {
		t.Error("different parts collided")
	}
}
