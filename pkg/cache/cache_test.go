package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	c, err := NewCache("", false, time.Minute)
	if err != nil {
		t.Fatalf("NewCache returned error: %v", err)
	}
	if c.Enabled() {
		t.Fatalf("expected disabled cache")
	}

	ctx := context.Background()
	if err := c.CachePage(ctx, "example.com", "/about", CachedPage{Status: 200, Body: []byte("ok")}); err != nil {
		t.Fatalf("CachePage on disabled cache returned %v", err)
	}
	if _, err := c.GetCachedPage(ctx, "example.com", "/about"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if err := c.InvalidatePagesCache(ctx); err != nil {
		t.Fatalf("InvalidatePagesCache returned %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close returned %v", err)
	}
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *Cache
	if c.Enabled() {
		t.Fatalf("nil cache must report disabled")
	}
	if _, err := c.GetCachedPage(context.Background(), "h", "/"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if err := c.CachePage(context.Background(), "h", "/", CachedPage{Status: 200}); err != nil {
		t.Fatalf("CachePage on nil cache returned %v", err)
	}
	if err := c.InvalidatePagesCache(context.Background()); err != nil {
		t.Fatalf("InvalidatePagesCache on nil cache returned %v", err)
	}
}

func TestPageKey(t *testing.T) {
	cases := []struct {
		host, path, want string
	}{
		{"Example.com", "/about", "page:example.com:/about"},
		{" kofosu.dev ", "/", "page:kofosu.dev:/"},
	}
	for _, tc := range cases {
		if got := PageKey(tc.host, tc.path); got != tc.want {
			t.Errorf("PageKey(%q, %q) = %q, want %q", tc.host, tc.path, got, tc.want)
		}
	}
}
