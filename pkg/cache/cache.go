package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// defaultOperationTimeout is the timeout for individual Redis operations
	defaultOperationTimeout = 5 * time.Second

	pagePrefix = "page:"
)

var (
	ErrCacheMiss = errors.New("cache miss")
	ErrDisabled  = errors.New("cache disabled")
)

// CachedPage is a fully rendered response body keyed by host and path.
type CachedPage struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

type Cache struct {
	client  *redis.Client
	enabled bool
	ttl     time.Duration
}

// NewCache connects to Redis when enable is set. A disabled cache is valid
// and turns every write into a no-op and every read into ErrDisabled.
func NewCache(addr string, enable bool, ttl time.Duration) (*Cache, error) {
	if !enable {
		return &Cache{enabled: false, ttl: ttl}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{
		client:  client,
		enabled: true,
		ttl:     ttl,
	}, nil
}

func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

func (c *Cache) operationContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, defaultOperationTimeout)
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if !c.Enabled() {
		return nil
	}

	ctx, cancel := c.operationContext(ctx)
	defer cancel()

	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, jsonData, expiration).Err()
}

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	if !c.Enabled() {
		return ErrDisabled
	}

	ctx, cancel := c.operationContext(ctx)
	defer cancel()

	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	} else if err != nil {
		return err
	}
	return json.Unmarshal(val, dest)
}

func (c *Cache) DeletePattern(ctx context.Context, pattern string) error {
	if !c.Enabled() {
		return nil
	}

	ctx, cancel := c.operationContext(ctx)
	defer cancel()

	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// PageKey builds the cache key for a rendered page.
func PageKey(host, path string) string {
	return pagePrefix + strings.ToLower(strings.TrimSpace(host)) + ":" + path
}

func (c *Cache) CachePage(ctx context.Context, host, path string, page CachedPage) error {
	if !c.Enabled() {
		return nil
	}
	return c.Set(ctx, PageKey(host, path), page, c.ttl)
}

func (c *Cache) GetCachedPage(ctx context.Context, host, path string) (CachedPage, error) {
	var page CachedPage
	err := c.Get(ctx, PageKey(host, path), &page)
	return page, err
}

// InvalidatePagesCache drops every rendered page, used after content reloads.
func (c *Cache) InvalidatePagesCache(ctx context.Context) error {
	return c.DeletePattern(ctx, pagePrefix+"*")
}
