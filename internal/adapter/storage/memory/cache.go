package memory

import (
	"context"
	"sync"
	"time"

	"change-aggregator/internal/core/ports"
)

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// IdempotencyCache is the in-process ports.IdempotencyCache used when Redis is
// disabled. Expired entries are dropped on read.
type IdempotencyCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewIdempotencyCache creates an empty cache.
func NewIdempotencyCache() *IdempotencyCache {
	return &IdempotencyCache{entries: make(map[string]cacheEntry), now: time.Now}
}

func (c *IdempotencyCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, nil
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, nil
	}
	return append([]byte(nil), e.value...), nil
}

func (c *IdempotencyCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: append([]byte(nil), value...), expiresAt: c.now().Add(ttl)}
	return nil
}

type window struct {
	id    int64
	count int64
}

// RateLimitStore is a fixed-window ports.RateLimitStore kept in process memory.
type RateLimitStore struct {
	mu      sync.Mutex
	windows map[string]window
	now     func() time.Time
}

// NewRateLimitStore creates an empty limiter.
func NewRateLimitStore() *RateLimitStore {
	return &RateLimitStore{windows: make(map[string]window), now: time.Now}
}

func (s *RateLimitStore) Allow(_ context.Context, key string, limit int64, win time.Duration) (*ports.RateLimitResult, error) {
	secs := int64(win.Seconds())
	if secs <= 0 {
		secs = 1
	}
	id := s.now().Unix() / secs

	s.mu.Lock()
	w := s.windows[key]
	if w.id != id {
		w = window{id: id}
	}
	w.count++
	s.windows[key] = w
	s.mu.Unlock()

	remaining := limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	return &ports.RateLimitResult{
		Allowed:   w.count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   (id + 1) * secs,
	}, nil
}
