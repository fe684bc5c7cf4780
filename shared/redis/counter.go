package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const txnCountKeyPrefix = "user:txn_count:"

// TxnCountKey is the per-user request counter shared by the rate limiter and
// the frequency signal.
func TxnCountKey(userID string) string {
	return txnCountKeyPrefix + userID
}

// RollingCounter counts events in a window that starts at the first increment
// and expires as a whole.
type RollingCounter interface {
	// Increment adds one and returns the post-increment value.
	Increment(ctx context.Context, key string) (int64, error)
	// Get returns the current value, 0 when the key is absent or expired.
	Get(ctx context.Context, key string) (int64, error)
}

type RedisCounter struct {
	client *goredis.Client
	window time.Duration
}

func NewRedisCounter(client *goredis.Client, window time.Duration) *RedisCounter {
	return &RedisCounter{client: client, window: window}
}

func (c *RedisCounter) Increment(ctx context.Context, key string) (int64, error) {
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("increment %s: %w", key, err)
	}
	if n == 1 {
		if err := c.client.Expire(ctx, key, c.window).Err(); err != nil {
			return n, fmt.Errorf("expire %s: %w", key, err)
		}
	}
	return n, nil
}

func (c *RedisCounter) Get(ctx context.Context, key string) (int64, error) {
	n, err := c.client.Get(ctx, key).Int64()
	if err == goredis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", key, err)
	}
	return n, nil
}

// MemoryCounter is the in-process RollingCounter used by tests and
// single-node runs.
type MemoryCounter struct {
	mu      sync.Mutex
	window  time.Duration
	now     func() time.Time
	entries map[string]*windowEntry
}

type windowEntry struct {
	count     int64
	expiresAt time.Time
}

func NewMemoryCounter(window time.Duration) *MemoryCounter {
	return &MemoryCounter{window: window, now: time.Now, entries: make(map[string]*windowEntry)}
}

// WithClock replaces the time source.
func (c *MemoryCounter) WithClock(now func() time.Time) *MemoryCounter {
	c.now = now
	return c
}

func (c *MemoryCounter) Increment(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e, ok := c.entries[key]
	if !ok || !now.Before(e.expiresAt) {
		e = &windowEntry{expiresAt: now.Add(c.window)}
		c.entries[key] = e
	}
	e.count++
	return e.count, nil
}

func (c *MemoryCounter) Get(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return 0, nil
	}
	return e.count, nil
}
