// Package cache is a read-through cache over Redis, plus the debounce and
// counter primitives built on the same backend.
//
// The cache is never authoritative: every entry is a derived copy of store
// state, so a backend failure degrades to a miss (fail-open) rather than an
// error the caller has to handle. Losing the whole backend costs latency,
// never correctness.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent, expired, or the backend
// is unreachable. Callers cannot distinguish those cases, on purpose.
var ErrMiss = errors.New("cache: miss")

// Cache wraps a shared Redis client. Values are serialized as JSON.
type Cache struct {
	rdb *redis.Client
}

// New returns a Cache backed by rdb.
func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Get unmarshals the value at key into dest. Backend errors are logged and
// reported as ErrMiss.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("cache get failed", "key", key, "err", err)
		}
		return ErrMiss
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// A payload we can't decode is as good as absent.
		slog.Warn("cache entry undecodable", "key", key, "err", err)
		return ErrMiss
	}
	return nil
}

// Set stores value at key. A zero ttl means no expiry. Errors are logged and
// returned, but callers are free to ignore them: a lost write only costs a
// future miss.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %q: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		slog.Warn("cache set failed", "key", key, "err", err)
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	return nil
}

// Del removes the given keys. Errors are logged and swallowed — deletion is
// always an invalidation of derived state, and the entry will expire anyway.
func (c *Cache) Del(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("cache del failed", "keys", keys, "err", err)
	}
}

// InvalidatePattern deletes every key matching the glob pattern and returns
// how many were removed. Used for bulk invalidation (e.g. a category rename
// touching a whole namespace) where precise dependency tracking isn't worth
// it.
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) (int, error) {
	var deleted int
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			slog.Warn("cache pattern del failed", "key", iter.Val(), "err", err)
			continue
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		slog.Warn("cache pattern scan failed", "pattern", pattern, "err", err)
		return deleted, err
	}
	return deleted, nil
}

// Increment atomically increments the counter at key and returns the new
// value. Counters live outside the TTL'd entry namespace.
func (c *Cache) Increment(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("cache incr %q: %w", key, err)
	}
	return n, nil
}

// Decrement atomically decrements the counter at key.
func (c *Cache) Decrement(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.Decr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("cache decr %q: %w", key, err)
	}
	return n, nil
}

// MarkIfAbsent is the debounce primitive: it atomically sets a marker at key
// with the given ttl if, and only if, no marker exists. It reports whether
// this call won (the key was absent). The check-and-set is a single SET NX
// round trip — two concurrent callers can never both win.
//
// On backend failure it returns false with the error: the caller should skip
// the debounced action rather than risk repeating it every request while the
// backend is down.
func (c *Cache) MarkIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	won, err := c.rdb.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		slog.Warn("cache marker failed", "key", key, "err", err)
		return false, fmt.Errorf("cache setnx %q: %w", key, err)
	}
	return won, nil
}

// GetOrSet returns the cached value at key, or on miss calls producer,
// stores its result with ttl, and returns it. There is no per-key lock:
// concurrent misses may run producer more than once, which is wasted work
// but never incorrect, since the store behind producer stays authoritative.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, producer func(context.Context) (T, error)) (T, error) {
	var cached T
	if err := c.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	value, err := producer(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	_ = c.Set(ctx, key, value, ttl) // fail-open
	return value, nil
}
