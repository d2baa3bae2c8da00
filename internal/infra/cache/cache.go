// Package cache is the local read cache consulted by services on first attempts.
// Retries (forceRefresh) skip it and go straight to the authoritative store.
package cache

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/vietddude/campusconnect/internal/metrics"
)

// Cache stores JSON-serialisable values by key.
type Cache interface {
	// Get decodes the value at key into dst. found is false on a miss.
	Get(ctx context.Context, key string, dst any) (found bool, err error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Key joins parts into a namespaced cache key.
func Key(parts ...string) string {
	return "cc:" + strings.Join(parts, ":")
}

// Fetch is a read-through helper. Unless forceRefresh is set the cache is
// consulted first; on a miss or a refresh the value is loaded and stored.
// Cache failures are logged and never fail the read.
func Fetch[T any](
	ctx context.Context,
	c Cache,
	key string,
	ttl time.Duration,
	forceRefresh bool,
	load func(ctx context.Context) (T, error),
) (T, error) {
	if c == nil {
		return load(ctx)
	}

	if forceRefresh {
		metrics.CacheRequestsTotal.WithLabelValues("bypass").Inc()
	} else {
		var cached T
		found, err := c.Get(ctx, key, &cached)
		switch {
		case err != nil:
			metrics.CacheRequestsTotal.WithLabelValues("error").Inc()
			slog.Debug("Cache read failed", "key", key, "error", err)
		case found:
			metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
		}
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if err := c.Set(ctx, key, v, ttl); err != nil {
		slog.Debug("Cache write failed", "key", key, "error", err)
	}
	return v, nil
}

// Invalidate deletes keys, logging failures.
func Invalidate(ctx context.Context, c Cache, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.Delete(ctx, keys...); err != nil {
		slog.Warn("Cache invalidation failed", "keys", keys, "error", err)
	}
}
