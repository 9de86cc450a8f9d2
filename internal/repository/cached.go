package repository

import (
	"context"
	"log/slog"

	"github.com/playlog/internal/cache"
	"github.com/playlog/internal/metrics"
)

// readThrough returns the cached value under key, or loads, caches and
// returns it. Cache failures are logged and treated as misses; the store
// stays authoritative.
func readThrough[T any](ctx context.Context, c cache.Cache, key string, logger *slog.Logger, load func(context.Context) (T, error)) (T, error) {
	v, ok, err := cache.GetJSON[T](ctx, c, key)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues(key, "error").Inc()
		logger.Warn("cache read failed", "key", key, "error", err)
	case ok:
		metrics.CacheLookups.WithLabelValues(key, "hit").Inc()
		return v, nil
	default:
		metrics.CacheLookups.WithLabelValues(key, "miss").Inc()
	}

	v, err = load(ctx)
	if err != nil {
		return v, err
	}

	if err := cache.SetJSON(ctx, c, key, v); err != nil {
		logger.Warn("cache write failed", "key", key, "error", err)
	}
	return v, nil
}

// invalidate drops key after a successful write. It runs even when the
// caller's context was cancelled after the write landed.
func invalidate(ctx context.Context, c cache.Cache, key string, logger *slog.Logger) {
	if err := c.Invalidate(context.WithoutCancel(ctx), key); err != nil {
		logger.Error("cache invalidation failed", "key", key, "error", err)
	}
}
