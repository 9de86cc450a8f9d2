// Package cache provides the read-through cache used by the repositories.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// DefaultTTL is how long a cached table snapshot stays usable
const DefaultTTL = 60 * time.Minute

// Well-known keys, one per backing table
const (
	KeyPlays      = "sheets:plays"
	KeyCollection = "sheets:games"
)

// Cache stores opaque payloads under string keys until they expire.
// Invalidating an absent key is not an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Invalidate(ctx context.Context, key string) error
}

// GetJSON reads key and decodes the payload into a T
func GetJSON[T any](ctx context.Context, c Cache, key string) (T, bool, error) {
	var v T
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return v, false, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}
	return v, true, nil
}

// SetJSON encodes v and stores it under key
func SetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", key, err)
	}
	return c.Set(ctx, key, data)
}
