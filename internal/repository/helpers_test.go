package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/playlog/internal/cache"
	"github.com/playlog/internal/tabular"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errUnavailable = errors.New("store unavailable")

// flakyStore wraps a MemoryStore and fails selected operations
type flakyStore struct {
	*tabular.MemoryStore
	failRead   bool
	failAppend bool
	reads      int
}

func (s *flakyStore) ReadRange(ctx context.Context, t tabular.Table) ([][]string, error) {
	s.reads++
	if s.failRead {
		return nil, errUnavailable
	}
	return s.MemoryStore.ReadRange(ctx, t)
}

func (s *flakyStore) AppendRows(ctx context.Context, t tabular.Table, rows [][]string) error {
	if s.failAppend {
		return errUnavailable
	}
	return s.MemoryStore.AppendRows(ctx, t, rows)
}

// countingCache records invalidations on top of an in-memory cache
type countingCache struct {
	*cache.Memory
	mu          sync.Mutex
	invalidated []string
}

func newCountingCache() *countingCache {
	return &countingCache{Memory: cache.NewMemory(cache.DefaultTTL)}
}

func (c *countingCache) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	c.invalidated = append(c.invalidated, key)
	c.mu.Unlock()
	return c.Memory.Invalidate(ctx, key)
}

// brokenCache fails every operation
type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("cache down")
}
func (brokenCache) Set(context.Context, string, []byte) error { return errors.New("cache down") }
func (brokenCache) Invalidate(context.Context, string) error  { return errors.New("cache down") }
