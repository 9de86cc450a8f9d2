package tabular

import (
	"context"
	"log/slog"
	"time"

	"github.com/playlog/internal/metrics"
)

// Instrumented wraps a Store with metrics and debug logging
type Instrumented struct {
	next   Store
	logger *slog.Logger
}

// NewInstrumented wraps next
func NewInstrumented(next Store, logger *slog.Logger) *Instrumented {
	return &Instrumented{next: next, logger: logger}
}

// ReadRange delegates to the wrapped store
func (s *Instrumented) ReadRange(ctx context.Context, table Table) ([][]string, error) {
	start := time.Now()
	rows, err := s.next.ReadRange(ctx, table)
	metrics.ObserveStore(table.Name, "read", start, err)
	s.logger.Debug("store read", "table", table.Name, "rows", len(rows), "duration", time.Since(start), "error", err)
	return rows, err
}

// AppendRows delegates to the wrapped store
func (s *Instrumented) AppendRows(ctx context.Context, table Table, rows [][]string) error {
	start := time.Now()
	err := s.next.AppendRows(ctx, table, rows)
	metrics.ObserveStore(table.Name, "append", start, err)
	s.logger.Debug("store append", "table", table.Name, "rows", len(rows), "duration", time.Since(start), "error", err)
	return err
}

// OverwriteRange delegates to the wrapped store
func (s *Instrumented) OverwriteRange(ctx context.Context, table Table, rows [][]string) error {
	start := time.Now()
	err := s.next.OverwriteRange(ctx, table, rows)
	metrics.ObserveStore(table.Name, "overwrite", start, err)
	s.logger.Debug("store overwrite", "table", table.Name, "rows", len(rows), "duration", time.Since(start), "error", err)
	return err
}
