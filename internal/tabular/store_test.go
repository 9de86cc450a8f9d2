package tabular

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/playlog/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMemoryStoreSeedsHeaders(t *testing.T) {
	s := NewMemoryStore(Plays, Collection)

	rows, err := s.ReadRange(context.Background(), Collection)
	if err != nil {
		t.Fatalf("ReadRange() error = %v", err)
	}
	if len(rows) != 1 || len(rows[0]) != Collection.Width() || rows[0][0] != "bgg_id" {
		t.Errorf("ReadRange() = %v, want header only", rows)
	}
}

func TestMemoryStoreAppendAndOverwrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(Collection)

	if err := s.AppendRows(ctx, Collection, [][]string{{"13", "", "", "", ""}, {"822", "", "", "", ""}}); err != nil {
		t.Fatalf("AppendRows() error = %v", err)
	}
	rows, _ := s.ReadRange(ctx, Collection)
	if len(rows) != 3 || rows[2][0] != "822" {
		t.Fatalf("rows after append = %v", rows)
	}

	// Returned rows are copies
	rows[1][0] = "999"
	again, _ := s.ReadRange(ctx, Collection)
	if again[1][0] != "13" {
		t.Error("mutating read result changed stored rows")
	}

	if err := s.OverwriteRange(ctx, Collection, [][]string{Collection.Header, {"1", "A", "", "", ""}}); err != nil {
		t.Fatalf("OverwriteRange() error = %v", err)
	}
	rows, _ = s.ReadRange(ctx, Collection)
	if len(rows) != 2 || rows[1][1] != "A" {
		t.Errorf("rows after overwrite = %v", rows)
	}
}

func TestCell(t *testing.T) {
	row := []string{"a", "b"}
	if Cell(row, 1) != "b" || Cell(row, 5) != "" {
		t.Errorf("Cell() mismatch")
	}
}

type failingStore struct{ err error }

func (f failingStore) ReadRange(context.Context, Table) ([][]string, error) { return nil, f.err }
func (f failingStore) AppendRows(context.Context, Table, [][]string) error  { return f.err }
func (f failingStore) OverwriteRange(context.Context, Table, [][]string) error {
	return f.err
}

func TestInstrumentedRecordsMetrics(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	table := Table{Name: "instrumented_test", Header: []string{"id"}}

	okStore := NewInstrumented(NewMemoryStore(table), logger)
	badStore := NewInstrumented(failingStore{err: errors.New("unavailable")}, logger)

	okCounter := metrics.StoreOperations.WithLabelValues(table.Name, "append", "success")
	errCounter := metrics.StoreOperations.WithLabelValues(table.Name, "append", "error")
	beforeOK, beforeErr := testutil.ToFloat64(okCounter), testutil.ToFloat64(errCounter)

	if err := okStore.AppendRows(ctx, table, [][]string{{"1"}}); err != nil {
		t.Fatalf("AppendRows() error = %v", err)
	}
	if err := badStore.AppendRows(ctx, table, [][]string{{"1"}}); err == nil {
		t.Fatal("AppendRows() on failing store expected error")
	}

	if got := testutil.ToFloat64(okCounter) - beforeOK; got != 1 {
		t.Errorf("success delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(errCounter) - beforeErr; got != 1 {
		t.Errorf("error delta = %v, want 1", got)
	}
}
