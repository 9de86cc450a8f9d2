package tabular

import (
	"context"
	"sync"
)

// MemoryStore keeps tables in process memory. Each table starts with its
// header row.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string][][]string
}

// NewMemoryStore creates a store seeded with the header of each table
func NewMemoryStore(tables ...Table) *MemoryStore {
	s := &MemoryStore{tables: make(map[string][][]string)}
	for _, t := range tables {
		s.tables[t.Name] = [][]string{cloneRow(t.Header)}
	}
	return s
}

// ReadRange returns a copy of all rows of table
func (s *MemoryStore) ReadRange(_ context.Context, table Table) ([][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRows(s.tables[table.Name]), nil
}

// AppendRows adds rows after the last row of table
func (s *MemoryStore) AppendRows(_ context.Context, table Table, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table.Name] = append(s.tables[table.Name], cloneRows(rows)...)
	return nil
}

// OverwriteRange replaces all rows of table
func (s *MemoryStore) OverwriteRange(_ context.Context, table Table, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table.Name] = cloneRows(rows)
	return nil
}

func cloneRows(rows [][]string) [][]string {
	if rows == nil {
		return nil
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = cloneRow(r)
	}
	return out
}

func cloneRow(r []string) []string {
	out := make([]string, len(r))
	copy(out, r)
	return out
}
