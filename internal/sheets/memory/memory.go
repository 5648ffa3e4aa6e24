package memory

import (
	"context"
	"fmt"
	"sync"

	ports "jellybank/internal/sheets"
)

// Store keeps exported rows in memory. Used in development and tests
// where no spreadsheet is configured.
type Store struct {
	mu    sync.Mutex
	items []ports.ExportEntry
}

var _ ports.LedgerWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Append stores the entry and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e ports.ExportEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Entries returns a copy of everything appended so far.
func (s *Store) Entries() []ports.ExportEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.ExportEntry(nil), s.items...)
}
