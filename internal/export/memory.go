package export

import (
	"context"
	"fmt"
	"sync"
)

// MemoryLedger keeps appended entries in memory. Used by tests and by
// deployments that have no spreadsheet configured.
type MemoryLedger struct {
	mu      sync.Mutex
	entries []LedgerEntry
}

var _ LedgerAppender = (*MemoryLedger)(nil)

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

// Append stores the entry and returns a synthetic row reference.
func (m *MemoryLedger) Append(_ context.Context, entry LedgerEntry) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return fmt.Sprintf("mem:%d", len(m.entries)), nil
}

// Entries returns a copy of everything appended so far.
func (m *MemoryLedger) Entries() []LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LedgerEntry(nil), m.entries...)
}
