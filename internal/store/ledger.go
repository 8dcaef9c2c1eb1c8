package store

import (
	"sync"
	"time"

	"github.com/efreitasn/tradesim/internal/domain"
)

// LedgerStore is the clearing ledger: a thread-safe chronological store of
// ledger entries, one per trade. Entries are appended as pending and
// transitioned to settled by the settlement scheduler. Retention is bounded
// like the trade history, but compaction never evicts a pending entry.
type LedgerStore struct {
	mu      sync.RWMutex
	limit   int
	entries []*domain.LedgerEntry
	pending int
}

// NewLedgerStore creates an empty LedgerStore retaining at most limit
// settled entries. A limit of zero or less means unbounded retention.
func NewLedgerStore(limit int) *LedgerStore {
	return &LedgerStore{limit: limit}
}

// Append adds a pending entry to the ledger.
func (s *LedgerStore) Append(e *domain.LedgerEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, e)
	if e.Status == domain.LedgerStatusPending {
		s.pending++
	}

	if s.limit > 0 && len(s.entries) > s.limit {
		s.compactLocked()
	}
}

// compactLocked drops the oldest settled entries until the ledger is back
// within its retention limit. Pending entries are always retained so the
// settlement scan never loses work.
func (s *LedgerStore) compactLocked() {
	excess := len(s.entries) - s.limit
	kept := make([]*domain.LedgerEntry, 0, s.limit)
	for _, e := range s.entries {
		if excess > 0 && e.Status == domain.LedgerStatusSettled {
			excess--
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
}

// DuePending returns pointers to every pending entry whose settlement
// deadline has passed. The caller mutates the entries in place under the
// market's write lock.
func (s *LedgerStore) DuePending(now time.Time) []*domain.LedgerEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []*domain.LedgerEntry
	for _, e := range s.entries {
		if e.Due(now) {
			due = append(due, e)
		}
	}
	return due
}

// MarkSettled transitions an entry to settled and updates the pending count.
// It is a no-op if the entry has already settled.
func (s *LedgerStore) MarkSettled(e *domain.LedgerEntry, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.Status != domain.LedgerStatusPending {
		return
	}
	e.Status = domain.LedgerStatusSettled
	settledAt := now
	e.SettledAt = &settledAt
	s.pending--
}

// Recent returns up to n of the most recent entries in chronological order
// as value copies.
func (s *LedgerStore) Recent(n int) []domain.LedgerEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := len(s.entries) - n
	if n <= 0 || start < 0 {
		start = 0
	}
	result := make([]domain.LedgerEntry, 0, len(s.entries)-start)
	for _, e := range s.entries[start:] {
		result = append(result, *e)
	}
	return result
}

// PendingCount returns the number of entries still awaiting settlement.
func (s *LedgerStore) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

// Len returns the number of entries currently retained.
func (s *LedgerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Reset clears the ledger.
func (s *LedgerStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.pending = 0
}
