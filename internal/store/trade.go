package store

import (
	"sync"

	"github.com/efreitasn/tradesim/internal/domain"
)

// TradeStore is a thread-safe in-memory store for trades, chronological
// and append-only, with a primary index by trade ID. Retention is bounded:
// once the history exceeds the limit, the oldest trades are compacted away.
// A cumulative counter survives compaction so total-trade stats stay exact.
type TradeStore struct {
	mu     sync.RWMutex
	limit  int
	trades []*domain.Trade
	byID   map[int64]*domain.Trade
	total  int64
}

// NewTradeStore creates an empty TradeStore retaining at most limit trades.
// A limit of zero or less means unbounded retention.
func NewTradeStore(limit int) *TradeStore {
	return &TradeStore{
		limit: limit,
		byID:  make(map[int64]*domain.Trade),
	}
}

// Append adds a trade to the history, compacting the oldest trades when
// the retention limit is exceeded.
func (s *TradeStore) Append(t *domain.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trades = append(s.trades, t)
	s.byID[t.ID] = t
	s.total++

	if s.limit > 0 && len(s.trades) > s.limit {
		drop := len(s.trades) - s.limit
		for _, old := range s.trades[:drop] {
			delete(s.byID, old.ID)
		}
		s.trades = append(s.trades[:0:0], s.trades[drop:]...)
	}
}

// Get retrieves a trade by ID. It returns domain.ErrTradeNotFound if the
// trade does not exist or has been compacted away.
func (s *TradeStore) Get(id int64) (*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrTradeNotFound
	}
	return t, nil
}

// Recent returns up to n of the most recent trades in chronological order.
// The result holds value copies so callers observe a consistent view even
// as trade statuses settle later.
func (s *TradeStore) Recent(n int) []domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := len(s.trades) - n
	if n <= 0 || start < 0 {
		start = 0
	}
	result := make([]domain.Trade, 0, len(s.trades)-start)
	for _, t := range s.trades[start:] {
		result = append(result, *t)
	}
	return result
}

// Total returns the cumulative number of trades ever appended, including
// trades compacted out of the retained window.
func (s *TradeStore) Total() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// Len returns the number of trades currently retained.
func (s *TradeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trades)
}

// Reset clears the history and the cumulative counter.
func (s *TradeStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trades = nil
	s.byID = make(map[int64]*domain.Trade)
	s.total = 0
}
