package store

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/tradesim/internal/domain"
)

func newTestTrade(id int64, executedAt time.Time) *domain.Trade {
	return &domain.Trade{
		ID:          id,
		Price:       decimal.NewFromInt(100),
		Quantity:    10,
		BuyOrderID:  1,
		SellOrderID: 2,
		ExecutedAt:  executedAt,
		Status:      domain.TradeStatusMatched,
	}
}

func TestTradeStore_AppendAndGet(t *testing.T) {
	s := NewTradeStore(0)
	now := time.Now()

	s.Append(newTestTrade(1, now))
	s.Append(newTestTrade(2, now.Add(time.Second)))

	tr, err := s.Get(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.ID != 1 {
		t.Errorf("expected trade 1, got %d", tr.ID)
	}

	if _, err := s.Get(99); !errors.Is(err, domain.ErrTradeNotFound) {
		t.Errorf("expected ErrTradeNotFound, got %v", err)
	}
}

func TestTradeStore_Recent_TrailingWindow(t *testing.T) {
	s := NewTradeStore(0)
	now := time.Now()
	for i := int64(1); i <= 5; i++ {
		s.Append(newTestTrade(i, now))
	}

	recent := s.Recent(3)
	if len(recent) != 3 {
		t.Fatalf("expected 3 trades, got %d", len(recent))
	}
	if recent[0].ID != 3 || recent[2].ID != 5 {
		t.Errorf("expected trades 3..5, got %d..%d", recent[0].ID, recent[2].ID)
	}

	// Asking for more than exists returns all.
	if got := s.Recent(100); len(got) != 5 {
		t.Errorf("expected 5 trades, got %d", len(got))
	}
}

func TestTradeStore_Recent_ReturnsCopies(t *testing.T) {
	s := NewTradeStore(0)
	tr := newTestTrade(1, time.Now())
	s.Append(tr)

	recent := s.Recent(1)
	tr.Status = domain.TradeStatusSettled

	if recent[0].Status != domain.TradeStatusMatched {
		t.Error("Recent result mutated by later status change")
	}
}

func TestTradeStore_Compaction(t *testing.T) {
	s := NewTradeStore(3)
	now := time.Now()
	for i := int64(1); i <= 5; i++ {
		s.Append(newTestTrade(i, now))
	}

	if s.Len() != 3 {
		t.Fatalf("expected 3 retained, got %d", s.Len())
	}
	if s.Total() != 5 {
		t.Errorf("expected cumulative total 5, got %d", s.Total())
	}
	// Oldest trades are gone from the index too.
	if _, err := s.Get(1); !errors.Is(err, domain.ErrTradeNotFound) {
		t.Errorf("expected compacted trade 1 gone, got %v", err)
	}
	if _, err := s.Get(5); err != nil {
		t.Errorf("expected trade 5 retained, got %v", err)
	}
}

func TestTradeStore_Reset(t *testing.T) {
	s := NewTradeStore(0)
	s.Append(newTestTrade(1, time.Now()))

	s.Reset()

	if s.Len() != 0 || s.Total() != 0 {
		t.Errorf("expected empty store, got len %d total %d", s.Len(), s.Total())
	}
	if got := s.Recent(10); len(got) != 0 {
		t.Errorf("expected no trades, got %d", len(got))
	}
}
