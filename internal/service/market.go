package service

import (
	"github.com/shopspring/decimal"

	"github.com/efreitasn/tradesim/internal/broadcast"
	"github.com/efreitasn/tradesim/internal/domain"
	"github.com/efreitasn/tradesim/internal/engine"
)

// Trailing-window sizes for market state projections. Push messages carry
// the last pushWindow trades and ledger entries; pull queries return the
// last queryWindow.
const (
	pushWindow  = 10
	queryWindow = 20
)

// Stats summarizes trade and settlement totals.
type Stats struct {
	TotalTrades  int64
	SettledCount int64
	PendingCount int
}

// MarketService coordinates the engine and the broadcaster: every
// state-changing operation runs through the market aggregate and is
// followed by a publish, so observers see each change as it lands.
type MarketService struct {
	market *engine.Market
	bc     *broadcast.Broadcaster
}

// NewMarketService creates a MarketService over the given market and
// broadcaster.
func NewMarketService(market *engine.Market, bc *broadcast.Broadcaster) *MarketService {
	return &MarketService{market: market, bc: bc}
}

// Submit runs an order through the matching engine and publishes the
// resulting state whether or not the order produced trades. Validation
// failures reject the order with no state change and no publish.
func (s *MarketService) Submit(side domain.Side, price decimal.Decimal, quantity int64) (domain.Order, []domain.Trade, error) {
	order, trades, err := s.market.Submit(side, price, quantity)
	if err != nil {
		return domain.Order{}, nil, err
	}
	s.PublishState()
	return order, trades, nil
}

// Book returns the full current order book.
func (s *MarketService) Book() domain.BookSnapshot {
	return s.market.Book()
}

// RecentTrades returns the trailing window of trades for pull queries.
func (s *MarketService) RecentTrades() []domain.Trade {
	return s.market.RecentTrades(queryWindow)
}

// RecentLedger returns the trailing window of ledger entries for pull
// queries.
func (s *MarketService) RecentLedger() []domain.LedgerEntry {
	return s.market.RecentLedger(queryWindow)
}

// Stats returns trade and settlement totals.
func (s *MarketService) Stats() Stats {
	total, settled, pending := s.market.Stats()
	return Stats{
		TotalTrades:  total,
		SettledCount: settled,
		PendingCount: pending,
	}
}

// Reset clears all market state, restarts the ID counters, and publishes
// the empty snapshot.
func (s *MarketService) Reset() {
	s.market.Reset()
	s.PublishState()
}

// Snapshot builds the push-window projection of current market state.
// Observers receive exactly this shape on connect and on every publish.
func (s *MarketService) Snapshot() domain.MarketSnapshot {
	return s.market.Snapshot(pushWindow)
}

// PublishState fans the current snapshot out to all observers. It
// implements engine.StatePublisher for the settlement scheduler.
func (s *MarketService) PublishState() {
	s.bc.Publish(s.Snapshot())
}
