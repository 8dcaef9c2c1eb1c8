package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/tradesim/internal/domain"
	"github.com/efreitasn/tradesim/internal/store"
)

// Market is the single owned aggregate for all engine state: the order
// book, the trade history, the clearing ledger, the monotonic ID
// counters, and the settled-trade counter. Every operation that reads or
// mutates this state (submission, the settlement scan, snapshots, reset)
// runs under the one mutex here, so matching and
// settlement never interleave and every snapshot reflects a consistent
// instant.
type Market struct {
	mu              sync.Mutex
	book            *OrderBook
	trades          *store.TradeStore
	ledger          *store.LedgerStore
	settlementDelay time.Duration
	orderSeq        int64
	tradeSeq        int64
	settledCount    int64
	now             func() time.Time
}

// NewMarket creates an empty market. settlementDelay is the fixed span
// between a trade clearing and becoming eligible for settlement;
// historyLimit bounds trade and ledger retention (0 = unbounded).
func NewMarket(settlementDelay time.Duration, historyLimit int) *Market {
	return &Market{
		book:            NewOrderBook(),
		trades:          store.NewTradeStore(historyLimit),
		ledger:          store.NewLedgerStore(historyLimit),
		settlementDelay: settlementDelay,
		now:             time.Now,
	}
}

// Submit validates and processes an incoming limit order. The order is
// assigned a fresh monotonic ID, inserted on its side of the book, and
// the match loop runs until no crossing price remains. Each match emits
// a trade at the best ask's price together with its pending ledger entry.
//
// Validation failures reject the order before any book mutation. The
// returned order and trades are value copies taken under the market
// lock; later fills and settlements do not mutate them.
func (m *Market) Submit(side domain.Side, price decimal.Decimal, quantity int64) (domain.Order, []domain.Trade, error) {
	if !side.Valid() {
		return domain.Order{}, nil, &domain.ValidationError{
			Message: fmt.Sprintf("side must be %q or %q", domain.SideBuy, domain.SideSell),
		}
	}
	if price.Sign() <= 0 {
		return domain.Order{}, nil, &domain.ValidationError{Message: "price must be positive"}
	}
	if quantity <= 0 {
		return domain.Order{}, nil, &domain.ValidationError{Message: "quantity must be a positive integer"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.orderSeq++
	order := &domain.Order{
		ID:          m.orderSeq,
		Side:        side,
		Price:       price,
		Quantity:    quantity,
		SubmittedAt: m.now(),
	}
	m.book.Insert(order)

	matched := m.matchLocked()
	trades := make([]domain.Trade, len(matched))
	for i, t := range matched {
		trades[i] = *t
	}
	return *order, trades, nil
}

// matchLocked runs the match loop: while the best bid and best ask cross
// (bid price ≥ ask price), trade min(bid, ask) quantity at the ask's
// price, decrement both resting orders, and evict any order that reaches
// zero. The loop consumes at least one resting order per iteration, so it
// terminates in O(matches) steps.
//
// The ask's price sets the match price even when the ask is the incoming
// aggressor. This is not maker-price improvement; clients depend on the
// ask price winning in both directions.
func (m *Market) matchLocked() []*domain.Trade {
	var matches []*domain.Trade

	for {
		bestBid, okBid := m.book.BestBid()
		bestAsk, okAsk := m.book.BestAsk()
		if !okBid || !okAsk {
			break
		}
		if bestBid.Price.Cmp(bestAsk.Price) < 0 {
			break
		}

		matchPrice := bestAsk.Price
		matchQuantity := bestBid.Order.Quantity
		if bestAsk.Order.Quantity < matchQuantity {
			matchQuantity = bestAsk.Order.Quantity
		}

		now := m.now()
		m.tradeSeq++
		trade := &domain.Trade{
			ID:          m.tradeSeq,
			Price:       matchPrice,
			Quantity:    matchQuantity,
			BuyOrderID:  bestBid.OrderID,
			SellOrderID: bestAsk.OrderID,
			ExecutedAt:  now,
			Status:      domain.TradeStatusMatched,
		}
		m.trades.Append(trade)
		m.ledger.Append(&domain.LedgerEntry{
			TradeID:         trade.ID,
			Status:          domain.LedgerStatusPending,
			ClearedAt:       now,
			SettlementDueAt: now.Add(m.settlementDelay),
		})
		matches = append(matches, trade)

		m.book.Reduce(bestBid.OrderID, matchQuantity)
		m.book.Reduce(bestAsk.OrderID, matchQuantity)
	}

	return matches
}

// Settle transitions every pending ledger entry past its settlement
// deadline to settled, stamps SettledAt, marks the paired trade settled,
// and advances the settled counter. A ledger entry whose trade is missing
// is logged and skipped; one bad entry never blocks the rest of the scan.
// It returns the number of entries settled.
func (m *Market) Settle(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	due := m.ledger.DuePending(now)
	for _, entry := range due {
		m.ledger.MarkSettled(entry, now)
		m.settledCount++

		trade, err := m.trades.Get(entry.TradeID)
		if err != nil {
			slog.Warn("settlement: ledger entry references unknown trade",
				slog.Int64("trade_id", entry.TradeID))
			continue
		}
		trade.Status = domain.TradeStatusSettled
	}
	return len(due)
}

// Snapshot builds the observer projection: the full current book plus the
// last n trades and ledger entries and the settled counter, all captured
// under the market lock.
func (m *Market) Snapshot(n int) domain.MarketSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return domain.MarketSnapshot{
		OrderBook:    m.book.Snapshot(),
		Trades:       m.trades.Recent(n),
		Ledger:       m.ledger.Recent(n),
		SettledCount: m.settledCount,
	}
}

// Stats reports the cumulative trade count, the settled counter, and the
// number of ledger entries still pending.
func (m *Market) Stats() (totalTrades, settledCount int64, pendingCount int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.trades.Total(), m.settledCount, m.ledger.PendingCount()
}

// Book returns a value-copy snapshot of the current order book.
func (m *Market) Book() domain.BookSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.book.Snapshot()
}

// RecentTrades returns up to n of the most recent trades.
func (m *Market) RecentTrades(n int) []domain.Trade {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.trades.Recent(n)
}

// RecentLedger returns up to n of the most recent ledger entries.
func (m *Market) RecentLedger(n int) []domain.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ledger.Recent(n)
}

// Reset clears the book, the trade history, and the ledger, and restarts
// the ID counters and the settled counter. It holds the market lock for
// the whole re-initialization, so no submission is ever processed
// mid-reset.
func (m *Market) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.book.Clear()
	m.trades.Reset()
	m.ledger.Reset()
	m.orderSeq = 0
	m.tradeSeq = 0
	m.settledCount = 0
}
