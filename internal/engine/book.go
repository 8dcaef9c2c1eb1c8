package engine

import (
	"time"

	"github.com/google/btree"
	"github.com/shopspring/decimal"

	"github.com/efreitasn/tradesim/internal/domain"
)

// BookEntry represents a single order resting on the book.
type BookEntry struct {
	Price       decimal.Decimal
	SubmittedAt time.Time
	OrderID     int64
	Order       *domain.Order
}

// bidLess defines ordering for the bid side: price descending, then
// submitted_at ascending, then order ID ascending. Min() returns the
// best bid (highest price, earliest time).
func bidLess(a, b BookEntry) bool {
	if cmp := a.Price.Cmp(b.Price); cmp != 0 {
		return cmp > 0
	}
	if !a.SubmittedAt.Equal(b.SubmittedAt) {
		return a.SubmittedAt.Before(b.SubmittedAt)
	}
	return a.OrderID < b.OrderID
}

// askLess defines ordering for the ask side: price ascending, then
// submitted_at ascending, then order ID ascending. Min() returns the
// best ask (lowest price, earliest time).
func askLess(a, b BookEntry) bool {
	if cmp := a.Price.Cmp(b.Price); cmp != 0 {
		return cmp < 0
	}
	if !a.SubmittedAt.Equal(b.SubmittedAt) {
		return a.SubmittedAt.Before(b.SubmittedAt)
	}
	return a.OrderID < b.OrderID
}

// OrderBook maintains the bid and ask sides using B-trees ordered by
// price-time priority, with a secondary index for O(log n) removal by
// order ID. The book itself carries no lock: all mutation happens inside
// the Market's single mutual-exclusion domain.
type OrderBook struct {
	bids  *btree.BTreeG[BookEntry]
	asks  *btree.BTreeG[BookEntry]
	index map[int64]BookEntry // order ID → entry
}

// NewOrderBook creates an empty order book.
func NewOrderBook() *OrderBook {
	const degree = 32
	return &OrderBook{
		bids:  btree.NewG[BookEntry](degree, bidLess),
		asks:  btree.NewG[BookEntry](degree, askLess),
		index: make(map[int64]BookEntry),
	}
}

// Insert adds an order to the side indicated by its Side field. The sort
// position follows from the comparator, so price-time priority holds
// after every insert.
func (ob *OrderBook) Insert(o *domain.Order) {
	entry := BookEntry{
		Price:       o.Price,
		SubmittedAt: o.SubmittedAt,
		OrderID:     o.ID,
		Order:       o,
	}
	if o.Side == domain.SideBuy {
		ob.bids.ReplaceOrInsert(entry)
	} else {
		ob.asks.ReplaceOrInsert(entry)
	}
	ob.index[o.ID] = entry
}

// BestBid returns the highest-priority bid (highest price, earliest time).
func (ob *OrderBook) BestBid() (BookEntry, bool) {
	return ob.bids.Min()
}

// BestAsk returns the highest-priority ask (lowest price, earliest time).
func (ob *OrderBook) BestAsk() (BookEntry, bool) {
	return ob.asks.Min()
}

// Reduce decrements a resting order's quantity by amount and evicts the
// order from the book once it reaches zero. The tree key (price, time, ID)
// never changes, so in-place decrement preserves sort order.
func (ob *OrderBook) Reduce(orderID int64, amount int64) {
	entry, ok := ob.index[orderID]
	if !ok {
		return
	}
	entry.Order.Quantity -= amount
	if entry.Order.Quantity > 0 {
		return
	}
	delete(ob.index, orderID)
	// Delete is a no-op on the side the entry isn't on.
	ob.bids.Delete(entry)
	ob.asks.Delete(entry)
}

// WalkBids iterates bids best-first (highest price first). The callback
// returns true to continue, false to stop.
func (ob *OrderBook) WalkBids(fn func(BookEntry) bool) {
	ob.bids.Ascend(fn)
}

// WalkAsks iterates asks best-first (lowest price first). The callback
// returns true to continue, false to stop.
func (ob *OrderBook) WalkAsks(fn func(BookEntry) bool) {
	ob.asks.Ascend(fn)
}

// BidCount returns the number of resting bids.
func (ob *OrderBook) BidCount() int {
	return ob.bids.Len()
}

// AskCount returns the number of resting asks.
func (ob *OrderBook) AskCount() int {
	return ob.asks.Len()
}

// Snapshot returns value copies of both sides, each ordered best-first.
func (ob *OrderBook) Snapshot() domain.BookSnapshot {
	snap := domain.BookSnapshot{
		Bids: make([]domain.Order, 0, ob.bids.Len()),
		Asks: make([]domain.Order, 0, ob.asks.Len()),
	}
	ob.bids.Ascend(func(e BookEntry) bool {
		snap.Bids = append(snap.Bids, *e.Order)
		return true
	})
	ob.asks.Ascend(func(e BookEntry) bool {
		snap.Asks = append(snap.Asks, *e.Order)
		return true
	})
	return snap
}

// Clear removes every resting order from both sides.
func (ob *OrderBook) Clear() {
	const degree = 32
	ob.bids = btree.NewG[BookEntry](degree, bidLess)
	ob.asks = btree.NewG[BookEntry](degree, askLess)
	ob.index = make(map[int64]BookEntry)
}
