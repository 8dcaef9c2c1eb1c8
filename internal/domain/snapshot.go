package domain

// BookSnapshot is a read-only copy of both sides of the order book,
// bids ordered best-first (price descending) and asks ordered best-first
// (price ascending).
type BookSnapshot struct {
	Bids []Order `json:"bids"`
	Asks []Order `json:"asks"`
}

// MarketSnapshot is the self-contained projection of market state sent
// to observers. It carries the full current book plus trailing windows
// of the trade and ledger history; it is never authoritative state.
type MarketSnapshot struct {
	OrderBook    BookSnapshot  `json:"orderBook"`
	Trades       []Trade       `json:"trades"`
	Ledger       []LedgerEntry `json:"ledger"`
	SettledCount int64         `json:"settledCount"`
}
