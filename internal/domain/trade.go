package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeStatus represents the lifecycle state of a trade.
// The only transition is matched → settled, performed exactly once
// by the settlement scheduler.
type TradeStatus string

const (
	TradeStatusMatched TradeStatus = "matched"
	TradeStatusSettled TradeStatus = "settled"
)

// Trade records a single match between a resting bid and a resting ask.
// The price is the ask side's price at match time. BuyOrderID and
// SellOrderID reference the matched orders by ID only; a trade does not
// own the orders it references.
type Trade struct {
	ID          int64           `json:"id"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int64           `json:"quantity"`
	BuyOrderID  int64           `json:"buyOrderId"`
	SellOrderID int64           `json:"sellOrderId"`
	ExecutedAt  time.Time       `json:"executedAt"`
	Status      TradeStatus     `json:"status"`
}
