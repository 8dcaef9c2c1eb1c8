package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side indicates whether an order is a buy (bid) or a sell (ask).
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether the side is one of the two known values.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Order represents a limit order resting on or passing through the book.
// IDs are monotonic integers assigned by the engine at submission.
// Only Quantity is mutated after creation (decremented on partial fills);
// the order leaves the book when it reaches zero.
type Order struct {
	ID          int64           `json:"id"`
	Side        Side            `json:"side"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int64           `json:"quantity"`
	SubmittedAt time.Time       `json:"submittedAt"`
}
