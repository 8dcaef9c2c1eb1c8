package domain

import "time"

// LedgerStatus represents the clearing state of a ledger entry.
type LedgerStatus string

const (
	LedgerStatusPending LedgerStatus = "pending"
	LedgerStatusSettled LedgerStatus = "settled"
)

// LedgerEntry is the clearing record paired one-to-one with a trade.
// It is created atomically with its trade and mutated only by the
// settlement scheduler, which flips Status to settled and stamps
// SettledAt once SettlementDueAt has passed.
type LedgerEntry struct {
	TradeID         int64        `json:"tradeId"`
	Status          LedgerStatus `json:"status"`
	ClearedAt       time.Time    `json:"clearedAt"`
	SettledAt       *time.Time   `json:"settledAt"`
	SettlementDueAt time.Time    `json:"settlementDueAt"`
}

// Due reports whether the entry is pending and past its settlement deadline.
func (e *LedgerEntry) Due(now time.Time) bool {
	return e.Status == LedgerStatusPending && !now.Before(e.SettlementDueAt)
}
