package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"

	"github.com/efreitasn/tradesim/internal/domain"
)

// genBookOrder generates a random resting order with constrained values.
func genBookOrder(id int64, side domain.Side) *rapid.Generator[*domain.Order] {
	return rapid.Custom(func(t *rapid.T) *domain.Order {
		p := rapid.Int64Range(1, 500).Draw(t, "price")
		// A small range of seconds encourages timestamp collisions and
		// exercises the tiebreakers.
		secOffset := rapid.IntRange(0, 20).Draw(t, "secOffset")
		submittedAt := time.Date(2025, 1, 1, 0, 0, secOffset, 0, time.UTC)

		return &domain.Order{
			ID:          id,
			Side:        side,
			Price:       decimal.NewFromInt(p),
			Quantity:    rapid.Int64Range(1, 100).Draw(t, "quantity"),
			SubmittedAt: submittedAt,
		}
	})
}

func TestProperty_BidSideSortingInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 50).Draw(t, "numOrders")
		book := NewOrderBook()

		for i := 0; i < n; i++ {
			o := genBookOrder(int64(i+1), domain.SideBuy).Draw(t, fmt.Sprintf("bid-%d", i))
			book.Insert(o)
		}

		// Walk bids and verify ordering: price descending, then
		// submitted_at ascending, then ID ascending.
		var prev *BookEntry
		book.WalkBids(func(entry BookEntry) bool {
			if prev != nil {
				if entry.Price.Cmp(prev.Price) > 0 {
					t.Fatalf("bid side: price should be descending, got %s after %s", entry.Price, prev.Price)
				}
				if entry.Price.Equal(prev.Price) {
					if entry.SubmittedAt.Before(prev.SubmittedAt) {
						t.Fatalf("bid side: same price %s, submitted_at should be ascending, got %v after %v",
							entry.Price, entry.SubmittedAt, prev.SubmittedAt)
					}
					if entry.SubmittedAt.Equal(prev.SubmittedAt) && entry.OrderID < prev.OrderID {
						t.Fatalf("bid side: same price %s and time, ID should be ascending, got %d after %d",
							entry.Price, entry.OrderID, prev.OrderID)
					}
				}
			}
			cur := entry
			prev = &cur
			return true
		})
	})
}

func TestProperty_AskSideSortingInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 50).Draw(t, "numOrders")
		book := NewOrderBook()

		for i := 0; i < n; i++ {
			o := genBookOrder(int64(i+1), domain.SideSell).Draw(t, fmt.Sprintf("ask-%d", i))
			book.Insert(o)
		}

		var prev *BookEntry
		book.WalkAsks(func(entry BookEntry) bool {
			if prev != nil {
				if entry.Price.Cmp(prev.Price) < 0 {
					t.Fatalf("ask side: price should be ascending, got %s after %s", entry.Price, prev.Price)
				}
				if entry.Price.Equal(prev.Price) {
					if entry.SubmittedAt.Before(prev.SubmittedAt) {
						t.Fatalf("ask side: same price %s, submitted_at should be ascending, got %v after %v",
							entry.Price, entry.SubmittedAt, prev.SubmittedAt)
					}
					if entry.SubmittedAt.Equal(prev.SubmittedAt) && entry.OrderID < prev.OrderID {
						t.Fatalf("ask side: same price %s and time, ID should be ascending, got %d after %d",
							entry.Price, entry.OrderID, prev.OrderID)
					}
				}
			}
			cur := entry
			prev = &cur
			return true
		})
	})
}
