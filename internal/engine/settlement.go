package engine

import (
	"context"
	"log/slog"
	"time"
)

// StatePublisher is an interface for pushing the current market state to
// observers from the engine layer without depending on the service layer
// directly.
type StatePublisher interface {
	PublishState()
}

// SettlementScheduler drives the periodic settlement sweep: once per tick
// interval it transitions every due pending ledger entry to settled and
// then republishes market state, whether or not anything settled.
type SettlementScheduler struct {
	interval  time.Duration
	market    *Market
	publisher StatePublisher
}

// NewSettlementScheduler creates a scheduler over the given market.
// publisher may be nil, in which case ticks settle without broadcasting.
func NewSettlementScheduler(interval time.Duration, market *Market, publisher StatePublisher) *SettlementScheduler {
	return &SettlementScheduler{
		interval:  interval,
		market:    market,
		publisher: publisher,
	}
}

// Start launches a background goroutine that ticks at the configured
// interval. It stops accepting new ticks when ctx is cancelled; an
// in-flight tick always runs to completion.
func (s *SettlementScheduler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				s.Tick(t)
			}
		}
	}()
}

// Tick runs a single settlement pass at the given time. It is exported so
// tests can drive settlement deterministically without waiting on the
// ticker.
func (s *SettlementScheduler) Tick(now time.Time) {
	settled := s.market.Settle(now)
	if settled > 0 {
		slog.Debug("settlement tick", slog.Int("settled", settled))
	}
	if s.publisher != nil {
		s.publisher.PublishState()
	}
}
