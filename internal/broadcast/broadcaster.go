// Package broadcast implements the publish-subscribe registry that fans
// market snapshots out to observers. It is decoupled from any transport:
// the engine and service layers publish without knowing how many
// observers exist or whether delivery succeeded.
package broadcast

import (
	"sync"

	"github.com/google/uuid"

	"github.com/efreitasn/tradesim/internal/domain"
)

// subscriberBuffer is the per-subscriber channel depth. A subscriber that
// falls this far behind starts missing snapshots; each message is a full
// self-contained snapshot, so a skipped publish is recovered by the next.
const subscriberBuffer = 8

// Subscriber is a registered observer. Snapshots arrive on C; the owner
// must call Unsubscribe when done.
type Subscriber struct {
	ID string
	C  chan domain.MarketSnapshot
}

// Broadcaster fans snapshots out to every registered subscriber with
// best-effort delivery: a subscriber whose channel is full is skipped for
// that publish, never awaited, so a slow observer cannot block the
// mutation path.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[string]*Subscriber
}

// New creates an empty Broadcaster.
func New() *Broadcaster {
	return &Broadcaster{
		subs: make(map[string]*Subscriber),
	}
}

// Subscribe registers a new observer and returns its subscriber handle.
func (b *Broadcaster) Subscribe() *Subscriber {
	sub := &Subscriber{
		ID: uuid.New().String(),
		C:  make(chan domain.MarketSnapshot, subscriberBuffer),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[sub.ID] = sub

	return sub
}

// Unsubscribe removes an observer from the registry and closes its
// channel. Unknown IDs are a no-op.
func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	close(sub.C)
}

// Publish delivers the snapshot to every subscriber that is ready to
// receive. Subscribers with full channels are skipped; delivery failures
// are isolated per observer and never abort the publish to the rest.
func (b *Broadcaster) Publish(snapshot domain.MarketSnapshot) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		select {
		case sub.C <- snapshot:
		default:
			// Subscriber not ready; skip, don't retry.
		}
	}
}

// Count returns the number of registered subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
