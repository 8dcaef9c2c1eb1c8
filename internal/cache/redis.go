// Package cache mirrors the latest market snapshot into Redis so
// external dashboards can read market state without connecting to the
// push channel. The mirror is just another broadcast observer; the
// engine never knows it exists.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/efreitasn/tradesim/internal/broadcast"
)

// snapshotKey is the Redis key holding the latest snapshot JSON.
const snapshotKey = "tradesim:snapshot"

// snapshotTTL bounds staleness if the process dies between publishes.
const snapshotTTL = time.Minute

// SnapshotMirror subscribes to the broadcaster and writes each published
// snapshot to Redis. Write failures are logged and dropped; the mirror is
// best-effort like any other observer.
type SnapshotMirror struct {
	client *redis.Client
	bc     *broadcast.Broadcaster
}

// NewSnapshotMirror creates a mirror against the Redis instance at addr.
func NewSnapshotMirror(addr string, bc *broadcast.Broadcaster) *SnapshotMirror {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &SnapshotMirror{client: client, bc: bc}
}

// Run subscribes to the broadcaster and mirrors snapshots until ctx is
// cancelled, then unsubscribes and closes the Redis client. It blocks and
// is intended to run in its own goroutine.
func (m *SnapshotMirror) Run(ctx context.Context) {
	sub := m.bc.Subscribe()
	defer m.bc.Unsubscribe(sub.ID)
	defer m.client.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-sub.C:
			if !ok {
				return
			}
			body, err := json.Marshal(snapshot)
			if err != nil {
				slog.Warn("snapshot mirror: marshal failed", slog.String("error", err.Error()))
				continue
			}
			if err := m.client.Set(ctx, snapshotKey, body, snapshotTTL).Err(); err != nil {
				slog.Warn("snapshot mirror: redis write failed", slog.String("error", err.Error()))
			}
		}
	}
}
