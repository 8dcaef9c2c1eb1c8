package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/efreitasn/tradesim/internal/broadcast"
	"github.com/efreitasn/tradesim/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler serves the market state push channel. Each connection is
// registered as a broadcast subscriber, receives one snapshot
// immediately, and then one snapshot per publish event until it
// disconnects or falls behind.
type WSHandler struct {
	svc    *service.MarketService
	bc     *broadcast.Broadcaster
	logger *slog.Logger
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(svc *service.MarketService, bc *broadcast.Broadcaster, logger *slog.Logger) *WSHandler {
	return &WSHandler{svc: svc, bc: bc, logger: logger}
}

// Serve handles GET /ws.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	sub := h.bc.Subscribe()
	defer h.bc.Unsubscribe(sub.ID)

	// Catch-up snapshot before any publish-driven messages.
	if err := conn.WriteJSON(h.svc.Snapshot()); err != nil {
		return
	}

	// The read loop exists only to detect client close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Debug("websocket read error", slog.String("error", err.Error()))
				}
				return
			}
		}
	}()

	for {
		select {
		case snapshot, ok := <-sub.C:
			if !ok {
				return
			}
			if err := conn.WriteJSON(snapshot); err != nil {
				h.logger.Debug("websocket write failed",
					slog.String("subscriber", sub.ID),
					slog.String("error", err.Error()))
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
