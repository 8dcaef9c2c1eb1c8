package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/efreitasn/tradesim/internal/broadcast"
	"github.com/efreitasn/tradesim/internal/domain"
	"github.com/efreitasn/tradesim/internal/engine"
	"github.com/efreitasn/tradesim/internal/service"
)

// testEnv bundles all dependencies for handler integration tests.
type testEnv struct {
	router    http.Handler
	market    *engine.Market
	scheduler *engine.SettlementScheduler
	bc        *broadcast.Broadcaster
}

func newTestEnv() *testEnv {
	market := engine.NewMarket(2*time.Second, 0)
	bc := broadcast.New()
	svc := service.NewMarketService(market, bc)
	// Long interval: ticks only fire when tests call Tick directly.
	scheduler := engine.NewSettlementScheduler(time.Hour, market, svc)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(svc, bc, logger)

	return &testEnv{
		router:    router,
		market:    market,
		scheduler: scheduler,
		bc:        bc,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	env := newTestEnv()
	w := env.do(t, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestSubmitOrder_MatchFlow(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodPost, "/api/orders", map[string]any{
		"side": "buy", "price": 105, "quantity": 10,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[submitOrderResponse](t, w)
	if !resp.Success || resp.Order.ID != 1 || len(resp.Matches) != 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	w = env.do(t, http.MethodPost, "/api/orders", map[string]any{
		"side": "sell", "price": 100, "quantity": 10,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp = decodeBody[submitOrderResponse](t, w)
	if len(resp.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(resp.Matches))
	}
	match := resp.Matches[0]
	if !match.Price.Equal(resp.Order.Price) {
		t.Errorf("expected match at ask price %s, got %s", resp.Order.Price, match.Price)
	}
	if match.Quantity != 10 || match.Status != domain.TradeStatusMatched {
		t.Errorf("unexpected match: %+v", match)
	}

	// Both orders consumed.
	book := decodeBody[domain.BookSnapshot](t, env.do(t, http.MethodGet, "/api/book", nil))
	if len(book.Bids) != 0 || len(book.Asks) != 0 {
		t.Errorf("expected empty book, got %+v", book)
	}

	trades := decodeBody[[]domain.Trade](t, env.do(t, http.MethodGet, "/api/trades", nil))
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}

	ledger := decodeBody[[]domain.LedgerEntry](t, env.do(t, http.MethodGet, "/api/ledger", nil))
	if len(ledger) != 1 || ledger[0].Status != domain.LedgerStatusPending {
		t.Fatalf("expected 1 pending ledger entry, got %+v", ledger)
	}

	stats := decodeBody[statsResponse](t, env.do(t, http.MethodGet, "/api/stats", nil))
	if stats.TotalTrades != 1 || stats.SettledCount != 0 || stats.PendingCount != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestSubmitOrder_Validation(t *testing.T) {
	env := newTestEnv()

	cases := []struct {
		name string
		body map[string]any
	}{
		{"unknown side", map[string]any{"side": "hold", "price": 100, "quantity": 1}},
		{"zero price", map[string]any{"side": "buy", "price": 0, "quantity": 1}},
		{"negative quantity", map[string]any{"side": "buy", "price": 100, "quantity": -1}},
		{"non-integer quantity", map[string]any{"side": "buy", "price": 100, "quantity": 1.5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/orders", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
			resp := decodeBody[errorResponse](t, w)
			if resp.Error != "invalid_order" {
				t.Errorf("expected invalid_order, got %q", resp.Error)
			}
		})
	}

	// Rejections leave no partial state.
	book := decodeBody[domain.BookSnapshot](t, env.do(t, http.MethodGet, "/api/book", nil))
	if len(book.Bids) != 0 || len(book.Asks) != 0 {
		t.Errorf("expected empty book after rejections, got %+v", book)
	}
}

func TestSubmitOrder_MalformedBody(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	// Missing Content-Type on a body-carrying POST is rejected by middleware.
	req = httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader("{}"))
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without content type, got %d", w.Code)
	}
}

func TestSettlementTick_ThroughStats(t *testing.T) {
	env := newTestEnv()

	env.do(t, http.MethodPost, "/api/orders", map[string]any{"side": "buy", "price": 105, "quantity": 10})
	env.do(t, http.MethodPost, "/api/orders", map[string]any{"side": "sell", "price": 100, "quantity": 10})

	env.scheduler.Tick(time.Now().Add(time.Minute))

	stats := decodeBody[statsResponse](t, env.do(t, http.MethodGet, "/api/stats", nil))
	if stats.SettledCount != 1 || stats.PendingCount != 0 {
		t.Errorf("expected settled stats, got %+v", stats)
	}

	trades := decodeBody[[]domain.Trade](t, env.do(t, http.MethodGet, "/api/trades", nil))
	if trades[0].Status != domain.TradeStatusSettled {
		t.Errorf("expected settled trade, got %s", trades[0].Status)
	}

	ledger := decodeBody[[]domain.LedgerEntry](t, env.do(t, http.MethodGet, "/api/ledger", nil))
	if ledger[0].Status != domain.LedgerStatusSettled || ledger[0].SettledAt == nil {
		t.Errorf("expected settled ledger entry, got %+v", ledger[0])
	}
}

func TestReset_BodylessPost(t *testing.T) {
	env := newTestEnv()

	env.do(t, http.MethodPost, "/api/orders", map[string]any{"side": "buy", "price": 105, "quantity": 10})
	env.do(t, http.MethodPost, "/api/orders", map[string]any{"side": "sell", "price": 100, "quantity": 10})

	// No body and no Content-Type; must still pass the middleware.
	w := env.do(t, http.MethodPost, "/api/reset", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[successResponse](t, w)
	if !resp.Success {
		t.Error("expected success true")
	}

	stats := decodeBody[statsResponse](t, env.do(t, http.MethodGet, "/api/stats", nil))
	if stats.TotalTrades != 0 || stats.SettledCount != 0 || stats.PendingCount != 0 {
		t.Errorf("expected zeroed stats after reset, got %+v", stats)
	}

	// ID counters restart.
	w = env.do(t, http.MethodPost, "/api/orders", map[string]any{"side": "buy", "price": 100, "quantity": 1})
	resp2 := decodeBody[submitOrderResponse](t, w)
	if resp2.Order.ID != 1 {
		t.Errorf("expected order ID 1 after reset, got %d", resp2.Order.ID)
	}
}

func TestWebSocket_SnapshotOnConnectAndPerPublish(t *testing.T) {
	env := newTestEnv()
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Snapshot arrives immediately on connect.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var snap domain.MarketSnapshot
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}
	if len(snap.OrderBook.Bids) != 0 || snap.SettledCount != 0 {
		t.Errorf("expected empty initial snapshot, got %+v", snap)
	}

	// A submission triggers a publish to the connected observer.
	body := bytes.NewReader([]byte(`{"side":"buy","price":101,"quantity":3}`))
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/orders", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read published snapshot: %v", err)
	}
	if len(snap.OrderBook.Bids) != 1 || snap.OrderBook.Bids[0].Quantity != 3 {
		t.Errorf("expected submitted order in snapshot, got %+v", snap.OrderBook)
	}
}
