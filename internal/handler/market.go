package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/tradesim/internal/domain"
	"github.com/efreitasn/tradesim/internal/service"
)

// MarketHandler handles HTTP requests for the market endpoints.
type MarketHandler struct {
	svc *service.MarketService
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(svc *service.MarketService) *MarketHandler {
	return &MarketHandler{svc: svc}
}

// submitOrderRequest is the JSON request body for POST /api/orders.
// Price and quantity decode as json.Number so non-numeric input is
// rejected before it reaches the engine.
type submitOrderRequest struct {
	Side     string      `json:"side"`
	Price    json.Number `json:"price"`
	Quantity json.Number `json:"quantity"`
}

// submitOrderResponse is the JSON response for POST /api/orders.
type submitOrderResponse struct {
	Success bool           `json:"success"`
	Order   domain.Order   `json:"order"`
	Matches []domain.Trade `json:"matches"`
}

// statsResponse is the JSON response for GET /api/stats.
type statsResponse struct {
	TotalTrades  int64 `json:"totalTrades"`
	SettledCount int64 `json:"settledCount"`
	PendingCount int   `json:"pendingCount"`
}

// successResponse is the JSON response for POST /api/reset.
type successResponse struct {
	Success bool `json:"success"`
}

// SubmitOrder handles POST /api/orders.
func (h *MarketHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	price, err := decimal.NewFromString(req.Price.String())
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_order", "price must be a number")
		return
	}
	quantity, err := strconv.ParseInt(req.Quantity.String(), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_order", "quantity must be an integer")
		return
	}

	order, trades, err := h.svc.Submit(domain.Side(req.Side), price, quantity)
	if err != nil {
		mapMarketError(w, err)
		return
	}

	if trades == nil {
		trades = []domain.Trade{}
	}
	WriteJSON(w, http.StatusCreated, submitOrderResponse{
		Success: true,
		Order:   order,
		Matches: trades,
	})
}

// GetBook handles GET /api/book.
func (h *MarketHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.svc.Book())
}

// GetTrades handles GET /api/trades.
func (h *MarketHandler) GetTrades(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.svc.RecentTrades())
}

// GetLedger handles GET /api/ledger.
func (h *MarketHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.svc.RecentLedger())
}

// GetStats handles GET /api/stats.
func (h *MarketHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := h.svc.Stats()
	WriteJSON(w, http.StatusOK, statsResponse{
		TotalTrades:  stats.TotalTrades,
		SettledCount: stats.SettledCount,
		PendingCount: stats.PendingCount,
	})
}

// Reset handles POST /api/reset.
func (h *MarketHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.svc.Reset()
	WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

// mapMarketError maps domain errors to HTTP responses for market endpoints.
func mapMarketError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "invalid_order", validationErr.Message)
		return
	}

	WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
}
