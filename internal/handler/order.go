package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/pigoex/exchange-core/internal/domain"
	"github.com/pigoex/exchange-core/internal/service"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	orderSvc *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc *service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// placeOrderRequest is the JSON request body for POST /accounts/{id}/orders.
// Price and quantity travel as strings to keep decimal precision exact.
type placeOrderRequest struct {
	Kind        string  `json:"kind"`
	Side        string  `json:"side"`
	Pair        string  `json:"pair"`
	Price       *string `json:"price"`
	Quantity    string  `json:"quantity"`
	TimeInForce string  `json:"time_in_force"`
}

// orderResponse is the JSON shape of an order. Price is null for market
// orders.
type orderResponse struct {
	OrderID           string          `json:"order_id"`
	AccountID         string          `json:"account_id"`
	Pair              string          `json:"pair"`
	Kind              string          `json:"kind"`
	Side              string          `json:"side"`
	Price             *string         `json:"price"`
	Quantity          string          `json:"quantity"`
	FilledQuantity    string          `json:"filled_quantity"`
	RemainingQuantity string          `json:"remaining_quantity"`
	Status            string          `json:"status"`
	TimeInForce       string          `json:"time_in_force"`
	CreatedAt         string          `json:"created_at"`
	UpdatedAt         string          `json:"updated_at"`
	Trades            []tradeResponse `json:"trades,omitempty"`
}

// tradeResponse is a single trade in an order or market response.
type tradeResponse struct {
	TradeID     string `json:"trade_id"`
	OrderID     string `json:"order_id"`
	Pair        string `json:"pair"`
	Price       string `json:"price"`
	Quantity    string `json:"quantity"`
	Fee         string `json:"fee"`
	FeeCurrency string `json:"fee_currency"`
	ExecutedAt  string `json:"executed_at"`
}

// PlaceOrder handles POST /accounts/{account_id}/orders.
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account_id")

	var req placeOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "quantity must be a decimal string")
		return
	}

	var price *decimal.Decimal
	if req.Price != nil {
		p, err := decimal.NewFromString(*req.Price)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "price must be a decimal string")
			return
		}
		price = &p
	}

	order, err := h.orderSvc.PlaceOrder(service.PlaceOrderRequest{
		AccountID:   accountID,
		Pair:        req.Pair,
		Kind:        domain.OrderKind(req.Kind),
		Side:        domain.OrderSide(req.Side),
		Price:       price,
		Quantity:    quantity,
		TimeInForce: req.TimeInForce,
	})
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildOrderResponse(order, nil))
}

// GetOrder handles GET /accounts/{account_id}/orders/{order_id}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account_id")
	orderID := chi.URLParam(r, "order_id")

	order, trades, err := h.orderSvc.GetOrder(accountID, orderID)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildOrderResponse(order, trades))
}

// CancelOrder handles DELETE /accounts/{account_id}/orders/{order_id}.
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account_id")
	orderID := chi.URLParam(r, "order_id")

	order, err := h.orderSvc.CancelOrder(accountID, orderID)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildOrderResponse(order, nil))
}

// ListOrders handles GET /accounts/{account_id}/orders.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account_id")
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be an integer")
			return
		}
		limit = n
	}

	orders, err := h.orderSvc.ListOrders(accountID, service.ListOrdersRequest{
		Status: q.Get("status"),
		Pair:   q.Get("pair"),
		Side:   q.Get("side"),
		Limit:  limit,
	})
	if err != nil {
		mapDomainError(w, err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = buildOrderResponse(o, nil)
	}
	WriteJSON(w, http.StatusOK, map[string]any{"orders": resp})
}

// buildOrderResponse converts a domain order (and optionally its trades)
// to the JSON response shape.
func buildOrderResponse(o domain.Order, trades []domain.Trade) orderResponse {
	resp := orderResponse{
		OrderID:           o.OrderID,
		AccountID:         o.AccountID,
		Pair:              o.Pair.String(),
		Kind:              string(o.Kind),
		Side:              string(o.Side),
		Quantity:          o.Quantity.String(),
		FilledQuantity:    o.FilledQuantity.String(),
		RemainingQuantity: o.RemainingQuantity().String(),
		Status:            string(o.Status),
		TimeInForce:       string(o.TimeInForce),
		CreatedAt:         o.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         o.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if o.Kind == domain.OrderKindLimit {
		p := o.Price.String()
		resp.Price = &p
	}
	if len(trades) > 0 {
		resp.Trades = buildTradeResponses(trades)
	}
	return resp
}

// buildTradeResponses converts domain trades to response trades.
func buildTradeResponses(trades []domain.Trade) []tradeResponse {
	result := make([]tradeResponse, len(trades))
	for i, t := range trades {
		result[i] = tradeResponse{
			TradeID:     t.TradeID,
			OrderID:     t.OrderID,
			Pair:        t.Pair.String(),
			Price:       t.Price.String(),
			Quantity:    t.Quantity.String(),
			Fee:         t.Fee.String(),
			FeeCurrency: t.FeeCurrency,
			ExecutedAt:  t.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	return result
}

// mapDomainError maps domain errors to HTTP responses.
func mapDomainError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		WriteError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, domain.ErrWalletNotFound):
		WriteError(w, http.StatusNotFound, "wallet_not_found", err.Error())
	case errors.Is(err, domain.ErrAlreadyTerminal):
		WriteError(w, http.StatusConflict, "order_already_terminal", err.Error())
	case errors.Is(err, domain.ErrInsufficientAvailable):
		WriteError(w, http.StatusConflict, "insufficient_available", err.Error())
	case errors.Is(err, domain.ErrInsufficientLocked):
		WriteError(w, http.StatusConflict, "insufficient_locked", err.Error())
	case errors.Is(err, domain.ErrUnknownPair):
		WriteError(w, http.StatusNotFound, "unknown_pair", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
