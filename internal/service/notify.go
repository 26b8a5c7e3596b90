package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pigoex/exchange-core/internal/domain"
)

// Event names delivered to the notification sink.
const (
	EventOrderUpdated   = "order.updated"
	EventBalanceUpdated = "balance.updated"
)

// NotifyService delivers order and balance events to an HTTP sink as a
// fire-and-forget side channel. An empty sink URL disables delivery.
// Delivery failures are ignored — they never roll back ledger or order
// state.
type NotifyService struct {
	sinkURL string
	client  *http.Client
}

// NewNotifyService creates a NotifyService posting to sinkURL with the
// given timeout.
func NewNotifyService(sinkURL string, timeout time.Duration) *NotifyService {
	return &NotifyService{
		sinkURL: sinkURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// eventPayload is the JSON envelope for all sink deliveries.
type eventPayload struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
	AccountID string `json:"account_id"`
	Data      any    `json:"data"`
}

type orderEventData struct {
	OrderID           string `json:"order_id"`
	Pair              string `json:"pair"`
	Kind              string `json:"kind"`
	Side              string `json:"side"`
	Price             string `json:"price"`
	Quantity          string `json:"quantity"`
	FilledQuantity    string `json:"filled_quantity"`
	RemainingQuantity string `json:"remaining_quantity"`
	Status            string `json:"status"`
}

type balanceEventData struct {
	Currency  string `json:"currency"`
	Available string `json:"available"`
	Locked    string `json:"locked"`
	Total     string `json:"total"`
}

// OrderUpdated dispatches an order.updated event for the order's account.
func (s *NotifyService) OrderUpdated(order domain.Order) {
	if s.sinkURL == "" {
		return
	}
	payload := eventPayload{
		Event:     EventOrderUpdated,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		AccountID: order.AccountID,
		Data: orderEventData{
			OrderID:           order.OrderID,
			Pair:              order.Pair.String(),
			Kind:              string(order.Kind),
			Side:              string(order.Side),
			Price:             order.Price.String(),
			Quantity:          order.Quantity.String(),
			FilledQuantity:    order.FilledQuantity.String(),
			RemainingQuantity: order.RemainingQuantity().String(),
			Status:            string(order.Status),
		},
	}
	go s.deliver(EventOrderUpdated, payload)
}

// BalanceUpdated dispatches a balance.updated event for the balance's
// account.
func (s *NotifyService) BalanceUpdated(balance domain.Balance) {
	if s.sinkURL == "" {
		return
	}
	payload := eventPayload{
		Event:     EventBalanceUpdated,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		AccountID: balance.AccountID,
		Data: balanceEventData{
			Currency:  balance.Currency,
			Available: balance.Available.String(),
			Locked:    balance.Locked.String(),
			Total:     balance.Total().String(),
		},
	}
	go s.deliver(EventBalanceUpdated, payload)
}

// deliver sends the payload via HTTP POST. Errors are silently ignored.
func (s *NotifyService) deliver(eventType string, payload eventPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, s.sinkURL, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", uuid.New().String())
	req.Header.Set("X-Event-Type", eventType)

	resp, err := s.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}
