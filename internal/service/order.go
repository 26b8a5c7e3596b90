package service

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigoex/exchange-core/internal/domain"
	"github.com/pigoex/exchange-core/internal/engine"
	"github.com/pigoex/exchange-core/internal/ident"
	"github.com/pigoex/exchange-core/internal/ledger"
	"github.com/pigoex/exchange-core/internal/store"
)

var accountIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidTimeInForce lists the accepted time_in_force values.
var ValidTimeInForce = map[domain.TimeInForce]bool{
	domain.TimeInForceGTC: true,
	domain.TimeInForceIOC: true,
	domain.TimeInForceFOK: true,
}

// PlaceOrderRequest represents the input for order placement.
type PlaceOrderRequest struct {
	AccountID   string
	Pair        string
	Kind        domain.OrderKind
	Side        domain.OrderSide
	Price       *decimal.Decimal // required for LIMIT, must be absent for MARKET
	Quantity    decimal.Decimal
	TimeInForce string // defaults to GTC
}

// ListOrdersRequest represents the filters for order listing.
type ListOrdersRequest struct {
	Status string
	Pair   string
	Side   string
	Limit  int // defaults to 50, capped at 500
}

// OrderService handles order placement, cancellation, retrieval, and
// listing. Limit orders lock their reservation before being persisted;
// market orders are persisted PENDING and handed to the settlement
// dispatcher.
type OrderService struct {
	ledger     *ledger.Ledger
	orders     *store.OrderStore
	trades     *store.TradeStore
	dispatcher *engine.Dispatcher
	notifier   engine.Notifier
	orderIDs   *ident.Generator
}

// NewOrderService creates an OrderService with the given dependencies.
func NewOrderService(
	l *ledger.Ledger,
	orders *store.OrderStore,
	trades *store.TradeStore,
	dispatcher *engine.Dispatcher,
	notifier engine.Notifier,
	orderIDs *ident.Generator,
) *OrderService {
	return &OrderService{
		ledger:     l,
		orders:     orders,
		trades:     trades,
		dispatcher: dispatcher,
		notifier:   notifier,
		orderIDs:   orderIDs,
	}
}

// PlaceOrder validates the request and creates the order. For limit
// orders the reservation is locked first; a lock failure is surfaced
// unchanged and the order is never persisted. Market orders are persisted
// PENDING and queued for asynchronous settlement — callers must poll for
// the terminal state.
func (s *OrderService) PlaceOrder(req PlaceOrderRequest) (domain.Order, error) {
	if !accountIDRegex.MatchString(req.AccountID) {
		return domain.Order{}, &domain.ValidationError{
			Message: "account_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if req.Kind != domain.OrderKindLimit && req.Kind != domain.OrderKindMarket {
		return domain.Order{}, &domain.ValidationError{
			Message: fmt.Sprintf("Unknown order kind: %s. Must be one of: LIMIT, MARKET", req.Kind),
		}
	}
	if req.Side != domain.OrderSideBuy && req.Side != domain.OrderSideSell {
		return domain.Order{}, &domain.ValidationError{
			Message: "side must be 'BUY' or 'SELL'",
		}
	}

	pair, err := domain.ParsePair(req.Pair)
	if err != nil {
		return domain.Order{}, &domain.ValidationError{Message: err.Error()}
	}

	if !req.Quantity.IsPositive() {
		return domain.Order{}, &domain.ValidationError{
			Message: "quantity must be positive",
		}
	}

	tif := domain.TimeInForceGTC
	if req.TimeInForce != "" {
		tif = domain.TimeInForce(req.TimeInForce)
		if !ValidTimeInForce[tif] {
			return domain.Order{}, &domain.ValidationError{
				Message: fmt.Sprintf("Unknown time_in_force: %s. Must be one of: GTC, IOC, FOK", req.TimeInForce),
			}
		}
	}

	if req.Kind == domain.OrderKindLimit {
		return s.placeLimitOrder(req, pair, tif)
	}
	return s.placeMarketOrder(req, pair, tif)
}

func (s *OrderService) placeLimitOrder(req PlaceOrderRequest, pair domain.Pair, tif domain.TimeInForce) (domain.Order, error) {
	if req.Price == nil {
		return domain.Order{}, &domain.ValidationError{
			Message: "price is required for limit orders",
		}
	}
	if !req.Price.IsPositive() {
		return domain.Order{}, &domain.ValidationError{
			Message: "price must be positive",
		}
	}

	now := time.Now()
	order := domain.Order{
		OrderID:     s.orderIDs.Next(),
		AccountID:   req.AccountID,
		Pair:        pair,
		Kind:        domain.OrderKindLimit,
		Side:        req.Side,
		Price:       *req.Price,
		Quantity:    req.Quantity,
		Status:      domain.OrderStatusOpen,
		TimeInForce: tif,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Reserve before persisting: on lock failure the order never existed.
	currency, amount := order.Reservation()
	if err := s.ledger.Lock(order.AccountID, currency, amount); err != nil {
		return domain.Order{}, err
	}

	s.orders.Create(order)
	s.notifyOrder(order)
	s.notifyBalance(order.AccountID, currency)
	return order, nil
}

func (s *OrderService) placeMarketOrder(req PlaceOrderRequest, pair domain.Pair, tif domain.TimeInForce) (domain.Order, error) {
	if req.Price != nil {
		return domain.Order{}, &domain.ValidationError{
			Message: "market orders must not include price",
		}
	}

	now := time.Now()
	order := domain.Order{
		OrderID:     s.orderIDs.Next(),
		AccountID:   req.AccountID,
		Pair:        pair,
		Kind:        domain.OrderKindMarket,
		Side:        req.Side,
		Quantity:    req.Quantity,
		Status:      domain.OrderStatusPending,
		TimeInForce: tif,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.orders.Create(order)
	s.notifyOrder(order)
	s.dispatcher.Enqueue(order)
	return order, nil
}

// CancelOrder cancels an order owned by the account. The terminal
// transition happens first so that a second cancellation — or a
// concurrent fill — fails with ErrAlreadyTerminal before any funds move;
// the proportional reservation is then released.
func (s *OrderService) CancelOrder(accountID, orderID string) (domain.Order, error) {
	if _, err := s.orders.GetForAccount(accountID, orderID); err != nil {
		return domain.Order{}, err
	}

	cancelled, err := s.orders.MarkCancelled(orderID)
	if err != nil {
		return domain.Order{}, err
	}

	// reservation × remaining/quantity, computed exactly. Zero remaining
	// means a no-op release.
	currency, amount := cancelled.ReservedRemaining()
	if amount.IsPositive() {
		if err := s.ledger.Release(accountID, currency, amount); err != nil {
			return domain.Order{}, fmt.Errorf("release reservation for order %s: %w", orderID, err)
		}
		s.notifyBalance(accountID, currency)
	}

	s.notifyOrder(cancelled)
	return cancelled, nil
}

// GetOrder retrieves an order owned by the account together with its
// trades.
func (s *OrderService) GetOrder(accountID, orderID string) (domain.Order, []domain.Trade, error) {
	order, err := s.orders.GetForAccount(accountID, orderID)
	if err != nil {
		return domain.Order{}, nil, err
	}
	return order, s.trades.ListByOrder(orderID), nil
}

// ListOrders returns the account's orders, newest first, with optional
// status/pair/side filters.
func (s *OrderService) ListOrders(accountID string, req ListOrdersRequest) ([]domain.Order, error) {
	if !accountIDRegex.MatchString(accountID) {
		return nil, &domain.ValidationError{
			Message: "account_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}

	filter := store.ListFilter{Limit: 50}

	if req.Status != "" {
		status := domain.OrderStatus(req.Status)
		switch status {
		case domain.OrderStatusPending, domain.OrderStatusOpen, domain.OrderStatusPartiallyFilled,
			domain.OrderStatusFilled, domain.OrderStatusCancelled, domain.OrderStatusRejected:
			filter.Status = &status
		default:
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("Invalid status filter: %q", req.Status),
			}
		}
	}

	if req.Pair != "" {
		pair, err := domain.ParsePair(req.Pair)
		if err != nil {
			return nil, &domain.ValidationError{Message: err.Error()}
		}
		filter.Pair = &pair
	}

	if req.Side != "" {
		side := domain.OrderSide(req.Side)
		if side != domain.OrderSideBuy && side != domain.OrderSideSell {
			return nil, &domain.ValidationError{
				Message: "side filter must be 'BUY' or 'SELL'",
			}
		}
		filter.Side = &side
	}

	if req.Limit > 0 {
		if req.Limit > 500 {
			return nil, &domain.ValidationError{
				Message: "limit must be between 1 and 500",
			}
		}
		filter.Limit = req.Limit
	}

	return s.orders.ListByAccount(accountID, filter), nil
}

func (s *OrderService) notifyOrder(order domain.Order) {
	if s.notifier != nil {
		s.notifier.OrderUpdated(order)
	}
}

func (s *OrderService) notifyBalance(accountID, currency string) {
	if s.notifier == nil {
		return
	}
	if b, err := s.ledger.Balance(accountID, currency); err == nil {
		s.notifier.BalanceUpdated(b)
	}
}
