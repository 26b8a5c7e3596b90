package store

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigoex/exchange-core/internal/domain"
)

// OrderStore is a thread-safe in-memory store for orders, with a primary
// index by order_id and a secondary index by account_id. Orders are never
// physically deleted; read paths return copies so that all mutation flows
// through the store's lifecycle methods.
type OrderStore struct {
	mu            sync.RWMutex
	orders        map[string]*domain.Order
	accountOrders map[string][]*domain.Order // account_id → orders (append-only)
}

// NewOrderStore creates an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:        make(map[string]*domain.Order),
		accountOrders: make(map[string][]*domain.Order),
	}
}

// Create adds an order to the store and appends it to the account's
// secondary index.
func (s *OrderStore) Create(o domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := o
	s.orders[o.OrderID] = &stored
	s.accountOrders[o.AccountID] = append(s.accountOrders[o.AccountID], &stored)
}

// Get retrieves a copy of an order by ID. It returns
// domain.ErrOrderNotFound if the order does not exist.
func (s *OrderStore) Get(id string) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return *o, nil
}

// GetForAccount retrieves a copy of an order by ID, scoped to the owning
// account. Orders belonging to other accounts are reported as not found.
func (s *OrderStore) GetForAccount(accountID, id string) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok || o.AccountID != accountID {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return *o, nil
}

// ListFilter narrows the result of ListByAccount. Nil fields match all
// orders.
type ListFilter struct {
	Status *domain.OrderStatus
	Pair   *domain.Pair
	Side   *domain.OrderSide
	Limit  int
}

// ListByAccount returns copies of an account's orders in reverse
// chronological order (newest first), filtered and truncated to
// filter.Limit when positive.
func (s *OrderStore) ListByAccount(accountID string, filter ListFilter) []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.accountOrders[accountID]

	result := make([]domain.Order, 0)
	for i := len(all) - 1; i >= 0; i-- {
		o := all[i]
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		if filter.Pair != nil && o.Pair != *filter.Pair {
			continue
		}
		if filter.Side != nil && o.Side != *filter.Side {
			continue
		}
		result = append(result, *o)
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}
	return result
}

// OpenByPair returns copies of all OPEN orders for the given pair, in no
// particular order. Used by the order book view, which aggregates by price.
func (s *OrderStore) OpenByPair(pair domain.Pair) []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, 0)
	for _, o := range s.orders {
		if o.Pair == pair && o.Status == domain.OrderStatusOpen {
			result = append(result, *o)
		}
	}
	return result
}

// ApplyFill increments the order's filled quantity by qty and recomputes
// its status: FILLED when nothing remains, PARTIALLY_FILLED otherwise.
// This is the sole mutation path for fill quantities. It returns
// domain.ErrOverFill if qty exceeds the remaining quantity and
// domain.ErrAlreadyTerminal if the order can no longer fill.
func (s *OrderStore) ApplyFill(orderID string, qty decimal.Decimal) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if o.Status.Terminal() {
		return domain.Order{}, domain.ErrAlreadyTerminal
	}
	if qty.GreaterThan(o.RemainingQuantity()) {
		return domain.Order{}, domain.ErrOverFill
	}

	o.FilledQuantity = o.FilledQuantity.Add(qty)
	if o.RemainingQuantity().IsZero() {
		o.Status = domain.OrderStatusFilled
	} else {
		o.Status = domain.OrderStatusPartiallyFilled
	}
	o.UpdatedAt = time.Now()
	return *o, nil
}

// RollbackFill reverts a previously applied fill of qty. Only the
// settlement engine calls this, to compensate a fill whose ledger moves
// could not complete.
func (s *OrderStore) RollbackFill(orderID string, qty decimal.Decimal) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if qty.GreaterThan(o.FilledQuantity) {
		return domain.Order{}, domain.ErrOverFill
	}

	o.FilledQuantity = o.FilledQuantity.Sub(qty)
	if o.FilledQuantity.IsZero() {
		if o.Kind == domain.OrderKindMarket {
			o.Status = domain.OrderStatusPending
		} else {
			o.Status = domain.OrderStatusOpen
		}
	} else {
		o.Status = domain.OrderStatusPartiallyFilled
	}
	o.UpdatedAt = time.Now()
	return *o, nil
}

// MarkCancelled transitions the order to CANCELLED. It returns
// domain.ErrAlreadyTerminal if the order is already in a terminal state,
// which makes the transition the serialization point between cancellation
// and concurrent fills.
func (s *OrderStore) MarkCancelled(orderID string) (domain.Order, error) {
	return s.markTerminal(orderID, domain.OrderStatusCancelled)
}

// MarkRejected transitions the order to REJECTED — a market order that
// never had the funds to execute.
func (s *OrderStore) MarkRejected(orderID string) (domain.Order, error) {
	return s.markTerminal(orderID, domain.OrderStatusRejected)
}

func (s *OrderStore) markTerminal(orderID string, status domain.OrderStatus) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if o.Status.Terminal() {
		return domain.Order{}, domain.ErrAlreadyTerminal
	}

	o.Status = status
	o.UpdatedAt = time.Now()
	return *o, nil
}
