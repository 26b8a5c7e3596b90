package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderKind distinguishes limit orders from market orders.
type OrderKind string

const (
	OrderKindLimit  OrderKind = "LIMIT"
	OrderKindMarket OrderKind = "MARKET"
)

// OrderSide indicates whether an order buys or sells the base currency.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	// OrderStatusPending is a market order persisted but not yet settled.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusOpen is a limit order resting with its reservation locked.
	OrderStatusOpen            OrderStatus = "OPEN"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	// OrderStatusRejected is a market order that never had the funds to
	// execute — distinct from CANCELLED, which covers reversed fills and
	// explicit cancellation.
	OrderStatusRejected OrderStatus = "REJECTED"
)

// Terminal reports whether no further fills or cancellations are possible.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected:
		return true
	}
	return false
}

// TimeInForce is stored with the order; the core records it but does not
// enforce expiry semantics.
type TimeInForce string

const (
	TimeInForceGTC TimeInForce = "GTC"
	TimeInForceIOC TimeInForce = "IOC"
	TimeInForceFOK TimeInForce = "FOK"
)

// Order represents a buy or sell instruction submitted by an account.
// Orders are never physically deleted; terminal states close the record.
type Order struct {
	OrderID        string
	AccountID      string
	Pair           Pair
	Kind           OrderKind
	Side           OrderSide
	Price          decimal.Decimal // zero for market orders
	Quantity       decimal.Decimal
	FilledQuantity decimal.Decimal
	Status         OrderStatus
	TimeInForce    TimeInForce
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RemainingQuantity returns quantity − filled_quantity.
func (o *Order) RemainingQuantity() decimal.Decimal {
	return o.Quantity.Sub(o.FilledQuantity)
}

// Reservation returns the currency and amount locked when a limit order is
// placed: price × quantity of the quote currency for a BUY, quantity of the
// base currency for a SELL. Market orders carry no placement-time
// reservation.
func (o *Order) Reservation() (string, decimal.Decimal) {
	if o.Kind == OrderKindMarket {
		return "", decimal.Zero
	}
	if o.Side == OrderSideBuy {
		return o.Pair.Quote, o.Price.Mul(o.Quantity)
	}
	return o.Pair.Base, o.Quantity
}

// ReservedRemaining returns the currency and the portion of the reservation
// still outstanding, proportional to the remaining quantity. Computed as
// price × remaining (BUY) or remaining (SELL) so the result is exact.
func (o *Order) ReservedRemaining() (string, decimal.Decimal) {
	if o.Kind == OrderKindMarket {
		return "", decimal.Zero
	}
	if o.Side == OrderSideBuy {
		return o.Pair.Quote, o.Price.Mul(o.RemainingQuantity())
	}
	return o.Pair.Base, o.RemainingQuantity()
}
