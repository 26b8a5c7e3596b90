package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade represents a fill settled against an order. Immutable once created.
// Fees are always denominated in the quote currency.
type Trade struct {
	TradeID     string
	OrderID     string
	Pair        Pair
	Price       decimal.Decimal
	Quantity    decimal.Decimal
	Fee         decimal.Decimal
	FeeCurrency string
	CreatedAt   time.Time
}
