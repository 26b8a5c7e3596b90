package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is a snapshot of one (account, currency) balance record.
// Available funds may be freely reserved or withdrawn; locked funds are
// held against open orders. Total is derived and never stored.
type Balance struct {
	AccountID string
	Currency  string
	Available decimal.Decimal
	Locked    decimal.Decimal
	UpdatedAt time.Time
}

// Total returns available + locked.
func (b Balance) Total() decimal.Decimal {
	return b.Available.Add(b.Locked)
}
