// Package pricefeed defines the price-feed collaborator consumed by the
// settlement engine and a static in-memory implementation that stands in
// for a real market-data source.
package pricefeed

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/pigoex/exchange-core/internal/domain"
)

// Feed supplies a positive reference price for a trading pair. It returns
// domain.ErrUnknownPair for pairs it does not track; the settlement engine
// treats any failure as a settlement failure.
type Feed interface {
	CurrentPrice(pair domain.Pair) (decimal.Decimal, error)
}

// StaticFeed is a fixed price table. Prices can be updated at runtime,
// which tests use to simulate market movement.
type StaticFeed struct {
	mu     sync.RWMutex
	prices map[domain.Pair]decimal.Decimal
}

// NewStaticFeed creates a StaticFeed seeded with the default market table.
func NewStaticFeed() *StaticFeed {
	return &StaticFeed{
		prices: map[domain.Pair]decimal.Decimal{
			{Base: "BTC", Quote: "USDT"}:  decimal.RequireFromString("44120.50"),
			{Base: "ETH", Quote: "USDT"}:  decimal.RequireFromString("2240.10"),
			{Base: "SOL", Quote: "USDT"}:  decimal.RequireFromString("98.45"),
			{Base: "PIGO", Quote: "USDT"}: decimal.RequireFromString("0.4521"),
		},
	}
}

// CurrentPrice returns the reference price for pair, or
// domain.ErrUnknownPair if the pair is not in the table.
func (f *StaticFeed) CurrentPrice(pair domain.Pair) (decimal.Decimal, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	p, ok := f.prices[pair]
	if !ok {
		return decimal.Decimal{}, domain.ErrUnknownPair
	}
	return p, nil
}

// SetPrice inserts or updates the reference price for pair.
func (f *StaticFeed) SetPrice(pair domain.Pair, price decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[pair] = price
}

// Pairs returns all tracked pairs sorted by their string form.
func (f *StaticFeed) Pairs() []domain.Pair {
	f.mu.RLock()
	defer f.mu.RUnlock()

	pairs := make([]domain.Pair, 0, len(f.prices))
	for p := range f.prices {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].String() < pairs[j].String()
	})
	return pairs
}
