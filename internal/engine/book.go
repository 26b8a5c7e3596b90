package engine

import (
	"github.com/google/btree"
	"github.com/shopspring/decimal"

	"github.com/pigoex/exchange-core/internal/domain"
	"github.com/pigoex/exchange-core/internal/store"
)

// PriceLevel is an aggregated price level in the order book: the summed
// remaining quantity of all open orders at one price.
type PriceLevel struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// Depth is a snapshot of the order book for one pair: bids sorted by
// price descending, asks ascending, both truncated to the requested
// number of levels.
type Depth struct {
	Pair domain.Pair
	Bids []PriceLevel
	Asks []PriceLevel
}

// bidLevelLess orders bid levels by price descending, so Ascend visits
// the best bid first.
func bidLevelLess(a, b PriceLevel) bool {
	return a.Price.GreaterThan(b.Price)
}

// askLevelLess orders ask levels by price ascending.
func askLevelLess(a, b PriceLevel) bool {
	return a.Price.LessThan(b.Price)
}

// BookView is a read-only aggregation over open orders. It recomputes
// price-level depth on each call and never mutates order or ledger state.
type BookView struct {
	orders *store.OrderStore
}

// NewBookView creates a BookView over the given order store.
func NewBookView(orders *store.OrderStore) *BookView {
	return &BookView{orders: orders}
}

// Depth groups all OPEN orders for pair by price and side, summing
// remaining quantities, and returns at most maxLevels levels per side.
func (v *BookView) Depth(pair domain.Pair, maxLevels int) Depth {
	const degree = 32
	bids := btree.NewG[PriceLevel](degree, bidLevelLess)
	asks := btree.NewG[PriceLevel](degree, askLevelLess)

	for _, o := range v.orders.OpenByPair(pair) {
		tree := bids
		if o.Side == domain.OrderSideSell {
			tree = asks
		}
		level := PriceLevel{Price: o.Price, Quantity: o.RemainingQuantity()}
		if existing, ok := tree.Get(level); ok {
			level.Quantity = level.Quantity.Add(existing.Quantity)
		}
		tree.ReplaceOrInsert(level)
	}

	return Depth{
		Pair: pair,
		Bids: topLevels(bids, maxLevels),
		Asks: topLevels(asks, maxLevels),
	}
}

// topLevels walks the tree in order and collects up to n levels.
func topLevels(tree *btree.BTreeG[PriceLevel], n int) []PriceLevel {
	levels := make([]PriceLevel, 0, n)
	tree.Ascend(func(level PriceLevel) bool {
		if n > 0 && len(levels) >= n {
			return false
		}
		levels = append(levels, level)
		return true
	})
	return levels
}
