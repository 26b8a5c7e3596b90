package store

import (
	"sync"

	"github.com/pigoex/exchange-core/internal/domain"
)

// TradeStore is a thread-safe append-only store for trades, indexed by
// pair and by owning order. Trades are immutable once appended.
type TradeStore struct {
	mu      sync.RWMutex
	byPair  map[domain.Pair][]*domain.Trade // chronological
	byOrder map[string][]*domain.Trade      // order_id → trades
}

// NewTradeStore creates an empty TradeStore.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		byPair:  make(map[domain.Pair][]*domain.Trade),
		byOrder: make(map[string][]*domain.Trade),
	}
}

// Append adds a trade to both indexes.
func (s *TradeStore) Append(t domain.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := t
	s.byPair[t.Pair] = append(s.byPair[t.Pair], &stored)
	s.byOrder[t.OrderID] = append(s.byOrder[t.OrderID], &stored)
}

// ListByPair returns copies of a pair's trades, newest first, truncated
// to limit when positive.
func (s *TradeStore) ListByPair(pair domain.Pair, limit int) []domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.byPair[pair]
	result := make([]domain.Trade, 0)
	for i := len(all) - 1; i >= 0; i-- {
		result = append(result, *all[i])
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result
}

// ListByOrder returns copies of an order's trades in chronological order.
func (s *TradeStore) ListByOrder(orderID string) []domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.byOrder[orderID]
	result := make([]domain.Trade, len(all))
	for i, t := range all {
		result[i] = *t
	}
	return result
}
