package service

import (
	"github.com/shopspring/decimal"

	"github.com/pigoex/exchange-core/internal/domain"
	"github.com/pigoex/exchange-core/internal/engine"
	"github.com/pigoex/exchange-core/internal/pricefeed"
	"github.com/pigoex/exchange-core/internal/store"
)

// priceSource is the slice of the price feed the market service needs:
// price lookups plus pair enumeration for the market summary.
type priceSource interface {
	pricefeed.Feed
	Pairs() []domain.Pair
}

// MarketInfo is one entry in the market summary.
type MarketInfo struct {
	Pair      domain.Pair
	LastPrice decimal.Decimal
}

// MarketService serves read-only market data: order book depth, recent
// trades, and the market summary. It never mutates order or ledger state.
type MarketService struct {
	book   *engine.BookView
	trades *store.TradeStore
	feed   priceSource
}

// NewMarketService creates a MarketService with the given dependencies.
func NewMarketService(book *engine.BookView, trades *store.TradeStore, feed priceSource) *MarketService {
	return &MarketService{book: book, trades: trades, feed: feed}
}

// OrderBook returns aggregated depth for the pair, truncated to depth
// levels per side (default 50, max 500).
func (s *MarketService) OrderBook(pairStr string, depth int) (engine.Depth, error) {
	pair, err := domain.ParsePair(pairStr)
	if err != nil {
		return engine.Depth{}, &domain.ValidationError{Message: err.Error()}
	}
	if depth <= 0 {
		depth = 50
	}
	if depth > 500 {
		return engine.Depth{}, &domain.ValidationError{
			Message: "depth must be between 1 and 500",
		}
	}
	return s.book.Depth(pair, depth), nil
}

// Trades returns the pair's most recent trades, newest first (default
// 100, max 1000).
func (s *MarketService) Trades(pairStr string, limit int) ([]domain.Trade, error) {
	pair, err := domain.ParsePair(pairStr)
	if err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		return nil, &domain.ValidationError{
			Message: "limit must be between 1 and 1000",
		}
	}
	return s.trades.ListByPair(pair, limit), nil
}

// Markets returns the current reference price for every tracked pair.
func (s *MarketService) Markets() []MarketInfo {
	pairs := s.feed.Pairs()
	markets := make([]MarketInfo, 0, len(pairs))
	for _, p := range pairs {
		price, err := s.feed.CurrentPrice(p)
		if err != nil {
			continue
		}
		markets = append(markets, MarketInfo{Pair: p, LastPrice: price})
	}
	return markets
}
