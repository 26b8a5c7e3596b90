package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pigoex/exchange-core/internal/engine"
	"github.com/pigoex/exchange-core/internal/service"
)

// MarketHandler handles HTTP requests for market data endpoints.
type MarketHandler struct {
	marketSvc *service.MarketService
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(marketSvc *service.MarketService) *MarketHandler {
	return &MarketHandler{marketSvc: marketSvc}
}

// priceLevelResponse is one aggregated book level.
type priceLevelResponse struct {
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

// bookResponse is the JSON shape of the order book depth.
type bookResponse struct {
	Pair string               `json:"pair"`
	Bids []priceLevelResponse `json:"bids"`
	Asks []priceLevelResponse `json:"asks"`
}

// marketResponse is one entry in the market summary.
type marketResponse struct {
	Pair      string `json:"pair"`
	LastPrice string `json:"last_price"`
}

// ListMarkets handles GET /markets.
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	markets := h.marketSvc.Markets()

	resp := make([]marketResponse, len(markets))
	for i, m := range markets {
		resp[i] = marketResponse{
			Pair:      m.Pair.String(),
			LastPrice: m.LastPrice.String(),
		}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"markets": resp})
}

// GetOrderBook handles GET /markets/{pair}/book.
func (h *MarketHandler) GetOrderBook(w http.ResponseWriter, r *http.Request) {
	pair := pairFromPath(chi.URLParam(r, "pair"))

	depth := 0
	if raw := r.URL.Query().Get("depth"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "depth must be an integer")
			return
		}
		depth = n
	}

	book, err := h.marketSvc.OrderBook(pair, depth)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildBookResponse(book))
}

// ListTrades handles GET /markets/{pair}/trades.
func (h *MarketHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	pair := pairFromPath(chi.URLParam(r, "pair"))

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be an integer")
			return
		}
		limit = n
	}

	trades, err := h.marketSvc.Trades(pair, limit)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"trades": buildTradeResponses(trades)})
}

func buildBookResponse(d engine.Depth) bookResponse {
	resp := bookResponse{
		Pair: d.Pair.String(),
		Bids: make([]priceLevelResponse, len(d.Bids)),
		Asks: make([]priceLevelResponse, len(d.Asks)),
	}
	for i, l := range d.Bids {
		resp.Bids[i] = priceLevelResponse{Price: l.Price.String(), Quantity: l.Quantity.String()}
	}
	for i, l := range d.Asks {
		resp.Asks[i] = priceLevelResponse{Price: l.Price.String(), Quantity: l.Quantity.String()}
	}
	return resp
}
