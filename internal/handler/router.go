package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pigoex/exchange-core/internal/service"
)

// NewRouter creates a chi router with all routes registered, request logging,
// and Content-Type validation middleware.
func NewRouter(
	orderSvc *service.OrderService,
	walletSvc *service.WalletService,
	marketSvc *service.MarketService,
	logger *slog.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestLogging(logger))
	r.Use(contentTypeJSON)

	// Create handlers.
	orderH := NewOrderHandler(orderSvc)
	walletH := NewWalletHandler(walletSvc)
	marketH := NewMarketHandler(marketSvc)

	// Health check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Order routes, scoped per account.
	r.Post("/accounts/{account_id}/orders", orderH.PlaceOrder)
	r.Get("/accounts/{account_id}/orders", orderH.ListOrders)
	r.Get("/accounts/{account_id}/orders/{order_id}", orderH.GetOrder)
	r.Delete("/accounts/{account_id}/orders/{order_id}", orderH.CancelOrder)

	// Wallet routes.
	r.Get("/accounts/{account_id}/wallets", walletH.ListBalances)
	r.Get("/accounts/{account_id}/wallets/{currency}", walletH.GetBalance)
	r.Post("/accounts/{account_id}/wallets/{currency}/deposits", walletH.Deposit)
	r.Post("/accounts/{account_id}/wallets/{currency}/withdrawals", walletH.Withdraw)

	// Market data routes. Pairs appear in paths as BASE-QUOTE.
	r.Get("/markets", marketH.ListMarkets)
	r.Get("/markets/{pair}/book", marketH.GetOrderBook)
	r.Get("/markets/{pair}/trades", marketH.ListTrades)

	return r
}

// requestLogging returns middleware that logs each request's method, path,
// status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// contentTypeJSON is middleware that validates Content-Type for POST, PUT, and
// PATCH requests. If the Content-Type header doesn't start with
// "application/json", it returns 400 Bad Request before the handler runs.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct == "" || !strings.HasPrefix(ct, "application/json") {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// pairFromPath converts the BASE-QUOTE path form to the BASE/QUOTE form
// used everywhere else.
func pairFromPath(p string) string {
	return strings.Replace(p, "-", "/", 1)
}
