package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/pigoex/exchange-core/internal/domain"
	"github.com/pigoex/exchange-core/internal/service"
)

// WalletHandler handles HTTP requests for wallet endpoints.
type WalletHandler struct {
	walletSvc *service.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc *service.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// amountRequest is the JSON request body for deposits and withdrawals.
type amountRequest struct {
	Amount string `json:"amount"`
}

// balanceResponse is the JSON shape of one balance record.
type balanceResponse struct {
	AccountID string `json:"account_id"`
	Currency  string `json:"currency"`
	Available string `json:"available"`
	Locked    string `json:"locked"`
	Total     string `json:"total"`
}

// ListBalances handles GET /accounts/{account_id}/wallets.
func (h *WalletHandler) ListBalances(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account_id")

	balances, err := h.walletSvc.Balances(accountID)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	resp := make([]balanceResponse, len(balances))
	for i, b := range balances {
		resp[i] = buildBalanceResponse(b)
	}
	WriteJSON(w, http.StatusOK, map[string]any{"wallets": resp})
}

// GetBalance handles GET /accounts/{account_id}/wallets/{currency}.
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account_id")
	currency := chi.URLParam(r, "currency")

	b, err := h.walletSvc.Balance(accountID, currency)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildBalanceResponse(b))
}

// Deposit handles POST /accounts/{account_id}/wallets/{currency}/deposits.
func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.applyAmount(w, r, h.walletSvc.Deposit)
}

// Withdraw handles POST /accounts/{account_id}/wallets/{currency}/withdrawals.
func (h *WalletHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.applyAmount(w, r, h.walletSvc.Withdraw)
}

func (h *WalletHandler) applyAmount(
	w http.ResponseWriter,
	r *http.Request,
	apply func(accountID, currency string, amount decimal.Decimal) (domain.Balance, error),
) {
	accountID := chi.URLParam(r, "account_id")
	currency := chi.URLParam(r, "currency")

	var req amountRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "amount must be a decimal string")
		return
	}

	b, err := apply(accountID, currency, amount)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildBalanceResponse(b))
}

func buildBalanceResponse(b domain.Balance) balanceResponse {
	return balanceResponse{
		AccountID: b.AccountID,
		Currency:  b.Currency,
		Available: b.Available.String(),
		Locked:    b.Locked.String(),
		Total:     b.Total().String(),
	}
}
