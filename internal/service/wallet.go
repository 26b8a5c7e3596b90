package service

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pigoex/exchange-core/internal/domain"
	"github.com/pigoex/exchange-core/internal/engine"
	"github.com/pigoex/exchange-core/internal/ledger"
)

var currencyRegex = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

// WalletService handles balance queries, deposits, and withdrawals. All
// fund movement goes through the ledger primitives — a withdrawal is a
// lock followed by a settle-debit, so the available-balance check and the
// debit stay atomic per key.
type WalletService struct {
	ledger   *ledger.Ledger
	notifier engine.Notifier
}

// NewWalletService creates a WalletService with the given dependencies.
func NewWalletService(l *ledger.Ledger, notifier engine.Notifier) *WalletService {
	return &WalletService{ledger: l, notifier: notifier}
}

// Balances returns all balance records for an account, sorted by
// currency.
func (s *WalletService) Balances(accountID string) ([]domain.Balance, error) {
	if !accountIDRegex.MatchString(accountID) {
		return nil, &domain.ValidationError{
			Message: "account_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	return s.ledger.Balances(accountID), nil
}

// Balance returns one balance record. It returns domain.ErrWalletNotFound
// if the (account, currency) pair has never been referenced.
func (s *WalletService) Balance(accountID, currency string) (domain.Balance, error) {
	currency, err := normalizeCurrency(currency)
	if err != nil {
		return domain.Balance{}, err
	}
	return s.ledger.Balance(accountID, currency)
}

// Deposit credits amount to the account's available balance, creating the
// balance record if needed.
func (s *WalletService) Deposit(accountID, currency string, amount decimal.Decimal) (domain.Balance, error) {
	currency, err := normalizeCurrency(currency)
	if err != nil {
		return domain.Balance{}, err
	}
	if !accountIDRegex.MatchString(accountID) {
		return domain.Balance{}, &domain.ValidationError{
			Message: "account_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if !amount.IsPositive() {
		return domain.Balance{}, &domain.ValidationError{
			Message: "amount must be positive",
		}
	}

	s.ledger.CreditAvailable(accountID, currency, amount)

	b, err := s.ledger.Balance(accountID, currency)
	if err != nil {
		return domain.Balance{}, err
	}
	s.notifyBalance(b)
	return b, nil
}

// Withdraw debits amount from the account's available balance. It returns
// domain.ErrInsufficientAvailable if the account cannot cover the amount.
func (s *WalletService) Withdraw(accountID, currency string, amount decimal.Decimal) (domain.Balance, error) {
	currency, err := normalizeCurrency(currency)
	if err != nil {
		return domain.Balance{}, err
	}
	if !amount.IsPositive() {
		return domain.Balance{}, &domain.ValidationError{
			Message: "amount must be positive",
		}
	}

	// Reserve then settle, composing the ledger primitives so no other
	// writer can observe an intermediate state.
	if err := s.ledger.Lock(accountID, currency, amount); err != nil {
		return domain.Balance{}, err
	}
	if err := s.ledger.SettleDebitLocked(accountID, currency, amount); err != nil {
		return domain.Balance{}, err
	}

	b, err := s.ledger.Balance(accountID, currency)
	if err != nil {
		return domain.Balance{}, err
	}
	s.notifyBalance(b)
	return b, nil
}

func normalizeCurrency(currency string) (string, error) {
	currency = strings.ToUpper(currency)
	if !currencyRegex.MatchString(currency) {
		return "", &domain.ValidationError{
			Message: "currency must match ^[A-Z0-9]{2,10}$",
		}
	}
	return currency, nil
}

func (s *WalletService) notifyBalance(b domain.Balance) {
	if s.notifier != nil {
		s.notifier.BalanceUpdated(b)
	}
}
