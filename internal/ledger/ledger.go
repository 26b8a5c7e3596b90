// Package ledger owns per-account, per-currency balance records and the
// atomic primitives that move funds between the available and locked
// partitions. These primitives are the only writers of balance state.
package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigoex/exchange-core/internal/domain"
)

// key identifies one balance record.
type key struct {
	accountID string
	currency  string
}

// entry is a single balance record with its own lock. Every mutation is a
// check-and-update under entry.mu, so concurrent operations on the same
// (account, currency) serialize while distinct keys never contend.
type entry struct {
	mu        sync.Mutex
	available decimal.Decimal
	locked    decimal.Decimal
	updatedAt time.Time
}

// Ledger is a thread-safe balance store keyed by (account, currency).
// Records are created lazily with zero balances on first reference.
type Ledger struct {
	mu      sync.RWMutex
	entries map[key]*entry
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{
		entries: make(map[key]*entry),
	}
}

// get returns the entry for (accountID, currency), creating it lazily.
func (l *Ledger) get(accountID, currency string) *entry {
	k := key{accountID: accountID, currency: currency}

	l.mu.RLock()
	e, ok := l.entries[k]
	l.mu.RUnlock()
	if ok {
		return e
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// Double-check after acquiring write lock.
	if e, ok = l.entries[k]; ok {
		return e
	}
	e = &entry{available: decimal.Zero, locked: decimal.Zero, updatedAt: time.Now()}
	l.entries[k] = e
	return e
}

// Lock atomically moves amount from available to locked. It returns
// domain.ErrInsufficientAvailable if available < amount.
func (l *Ledger) Lock(accountID, currency string, amount decimal.Decimal) error {
	e := l.get(accountID, currency)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.available.LessThan(amount) {
		return domain.ErrInsufficientAvailable
	}
	e.available = e.available.Sub(amount)
	e.locked = e.locked.Add(amount)
	e.updatedAt = time.Now()
	return nil
}

// Release atomically moves amount from locked back to available. It
// returns domain.ErrInsufficientLocked if locked < amount.
func (l *Ledger) Release(accountID, currency string, amount decimal.Decimal) error {
	e := l.get(accountID, currency)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.locked.LessThan(amount) {
		return domain.ErrInsufficientLocked
	}
	e.locked = e.locked.Sub(amount)
	e.available = e.available.Add(amount)
	e.updatedAt = time.Now()
	return nil
}

// SettleDebitLocked atomically decrements locked by amount — funds leaving
// the account as part of a completed trade. It returns
// domain.ErrInsufficientLocked if locked < amount.
func (l *Ledger) SettleDebitLocked(accountID, currency string, amount decimal.Decimal) error {
	e := l.get(accountID, currency)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.locked.LessThan(amount) {
		return domain.ErrInsufficientLocked
	}
	e.locked = e.locked.Sub(amount)
	e.updatedAt = time.Now()
	return nil
}

// CreditAvailable atomically increments available by amount. It never
// fails; amount ≥ 0 is the caller's precondition.
func (l *Ledger) CreditAvailable(accountID, currency string, amount decimal.Decimal) {
	e := l.get(accountID, currency)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.available = e.available.Add(amount)
	e.updatedAt = time.Now()
}

// Balance returns a snapshot of one balance record. It returns
// domain.ErrWalletNotFound if the (account, currency) pair has never been
// referenced.
func (l *Ledger) Balance(accountID, currency string) (domain.Balance, error) {
	k := key{accountID: accountID, currency: currency}

	l.mu.RLock()
	e, ok := l.entries[k]
	l.mu.RUnlock()
	if !ok {
		return domain.Balance{}, domain.ErrWalletNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.Balance{
		AccountID: accountID,
		Currency:  currency,
		Available: e.available,
		Locked:    e.locked,
		UpdatedAt: e.updatedAt,
	}, nil
}

// Balances returns snapshots of all balance records for an account,
// sorted by currency code. Returns an empty slice for unknown accounts.
func (l *Ledger) Balances(accountID string) []domain.Balance {
	l.mu.RLock()
	entries := make(map[string]*entry)
	for k, e := range l.entries {
		if k.accountID == accountID {
			entries[k.currency] = e
		}
	}
	l.mu.RUnlock()

	currencies := make([]string, 0, len(entries))
	for c := range entries {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)

	balances := make([]domain.Balance, 0, len(currencies))
	for _, c := range currencies {
		e := entries[c]
		e.mu.Lock()
		balances = append(balances, domain.Balance{
			AccountID: accountID,
			Currency:  c,
			Available: e.available,
			Locked:    e.locked,
			UpdatedAt: e.updatedAt,
		})
		e.mu.Unlock()
	}
	return balances
}
