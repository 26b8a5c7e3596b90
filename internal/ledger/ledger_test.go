package ledger

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/pigoex/exchange-core/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLedger_Lock_MovesAvailableToLocked(t *testing.T) {
	l := New()
	l.CreditAvailable("acct-1", "USDT", dec("5000"))

	if err := l.Lock("acct-1", "USDT", dec("4400")); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	b, err := l.Balance("acct-1", "USDT")
	if err != nil {
		t.Fatalf("expected balance, got %v", err)
	}
	if !b.Available.Equal(dec("600")) {
		t.Fatalf("expected available 600, got %s", b.Available)
	}
	if !b.Locked.Equal(dec("4400")) {
		t.Fatalf("expected locked 4400, got %s", b.Locked)
	}
	if !b.Total().Equal(dec("5000")) {
		t.Fatalf("expected total 5000, got %s", b.Total())
	}
}

func TestLedger_Lock_InsufficientAvailable(t *testing.T) {
	l := New()
	l.CreditAvailable("acct-1", "USDT", dec("100"))

	err := l.Lock("acct-1", "USDT", dec("100.01"))
	if err != domain.ErrInsufficientAvailable {
		t.Fatalf("expected ErrInsufficientAvailable, got %v", err)
	}

	// Balances unchanged after the failed lock.
	b, _ := l.Balance("acct-1", "USDT")
	if !b.Available.Equal(dec("100")) || !b.Locked.IsZero() {
		t.Fatalf("expected 100/0, got %s/%s", b.Available, b.Locked)
	}
}

func TestLedger_Lock_UnreferencedKey(t *testing.T) {
	l := New()

	// A never-referenced key has zero balances, so any positive lock fails.
	err := l.Lock("acct-1", "BTC", dec("0.1"))
	if err != domain.ErrInsufficientAvailable {
		t.Fatalf("expected ErrInsufficientAvailable, got %v", err)
	}
}

func TestLedger_Release_MovesLockedToAvailable(t *testing.T) {
	l := New()
	l.CreditAvailable("acct-1", "USDT", dec("1000"))
	if err := l.Lock("acct-1", "USDT", dec("500")); err != nil {
		t.Fatalf("lock: %v", err)
	}

	if err := l.Release("acct-1", "USDT", dec("500")); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	b, _ := l.Balance("acct-1", "USDT")
	if !b.Available.Equal(dec("1000")) || !b.Locked.IsZero() {
		t.Fatalf("expected 1000/0, got %s/%s", b.Available, b.Locked)
	}
}

func TestLedger_Release_InsufficientLocked(t *testing.T) {
	l := New()
	l.CreditAvailable("acct-1", "USDT", dec("1000"))

	err := l.Release("acct-1", "USDT", dec("1"))
	if err != domain.ErrInsufficientLocked {
		t.Fatalf("expected ErrInsufficientLocked, got %v", err)
	}
}

func TestLedger_SettleDebitLocked(t *testing.T) {
	l := New()
	l.CreditAvailable("acct-1", "USDT", dec("1000"))
	if err := l.Lock("acct-1", "USDT", dec("440")); err != nil {
		t.Fatalf("lock: %v", err)
	}

	if err := l.SettleDebitLocked("acct-1", "USDT", dec("440")); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	b, _ := l.Balance("acct-1", "USDT")
	if !b.Available.Equal(dec("560")) || !b.Locked.IsZero() {
		t.Fatalf("expected 560/0, got %s/%s", b.Available, b.Locked)
	}

	err := l.SettleDebitLocked("acct-1", "USDT", dec("0.01"))
	if err != domain.ErrInsufficientLocked {
		t.Fatalf("expected ErrInsufficientLocked, got %v", err)
	}
}

func TestLedger_Balance_WalletNotFound(t *testing.T) {
	l := New()

	_, err := l.Balance("acct-1", "BTC")
	if err != domain.ErrWalletNotFound {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}
}

func TestLedger_Balances_SortedByCurrency(t *testing.T) {
	l := New()
	l.CreditAvailable("acct-1", "USDT", dec("1"))
	l.CreditAvailable("acct-1", "BTC", dec("2"))
	l.CreditAvailable("acct-1", "ETH", dec("3"))
	l.CreditAvailable("acct-2", "SOL", dec("4"))

	balances := l.Balances("acct-1")
	if len(balances) != 3 {
		t.Fatalf("expected 3 balances, got %d", len(balances))
	}
	want := []string{"BTC", "ETH", "USDT"}
	for i, b := range balances {
		if b.Currency != want[i] {
			t.Fatalf("expected %s at index %d, got %s", want[i], i, b.Currency)
		}
	}

	if got := l.Balances("acct-unknown"); len(got) != 0 {
		t.Fatalf("expected no balances for unknown account, got %d", len(got))
	}
}

func TestLedger_ConcurrentLockRelease_Conserved(t *testing.T) {
	l := New()
	l.CreditAvailable("acct-1", "USDT", dec("10000"))

	// 100 goroutines each lock and release 1 USDT many times. The total
	// must be conserved and never go negative.
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if err := l.Lock("acct-1", "USDT", dec("1")); err != nil {
					continue
				}
				if err := l.Release("acct-1", "USDT", dec("1")); err != nil {
					t.Errorf("release after successful lock failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	b, _ := l.Balance("acct-1", "USDT")
	if !b.Available.Equal(dec("10000")) || !b.Locked.IsZero() {
		t.Fatalf("expected 10000/0, got %s/%s", b.Available, b.Locked)
	}
}

func TestLedger_ConcurrentDistinctKeys(t *testing.T) {
	l := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			acct := "acct-" + string(rune('a'+n%26))
			l.CreditAvailable(acct, "USDT", dec("1"))
		}(i)
	}
	wg.Wait()

	total := decimal.Zero
	for i := 0; i < 26; i++ {
		acct := "acct-" + string(rune('a'+i))
		if b, err := l.Balance(acct, "USDT"); err == nil {
			total = total.Add(b.Available)
		}
	}
	if !total.Equal(dec("50")) {
		t.Fatalf("expected 50 total, got %s", total)
	}
}
