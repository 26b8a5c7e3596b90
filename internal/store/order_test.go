package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigoex/exchange-core/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var btcUsdt = domain.Pair{Base: "BTC", Quote: "USDT"}

func newTestOrder(id, accountID string, createdAt time.Time) domain.Order {
	return domain.Order{
		OrderID:     id,
		AccountID:   accountID,
		Pair:        btcUsdt,
		Kind:        domain.OrderKindLimit,
		Side:        domain.OrderSideBuy,
		Price:       dec("44000"),
		Quantity:    dec("0.1"),
		Status:      domain.OrderStatusOpen,
		TimeInForce: domain.TimeInForceGTC,
		CreatedAt:   createdAt,
	}
}

func TestOrderStore_Create_and_Get(t *testing.T) {
	s := NewOrderStore()
	o := newTestOrder("ORD-1", "acct-1", time.Now())

	s.Create(o)

	got, err := s.Get("ORD-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.OrderID != "ORD-1" || got.AccountID != "acct-1" {
		t.Fatalf("unexpected order %+v", got)
	}
}

func TestOrderStore_Get_NotFound(t *testing.T) {
	s := NewOrderStore()

	_, err := s.Get("no-such-order")
	if err != domain.ErrOrderNotFound {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderStore_GetForAccount_WrongAccount(t *testing.T) {
	s := NewOrderStore()
	s.Create(newTestOrder("ORD-1", "acct-1", time.Now()))

	_, err := s.GetForAccount("acct-2", "ORD-1")
	if err != domain.ErrOrderNotFound {
		t.Fatalf("expected ErrOrderNotFound for foreign account, got %v", err)
	}

	if _, err := s.GetForAccount("acct-1", "ORD-1"); err != nil {
		t.Fatalf("expected no error for owner, got %v", err)
	}
}

func TestOrderStore_ListByAccount_NewestFirst(t *testing.T) {
	s := NewOrderStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		o := newTestOrder(fmt.Sprintf("ORD-%d", i), "acct-1", base.Add(time.Duration(i)*time.Minute))
		s.Create(o)
	}

	orders := s.ListByAccount("acct-1", ListFilter{Limit: 10})
	if len(orders) != 5 {
		t.Fatalf("expected 5 orders, got %d", len(orders))
	}
	for i := 0; i < len(orders)-1; i++ {
		if !orders[i].CreatedAt.After(orders[i+1].CreatedAt) {
			t.Fatalf("orders not newest-first at index %d", i)
		}
	}
}

func TestOrderStore_ListByAccount_Filters(t *testing.T) {
	s := NewOrderStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ethUsdt := domain.Pair{Base: "ETH", Quote: "USDT"}

	o1 := newTestOrder("ORD-1", "acct-1", base)
	o2 := newTestOrder("ORD-2", "acct-1", base.Add(time.Minute))
	o2.Status = domain.OrderStatusCancelled
	o3 := newTestOrder("ORD-3", "acct-1", base.Add(2*time.Minute))
	o3.Pair = ethUsdt
	o4 := newTestOrder("ORD-4", "acct-1", base.Add(3*time.Minute))
	o4.Side = domain.OrderSideSell
	for _, o := range []domain.Order{o1, o2, o3, o4} {
		s.Create(o)
	}

	open := domain.OrderStatusOpen
	got := s.ListByAccount("acct-1", ListFilter{Status: &open})
	if len(got) != 3 {
		t.Fatalf("expected 3 open orders, got %d", len(got))
	}

	got = s.ListByAccount("acct-1", ListFilter{Pair: &ethUsdt})
	if len(got) != 1 || got[0].OrderID != "ORD-3" {
		t.Fatalf("expected only ORD-3, got %+v", got)
	}

	sell := domain.OrderSideSell
	got = s.ListByAccount("acct-1", ListFilter{Side: &sell})
	if len(got) != 1 || got[0].OrderID != "ORD-4" {
		t.Fatalf("expected only ORD-4, got %+v", got)
	}

	got = s.ListByAccount("acct-1", ListFilter{Limit: 2})
	if len(got) != 2 || got[0].OrderID != "ORD-4" {
		t.Fatalf("expected 2 newest orders starting with ORD-4, got %+v", got)
	}
}

func TestOrderStore_ApplyFill_PartialThenFull(t *testing.T) {
	s := NewOrderStore()
	o := newTestOrder("ORD-1", "acct-1", time.Now())
	o.Kind = domain.OrderKindMarket
	o.Price = decimal.Zero
	o.Status = domain.OrderStatusPending
	s.Create(o)

	got, err := s.ApplyFill("ORD-1", dec("0.04"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Status != domain.OrderStatusPartiallyFilled {
		t.Fatalf("expected PARTIALLY_FILLED, got %s", got.Status)
	}
	if !got.FilledQuantity.Equal(dec("0.04")) {
		t.Fatalf("expected filled 0.04, got %s", got.FilledQuantity)
	}

	got, err = s.ApplyFill("ORD-1", dec("0.06"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Status != domain.OrderStatusFilled {
		t.Fatalf("expected FILLED, got %s", got.Status)
	}
	if !got.RemainingQuantity().IsZero() {
		t.Fatalf("expected zero remaining, got %s", got.RemainingQuantity())
	}
}

func TestOrderStore_ApplyFill_OverFill(t *testing.T) {
	s := NewOrderStore()
	s.Create(newTestOrder("ORD-1", "acct-1", time.Now()))

	_, err := s.ApplyFill("ORD-1", dec("0.11"))
	if err != domain.ErrOverFill {
		t.Fatalf("expected ErrOverFill, got %v", err)
	}

	got, _ := s.Get("ORD-1")
	if !got.FilledQuantity.IsZero() {
		t.Fatalf("rejected fill mutated order: filled %s", got.FilledQuantity)
	}
}

func TestOrderStore_ApplyFill_Terminal(t *testing.T) {
	s := NewOrderStore()
	s.Create(newTestOrder("ORD-1", "acct-1", time.Now()))
	if _, err := s.MarkCancelled("ORD-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, err := s.ApplyFill("ORD-1", dec("0.01"))
	if err != domain.ErrAlreadyTerminal {
		t.Fatalf("expected ErrAlreadyTerminal, got %v", err)
	}
}

func TestOrderStore_RollbackFill(t *testing.T) {
	s := NewOrderStore()
	o := newTestOrder("ORD-1", "acct-1", time.Now())
	o.Kind = domain.OrderKindMarket
	o.Status = domain.OrderStatusPending
	s.Create(o)

	if _, err := s.ApplyFill("ORD-1", dec("0.1")); err != nil {
		t.Fatalf("fill: %v", err)
	}

	got, err := s.RollbackFill("ORD-1", dec("0.1"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Status != domain.OrderStatusPending {
		t.Fatalf("expected PENDING after full rollback of market order, got %s", got.Status)
	}
	if !got.FilledQuantity.IsZero() {
		t.Fatalf("expected zero filled, got %s", got.FilledQuantity)
	}
}

func TestOrderStore_MarkCancelled_Twice(t *testing.T) {
	s := NewOrderStore()
	s.Create(newTestOrder("ORD-1", "acct-1", time.Now()))

	if _, err := s.MarkCancelled("ORD-1"); err != nil {
		t.Fatalf("first cancel: %v", err)
	}

	_, err := s.MarkCancelled("ORD-1")
	if err != domain.ErrAlreadyTerminal {
		t.Fatalf("expected ErrAlreadyTerminal, got %v", err)
	}
}

func TestOrderStore_MarkRejected(t *testing.T) {
	s := NewOrderStore()
	o := newTestOrder("ORD-1", "acct-1", time.Now())
	o.Kind = domain.OrderKindMarket
	o.Status = domain.OrderStatusPending
	s.Create(o)

	got, err := s.MarkRejected("ORD-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Status != domain.OrderStatusRejected {
		t.Fatalf("expected REJECTED, got %s", got.Status)
	}
}

func TestOrderStore_OpenByPair(t *testing.T) {
	s := NewOrderStore()
	o1 := newTestOrder("ORD-1", "acct-1", time.Now())
	o2 := newTestOrder("ORD-2", "acct-2", time.Now())
	o3 := newTestOrder("ORD-3", "acct-1", time.Now())
	o3.Status = domain.OrderStatusCancelled
	o4 := newTestOrder("ORD-4", "acct-1", time.Now())
	o4.Pair = domain.Pair{Base: "ETH", Quote: "USDT"}
	for _, o := range []domain.Order{o1, o2, o3, o4} {
		s.Create(o)
	}

	open := s.OpenByPair(btcUsdt)
	if len(open) != 2 {
		t.Fatalf("expected 2 open orders, got %d", len(open))
	}
	for _, o := range open {
		if o.Status != domain.OrderStatusOpen || o.Pair != btcUsdt {
			t.Fatalf("unexpected order in result: %+v", o)
		}
	}
}
