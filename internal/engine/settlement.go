// Package engine contains the settlement engine that executes market
// orders against the price feed, the dispatcher that runs it
// asynchronously, and the read-only order book view.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigoex/exchange-core/internal/domain"
	"github.com/pigoex/exchange-core/internal/ident"
	"github.com/pigoex/exchange-core/internal/ledger"
	"github.com/pigoex/exchange-core/internal/pricefeed"
	"github.com/pigoex/exchange-core/internal/store"
)

// Notifier receives fire-and-forget order and balance events. Delivery
// failures must never affect ledger or order state.
type Notifier interface {
	OrderUpdated(order domain.Order)
	BalanceUpdated(balance domain.Balance)
}

// Settlement applies fills to orders and moves the corresponding funds.
// It is the only component that mutates fill quantities and the only
// writer of market-order lifecycle state after placement. A settlement
// attempt either fully succeeds (order FILLED, funds moved, trade
// recorded) or ends in a terminal REJECTED/CANCELLED state with no funds
// moved — a PENDING order is never left behind.
type Settlement struct {
	ledger   *ledger.Ledger
	orders   *store.OrderStore
	trades   *store.TradeStore
	feed     pricefeed.Feed
	tradeIDs *ident.Generator
	feeRate  decimal.Decimal
	spread   decimal.Decimal
	notifier Notifier
	logger   *slog.Logger
}

// NewSettlement creates a Settlement with the given dependencies.
// feeRate and spread are fractions, e.g. 0.001 for 0.1%.
func NewSettlement(
	l *ledger.Ledger,
	orders *store.OrderStore,
	trades *store.TradeStore,
	feed pricefeed.Feed,
	tradeIDs *ident.Generator,
	feeRate decimal.Decimal,
	spread decimal.Decimal,
	notifier Notifier,
	logger *slog.Logger,
) *Settlement {
	return &Settlement{
		ledger:   l,
		orders:   orders,
		trades:   trades,
		feed:     feed,
		tradeIDs: tradeIDs,
		feeRate:  feeRate,
		spread:   spread,
		notifier: notifier,
		logger:   logger,
	}
}

// ExecuteMarket settles a pending market order at the current reference
// price adjusted by the spread: +0.1% for a BUY, −0.1% for a SELL,
// modelling slippage against the synthetic counterparty.
//
// The required amount is locked before execution. A failed lock means the
// account never had the funds, so the order is REJECTED; any failure after
// the lock reverses the fill and ends in CANCELLED.
func (s *Settlement) ExecuteMarket(order domain.Order) error {
	if order.Kind != domain.OrderKindMarket {
		return fmt.Errorf("order %s is not a market order", order.OrderID)
	}

	refPrice, err := s.feed.CurrentPrice(order.Pair)
	if err != nil {
		s.terminate(order.OrderID, domain.OrderStatusCancelled)
		return fmt.Errorf("price for %s: %w", order.Pair, err)
	}

	var price decimal.Decimal
	if order.Side == domain.OrderSideBuy {
		price = refPrice.Mul(decimal.NewFromInt(1).Add(s.spread))
	} else {
		price = refPrice.Mul(decimal.NewFromInt(1).Sub(s.spread))
	}

	qty := order.RemainingQuantity()

	// Best-effort reservation immediately before executing, so a shortfall
	// is discovered here and not halfway through the ledger moves.
	lockCurrency, lockAmount := marketLeg(order, price, qty)
	if err := s.ledger.Lock(order.AccountID, lockCurrency, lockAmount); err != nil {
		s.terminate(order.OrderID, domain.OrderStatusRejected)
		return fmt.Errorf("reserve %s %s for order %s: %w", lockAmount, lockCurrency, order.OrderID, err)
	}

	if err := s.settle(order, price, qty); err != nil {
		// The reservation was not consumed; hand it back before closing
		// the order out.
		if relErr := s.ledger.Release(order.AccountID, lockCurrency, lockAmount); relErr != nil {
			s.logger.Error("failed to release reservation after settlement failure",
				slog.String("order_id", order.OrderID),
				slog.String("error", relErr.Error()),
			)
		}
		s.terminate(order.OrderID, domain.OrderStatusCancelled)
		return err
	}
	return nil
}

// settle is the atomic trade-application sequence: apply the fill, compute
// the fee, move funds through the ledger, and append the immutable trade
// record. If a ledger debit fails after the fill was applied, the fill is
// rolled back so no partial state survives.
func (s *Settlement) settle(order domain.Order, price, qty decimal.Decimal) error {
	updated, err := s.orders.ApplyFill(order.OrderID, qty)
	if err != nil {
		return fmt.Errorf("apply fill to order %s: %w", order.OrderID, err)
	}

	gross := qty.Mul(price)
	fee := gross.Mul(s.feeRate)

	if order.Side == domain.OrderSideBuy {
		// Quote leaves the locked partition; base arrives net of the fee.
		if err := s.ledger.SettleDebitLocked(order.AccountID, order.Pair.Quote, gross); err != nil {
			s.rollbackFill(order.OrderID, qty)
			return fmt.Errorf("debit locked %s for order %s: %w", order.Pair.Quote, order.OrderID, err)
		}
		s.ledger.CreditAvailable(order.AccountID, order.Pair.Base, qty.Sub(qty.Mul(s.feeRate)))
	} else {
		if err := s.ledger.SettleDebitLocked(order.AccountID, order.Pair.Base, qty); err != nil {
			s.rollbackFill(order.OrderID, qty)
			return fmt.Errorf("debit locked %s for order %s: %w", order.Pair.Base, order.OrderID, err)
		}
		s.ledger.CreditAvailable(order.AccountID, order.Pair.Quote, gross.Sub(fee))
	}

	trade := domain.Trade{
		TradeID:     s.tradeIDs.Next(),
		OrderID:     order.OrderID,
		Pair:        order.Pair,
		Price:       price,
		Quantity:    qty,
		Fee:         fee,
		FeeCurrency: order.Pair.Quote,
		CreatedAt:   time.Now(),
	}
	s.trades.Append(trade)

	s.logger.Info("market order settled",
		slog.String("order_id", order.OrderID),
		slog.String("trade_id", trade.TradeID),
		slog.String("pair", order.Pair.String()),
		slog.String("price", price.String()),
		slog.String("quantity", qty.String()),
	)

	s.notifyOrder(updated)
	s.notifyBalance(order.AccountID, order.Pair.Base)
	s.notifyBalance(order.AccountID, order.Pair.Quote)
	return nil
}

// marketLeg returns the currency and amount a market order consumes at the
// given execution price: quote price × quantity for a BUY, the base
// quantity for a SELL.
func marketLeg(order domain.Order, price, qty decimal.Decimal) (string, decimal.Decimal) {
	if order.Side == domain.OrderSideBuy {
		return order.Pair.Quote, price.Mul(qty)
	}
	return order.Pair.Base, qty
}

func (s *Settlement) rollbackFill(orderID string, qty decimal.Decimal) {
	if _, err := s.orders.RollbackFill(orderID, qty); err != nil {
		s.logger.Error("failed to roll back fill",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}
}

// terminate moves the order to a terminal status. ErrAlreadyTerminal is
// expected when the order was cancelled while queued; anything else is
// logged.
func (s *Settlement) terminate(orderID string, status domain.OrderStatus) {
	var (
		updated domain.Order
		err     error
	)
	if status == domain.OrderStatusRejected {
		updated, err = s.orders.MarkRejected(orderID)
	} else {
		updated, err = s.orders.MarkCancelled(orderID)
	}
	if err != nil {
		if err != domain.ErrAlreadyTerminal {
			s.logger.Error("failed to terminate order",
				slog.String("order_id", orderID),
				slog.String("status", string(status)),
				slog.String("error", err.Error()),
			)
		}
		return
	}
	s.notifyOrder(updated)
}

func (s *Settlement) notifyOrder(order domain.Order) {
	if s.notifier != nil {
		s.notifier.OrderUpdated(order)
	}
}

func (s *Settlement) notifyBalance(accountID, currency string) {
	if s.notifier == nil {
		return
	}
	if b, err := s.ledger.Balance(accountID, currency); err == nil {
		s.notifier.BalanceUpdated(b)
	}
}
