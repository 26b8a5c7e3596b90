package engine

import (
	"context"
	"log/slog"

	"github.com/pigoex/exchange-core/internal/domain"
)

// Dispatcher queues pending market orders for asynchronous settlement.
// Placement returns before settlement completes; callers poll the order
// for its terminal state. There is no cancellation of an in-flight
// settlement once the worker has picked the order up.
type Dispatcher struct {
	settlement *Settlement
	queue      chan domain.Order
	logger     *slog.Logger
}

// NewDispatcher creates a Dispatcher with a bounded queue. Enqueue blocks
// when the queue is full, applying backpressure to placement.
func NewDispatcher(settlement *Settlement, queueSize int, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		settlement: settlement,
		queue:      make(chan domain.Order, queueSize),
		logger:     logger,
	}
}

// Enqueue hands a pending market order to the settlement worker.
func (d *Dispatcher) Enqueue(order domain.Order) {
	d.queue <- order
}

// Start runs the settlement loop until ctx is cancelled. Settlement
// failures terminalize the order inside the engine; here they are only
// logged.
func (d *Dispatcher) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case order := <-d.queue:
			if err := d.settlement.ExecuteMarket(order); err != nil {
				d.logger.Warn("market order settlement failed",
					slog.String("order_id", order.OrderID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
