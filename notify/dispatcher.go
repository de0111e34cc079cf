// Package notify tells customers about confirmed orders. Dispatch never
// blocks the caller and never reports failures back to it.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront-svc/middleware"
	"storefront-svc/models"

	"go.uber.org/zap"
)

// Dispatcher has no return value on purpose: callers cannot wait on delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, order models.Order)
}

// Sender makes one delivery attempt.
type Sender interface {
	Name() string
	Send(ctx context.Context, order models.Order) error
}

// AsyncDispatcher runs each send in its own goroutine with a fresh timeout.
// The ctx given to Dispatch only contributes its values (trace ids); its
// cancellation and deadline are dropped.
type AsyncDispatcher struct {
	sender  Sender
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

var _ Dispatcher = (*AsyncDispatcher)(nil)

func NewAsyncDispatcher(sender Sender, timeout time.Duration, logger *zap.Logger) *AsyncDispatcher {
	return &AsyncDispatcher{sender: sender, timeout: timeout, logger: logger}
}

func (d *AsyncDispatcher) Dispatch(ctx context.Context, order models.Order) {
	detached := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.send(detached, order)
	}()
}

func (d *AsyncDispatcher) send(ctx context.Context, order models.Order) {
	transport := d.sender.Name()
	defer func() {
		if r := recover(); r != nil {
			middleware.RecordNotification(transport, "panic")
			d.logger.Error("Notification sender panicked",
				zap.String("transport", transport),
				zap.String("order_id", order.OrderID),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.sender.Send(ctx, order); err != nil {
		middleware.RecordNotification(transport, "failed")
		d.logger.Error("Failed to send order notification",
			zap.String("trace_id", middleware.TraceIDFromContext(ctx)),
			zap.String("transport", transport),
			zap.String("order_id", order.OrderID),
			zap.Error(err),
		)
		return
	}

	middleware.RecordNotification(transport, "sent")
	d.logger.Info("Order notification sent",
		zap.String("transport", transport),
		zap.String("order_id", order.OrderID),
	)
}

// Wait blocks until every dispatched send has finished.
func (d *AsyncDispatcher) Wait() {
	d.wg.Wait()
}

// LogSender only logs the notification.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Name() string { return "log" }

func (s *LogSender) Send(_ context.Context, order models.Order) error {
	s.logger.Info("Order confirmation",
		zap.String("order_id", order.OrderID),
		zap.String("email", order.Customer.Email),
		zap.Float64("total_amount", order.TotalAmount),
	)
	return nil
}
