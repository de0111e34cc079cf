package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-svc/middleware"
	"storefront-svc/models"
	"storefront-svc/store"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// UpdateStatus sets any of the known statuses. Cancelling goes through
// CancelOrder so stock is always returned.
func (s *Service) UpdateStatus(ctx context.Context, id string, status models.OrderStatus, trackingNumber string) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if status == models.OrderStatusCancelled {
		return s.CancelOrder(ctx, id)
	}

	ctx, span := tracer.Start(ctx, "orders.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.String("id", id), attribute.String("status", string(status)))

	prev, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	o, err := s.orders.UpdateOrderStatus(ctx, id, status, trackingNumber, s.deliveredAt(status))
	if err != nil {
		return nil, err
	}

	// Stock released by the cancel is not taken back here.
	if prev.OrderStatus == models.OrderStatusCancelled {
		s.logger.Warn("Cancelled order reopened without re-reserving stock",
			zap.String("order_id", o.OrderID),
			zap.String("status", string(status)),
			zap.String("product_id", o.Product.ProductID),
			zap.Int("quantity", o.Product.Quantity),
		)
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", o.OrderID),
		zap.String("status", string(status)),
		zap.String("tracking_number", trackingNumber),
	)
	return o, nil
}

func (s *Service) deliveredAt(status models.OrderStatus) *time.Time {
	if status != models.OrderStatusDelivered {
		return nil
	}
	t := s.now()
	return &t
}

// CancelOrder cancels the order unless it already shipped, was delivered or
// was cancelled before, then puts the ordered quantity back in stock. The
// status change is a single conditional update, so two concurrent cancels
// release stock once.
func (s *Service) CancelOrder(ctx context.Context, id string) (*models.Order, error) {
	ctx, span := tracer.Start(ctx, "orders.CancelOrder")
	defer span.End()
	span.SetAttributes(attribute.String("id", id))

	o, err := s.orders.CancelOrder(ctx, id)
	if errors.Is(err, store.ErrOrderNotFound) {
		return nil, s.classifyCancelMiss(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	middleware.RecordOrderEvent("cancelled")
	s.logger.Info("Order cancelled",
		zap.String("order_id", o.OrderID),
		zap.String("product_id", o.Product.ProductID),
		zap.Int("quantity", o.Product.Quantity),
	)

	if err := s.releaseStock(ctx, "cancel", o.Product.ProductID, o.Product.Quantity); errors.Is(err, store.ErrProductNotFound) {
		s.logger.Warn("Cancelled order references a deleted product",
			zap.String("order_id", o.OrderID),
			zap.String("product_id", o.Product.ProductID),
		)
	}
	return o, nil
}

// classifyCancelMiss explains why the conditional cancel matched nothing.
func (s *Service) classifyCancelMiss(ctx context.Context, id string) error {
	o, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if o.OrderStatus == models.OrderStatusCancelled {
		return ErrAlreadyCancelled
	}
	return ErrNotCancellable
}
