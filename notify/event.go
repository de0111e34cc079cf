package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront-svc/kafka"
	"storefront-svc/models"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// EventSender publishes an order_confirmed event; the notifier process turns
// it into an email.
type EventSender struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

func NewEventSender(producer sarama.SyncProducer, topic string, logger *zap.Logger) *EventSender {
	return &EventSender{producer: producer, topic: topic, logger: logger}
}

func (s *EventSender) Name() string { return "kafka" }

func (s *EventSender) Send(ctx context.Context, order models.Order) error {
	event := models.OrderEvent{
		EventType:   models.EventOrderConfirmed,
		Order:       order,
		PublishedAt: time.Now().UTC(),
	}
	return kafka.PublishEvent(ctx, s.producer, s.topic, order.OrderID, event, s.logger)
}

// EventHandler returns a kafka.Handler that delivers order_confirmed events
// through sender. Other event types are skipped.
func EventHandler(sender Sender, logger *zap.Logger) kafka.Handler {
	return func(ctx context.Context, value []byte) error {
		var event models.OrderEvent
		if err := json.Unmarshal(value, &event); err != nil {
			// A malformed event will never succeed; drop it.
			logger.Error("Failed to unmarshal order event", zap.Error(err))
			return nil
		}
		if event.EventType != models.EventOrderConfirmed {
			logger.Debug("Skipping event", zap.String("event_type", event.EventType))
			return nil
		}
		if err := sender.Send(ctx, event.Order); err != nil {
			return fmt.Errorf("failed to deliver %s: %w", event.Order.OrderID, err)
		}
		logger.Info("Order confirmation delivered",
			zap.String("order_id", event.Order.OrderID),
			zap.String("transport", sender.Name()),
		)
		return nil
	}
}
