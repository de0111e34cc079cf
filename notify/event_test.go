package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"storefront-svc/models"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestEventSenderPublishesConfirmedEvent(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	defer producer.Close()

	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, _ := msg.Key.Encode()
		if string(key) != "ORD-250101-ABC123" {
			return errors.New("unexpected key " + string(key))
		}
		value, _ := msg.Value.Encode()
		var event models.OrderEvent
		if err := json.Unmarshal(value, &event); err != nil {
			return err
		}
		if event.EventType != models.EventOrderConfirmed {
			return errors.New("unexpected event type " + event.EventType)
		}
		return nil
	})

	s := NewEventSender(producer, "order_events", zaptest.NewLogger(t))
	require.NoError(t, s.Send(context.Background(), testOrder()))
}

func TestEventHandler(t *testing.T) {
	sender := &recordingSender{}
	handle := EventHandler(sender, zaptest.NewLogger(t))

	confirmed, _ := json.Marshal(models.OrderEvent{EventType: models.EventOrderConfirmed, Order: testOrder()})
	cancelled, _ := json.Marshal(models.OrderEvent{EventType: models.EventOrderCancelled, Order: testOrder()})

	assert.NoError(t, handle(context.Background(), confirmed))
	assert.NoError(t, handle(context.Background(), cancelled))
	assert.NoError(t, handle(context.Background(), []byte("{not json")))
	assert.Equal(t, []string{"ORD-250101-ABC123"}, sender.orders)

	sender.err = errors.New("smtp down")
	assert.Error(t, handle(context.Background(), confirmed))
}
