package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront-svc/circuitbreaker"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestRazorpayCallTimeout(t *testing.T) {
	g := &RazorpayGateway{
		timeout: 10 * time.Millisecond,
		breaker: circuitbreaker.NewCircuitBreaker(5, time.Minute),
		logger:  zaptest.NewLogger(t),
	}

	release := make(chan struct{})
	defer close(release)

	_, err := g.call(context.Background(), func() (map[string]interface{}, error) {
		<-release
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrGatewayTimeout)
}

func TestRazorpayCallOpensBreaker(t *testing.T) {
	g := &RazorpayGateway{
		timeout: time.Second,
		breaker: circuitbreaker.NewCircuitBreaker(2, time.Minute),
		logger:  zaptest.NewLogger(t),
	}
	fail := func() (map[string]interface{}, error) { return nil, errors.New("502") }

	_, _ = g.call(context.Background(), fail)
	_, _ = g.call(context.Background(), fail)

	calls := 0
	_, err := g.call(context.Background(), func() (map[string]interface{}, error) {
		calls++
		return map[string]interface{}{}, nil
	})
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Zero(t, calls)
}

func TestGatewayFieldDecoding(t *testing.T) {
	body := map[string]interface{}{
		"id":     "pay_1",
		"amount": float64(154700),
		"status": "captured",
		"fee":    nil,
	}
	assert.Equal(t, "pay_1", stringField(body, "id"))
	assert.Equal(t, int64(154700), int64Field(body, "amount"))
	assert.Equal(t, "", stringField(body, "fee"))
	assert.Equal(t, int64(0), int64Field(body, "missing"))
}
