package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"storefront-svc/circuitbreaker"

	razorpay "github.com/razorpay/razorpay-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var _ Gateway = (*RazorpayGateway)(nil)

type RazorpayGateway struct {
	client  *razorpay.Client
	timeout time.Duration
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewRazorpayGateway(keyID, keySecret string, timeout time.Duration, logger *zap.Logger) *RazorpayGateway {
	return &RazorpayGateway{
		client:  razorpay.NewClient(keyID, keySecret),
		timeout: timeout,
		breaker: circuitbreaker.NewCircuitBreaker(5, 30*time.Second),
		logger:  logger,
	}
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, req OrderRequest) (*GatewayOrder, error) {
	ctx, span := otel.Tracer("storefront").Start(ctx, "razorpay.CreateOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("amount", req.AmountPaise), attribute.String("receipt", req.Receipt))

	notes := make(map[string]interface{}, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}
	data := map[string]interface{}{
		"amount":   req.AmountPaise,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    notes,
	}

	body, err := g.call(ctx, func() (map[string]interface{}, error) {
		return g.client.Order.Create(data, nil)
	})
	if err != nil {
		span.RecordError(err)
		g.logger.Error("Failed to create Razorpay order", zap.String("receipt", req.Receipt), zap.Error(err))
		return nil, fmt.Errorf("failed to create gateway order: %w", err)
	}

	return &GatewayOrder{
		ID:          stringField(body, "id"),
		AmountPaise: int64Field(body, "amount"),
		Currency:    stringField(body, "currency"),
		Receipt:     stringField(body, "receipt"),
		Status:      stringField(body, "status"),
	}, nil
}

func (g *RazorpayGateway) FetchPayment(ctx context.Context, paymentID string) (*GatewayPayment, error) {
	ctx, span := otel.Tracer("storefront").Start(ctx, "razorpay.FetchPayment")
	defer span.End()
	span.SetAttributes(attribute.String("payment_id", paymentID))

	body, err := g.call(ctx, func() (map[string]interface{}, error) {
		return g.client.Payment.Fetch(paymentID, nil, nil)
	})
	if err != nil {
		span.RecordError(err)
		g.logger.Warn("Failed to fetch Razorpay payment", zap.String("payment_id", paymentID), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch gateway payment: %w", err)
	}

	return &GatewayPayment{
		ID:          stringField(body, "id"),
		OrderID:     stringField(body, "order_id"),
		Status:      stringField(body, "status"),
		Method:      stringField(body, "method"),
		AmountPaise: int64Field(body, "amount"),
		Currency:    stringField(body, "currency"),
		Email:       stringField(body, "email"),
		Contact:     stringField(body, "contact"),
	}, nil
}

// call runs fn through the circuit breaker and gives up after g.timeout. The
// SDK call itself cannot be cancelled; it finishes on its own HTTP timeout.
func (g *RazorpayGateway) call(ctx context.Context, fn func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	var body map[string]interface{}
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		type result struct {
			body map[string]interface{}
			err  error
		}
		done := make(chan result, 1)
		go func() {
			b, err := fn()
			done <- result{b, err}
		}()

		select {
		case r := <-done:
			body = r.body
			return r.err
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrGatewayTimeout
			}
			return ctx.Err()
		}
	})
	return body, err
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func int64Field(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(math.Round(v))
	case int:
		return int64(v)
	case int64:
		return v
	}
	return 0
}
