// Package paymenttest provides a scriptable payment.Gateway for tests.
package paymenttest

import (
	"context"
	"fmt"
	"sync"

	"storefront-svc/payment"
)

var _ payment.Gateway = (*Gateway)(nil)

// Gateway returns the payments registered with AddPayment and records calls.
type Gateway struct {
	mu       sync.Mutex
	payments map[string]payment.GatewayPayment
	orders   []payment.OrderRequest

	// FetchErr and CreateErr, when set, fail the respective call.
	FetchErr  error
	CreateErr error
	// Block, when set, makes FetchPayment wait for ctx to end.
	Block bool

	fetchCalls int
}

func NewGateway() *Gateway {
	return &Gateway{payments: make(map[string]payment.GatewayPayment)}
}

func (g *Gateway) AddPayment(p payment.GatewayPayment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments[p.ID] = p
}

// Captured registers a captured payment for orderID with the given amount.
func (g *Gateway) Captured(paymentID, orderID string, amountPaise int64) {
	g.AddPayment(payment.GatewayPayment{
		ID:          paymentID,
		OrderID:     orderID,
		Status:      payment.PaymentStatusCaptured,
		Method:      "upi",
		AmountPaise: amountPaise,
		Currency:    payment.CurrencyINR,
	})
}

func (g *Gateway) FetchCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fetchCalls
}

func (g *Gateway) Orders() []payment.OrderRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]payment.OrderRequest(nil), g.orders...)
}

func (g *Gateway) CreateOrder(_ context.Context, req payment.OrderRequest) (*payment.GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.CreateErr != nil {
		return nil, g.CreateErr
	}
	g.orders = append(g.orders, req)
	return &payment.GatewayOrder{
		ID:          fmt.Sprintf("order_test%d", len(g.orders)),
		AmountPaise: req.AmountPaise,
		Currency:    req.Currency,
		Receipt:     req.Receipt,
		Status:      "created",
	}, nil
}

func (g *Gateway) FetchPayment(ctx context.Context, paymentID string) (*payment.GatewayPayment, error) {
	g.mu.Lock()
	g.fetchCalls++
	block, fetchErr := g.Block, g.FetchErr
	p, ok := g.payments[paymentID]
	g.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	if !ok {
		return nil, fmt.Errorf("payment %s does not exist", paymentID)
	}
	return &p, nil
}
