package payment

import (
	"context"
	"errors"
)

const (
	CurrencyINR = "INR"

	PaymentStatusCaptured = "captured"
)

var ErrGatewayTimeout = errors.New("payment gateway timed out")

type OrderRequest struct {
	AmountPaise int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

type GatewayOrder struct {
	ID          string
	AmountPaise int64
	Currency    string
	Receipt     string
	Status      string
}

type GatewayPayment struct {
	ID          string
	OrderID     string
	Status      string
	Method      string
	AmountPaise int64
	Currency    string
	Email       string
	Contact     string
}

// Gateway is the server-to-server side of the payment provider.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*GatewayOrder, error)
	FetchPayment(ctx context.Context, paymentID string) (*GatewayPayment, error)
}
