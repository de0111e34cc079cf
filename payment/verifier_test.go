package payment_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"storefront-svc/models"
	"storefront-svc/payment"
	"storefront-svc/payment/paymenttest"
	"storefront-svc/store"
	"storefront-svc/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testSecret = "rzp_test_secret"

type verifierFixture struct {
	verifier *payment.Verifier
	gateway  *paymenttest.Gateway
	store    *storetest.Memory
}

func setupVerifierTest(t *testing.T) verifierFixture {
	mem := storetest.NewMemory()
	mem.SeedProduct(models.Product{ID: "prod-1", Name: "Brass Lamp", Price: 499, DiscountPrice: 449, Stock: 5})
	gw := paymenttest.NewGateway()
	return verifierFixture{
		verifier: payment.NewVerifier(testSecret, gw, mem, zaptest.NewLogger(t)),
		gateway:  gw,
		store:    mem,
	}
}

func claimFor(orderID, paymentID string) payment.Claim {
	return payment.Claim{
		RazorpayOrderID:   orderID,
		RazorpayPaymentID: paymentID,
		Signature:         payment.Sign(testSecret, orderID, paymentID),
	}
}

func rejectionReason(t *testing.T, err error) payment.Reason {
	t.Helper()
	require.ErrorIs(t, err, payment.ErrPaymentRejected)
	var rej *payment.RejectionError
	require.True(t, errors.As(err, &rej))
	return rej.Reason
}

func TestVerifyAccepts(t *testing.T) {
	f := setupVerifierTest(t)
	f.gateway.Captured("pay_1", "order_1", 2*44900+5000)

	v, err := f.verifier.Verify(context.Background(), claimFor("order_1", "pay_1"),
		payment.LineItem{ProductID: "prod-1", Quantity: 2, ShippingCharge: 50})
	require.NoError(t, err)
	assert.Equal(t, "upi", v.Payment.Method)
	assert.Equal(t, 948.0, v.Quote.TotalFloat())
	assert.Equal(t, "prod-1", v.Product.ID)
}

func TestVerifyForgedSignatureSkipsGateway(t *testing.T) {
	f := setupVerifierTest(t)
	f.gateway.Captured("pay_1", "order_1", 44900)

	claim := claimFor("order_1", "pay_1")
	claim.Signature = payment.Sign("wrong-secret", "order_1", "pay_1")

	_, err := f.verifier.Verify(context.Background(), claim, payment.LineItem{ProductID: "prod-1", Quantity: 1})
	assert.Equal(t, payment.ReasonSignatureMismatch, rejectionReason(t, err))
	assert.Zero(t, f.gateway.FetchCalls())

	claim.Signature = "not-hex"
	_, err = f.verifier.Verify(context.Background(), claim, payment.LineItem{ProductID: "prod-1", Quantity: 1})
	assert.Equal(t, payment.ReasonSignatureMismatch, rejectionReason(t, err))
	assert.Zero(t, f.gateway.FetchCalls())
}

func TestVerifySignatureIsCaseSensitive(t *testing.T) {
	f := setupVerifierTest(t)
	f.gateway.Captured("pay_1", "order_1", 44900)

	claim := claimFor("order_1", "pay_1")
	claim.Signature = strings.ToUpper(claim.Signature)

	_, err := f.verifier.Verify(context.Background(), claim, payment.LineItem{ProductID: "prod-1", Quantity: 1})
	assert.Equal(t, payment.ReasonSignatureMismatch, rejectionReason(t, err))
	assert.Zero(t, f.gateway.FetchCalls())
}

func TestVerifyRejections(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(gw *paymenttest.Gateway)
		item   payment.LineItem
		reason payment.Reason
	}{
		{
			name: "not captured",
			setup: func(gw *paymenttest.Gateway) {
				gw.AddPayment(payment.GatewayPayment{ID: "pay_1", OrderID: "order_1", Status: "authorized", AmountPaise: 44900})
			},
			item:   payment.LineItem{ProductID: "prod-1", Quantity: 1},
			reason: payment.ReasonNotCaptured,
		},
		{
			name:   "different gateway order",
			setup:  func(gw *paymenttest.Gateway) { gw.Captured("pay_1", "order_other", 44900) },
			item:   payment.LineItem{ProductID: "prod-1", Quantity: 1},
			reason: payment.ReasonOrderMismatch,
		},
		{
			name:   "quantity raised after payment",
			setup:  func(gw *paymenttest.Gateway) { gw.Captured("pay_1", "order_1", 44900) },
			item:   payment.LineItem{ProductID: "prod-1", Quantity: 2},
			reason: payment.ReasonAmountMismatch,
		},
		{
			name:   "shipping dropped after payment",
			setup:  func(gw *paymenttest.Gateway) { gw.Captured("pay_1", "order_1", 44900+5000) },
			item:   payment.LineItem{ProductID: "prod-1", Quantity: 1},
			reason: payment.ReasonAmountMismatch,
		},
		{
			name:   "gateway error",
			setup:  func(gw *paymenttest.Gateway) { gw.FetchErr = errors.New("connection refused") },
			item:   payment.LineItem{ProductID: "prod-1", Quantity: 1},
			reason: payment.ReasonGatewayUnreachable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupVerifierTest(t)
			tt.setup(f.gateway)

			_, err := f.verifier.Verify(context.Background(), claimFor("order_1", "pay_1"), tt.item)
			assert.Equal(t, tt.reason, rejectionReason(t, err))
			assert.Equal(t, 5, f.store.Stock("prod-1"))
		})
	}
}

func TestVerifyGatewayTimeout(t *testing.T) {
	f := setupVerifierTest(t)
	f.gateway.Block = true

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.verifier.Verify(ctx, claimFor("order_1", "pay_1"), payment.LineItem{ProductID: "prod-1", Quantity: 1})
	assert.Equal(t, payment.ReasonGatewayUnreachable, rejectionReason(t, err))
}

func TestVerifyUnknownProduct(t *testing.T) {
	f := setupVerifierTest(t)
	f.gateway.Captured("pay_1", "order_1", 44900)

	_, err := f.verifier.Verify(context.Background(), claimFor("order_1", "pay_1"), payment.LineItem{ProductID: "gone", Quantity: 1})
	assert.ErrorIs(t, err, store.ErrProductNotFound)
	assert.NotErrorIs(t, err, payment.ErrPaymentRejected)
}

func TestRejectionMessages(t *testing.T) {
	err := &payment.RejectionError{Reason: payment.ReasonNotCaptured, Detail: "failed"}
	assert.Equal(t, "Payment not completed. Status: failed", err.Message())
	assert.Equal(t, "Invalid payment signature", (&payment.RejectionError{Reason: payment.ReasonSignatureMismatch}).Message())
}
