package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"storefront-svc/middleware"
	"storefront-svc/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var ErrPaymentRejected = errors.New("payment rejected")

type Reason string

const (
	ReasonSignatureMismatch  Reason = "signature_mismatch"
	ReasonGatewayUnreachable Reason = "gateway_unreachable"
	ReasonNotCaptured        Reason = "not_captured"
	ReasonOrderMismatch      Reason = "order_mismatch"
	ReasonAmountMismatch     Reason = "amount_mismatch"
)

// RejectionError is returned for every payment the verifier refuses.
// errors.Is(err, ErrPaymentRejected) holds for all reasons.
type RejectionError struct {
	Reason Reason
	Detail string
	Err    error
}

func (e *RejectionError) Error() string {
	msg := "payment rejected: " + string(e.Reason)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RejectionError) Is(target error) bool { return target == ErrPaymentRejected }

func (e *RejectionError) Unwrap() error { return e.Err }

// Message is the text shown to the customer.
func (e *RejectionError) Message() string {
	switch e.Reason {
	case ReasonSignatureMismatch:
		return "Invalid payment signature"
	case ReasonGatewayUnreachable:
		return "Unable to verify payment with Razorpay"
	case ReasonNotCaptured:
		return "Payment not completed. Status: " + e.Detail
	case ReasonOrderMismatch:
		return "Payment order ID mismatch"
	case ReasonAmountMismatch:
		return "Payment amount mismatch"
	}
	return "Payment verification failed"
}

func reject(reason Reason, detail string, err error) *RejectionError {
	return &RejectionError{Reason: reason, Detail: detail, Err: err}
}

// Claim is what the client reports after checkout.
type Claim struct {
	RazorpayOrderID   string
	RazorpayPaymentID string
	Signature         string
}

type LineItem struct {
	ProductID      string
	Quantity       int
	ShippingCharge float64
}

type PriceSource interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

type Verification struct {
	Payment *GatewayPayment
	Product *models.Product
	Quote   Quote
}

type Verifier struct {
	secret   []byte
	gateway  Gateway
	products PriceSource
	logger   *zap.Logger
}

func NewVerifier(secret string, gateway Gateway, products PriceSource, logger *zap.Logger) *Verifier {
	return &Verifier{
		secret:   []byte(secret),
		gateway:  gateway,
		products: products,
		logger:   logger,
	}
}

// Sign returns the hex HMAC-SHA256 the gateway sends for an order/payment pair.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (v *Verifier) validSignature(c Claim) bool {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(c.RazorpayOrderID + "|" + c.RazorpayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	// The gateway sends lowercase hex; anything else is not its signature.
	return hmac.Equal([]byte(expected), []byte(c.Signature))
}

// Verify checks the claim against the signature, the gateway's own record and
// the current catalog price. Nothing is reserved or written.
func (v *Verifier) Verify(ctx context.Context, claim Claim, item LineItem) (*Verification, error) {
	ctx, span := otel.Tracer("storefront").Start(ctx, "payment.Verify")
	defer span.End()
	span.SetAttributes(
		attribute.String("razorpay_order_id", claim.RazorpayOrderID),
		attribute.String("payment_id", claim.RazorpayPaymentID),
	)

	res, err := v.verify(ctx, claim, item)

	var rej *RejectionError
	switch {
	case errors.As(err, &rej):
		span.SetAttributes(attribute.String("rejection_reason", string(rej.Reason)))
		middleware.RecordPaymentVerification(string(rej.Reason))
		v.logger.Warn("Payment rejected",
			zap.String("reason", string(rej.Reason)),
			zap.String("payment_id", claim.RazorpayPaymentID),
			zap.String("razorpay_order_id", claim.RazorpayOrderID),
			zap.String("detail", rej.Detail),
			zap.Error(rej.Err),
		)
	case err != nil:
		span.RecordError(err)
		middleware.RecordPaymentVerification("error")
	default:
		middleware.RecordPaymentVerification("verified")
	}
	return res, err
}

func (v *Verifier) verify(ctx context.Context, claim Claim, item LineItem) (*Verification, error) {
	if !v.validSignature(claim) {
		return nil, reject(ReasonSignatureMismatch, "", nil)
	}

	p, err := v.gateway.FetchPayment(ctx, claim.RazorpayPaymentID)
	if err != nil {
		return nil, reject(ReasonGatewayUnreachable, "", err)
	}
	if p.Status != PaymentStatusCaptured {
		return nil, reject(ReasonNotCaptured, p.Status, nil)
	}
	if p.OrderID != claim.RazorpayOrderID {
		return nil, reject(ReasonOrderMismatch, fmt.Sprintf("gateway %s", p.OrderID), nil)
	}

	product, err := v.products.GetProduct(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}

	quote := NewQuote(product, item.Quantity, item.ShippingCharge)
	if expected := quote.AmountPaise(); expected != p.AmountPaise {
		return nil, reject(ReasonAmountMismatch, fmt.Sprintf("expected %d, captured %d", expected, p.AmountPaise), nil)
	}

	return &Verification{Payment: p, Product: product, Quote: quote}, nil
}
