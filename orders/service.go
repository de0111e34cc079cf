// Package orders turns verified payments into orders and manages their
// lifecycle. Stock is reserved before an order is written and released again
// on every path where the order does not end up persisted.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront-svc/middleware"
	"storefront-svc/models"
	"storefront-svc/notify"
	"storefront-svc/payment"
	"storefront-svc/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var (
	ErrAlreadyCancelled = errors.New("order is already cancelled")
	ErrNotCancellable   = errors.New("order is shipped or delivered")
	ErrInvalidStatus    = errors.New("invalid order status")
)

const defaultCompensationTimeout = 10 * time.Second

type Deps struct {
	Products store.ProductStore
	Orders   store.OrderStore
	Verifier *payment.Verifier
	Gateway  payment.Gateway
	Notifier notify.Dispatcher
	Logger   *zap.Logger

	// CompensationTimeout bounds stock releases that run after the request
	// context may already be gone.
	CompensationTimeout time.Duration
	Now                 func() time.Time
}

type Service struct {
	products            store.ProductStore
	orders              store.OrderStore
	verifier            *payment.Verifier
	gateway             payment.Gateway
	notifier            notify.Dispatcher
	logger              *zap.Logger
	compensationTimeout time.Duration
	now                 func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		products:            d.Products,
		orders:              d.Orders,
		verifier:            d.Verifier,
		gateway:             d.Gateway,
		notifier:            d.Notifier,
		logger:              d.Logger,
		compensationTimeout: d.CompensationTimeout,
		now:                 d.Now,
	}
	if s.compensationTimeout <= 0 {
		s.compensationTimeout = defaultCompensationTimeout
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

var tracer = otel.Tracer("storefront")

type IntentRequest struct {
	ProductID      string
	Quantity       int
	ShippingCharge float64
}

type IntentProduct struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

// Intent is what the checkout page needs to open the gateway widget.
type Intent struct {
	RazorpayOrderID string        `json:"razorpayOrderId"`
	Amount          int64         `json:"amount"`
	Currency        string        `json:"currency"`
	Product         IntentProduct `json:"product"`
	Subtotal        float64       `json:"subtotal"`
	ShippingCharge  float64       `json:"shippingCharge"`
	TotalAmount     float64       `json:"totalAmount"`
}

func normalizeQuantity(q int) int {
	if q <= 0 {
		return 1
	}
	return q
}

// CreateIntent prices the line item from the catalog and opens a gateway
// order for that amount. Stock is checked but not reserved.
func (s *Service) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	ctx, span := tracer.Start(ctx, "orders.CreateIntent")
	defer span.End()

	qty := normalizeQuantity(req.Quantity)
	span.SetAttributes(attribute.String("product_id", req.ProductID), attribute.Int("quantity", qty))

	p, err := s.products.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if p.Stock < qty {
		return nil, fmt.Errorf("%w: %d available", store.ErrInsufficientStock, p.Stock)
	}

	quote := payment.NewQuote(p, qty, req.ShippingCharge)
	gwOrder, err := s.gateway.CreateOrder(ctx, payment.OrderRequest{
		AmountPaise: quote.AmountPaise(),
		Currency:    payment.CurrencyINR,
		Receipt:     "order_" + strconv.FormatInt(s.now().UnixMilli(), 10),
		Notes: map[string]string{
			"productId":      p.ID,
			"productName":    p.Name,
			"quantity":       strconv.Itoa(qty),
			"shippingCharge": quote.ShippingCharge.String(),
		},
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.Info("Payment intent created",
		zap.String("razorpay_order_id", gwOrder.ID),
		zap.String("product_id", p.ID),
		zap.Int("quantity", qty),
		zap.Int64("amount", quote.AmountPaise()),
	)

	return &Intent{
		RazorpayOrderID: gwOrder.ID,
		Amount:          quote.AmountPaise(),
		Currency:        payment.CurrencyINR,
		Product: IntentProduct{
			ID:    p.ID,
			Name:  p.Name,
			Price: quote.UnitPriceFloat(),
			Image: p.FirstImage(),
		},
		Subtotal:       quote.SubtotalFloat(),
		ShippingCharge: quote.ShippingChargeFloat(),
		TotalAmount:    quote.TotalFloat(),
	}, nil
}

type VerifyRequest struct {
	Claim           payment.Claim
	ProductID       string
	Quantity        int
	ShippingCharge  float64
	Customer        models.Customer
	ShippingAddress models.ShippingAddress
	CourierName     string
}

// VerifyAndCreateOrder verifies the payment and creates exactly one order for
// it. created is false when an order for the payment id already existed.
func (s *Service) VerifyAndCreateOrder(ctx context.Context, req VerifyRequest) (order *models.Order, created bool, err error) {
	ctx, span := tracer.Start(ctx, "orders.VerifyAndCreateOrder")
	defer span.End()

	qty := normalizeQuantity(req.Quantity)
	paymentID := req.Claim.RazorpayPaymentID
	span.SetAttributes(
		attribute.String("payment_id", paymentID),
		attribute.String("product_id", req.ProductID),
		attribute.Int("quantity", qty),
	)

	v, err := s.verifier.Verify(ctx, req.Claim, payment.LineItem{
		ProductID:      req.ProductID,
		Quantity:       qty,
		ShippingCharge: req.ShippingCharge,
	})
	if err != nil {
		return nil, false, err
	}

	existing, err := s.orders.FindOrderByPaymentID(ctx, paymentID)
	if err == nil {
		middleware.RecordOrderEvent("replayed")
		s.logger.Info("Order already exists for payment",
			zap.String("payment_id", paymentID),
			zap.String("order_id", existing.OrderID),
		)
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrOrderNotFound) {
		return nil, false, err
	}

	reserved, err := s.products.ReserveStock(ctx, req.ProductID, qty)
	if err != nil {
		if errors.Is(err, store.ErrInsufficientStock) {
			middleware.RecordOrderEvent("out_of_stock")
			s.logger.Warn("Paid order could not be fulfilled, stock exhausted",
				zap.String("payment_id", paymentID),
				zap.String("product_id", req.ProductID),
				zap.Int("quantity", qty),
			)
		}
		return nil, false, err
	}

	o := s.buildOrder(req, qty, v, reserved)
	if err := s.orders.InsertOrder(ctx, o); err != nil {
		s.releaseStock(ctx, "insert_failed", req.ProductID, qty)

		if errors.Is(err, store.ErrDuplicatePayment) {
			// Lost the race against a concurrent request for the same payment.
			existing, findErr := s.orders.FindOrderByPaymentID(context.WithoutCancel(ctx), paymentID)
			if findErr != nil {
				return nil, false, fmt.Errorf("failed to load existing order: %w", findErr)
			}
			middleware.RecordOrderEvent("replayed")
			return existing, false, nil
		}

		span.RecordError(err)
		return nil, false, err
	}

	middleware.RecordOrderEvent("created")
	span.SetAttributes(attribute.String("order_id", o.OrderID))
	s.logger.Info("Order created",
		zap.String("order_id", o.OrderID),
		zap.String("payment_id", paymentID),
		zap.String("product_id", o.Product.ProductID),
		zap.Int("quantity", qty),
		zap.Float64("total_amount", o.TotalAmount),
	)

	s.notifier.Dispatch(ctx, *o)
	return o, true, nil
}

func (s *Service) buildOrder(req VerifyRequest, qty int, v *payment.Verification, reserved *models.Product) *models.Order {
	now := s.now()

	method := v.Payment.Method
	if method == "" {
		method = "other"
	}
	notes := ""
	if req.CourierName != "" {
		notes = "Shipping via " + req.CourierName
	}

	return &models.Order{
		ID:              uuid.NewString(),
		OrderID:         newOrderID(now),
		Customer:        trimCustomer(req.Customer),
		ShippingAddress: trimAddress(req.ShippingAddress),
		Product: models.OrderProduct{
			ProductID: reserved.ID,
			Name:      reserved.Name,
			Price:     v.Quote.UnitPriceFloat(),
			Quantity:  qty,
			Image:     reserved.FirstImage(),
		},
		Payment: models.Payment{
			RazorpayOrderID:   req.Claim.RazorpayOrderID,
			RazorpayPaymentID: req.Claim.RazorpayPaymentID,
			RazorpaySignature: req.Claim.Signature,
			Method:            models.PaymentMethodRazorpay,
			Type:              method,
			Status:            models.PaymentStatusCompleted,
		},
		Subtotal:       v.Quote.SubtotalFloat(),
		ShippingCharge: v.Quote.ShippingChargeFloat(),
		Tax:            0,
		TotalAmount:    v.Quote.TotalFloat(),
		OrderStatus:    models.OrderStatusConfirmed,
		Notes:          notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// newOrderID returns ORD-YYMMDD-XXXXXX with a random uppercase hex suffix.
func newOrderID(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "ORD-" + t.Format("060102") + "-" + suffix
}

func trimCustomer(c models.Customer) models.Customer {
	return models.Customer{
		Name:  strings.TrimSpace(c.Name),
		Email: strings.ToLower(strings.TrimSpace(c.Email)),
		Phone: strings.TrimSpace(c.Phone),
	}
}

func trimAddress(a models.ShippingAddress) models.ShippingAddress {
	return models.ShippingAddress{
		Address: strings.TrimSpace(a.Address),
		City:    strings.TrimSpace(a.City),
		State:   strings.TrimSpace(a.State),
		Pincode: strings.TrimSpace(a.Pincode),
	}
}

// releaseStock gives reserved units back. It runs on a context detached from
// the caller so a cancelled request cannot skip the compensation. A deleted
// product is returned to the caller without being counted as a failure.
func (s *Service) releaseStock(ctx context.Context, operation, productID string, qty int) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.compensationTimeout)
	defer cancel()

	err := s.products.ReleaseStock(ctx, productID, qty)
	if err != nil && !errors.Is(err, store.ErrProductNotFound) {
		middleware.RecordCompensationFailure(operation)
		s.logger.Error("Failed to release reserved stock",
			zap.String("operation", operation),
			zap.String("product_id", productID),
			zap.Int("quantity", qty),
			zap.Error(err),
		)
	}
	return err
}

func (s *Service) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, models.Pagination, error) {
	f.Normalize()
	orders, total, err := s.orders.ListOrders(ctx, f)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return orders, models.NewPagination(f.Page, f.Limit, total), nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.orders.GetOrder(ctx, id)
}

func (s *Service) TrackOrder(ctx context.Context, orderID string) (*models.Tracking, error) {
	o, err := s.orders.FindOrderByOrderID(ctx, strings.ToUpper(strings.TrimSpace(orderID)))
	if err != nil {
		return nil, err
	}
	return o.Tracking(), nil
}

// DeleteOrder removes the record only; stock is not touched.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	if err := s.orders.DeleteOrder(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Order deleted", zap.String("id", id))
	return nil
}
