package models

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Cancellable reports whether an order in status s may still be cancelled.
func (s OrderStatus) Cancellable() bool {
	switch s {
	case OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return false
	}
	return true
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

const PaymentMethodRazorpay = "razorpay"

type Customer struct {
	Name  string `json:"name" bson:"name" binding:"required,notblank"`
	Email string `json:"email" bson:"email" binding:"required,email"`
	Phone string `json:"phone" bson:"phone" binding:"required,in_phone"`
}

type ShippingAddress struct {
	Address string `json:"address" bson:"address" binding:"required,notblank"`
	City    string `json:"city" bson:"city" binding:"required,notblank"`
	State   string `json:"state" bson:"state" binding:"required,notblank"`
	Pincode string `json:"pincode" bson:"pincode" binding:"required,pincode"`
}

type OrderProduct struct {
	ProductID string  `json:"productId" bson:"productId"`
	Name      string  `json:"name" bson:"name"`
	Price     float64 `json:"price" bson:"price"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	Image     string  `json:"image" bson:"image"`
}

type Payment struct {
	RazorpayOrderID   string        `json:"razorpayOrderId" bson:"razorpayOrderId"`
	RazorpayPaymentID string        `json:"razorpayPaymentId" bson:"razorpayPaymentId"`
	RazorpaySignature string        `json:"razorpaySignature" bson:"razorpaySignature"`
	Method            string        `json:"method" bson:"method"`
	Type              string        `json:"type" bson:"type"`
	Status            PaymentStatus `json:"status" bson:"status"`
}

type Order struct {
	ID              string          `json:"id" bson:"_id"`
	OrderID         string          `json:"orderId" bson:"orderId"`
	Customer        Customer        `json:"customer" bson:"customer"`
	ShippingAddress ShippingAddress `json:"shippingAddress" bson:"shippingAddress"`
	Product         OrderProduct    `json:"product" bson:"product"`
	Payment         Payment         `json:"payment" bson:"payment"`
	Subtotal        float64         `json:"subtotal" bson:"subtotal"`
	ShippingCharge  float64         `json:"shippingCharge" bson:"shippingCharge"`
	Tax             float64         `json:"tax" bson:"tax"`
	TotalAmount     float64         `json:"totalAmount" bson:"totalAmount"`
	OrderStatus     OrderStatus     `json:"orderStatus" bson:"orderStatus"`
	TrackingNumber  string          `json:"trackingNumber,omitempty" bson:"trackingNumber,omitempty"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`
	Notes           string          `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt       time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// Tracking is the public projection of an order returned by the track endpoint.
type Tracking struct {
	OrderID         string          `json:"orderId"`
	OrderStatus     OrderStatus     `json:"orderStatus"`
	Product         OrderProduct    `json:"product"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	TrackingNumber  string          `json:"trackingNumber,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
}

func (o *Order) Tracking() *Tracking {
	return &Tracking{
		OrderID:         o.OrderID,
		OrderStatus:     o.OrderStatus,
		Product:         o.Product,
		ShippingAddress: o.ShippingAddress,
		TrackingNumber:  o.TrackingNumber,
		CreatedAt:       o.CreatedAt,
		DeliveredAt:     o.DeliveredAt,
	}
}

type CreateIntentRequest struct {
	ProductID      string  `json:"productId" binding:"required,notblank"`
	Quantity       int     `json:"quantity" binding:"omitempty,gte=1"`
	ShippingCharge float64 `json:"shippingCharge" binding:"gte=0"`
}

type VerifyPaymentRequest struct {
	RazorpayOrderID   string          `json:"razorpayOrderId" binding:"required,notblank"`
	RazorpayPaymentID string          `json:"razorpayPaymentId" binding:"required,notblank"`
	RazorpaySignature string          `json:"razorpaySignature" binding:"required,notblank"`
	ProductID         string          `json:"productId" binding:"required,notblank"`
	Quantity          int             `json:"quantity" binding:"omitempty,gte=1"`
	Customer          Customer        `json:"customer" binding:"required"`
	ShippingAddress   ShippingAddress `json:"shippingAddress" binding:"required"`
	ShippingCharge    float64         `json:"shippingCharge" binding:"gte=0"`
	CourierName       string          `json:"courierName"`
}

type UpdateStatusRequest struct {
	OrderStatus    OrderStatus `json:"orderStatus" binding:"required"`
	TrackingNumber string      `json:"trackingNumber"`
}

type OrderEvent struct {
	EventType   string    `json:"event_type"` // order_confirmed, order_cancelled
	Order       Order     `json:"order"`
	PublishedAt time.Time `json:"published_at"`
}

const (
	EventOrderConfirmed = "order_confirmed"
	EventOrderCancelled = "order_cancelled"
)
