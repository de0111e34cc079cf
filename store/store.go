// Package store persists products, orders and users. Stock is only ever
// changed through single conditional updates so that concurrent requests on
// any number of replicas cannot oversell.
package store

import (
	"context"
	"errors"
	"time"

	"storefront-svc/models"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicatePayment  = errors.New("order for payment already exists")
	ErrDuplicateEmail    = errors.New("user with email already exists")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

type ProductStore interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id string) error

	// ReserveStock decrements stock by qty only if at least qty is available
	// and returns the product after the decrement.
	ReserveStock(ctx context.Context, id string, qty int) (*models.Product, error)
	ReleaseStock(ctx context.Context, id string, qty int) error
}

type OrderStore interface {
	InsertOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	FindOrderByPaymentID(ctx context.Context, paymentID string) (*models.Order, error)
	FindOrderByOrderID(ctx context.Context, orderID string) (*models.Order, error)
	ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, int64, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus, trackingNumber string, deliveredAt *time.Time) (*models.Order, error)

	// CancelOrder moves the order to cancelled only while its status is still
	// cancellable. It returns ErrOrderNotFound when no row matched the
	// condition; callers re-read to tell a missing order from a blocked one.
	CancelOrder(ctx context.Context, id string) (*models.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
}

// Store bundles the three stores of one backend.
type Store interface {
	ProductStore
	OrderStore
	UserStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// nonCancellable lists the statuses CancelOrder refuses to leave.
var nonCancellable = []models.OrderStatus{
	models.OrderStatusShipped,
	models.OrderStatusDelivered,
	models.OrderStatusCancelled,
}

func now() time.Time {
	return time.Now().UTC()
}
