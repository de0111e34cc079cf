// Package storetest provides an in-memory store.Store for tests.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront-svc/models"
	"storefront-svc/store"
)

var _ store.Store = (*Memory)(nil)

// Memory is a goroutine-safe in-memory store. The conditional stock and
// status updates are applied under one lock so they behave like the single
// statement updates of the real backends.
type Memory struct {
	mu       sync.Mutex
	products map[string]models.Product
	orders   map[string]models.Order
	users    map[string]models.User

	// BeforeInsertOrder, when set, runs before InsertOrder touches the map.
	// A non-nil return fails the insert with that error.
	BeforeInsertOrder func(o *models.Order) error
	// ReleaseStockErr, when set, fails every ReleaseStock call.
	ReleaseStockErr error

	reserveCalls int
	releaseCalls int
}

func NewMemory() *Memory {
	return &Memory{
		products: make(map[string]models.Product),
		orders:   make(map[string]models.Order),
		users:    make(map[string]models.User),
	}
}

// SeedProduct stores p as is.
func (m *Memory) SeedProduct(p models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

// SeedOrder stores o without running BeforeInsertOrder or duplicate checks.
func (m *Memory) SeedOrder(o models.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
}

// Stock returns the current stock of a product, or -1 when it does not exist.
func (m *Memory) Stock(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return -1
	}
	return p.Stock
}

func (m *Memory) OrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *Memory) ReserveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reserveCalls
}

func (m *Memory) ReleaseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releaseCalls
}

func (m *Memory) Ping(context.Context) error  { return nil }
func (m *Memory) Close(context.Context) error { return nil }

func (m *Memory) GetProduct(_ context.Context, id string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, store.ErrProductNotFound
	}
	return cloneProduct(p), nil
}

func (m *Memory) ListProducts(context.Context) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, *cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) CreateProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = *cloneProduct(*p)
	return nil
}

func (m *Memory) UpdateProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return store.ErrProductNotFound
	}
	m.products[p.ID] = *cloneProduct(*p)
	return nil
}

func (m *Memory) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return store.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *Memory) ReserveStock(_ context.Context, id string, qty int) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reserveCalls++
	if qty <= 0 {
		return nil, store.ErrInvalidQuantity
	}
	p, ok := m.products[id]
	if !ok {
		return nil, store.ErrProductNotFound
	}
	if p.Stock < qty {
		return nil, store.ErrInsufficientStock
	}
	p.Stock -= qty
	p.UpdatedAt = time.Now().UTC()
	m.products[id] = p
	return cloneProduct(p), nil
}

func (m *Memory) ReleaseStock(_ context.Context, id string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseCalls++
	if m.ReleaseStockErr != nil {
		return m.ReleaseStockErr
	}
	if qty <= 0 {
		return store.ErrInvalidQuantity
	}
	p, ok := m.products[id]
	if !ok {
		return store.ErrProductNotFound
	}
	p.Stock += qty
	p.UpdatedAt = time.Now().UTC()
	m.products[id] = p
	return nil
}

func (m *Memory) InsertOrder(_ context.Context, o *models.Order) error {
	if m.BeforeInsertOrder != nil {
		if err := m.BeforeInsertOrder(o); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.orders {
		if existing.Payment.RazorpayPaymentID == o.Payment.RazorpayPaymentID {
			return store.ErrDuplicatePayment
		}
	}
	m.orders[o.ID] = *o
	return nil
}

func (m *Memory) GetOrder(_ context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, store.ErrOrderNotFound
	}
	return &o, nil
}

func (m *Memory) FindOrderByPaymentID(_ context.Context, paymentID string) (*models.Order, error) {
	return m.findOrder(func(o models.Order) bool { return o.Payment.RazorpayPaymentID == paymentID })
}

func (m *Memory) FindOrderByOrderID(_ context.Context, orderID string) (*models.Order, error) {
	return m.findOrder(func(o models.Order) bool { return o.OrderID == orderID })
}

func (m *Memory) findOrder(match func(models.Order) bool) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if match(o) {
			found := o
			return &found, nil
		}
	}
	return nil, store.ErrOrderNotFound
}

func (m *Memory) ListOrders(_ context.Context, f models.OrderFilter) ([]models.Order, int64, error) {
	f.Normalize()
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := []models.Order{}
	for _, o := range m.orders {
		if matchesFilter(o, f) {
			matched = append(matched, o)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := f.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func matchesFilter(o models.Order, f models.OrderFilter) bool {
	if f.Status != "" && o.OrderStatus != f.Status {
		return false
	}
	if f.PaymentStatus != "" && o.Payment.Status != f.PaymentStatus {
		return false
	}
	if f.StartDate != nil && o.CreatedAt.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && o.CreatedAt.After(*f.EndDate) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		fields := []string{o.OrderID, o.Customer.Name, o.Customer.Email, o.Customer.Phone}
		for _, v := range fields {
			if strings.Contains(strings.ToLower(v), q) {
				return true
			}
		}
		return false
	}
	return true
}

func (m *Memory) UpdateOrderStatus(_ context.Context, id string, status models.OrderStatus, trackingNumber string, deliveredAt *time.Time) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, store.ErrOrderNotFound
	}
	o.OrderStatus = status
	if trackingNumber != "" {
		o.TrackingNumber = trackingNumber
	}
	if deliveredAt != nil {
		t := *deliveredAt
		o.DeliveredAt = &t
	}
	o.UpdatedAt = time.Now().UTC()
	m.orders[id] = o
	return &o, nil
}

func (m *Memory) CancelOrder(_ context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || !o.OrderStatus.Cancellable() {
		return nil, store.ErrOrderNotFound
	}
	o.OrderStatus = models.OrderStatusCancelled
	o.UpdatedAt = time.Now().UTC()
	m.orders[id] = o
	return &o, nil
}

func (m *Memory) DeleteOrder(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return store.ErrOrderNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return &u, nil
}

func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := m.users[key]; ok {
		return store.ErrDuplicateEmail
	}
	stored := *u
	stored.Email = key
	m.users[key] = stored
	return nil
}

func cloneProduct(p models.Product) *models.Product {
	p.Images = append([]string(nil), p.Images...)
	return &p
}
