package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-svc/models"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation = "23505"

	ordersPaymentIDConstraint = "orders_payment_id_unique"
	usersEmailConstraint      = "users_email_unique"
)

const productColumns = `id, name, description, price, discount_price, stock, images, created_at, updated_at`

const orderColumns = `id, order_id, customer_name, customer_email, customer_phone,
	ship_address, ship_city, ship_state, ship_pincode,
	product_id, product_name, product_price, product_quantity, product_image,
	razorpay_order_id, razorpay_payment_id, razorpay_signature, payment_method, payment_type, payment_status,
	subtotal, shipping_charge, tax, total_amount, order_status, tracking_number, delivered_at, notes,
	created_at, updated_at`

var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store on database/sql with the lib/pq driver.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close(_ context.Context) error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	var images pq.StringArray
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.DiscountPrice, &p.Stock, &images, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Images = []string(images)
	return &p, nil
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	var deliveredAt sql.NullTime
	err := row.Scan(
		&o.ID, &o.OrderID, &o.Customer.Name, &o.Customer.Email, &o.Customer.Phone,
		&o.ShippingAddress.Address, &o.ShippingAddress.City, &o.ShippingAddress.State, &o.ShippingAddress.Pincode,
		&o.Product.ProductID, &o.Product.Name, &o.Product.Price, &o.Product.Quantity, &o.Product.Image,
		&o.Payment.RazorpayOrderID, &o.Payment.RazorpayPaymentID, &o.Payment.RazorpaySignature,
		&o.Payment.Method, &o.Payment.Type, &o.Payment.Status,
		&o.Subtotal, &o.ShippingCharge, &o.Tax, &o.TotalAmount, &o.OrderStatus, &o.TrackingNumber, &deliveredAt, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if deliveredAt.Valid {
		t := deliveredAt.Time
		o.DeliveredAt = &t
	}
	return &o, nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == pqUniqueViolation && pqErr.Constraint == constraint
}

// Products

func (s *PostgresStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

func (s *PostgresStore) CreateProduct(ctx context.Context, p *models.Product) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO products ("+productColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		p.ID, p.Name, p.Description, p.Price, p.DiscountPrice, p.Stock, pq.StringArray(p.Images), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateProduct(ctx context.Context, p *models.Product) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET name = $1, description = $2, price = $3, discount_price = $4, stock = $5, images = $6, updated_at = $7 WHERE id = $8",
		p.Name, p.Description, p.Price, p.DiscountPrice, p.Stock, pq.StringArray(p.Images), p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return expectAffected(res, ErrProductNotFound)
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return expectAffected(res, ErrProductNotFound)
}

func (s *PostgresStore) ReserveStock(ctx context.Context, id string, qty int) (*models.Product, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	row := s.db.QueryRowContext(ctx,
		"UPDATE products SET stock = stock - $1, updated_at = $3 WHERE id = $2 AND stock >= $1 RETURNING "+productColumns,
		qty, id, now(),
	)
	p, err := scanProduct(row)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to reserve stock: %w", err)
	}

	// Nothing matched: either the product is gone or there is not enough stock.
	var exists bool
	if err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)", id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check product: %w", err)
	}
	if !exists {
		return nil, ErrProductNotFound
	}
	return nil, ErrInsufficientStock
}

func (s *PostgresStore) ReleaseStock(ctx context.Context, id string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET stock = stock + $1, updated_at = $3 WHERE id = $2",
		qty, id, now(),
	)
	if err != nil {
		return fmt.Errorf("failed to release stock: %w", err)
	}
	return expectAffected(res, ErrProductNotFound)
}

// Orders

func (s *PostgresStore) InsertOrder(ctx context.Context, o *models.Order) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO orders ("+orderColumns+`) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30)`,
		o.ID, o.OrderID, o.Customer.Name, o.Customer.Email, o.Customer.Phone,
		o.ShippingAddress.Address, o.ShippingAddress.City, o.ShippingAddress.State, o.ShippingAddress.Pincode,
		o.Product.ProductID, o.Product.Name, o.Product.Price, o.Product.Quantity, o.Product.Image,
		o.Payment.RazorpayOrderID, o.Payment.RazorpayPaymentID, o.Payment.RazorpaySignature,
		o.Payment.Method, o.Payment.Type, o.Payment.Status,
		o.Subtotal, o.ShippingCharge, o.Tax, o.TotalAmount, o.OrderStatus, o.TrackingNumber, nullTime(o.DeliveredAt), o.Notes,
		o.CreatedAt, o.UpdatedAt,
	)
	if isUniqueViolation(err, ordersPaymentIDConstraint) {
		return ErrDuplicatePayment
	}
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.getOrderBy(ctx, "id", id)
}

func (s *PostgresStore) FindOrderByPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	return s.getOrderBy(ctx, "razorpay_payment_id", paymentID)
}

func (s *PostgresStore) FindOrderByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	return s.getOrderBy(ctx, "order_id", orderID)
}

// getOrderBy is only called with column names defined in this file.
func (s *PostgresStore) getOrderBy(ctx context.Context, column, value string) (*models.Order, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE "+column+" = $1", value)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return o, nil
}

func (s *PostgresStore) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, int64, error) {
	f.Normalize()
	where, args := orderFilterClause(f)

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM orders%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		orderColumns, where, len(args)+1, len(args)+2)
	rows, err := s.db.QueryContext(ctx, query, append(args, f.Limit, f.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return orders, total, nil
}

func orderFilterClause(f models.OrderFilter) (string, []any) {
	var conds []string
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Status != "" {
		conds = append(conds, "order_status = "+next(f.Status))
	}
	if f.PaymentStatus != "" {
		conds = append(conds, "payment_status = "+next(f.PaymentStatus))
	}
	if f.Search != "" {
		p := next("%" + escapeLike(f.Search) + "%")
		conds = append(conds, fmt.Sprintf(
			"(order_id ILIKE %[1]s OR customer_name ILIKE %[1]s OR customer_email ILIKE %[1]s OR customer_phone ILIKE %[1]s)", p))
	}
	if f.StartDate != nil {
		conds = append(conds, "created_at >= "+next(*f.StartDate))
	}
	if f.EndDate != nil {
		conds = append(conds, "created_at <= "+next(*f.EndDate))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *PostgresStore) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus, trackingNumber string, deliveredAt *time.Time) (*models.Order, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE orders SET order_status = $1,
			tracking_number = COALESCE(NULLIF($2, ''), tracking_number),
			delivered_at = COALESCE($3, delivered_at),
			updated_at = $4
		WHERE id = $5 RETURNING `+orderColumns,
		status, trackingNumber, nullTime(deliveredAt), now(), id,
	)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return o, nil
}

func (s *PostgresStore) CancelOrder(ctx context.Context, id string) (*models.Order, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE orders SET order_status = $1, updated_at = $2
		WHERE id = $3 AND order_status NOT IN ($4, $5, $6) RETURNING `+orderColumns,
		models.OrderStatusCancelled, now(), id,
		nonCancellable[0], nonCancellable[1], nonCancellable[2],
	)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	return o, nil
}

func (s *PostgresStore) DeleteOrder(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return expectAffected(res, ErrOrderNotFound)
}

// Users

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, role, created_at FROM users WHERE email = $1",
		strings.ToLower(email),
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, password_hash, role, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		u.ID, u.Name, strings.ToLower(u.Email), u.PasswordHash, u.Role, u.CreatedAt,
	)
	if isUniqueViolation(err, usersEmailConstraint) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
