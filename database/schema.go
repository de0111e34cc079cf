package database

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// The constraint names are matched by the store when classifying unique
// violations; keep them in sync.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price NUMERIC(12, 2) NOT NULL CHECK (price > 0),
		discount_price NUMERIC(12, 2) NOT NULL DEFAULT 0 CHECK (discount_price >= 0),
		stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
		images TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		order_id VARCHAR(32) NOT NULL,
		customer_name VARCHAR(255) NOT NULL,
		customer_email VARCHAR(255) NOT NULL,
		customer_phone VARCHAR(20) NOT NULL,
		ship_address TEXT NOT NULL,
		ship_city VARCHAR(100) NOT NULL,
		ship_state VARCHAR(100) NOT NULL,
		ship_pincode VARCHAR(10) NOT NULL,
		product_id TEXT NOT NULL,
		product_name VARCHAR(255) NOT NULL,
		product_price NUMERIC(12, 2) NOT NULL,
		product_quantity INTEGER NOT NULL CHECK (product_quantity > 0),
		product_image TEXT NOT NULL DEFAULT '',
		razorpay_order_id VARCHAR(64) NOT NULL,
		razorpay_payment_id VARCHAR(64) NOT NULL,
		razorpay_signature VARCHAR(128) NOT NULL,
		payment_method VARCHAR(32) NOT NULL,
		payment_type VARCHAR(32) NOT NULL,
		payment_status VARCHAR(32) NOT NULL,
		subtotal NUMERIC(12, 2) NOT NULL,
		shipping_charge NUMERIC(12, 2) NOT NULL DEFAULT 0,
		tax NUMERIC(12, 2) NOT NULL DEFAULT 0,
		total_amount NUMERIC(12, 2) NOT NULL,
		order_status VARCHAR(32) NOT NULL,
		tracking_number VARCHAR(64) NOT NULL DEFAULT '',
		delivered_at TIMESTAMPTZ,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT orders_payment_id_unique UNIQUE (razorpay_payment_id),
		CONSTRAINT orders_order_id_unique UNIQUE (order_id)
	)`,
	`CREATE INDEX IF NOT EXISTS orders_created_at_idx ON orders (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS orders_status_idx ON orders (order_status)`,
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'user',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT users_email_unique UNIQUE (email)
	)`,
}

// Migrate creates the tables if they do not exist. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	logger.Info("Database schema is up to date", zap.Int("statements", len(schema)))
	return nil
}
