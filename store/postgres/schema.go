package postgres

import (
	"fmt"

	"github.com/medatechnology/goutil/simplelog"
)

// schema is the storefront DDL, applied idempotently at startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id uuid PRIMARY KEY,
		name text NOT NULL,
		real_price numeric(12,2) NOT NULL,
		fake_original_price numeric(12,2) NOT NULL,
		image_url text NOT NULL,
		images jsonb,
		image_alt_texts jsonb,
		category text NOT NULL,
		subcategory text,
		color text,
		brand text,
		description text NOT NULL DEFAULT '',
		sizes jsonb,
		in_stock boolean NOT NULL DEFAULT true,
		is_new boolean NOT NULL DEFAULT false,
		measurements jsonb,
		stock_quantity jsonb,
		features jsonb,
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS measurements (
		id uuid PRIMARY KEY,
		product_id uuid NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		size text NOT NULL,
		measurement_a numeric(6,1),
		measurement_b numeric(6,1),
		measurement_c numeric(6,1),
		measurement_d numeric(6,1),
		UNIQUE (product_id, size)
	)`,
	`CREATE TABLE IF NOT EXISTS promo_codes (
		id uuid PRIMARY KEY,
		code text NOT NULL UNIQUE,
		name text NOT NULL,
		description text NOT NULL DEFAULT '',
		discount_type text NOT NULL,
		discount_value numeric(12,2) NOT NULL,
		min_order_amount numeric(12,2) NOT NULL DEFAULT 0,
		min_items_count integer NOT NULL DEFAULT 0,
		categories jsonb,
		max_uses integer,
		current_uses integer NOT NULL DEFAULT 0,
		valid_from timestamptz NOT NULL,
		valid_until timestamptz NOT NULL,
		is_active boolean NOT NULL DEFAULT true,
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		telegram_id bigint PRIMARY KEY,
		first_name text NOT NULL,
		last_name text,
		username text,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id uuid PRIMARY KEY,
		user_id bigint REFERENCES users(telegram_id),
		items jsonb NOT NULL,
		total_amount numeric(12,2) NOT NULL,
		customer_name text NOT NULL,
		customer_phone text NOT NULL,
		customer_email text,
		delivery_address text NOT NULL,
		delivery_method text NOT NULL,
		payment_method text NOT NULL,
		status text NOT NULL DEFAULT 'new',
		admin_notes text,
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS user_favorites (
		user_id bigint NOT NULL REFERENCES users(telegram_id) ON DELETE CASCADE,
		product_id uuid NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		created_at timestamptz NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, product_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
}

// EnsureSchema creates the storefront tables and indexes if they do not
// exist yet.
func (p *Postgres) EnsureSchema() error {
	for _, stmt := range schema {
		if _, err := p.db.Exec(stmt); err != nil {
			simplelog.LogErr(err, "error applying schema statement")
			return fmt.Errorf("%w: %v", ErrQueryFailed, err)
		}
	}
	p.logger.Info("database schema ensured")
	return nil
}
