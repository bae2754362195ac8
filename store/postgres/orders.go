package postgres

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/kustore/storefront/logging"
	"github.com/kustore/storefront/order"
	"github.com/kustore/storefront/store"
)

const orderColumns = `id, user_id, items, total_amount, customer_name,
	customer_phone, customer_email, delivery_address, delivery_method,
	payment_method, status, admin_notes, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (order.Order, error) {
	var (
		o          order.Order
		userID     sql.NullInt64
		items      []byte
		email      sql.NullString
		adminNotes sql.NullString
	)

	err := row.Scan(
		&o.ID, &userID, &items, &o.TotalAmount, &o.CustomerName,
		&o.CustomerPhone, &email, &o.DeliveryAddress, &o.DeliveryMethod,
		&o.PaymentMethod, &o.Status, &adminNotes, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return order.Order{}, err
	}

	if userID.Valid {
		id := userID.Int64
		o.UserID = &id
	}
	o.CustomerEmail = email.String
	o.AdminNotes = adminNotes.String
	if err := scanJSON(items, &o.Items); err != nil {
		return order.Order{}, err
	}
	return o, nil
}

// CreateOrder persists the order and, when promoID is non-empty, redeems
// one use of the promo in the same transaction. The increment is
// conditional on the usage cap, so two concurrent checkouts cannot both
// take the last use; the loser fails with store.ErrPromoExhausted and no
// order row.
func (p *Postgres) CreateOrder(o *order.Order, promoID string) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = order.StatusNew
	}

	items, err := jsonValue(o.Items)
	if err != nil {
		return err
	}

	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTxFailed, err)
	}
	defer tx.Rollback()

	if promoID != "" {
		result, err := tx.Exec(`UPDATE promo_codes
			SET current_uses = current_uses + 1, updated_at = now()
			WHERE id = $1 AND (max_uses IS NULL OR current_uses < max_uses)`,
			promoID)
		if err != nil {
			return wrapError(err, "UPDATE", "promo_codes")
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return wrapError(err, "UPDATE", "promo_codes")
		}
		if affected == 0 {
			return store.ErrPromoExhausted
		}
	}

	query := `INSERT INTO orders (id, user_id, items, total_amount,
		customer_name, customer_phone, customer_email, delivery_address,
		delivery_method, payment_method, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	var userID sql.NullInt64
	if o.UserID != nil {
		userID = sql.NullInt64{Int64: *o.UserID, Valid: true}
	}

	err = tx.QueryRow(query,
		o.ID, userID, items, o.TotalAmount, o.CustomerName, o.CustomerPhone,
		nullString(o.CustomerEmail), o.DeliveryAddress, o.DeliveryMethod,
		o.PaymentMethod, o.Status,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return wrapError(err, "INSERT", "orders")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrTxFailed, err)
	}

	p.logger.Info("order created",
		logging.String("id", o.ID),
		logging.String("total", o.TotalAmount.String()),
		logging.Bool("promo", promoID != ""),
	)
	return nil
}

// OrdersByUser returns a user's orders, newest first.
func (p *Postgres) OrdersByUser(userID int64) ([]order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := p.db.Query(query, userID)
	if err != nil {
		return nil, wrapError(err, "SELECT", "orders")
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, wrapError(err, "SELECT", "orders")
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// RecentOrders returns the latest orders across all users.
func (p *Postgres) RecentOrders(limit int) ([]order.Order, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT ` + orderColumns + ` FROM orders
		ORDER BY created_at DESC LIMIT $1`

	rows, err := p.db.Query(query, limit)
	if err != nil {
		return nil, wrapError(err, "SELECT", "orders")
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, wrapError(err, "SELECT", "orders")
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateOrderStatus moves an order along the status sequence. The current
// status is read under a row lock so concurrent updates serialize.
func (p *Postgres) UpdateOrderStatus(id string, to order.Status) error {
	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTxFailed, err)
	}
	defer tx.Rollback()

	var current order.Status
	err = tx.QueryRow(`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).
		Scan(&current)
	if err != nil {
		return notFound(err)
	}

	if !order.CanTransition(current, to) {
		return fmt.Errorf("%w: %s -> %s", order.ErrInvalidTransition, current, to)
	}

	_, err = tx.Exec(`UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`,
		to, id)
	if err != nil {
		return wrapError(err, "UPDATE", "orders")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrTxFailed, err)
	}

	p.logger.Info("order status updated",
		logging.String("id", id),
		logging.String("from", string(current)),
		logging.String("to", string(to)),
	)
	return nil
}
