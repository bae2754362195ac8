package postgres

import (
	"github.com/kustore/storefront/store"
)

// Stats aggregates the dashboard counters in one round trip per table.
func (p *Postgres) Stats() (store.Stats, error) {
	var s store.Stats

	err := p.db.QueryRow(`SELECT
			count(*),
			count(*) FILTER (WHERE in_stock),
			count(*) FILTER (WHERE is_new)
		FROM products`).
		Scan(&s.TotalProducts, &s.VisibleProducts, &s.NewProducts)
	if err != nil {
		return store.Stats{}, wrapError(err, "SELECT", "products")
	}

	err = p.db.QueryRow(`SELECT
			count(*),
			count(*) FILTER (WHERE status = 'new'),
			count(*) FILTER (WHERE status = 'delivered'),
			coalesce(sum(total_amount) FILTER (WHERE status <> 'cancelled'), 0)
		FROM orders`).
		Scan(&s.TotalOrders, &s.NewOrders, &s.CompletedOrders, &s.TotalRevenue)
	if err != nil {
		return store.Stats{}, wrapError(err, "SELECT", "orders")
	}

	err = p.db.QueryRow(`SELECT
			count(*),
			count(*) FILTER (WHERE is_active AND valid_from <= now() AND valid_until > now())
		FROM promo_codes`).
		Scan(&s.TotalPromoCodes, &s.ActivePromos)
	if err != nil {
		return store.Stats{}, wrapError(err, "SELECT", "promo_codes")
	}

	return s, nil
}
