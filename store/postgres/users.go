package postgres

import (
	"fmt"

	"github.com/kustore/storefront/catalog"
	"github.com/kustore/storefront/store"
)

// UpsertUser inserts a user row or refreshes the profile fields of an
// existing one. Login is idempotent.
func (p *Postgres) UpsertUser(u store.User) error {
	query := `INSERT INTO users (telegram_id, first_name, last_name, username)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (telegram_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			username = EXCLUDED.username`

	_, err := p.db.Exec(query, u.TelegramID, u.FirstName,
		nullString(u.LastName), nullString(u.Username))
	if err != nil {
		return wrapError(err, "UPSERT", "users")
	}
	return nil
}

// AddFavorite marks a product as a user's favorite. A repeat add surfaces
// the uniqueness violation as store.ErrAlreadyFavorite.
func (p *Postgres) AddFavorite(userID int64, productID string) error {
	query := `INSERT INTO user_favorites (user_id, product_id) VALUES ($1, $2)`

	_, err := p.db.Exec(query, userID, productID)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrAlreadyFavorite
		}
		return wrapError(err, "INSERT", "user_favorites")
	}
	return nil
}

// RemoveFavorite deletes a favorite. Removing a product that is not a
// favorite is not an error.
func (p *Postgres) RemoveFavorite(userID int64, productID string) error {
	_, err := p.db.Exec(`DELETE FROM user_favorites WHERE user_id = $1 AND product_id = $2`,
		userID, productID)
	if err != nil {
		return wrapError(err, "DELETE", "user_favorites")
	}
	return nil
}

// FavoritesByUser returns the user's favorite products, most recently
// added first.
func (p *Postgres) FavoritesByUser(userID int64) ([]catalog.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products p
		JOIN user_favorites f ON f.product_id = p.id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC`, prefixedProductColumns("p"))

	rows, err := p.db.Query(query, userID)
	if err != nil {
		return nil, wrapError(err, "SELECT", "user_favorites")
	}
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		prod, err := scanProduct(rows)
		if err != nil {
			return nil, wrapError(err, "SELECT", "user_favorites")
		}
		products = append(products, prod)
	}
	return products, rows.Err()
}
