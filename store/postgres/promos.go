package postgres

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/kustore/storefront/logging"
	"github.com/kustore/storefront/promo"
)

const promoColumns = `id, code, name, description, discount_type,
	discount_value, min_order_amount, min_items_count, categories, max_uses,
	current_uses, valid_from, valid_until, is_active, created_at, updated_at`

func scanPromo(row interface{ Scan(...interface{}) error }) (promo.PromoCode, error) {
	var (
		pc         promo.PromoCode
		categories []byte
		maxUses    sql.NullInt64
	)

	err := row.Scan(
		&pc.ID, &pc.Code, &pc.Name, &pc.Description, &pc.DiscountType,
		&pc.DiscountValue, &pc.MinOrderAmount, &pc.MinItemsCount,
		&categories, &maxUses, &pc.CurrentUses, &pc.ValidFrom,
		&pc.ValidUntil, &pc.IsActive, &pc.CreatedAt, &pc.UpdatedAt,
	)
	if err != nil {
		return promo.PromoCode{}, err
	}

	if maxUses.Valid {
		n := int(maxUses.Int64)
		pc.MaxUses = &n
	}
	if err := scanJSON(categories, &pc.Categories); err != nil {
		return promo.PromoCode{}, err
	}
	return pc, nil
}

// PromoCodes returns every promo code, newest first.
func (p *Postgres) PromoCodes() ([]promo.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes ORDER BY created_at DESC`

	rows, err := p.db.Query(query)
	if err != nil {
		return nil, wrapError(err, "SELECT", "promo_codes")
	}
	defer rows.Close()

	var promos []promo.PromoCode
	for rows.Next() {
		pc, err := scanPromo(rows)
		if err != nil {
			return nil, wrapError(err, "SELECT", "promo_codes")
		}
		promos = append(promos, pc)
	}
	return promos, rows.Err()
}

// ActivePromoCodes returns active promos whose validity window contains now.
func (p *Postgres) ActivePromoCodes(now time.Time) ([]promo.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes
		WHERE is_active = true AND valid_from <= $1 AND valid_until > $1
		ORDER BY created_at DESC`

	rows, err := p.db.Query(query, now)
	if err != nil {
		return nil, wrapError(err, "SELECT", "promo_codes")
	}
	defer rows.Close()

	var promos []promo.PromoCode
	for rows.Next() {
		pc, err := scanPromo(rows)
		if err != nil {
			return nil, wrapError(err, "SELECT", "promo_codes")
		}
		promos = append(promos, pc)
	}
	return promos, rows.Err()
}

// PromoCodeByCode matches a code case-insensitively, store.ErrNotFound when
// missing.
func (p *Postgres) PromoCodeByCode(code string) (promo.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes WHERE upper(code) = $1`

	pc, err := scanPromo(p.db.QueryRow(query, promo.NormalizeCode(code)))
	if err != nil {
		return promo.PromoCode{}, notFound(err)
	}
	return pc, nil
}

// InsertPromoCode persists a new promo code. The code is normalized to
// upper-case before storage.
func (p *Postgres) InsertPromoCode(pc *promo.PromoCode) error {
	if pc.ID == "" {
		pc.ID = uuid.NewString()
	}
	pc.Code = promo.NormalizeCode(pc.Code)

	categories, err := jsonValue(pc.Categories)
	if err != nil {
		return err
	}

	var maxUses sql.NullInt64
	if pc.MaxUses != nil {
		maxUses = sql.NullInt64{Int64: int64(*pc.MaxUses), Valid: true}
	}

	query := `INSERT INTO promo_codes (id, code, name, description,
		discount_type, discount_value, min_order_amount, min_items_count,
		categories, max_uses, current_uses, valid_from, valid_until, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`

	err = p.db.QueryRow(query,
		pc.ID, pc.Code, pc.Name, pc.Description, pc.DiscountType,
		pc.DiscountValue, pc.MinOrderAmount, pc.MinItemsCount, categories,
		maxUses, pc.CurrentUses, pc.ValidFrom, pc.ValidUntil, pc.IsActive,
	).Scan(&pc.CreatedAt, &pc.UpdatedAt)
	if err != nil {
		return wrapError(err, "INSERT", "promo_codes")
	}

	p.logger.Info("promo code inserted",
		logging.String("code", pc.Code),
		logging.String("type", string(pc.DiscountType)),
	)
	return nil
}
