package promo

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType distinguishes percentage promos from flat-amount promos.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed_amount"
)

// PromoCode is one discount rule. Codes are stored upper-case and matched
// case-insensitively. An empty Categories list means the promo applies to
// every category, never to none.
type PromoCode struct {
	ID             string          `json:"id" db:"id"`
	Code           string          `json:"code" db:"code"`
	Name           string          `json:"name" db:"name"`
	Description    string          `json:"description" db:"description"`
	DiscountType   DiscountType    `json:"discount_type" db:"discount_type"`
	DiscountValue  decimal.Decimal `json:"discount_value" db:"discount_value"`
	MinOrderAmount decimal.Decimal `json:"min_order_amount" db:"min_order_amount"`
	MinItemsCount  int             `json:"min_items_count" db:"min_items_count"`
	Categories     []string        `json:"categories" db:"categories"`
	MaxUses        *int            `json:"max_uses" db:"max_uses"`
	CurrentUses    int             `json:"current_uses" db:"current_uses"`
	ValidFrom      time.Time       `json:"valid_from" db:"valid_from"`
	ValidUntil     time.Time       `json:"valid_until" db:"valid_until"`
	IsActive       bool            `json:"is_active" db:"is_active"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// TableName implements store.TableStruct.
func (p *PromoCode) TableName() string {
	return "promo_codes"
}

// NormalizeCode upper-cases and trims a user-entered code so lookups are
// case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Exhausted reports whether the usage cap, if any, has been reached.
func (p *PromoCode) Exhausted() bool {
	return p.MaxUses != nil && p.CurrentUses >= *p.MaxUses
}

// ValidAt reports whether the promo is active and inside its validity
// window at the given time.
func (p *PromoCode) ValidAt(t time.Time) bool {
	return p.IsActive && !t.Before(p.ValidFrom) && t.Before(p.ValidUntil)
}

// ActiveNow filters promos to those currently redeemable: active, inside
// the validity window, and not exhausted.
func ActiveNow(promos []PromoCode, now time.Time) []PromoCode {
	var out []PromoCode
	for _, p := range promos {
		if p.ValidAt(now) && !p.Exhausted() {
			out = append(out, p)
		}
	}
	return out
}
