// Package store defines the persistence boundary of the storefront: a typed
// CRUD surface over the hosted database. The rest of the application treats
// an implementation as an opaque collaborator and never builds SQL itself.
package store

import (
	"time"

	"github.com/medatechnology/goutil/medaerror"
	"github.com/shopspring/decimal"

	"github.com/kustore/storefront/catalog"
	"github.com/kustore/storefront/order"
	"github.com/kustore/storefront/promo"
)

var (
	ErrNotFound medaerror.MedaError = medaerror.MedaError{Message: "record not found"}
	// ErrPromoExhausted is returned by CreateOrder when the conditional
	// usage-counter increment matches no row, i.e. a concurrent redemption
	// took the last use.
	ErrPromoExhausted medaerror.MedaError = medaerror.MedaError{Message: "promo code has been used up"}
	// ErrAlreadyFavorite is returned when a favorite insert hits the
	// (user, product) uniqueness constraint.
	ErrAlreadyFavorite medaerror.MedaError = medaerror.MedaError{Message: "product is already in favorites"}
)

// TableStruct is implemented by every model that maps to a table.
type TableStruct interface {
	TableName() string
}

// User is the storefront's view of a shopper, derived from a Telegram
// identity assertion and upserted on login.
type User struct {
	TelegramID int64     `json:"telegram_id" db:"telegram_id"`
	FirstName  string    `json:"first_name" db:"first_name"`
	LastName   string    `json:"last_name,omitempty" db:"last_name"`
	Username   string    `json:"username,omitempty" db:"username"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// TableName implements TableStruct.
func (u *User) TableName() string {
	return "users"
}

// Stats is the aggregate snapshot shown by the admin bot.
type Stats struct {
	TotalProducts   int
	VisibleProducts int
	NewProducts     int
	TotalOrders     int
	NewOrders       int
	CompletedOrders int
	TotalRevenue    decimal.Decimal
	TotalPromoCodes int
	ActivePromos    int
}

// Store is the persistence interface. Implementations are constructed once
// at startup from validated configuration and passed down explicitly; there
// is no ambient nullable client.
type Store interface {
	// Products, newest first.
	Products() ([]catalog.Product, error)
	ProductByID(id string) (catalog.Product, error)
	// SearchProducts matches an exact id or a case-insensitive name
	// substring, capped at limit rows.
	SearchProducts(term string, limit int) ([]catalog.Product, error)
	InsertProduct(p *catalog.Product) error
	// UpdateProductFields patches the named columns of one product.
	UpdateProductFields(id string, fields map[string]interface{}) error
	SetProductVisibility(id string, inStock bool) error

	InsertMeasurements(ms []catalog.Measurement) error
	MeasurementsFor(productID string) ([]catalog.Measurement, error)

	PromoCodes() ([]promo.PromoCode, error)
	// ActivePromoCodes returns active promos whose validity window contains now.
	ActivePromoCodes(now time.Time) ([]promo.PromoCode, error)
	// PromoCodeByCode matches case-insensitively.
	PromoCodeByCode(code string) (promo.PromoCode, error)
	InsertPromoCode(p *promo.PromoCode) error

	// CreateOrder persists the order. When promoID is non-empty the promo's
	// usage counter is incremented conditionally in the same transaction;
	// a cap that is already reached fails the whole order with
	// ErrPromoExhausted.
	CreateOrder(o *order.Order, promoID string) error
	OrdersByUser(userID int64) ([]order.Order, error)
	// RecentOrders returns the latest orders across all users, newest
	// first, for the admin console.
	RecentOrders(limit int) ([]order.Order, error)
	// UpdateOrderStatus enforces the order status sequence.
	UpdateOrderStatus(id string, to order.Status) error

	UpsertUser(u User) error
	AddFavorite(userID int64, productID string) error
	RemoveFavorite(userID int64, productID string) error
	FavoritesByUser(userID int64) ([]catalog.Product, error)

	Stats() (Stats, error)

	IsConnected() bool
	Close() error
}
