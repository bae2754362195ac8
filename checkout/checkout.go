// Package checkout turns a cart and a filled form into a persisted order:
// it validates the form, applies an optional promo code, snapshots the cart
// lines, writes the order, clears the cart, and fires the best-effort admin
// notification.
package checkout

import (
	"errors"
	"time"

	"github.com/medatechnology/goutil/medaerror"
	"github.com/shopspring/decimal"

	"github.com/kustore/storefront/cart"
	"github.com/kustore/storefront/logging"
	"github.com/kustore/storefront/notify"
	"github.com/kustore/storefront/order"
	"github.com/kustore/storefront/promo"
	"github.com/kustore/storefront/store"
)

var (
	ErrEmptyCart medaerror.MedaError = medaerror.MedaError{Message: "cart is empty"}
	// ErrPromoNotEligible is returned when the applied promo fails its
	// eligibility rules against the cart at submission time.
	ErrPromoNotEligible medaerror.MedaError = medaerror.MedaError{Message: "promo code is not applicable to this cart"}
)

// Service runs the checkout flow against the store.
type Service struct {
	store    store.Store
	notifier notify.Notifier
	logger   logging.Logger
	now      func() time.Time
}

// NewService wires the checkout flow. A nil notifier disables notifications.
func NewService(s store.Store, n notify.Notifier, logger logging.Logger) *Service {
	if n == nil {
		n = notify.Noop{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: s, notifier: n, logger: logger, now: time.Now}
}

// Result is a successful checkout: the persisted order, the discount that
// was applied, and the notification outcome. Notification failure never
// fails the checkout.
type Result struct {
	Order        *order.Order
	Discount     decimal.Decimal
	PromoCode    string
	Notification notify.Delivery
}

// Submit runs the whole checkout. userID is nil for anonymous checkouts;
// appliedPromo is nil when no code was entered. The cart is cleared only
// after the order is persisted.
func (s *Service) Submit(c *cart.Cart, form Form, appliedPromo *promo.PromoCode, userID *int64) (*Result, error) {
	items := c.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	total := c.Total()
	discount := decimal.Zero
	promoID := ""
	promoCode := ""

	// Eligibility is re-checked at submission time; the cart may have
	// changed since the code was entered.
	if appliedPromo != nil {
		if !appliedPromo.ValidAt(s.now()) {
			return nil, ErrPromoNotEligible
		}
		elig := promo.CheckEligibility(*appliedPromo, items, total)
		if !elig.Eligible {
			return nil, ErrPromoNotEligible
		}
		d := promo.ComputeDiscount(*appliedPromo, items, total)
		discount = d.Discount
		total = d.NewTotal
		promoID = appliedPromo.ID
		promoCode = appliedPromo.Code
	}

	o := &order.Order{
		UserID:          userID,
		Items:           snapshotItems(items),
		TotalAmount:     total,
		CustomerName:    form.Name,
		CustomerPhone:   form.Phone,
		CustomerEmail:   form.Email,
		DeliveryAddress: form.DeliveryAddress(),
		DeliveryMethod:  form.DeliveryMethod,
		PaymentMethod:   order.PaymentBankTransfer,
		Status:          order.StatusNew,
	}

	if err := s.store.CreateOrder(o, promoID); err != nil {
		if errors.Is(err, store.ErrPromoExhausted) {
			return nil, ErrPromoNotEligible
		}
		return nil, mapPersistenceError(err)
	}

	c.Clear()

	s.logger.Info("checkout completed",
		logging.String("order_id", o.ID),
		logging.String("total", o.TotalAmount.String()),
		logging.Bool("anonymous", userID == nil),
	)

	return &Result{
		Order:        o,
		Discount:     discount,
		PromoCode:    promoCode,
		Notification: s.notifier.OrderCreated(o, discount, promoCode),
	}, nil
}

// snapshotItems freezes the cart lines into order items, so later catalog
// edits never change the order.
func snapshotItems(items []cart.Item) []order.Item {
	out := make([]order.Item, 0, len(items))
	for _, it := range items {
		out = append(out, order.Item{
			ProductID:    it.Product.ID,
			ProductName:  it.Product.Name,
			ProductImage: it.Product.ImageURL,
			Size:         it.Size,
			Quantity:     it.Quantity,
			RealPrice:    it.Product.RealPrice,
			Total:        it.LineTotal(),
		})
	}
	return out
}
