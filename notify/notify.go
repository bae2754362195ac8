// Package notify delivers order notifications to the shop admin. Delivery
// is strictly best effort: an order that is already persisted must never be
// failed, retried or rolled back because the notification did not go out.
package notify

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kustore/storefront/order"
)

// Delivery is the outcome of a notification attempt. It is a value, not an
// error return, so callers cannot accidentally propagate a failed delivery
// into the checkout result.
type Delivery struct {
	Sent bool
	Err  error
}

// Notifier sends an admin notification for a newly created order.
type Notifier interface {
	OrderCreated(o *order.Order, discount decimal.Decimal, promoCode string) Delivery
}

// Noop discards notifications. Used when no endpoint is configured.
type Noop struct{}

func (Noop) OrderCreated(*order.Order, decimal.Decimal, string) Delivery {
	return Delivery{Sent: false}
}

// FormatOrderMessage renders the admin message: customer details, an
// itemized list, and the discount breakdown when a promo was applied.
func FormatOrderMessage(o *order.Order, discount decimal.Decimal, promoCode string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "New order %s\n\n", o.ID)
	fmt.Fprintf(&b, "Customer: %s\n", o.CustomerName)
	fmt.Fprintf(&b, "Phone: %s\n", o.CustomerPhone)
	if o.CustomerEmail != "" {
		fmt.Fprintf(&b, "Email: %s\n", o.CustomerEmail)
	}
	fmt.Fprintf(&b, "Address: %s\n", o.DeliveryAddress)
	fmt.Fprintf(&b, "Delivery: %s\n\n", o.DeliveryMethod)

	b.WriteString("Items:\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %s (%s) x%d = %s\n",
			it.ProductName, it.Size, it.Quantity, it.Total.StringFixed(2))
	}

	if discount.IsPositive() {
		fmt.Fprintf(&b, "\nSubtotal: %s\n", o.Subtotal().StringFixed(2))
		fmt.Fprintf(&b, "Promo %s: -%s\n", promoCode, discount.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s", o.TotalAmount.StringFixed(2))

	return b.String()
}
