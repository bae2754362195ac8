package promo

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kustore/storefront/cart"
)

// Eligibility is the outcome of checking a promo against a cart. Reason is
// set only when Eligible is false and carries the first failing rule's
// message; rules are never combined.
type Eligibility struct {
	Eligible bool
	Reason   string
}

// Discount is the outcome of applying a promo. When the promo is not
// eligible, Discount is zero, NewTotal equals the cart total and Err holds
// the rejection reason.
type Discount struct {
	Discount decimal.Decimal
	NewTotal decimal.Decimal
	Err      string
}

var oneHundred = decimal.NewFromInt(100)

// CheckEligibility evaluates the promo rules in a fixed order and stops at
// the first failure: minimum order amount, minimum item count, category
// overlap, usage cap. An empty category list means all categories qualify.
func CheckEligibility(p PromoCode, items []cart.Item, cartTotal decimal.Decimal) Eligibility {
	if cartTotal.LessThan(p.MinOrderAmount) {
		return Eligibility{Reason: fmt.Sprintf("minimum order amount is %s", p.MinOrderAmount.String())}
	}

	totalItems := 0
	for _, it := range items {
		totalItems += it.Quantity
	}
	if totalItems < p.MinItemsCount {
		return Eligibility{Reason: fmt.Sprintf("minimum item count is %d", p.MinItemsCount)}
	}

	if len(p.Categories) > 0 {
		matched := false
		for _, it := range items {
			if inCategories(p.Categories, it.Product.Category) {
				matched = true
				break
			}
		}
		if !matched {
			return Eligibility{Reason: fmt.Sprintf("promo code only applies to: %s", strings.Join(p.Categories, ", "))}
		}
	}

	if p.Exhausted() {
		return Eligibility{Reason: "promo code has been used up"}
	}

	return Eligibility{Eligible: true}
}

// ComputeDiscount computes the discount amount and the new total for an
// eligible promo. A category-restricted percentage promo discounts only the
// subtotal of matching lines; a fixed amount comes off the whole order
// regardless of restrictions. The discount is clamped to the cart total so
// the new total never goes negative.
func ComputeDiscount(p PromoCode, items []cart.Item, cartTotal decimal.Decimal) Discount {
	if check := CheckEligibility(p, items, cartTotal); !check.Eligible {
		return Discount{Discount: decimal.Zero, NewTotal: cartTotal, Err: check.Reason}
	}

	var discount decimal.Decimal
	switch p.DiscountType {
	case DiscountPercentage:
		base := cartTotal
		if len(p.Categories) > 0 {
			base = matchingSubtotal(p.Categories, items)
		}
		discount = base.Mul(p.DiscountValue).Div(oneHundred)
	case DiscountFixed:
		discount = p.DiscountValue
	default:
		// An unrecognized discount type never discounts.
		discount = decimal.Zero
	}

	if discount.GreaterThan(cartTotal) {
		discount = cartTotal
	}
	newTotal := cartTotal.Sub(discount)
	if newTotal.IsNegative() {
		newTotal = decimal.Zero
	}

	return Discount{Discount: discount, NewTotal: newTotal}
}

// Applicable filters promos to those the given cart currently qualifies for.
func Applicable(promos []PromoCode, items []cart.Item, cartTotal decimal.Decimal) []PromoCode {
	var out []PromoCode
	for _, p := range promos {
		if CheckEligibility(p, items, cartTotal).Eligible {
			out = append(out, p)
		}
	}
	return out
}

// matchingSubtotal sums unit price times quantity over lines whose product
// category is in the allowed set.
func matchingSubtotal(categories []string, items []cart.Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		if inCategories(categories, it.Product.Category) {
			sum = sum.Add(it.LineTotal())
		}
	}
	return sum
}

func inCategories(categories []string, cat string) bool {
	for _, c := range categories {
		if c == cat {
			return true
		}
	}
	return false
}
