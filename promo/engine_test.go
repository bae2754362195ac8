package promo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kustore/storefront/cart"
	"github.com/kustore/storefront/catalog"
)

func d(v string) decimal.Decimal {
	out, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return out
}

func item(category, size string, price string, qty int) cart.Item {
	return cart.Item{
		Product: catalog.Product{
			ID:        category + "-" + size,
			Category:  category,
			RealPrice: d(price),
		},
		Size:     size,
		Quantity: qty,
	}
}

func intPtr(n int) *int { return &n }

// TestCheckEligibilityRuleOrder verifies the rules fail in their fixed
// order: the first failing rule's message wins.
func TestCheckEligibilityRuleOrder(t *testing.T) {
	// This promo fails every rule against the cart below.
	p := PromoCode{
		MinOrderAmount: d("5000"),
		MinItemsCount:  10,
		Categories:     []string{"shoes"},
		MaxUses:        intPtr(1),
		CurrentUses:    1,
	}
	items := []cart.Item{item("shirts", "M", "100", 1)}

	got := CheckEligibility(p, items, d("100"))
	if got.Eligible {
		t.Fatal("Expected promo to be ineligible")
	}
	if got.Reason != "minimum order amount is 5000" {
		t.Errorf("Expected min order reason first, got %q", got.Reason)
	}

	// Clear the first rule; the item count rule should fail next.
	p.MinOrderAmount = decimal.Zero
	got = CheckEligibility(p, items, d("100"))
	if got.Reason != "minimum item count is 10" {
		t.Errorf("Expected min items reason, got %q", got.Reason)
	}

	p.MinItemsCount = 0
	got = CheckEligibility(p, items, d("100"))
	if got.Reason != "promo code only applies to: shoes" {
		t.Errorf("Expected category reason, got %q", got.Reason)
	}

	p.Categories = nil
	got = CheckEligibility(p, items, d("100"))
	if got.Reason != "promo code has been used up" {
		t.Errorf("Expected exhaustion reason, got %q", got.Reason)
	}

	p.CurrentUses = 0
	got = CheckEligibility(p, items, d("100"))
	if !got.Eligible {
		t.Errorf("Expected promo to be eligible, got reason %q", got.Reason)
	}
}

// TestCheckEligibilityEmptyCategories verifies an empty category list
// applies to every cart, never to none.
func TestCheckEligibilityEmptyCategories(t *testing.T) {
	p := PromoCode{Categories: nil}
	items := []cart.Item{item("accessories", "One Size", "500", 1)}

	got := CheckEligibility(p, items, d("500"))
	if !got.Eligible {
		t.Errorf("Expected empty categories to qualify every cart, got reason %q", got.Reason)
	}
}

// TestComputeDiscountCategoryScopedPercentage: a 10% promo restricted to
// shirts against a cart of 300 in shirts and 700 in jeans discounts only
// the shirts subtotal.
func TestComputeDiscountCategoryScopedPercentage(t *testing.T) {
	p := PromoCode{
		DiscountType:  DiscountPercentage,
		DiscountValue: d("10"),
		Categories:    []string{"shirts", "jeans"},
	}
	items := []cart.Item{
		item("shirts", "M", "300", 1),
		item("jeans", "32", "300", 1),
		item("shoes", "42", "400", 1),
	}

	got := ComputeDiscount(p, items, d("1000"))
	if !got.Discount.Equal(d("60")) {
		t.Errorf("Expected discount 60, got %s", got.Discount)
	}
	if !got.NewTotal.Equal(d("940")) {
		t.Errorf("Expected new total 940, got %s", got.NewTotal)
	}
}

// TestComputeDiscountUnrestrictedPercentage applies the percentage to the
// whole cart when no categories are set.
func TestComputeDiscountUnrestrictedPercentage(t *testing.T) {
	p := PromoCode{DiscountType: DiscountPercentage, DiscountValue: d("25")}
	items := []cart.Item{item("shirts", "M", "200", 2)}

	got := ComputeDiscount(p, items, d("400"))
	if !got.Discount.Equal(d("100")) {
		t.Errorf("Expected discount 100, got %s", got.Discount)
	}
	if !got.NewTotal.Equal(d("300")) {
		t.Errorf("Expected new total 300, got %s", got.NewTotal)
	}
}

// TestComputeDiscountFixedClamp: a fixed 1500 off a 1000 cart clamps to the
// cart total so the new total is zero, never negative.
func TestComputeDiscountFixedClamp(t *testing.T) {
	p := PromoCode{DiscountType: DiscountFixed, DiscountValue: d("1500")}
	items := []cart.Item{item("sweaters", "L", "1000", 1)}

	got := ComputeDiscount(p, items, d("1000"))
	if !got.Discount.Equal(d("1000")) {
		t.Errorf("Expected discount clamped to 1000, got %s", got.Discount)
	}
	if !got.NewTotal.Equal(decimal.Zero) {
		t.Errorf("Expected new total 0, got %s", got.NewTotal)
	}
}

// TestComputeDiscountIneligible returns a zero discount and the unchanged
// total, with the rejection reason in Err.
func TestComputeDiscountIneligible(t *testing.T) {
	p := PromoCode{MinOrderAmount: d("2000")}
	items := []cart.Item{item("shirts", "M", "100", 1)}

	got := ComputeDiscount(p, items, d("100"))
	if !got.Discount.Equal(decimal.Zero) {
		t.Errorf("Expected zero discount, got %s", got.Discount)
	}
	if !got.NewTotal.Equal(d("100")) {
		t.Errorf("Expected total unchanged at 100, got %s", got.NewTotal)
	}
	if got.Err == "" {
		t.Error("Expected a rejection reason in Err")
	}
}

// TestComputeDiscountFixedIgnoresCategories: a fixed amount comes off the
// whole order even when the promo is category-restricted.
func TestComputeDiscountFixedIgnoresCategories(t *testing.T) {
	p := PromoCode{
		DiscountType:  DiscountFixed,
		DiscountValue: d("200"),
		Categories:    []string{"shirts"},
	}
	items := []cart.Item{
		item("shirts", "M", "300", 1),
		item("shoes", "42", "700", 1),
	}

	got := ComputeDiscount(p, items, d("1000"))
	if !got.Discount.Equal(d("200")) {
		t.Errorf("Expected discount 200, got %s", got.Discount)
	}
	if !got.NewTotal.Equal(d("800")) {
		t.Errorf("Expected new total 800, got %s", got.NewTotal)
	}
}

// TestComputeDiscountUnknownType verifies a row with a corrupt discount
// type produces no discount instead of falling through as a fixed amount.
func TestComputeDiscountUnknownType(t *testing.T) {
	p := PromoCode{
		DiscountType:  DiscountType("bogus"),
		DiscountValue: d("500"),
	}
	items := []cart.Item{item("shirts", "M", "1000", 1)}

	got := ComputeDiscount(p, items, d("1000"))
	if !got.Discount.IsZero() {
		t.Errorf("Expected zero discount for unknown type, got %s", got.Discount)
	}
	if !got.NewTotal.Equal(d("1000")) {
		t.Errorf("Expected total unchanged at 1000, got %s", got.NewTotal)
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"summer10", "SUMMER10"},
		{"  Sale20 ", "SALE20"},
		{"FIXED", "FIXED"},
	}
	for _, tt := range tests {
		if got := NormalizeCode(tt.in); got != tt.want {
			t.Errorf("Expected NormalizeCode(%q) to be %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestExhausted(t *testing.T) {
	unlimited := PromoCode{CurrentUses: 1000}
	if unlimited.Exhausted() {
		t.Error("Expected promo without max uses to never exhaust")
	}

	capped := PromoCode{MaxUses: intPtr(5), CurrentUses: 5}
	if !capped.Exhausted() {
		t.Error("Expected promo at its cap to be exhausted")
	}

	capped.CurrentUses = 4
	if capped.Exhausted() {
		t.Error("Expected promo below its cap to not be exhausted")
	}
}

func TestValidAtAndActiveNow(t *testing.T) {
	now := time.Now()
	active := PromoCode{
		IsActive:   true,
		ValidFrom:  now.Add(-time.Hour),
		ValidUntil: now.Add(time.Hour),
	}
	expired := PromoCode{
		IsActive:   true,
		ValidFrom:  now.Add(-2 * time.Hour),
		ValidUntil: now.Add(-time.Hour),
	}
	disabled := active
	disabled.IsActive = false
	exhausted := active
	exhausted.MaxUses = intPtr(1)
	exhausted.CurrentUses = 1

	if !active.ValidAt(now) {
		t.Error("Expected active promo to be valid now")
	}
	if expired.ValidAt(now) {
		t.Error("Expected expired promo to be invalid")
	}
	if disabled.ValidAt(now) {
		t.Error("Expected disabled promo to be invalid")
	}

	got := ActiveNow([]PromoCode{active, expired, disabled, exhausted}, now)
	if len(got) != 1 {
		t.Fatalf("Expected 1 active promo, got %d", len(got))
	}
}
