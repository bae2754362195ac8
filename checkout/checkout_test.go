package checkout

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kustore/storefront/cart"
	"github.com/kustore/storefront/catalog"
	"github.com/kustore/storefront/logging"
	"github.com/kustore/storefront/notify"
	"github.com/kustore/storefront/order"
	"github.com/kustore/storefront/promo"
	"github.com/kustore/storefront/store"
)

// fakeStore implements just the store calls checkout makes; everything
// else panics via the embedded nil interface.
type fakeStore struct {
	store.Store
	createErr   error
	created     *order.Order
	promoIDUsed string
}

func (f *fakeStore) CreateOrder(o *order.Order, promoID string) error {
	if f.createErr != nil {
		return f.createErr
	}
	o.ID = "order-1"
	f.created = o
	f.promoIDUsed = promoID
	return nil
}

type fakeNotifier struct {
	calls    int
	delivery notify.Delivery
}

func (f *fakeNotifier) OrderCreated(*order.Order, decimal.Decimal, string) notify.Delivery {
	f.calls++
	return f.delivery
}

func testCart(t *testing.T) *cart.Cart {
	t.Helper()
	c := cart.New()
	p := catalog.Product{
		ID:        "p1",
		Name:      "Oxford shirt",
		Category:  "shirts",
		RealPrice: decimal.NewFromInt(500),
		StockQuantity: map[string]int{
			"M": 5,
		},
	}
	if err := c.Add(p, "M"); err != nil {
		t.Fatalf("failed to build test cart: %v", err)
	}
	if err := c.SetQuantity("p1", "M", 2); err != nil {
		t.Fatalf("failed to build test cart: %v", err)
	}
	return c
}

func activePromo() *promo.PromoCode {
	now := time.Now()
	return &promo.PromoCode{
		ID:            "promo-1",
		Code:          "SALE10",
		DiscountType:  promo.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		IsActive:      true,
		ValidFrom:     now.Add(-time.Hour),
		ValidUntil:    now.Add(time.Hour),
	}
}

func TestSubmitAnonymousOrder(t *testing.T) {
	fs := &fakeStore{}
	fn := &fakeNotifier{delivery: notify.Delivery{Sent: true}}
	svc := NewService(fs, fn, logging.NoopLogger{})

	c := testCart(t)
	result, err := svc.Submit(c, validForm(), nil, nil)
	if err != nil {
		t.Fatalf("Expected submit to succeed, got %v", err)
	}

	o := result.Order
	if o.UserID != nil {
		t.Error("Expected anonymous order to have no user id")
	}
	if !o.TotalAmount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected total 1000, got %s", o.TotalAmount)
	}
	if o.Status != order.StatusNew {
		t.Errorf("Expected status new, got %s", o.Status)
	}
	if o.PaymentMethod != order.PaymentBankTransfer {
		t.Errorf("Expected bank transfer payment, got %s", o.PaymentMethod)
	}
	if len(o.Items) != 1 || o.Items[0].ProductName != "Oxford shirt" || o.Items[0].Quantity != 2 {
		t.Errorf("Expected one snapshot line with quantity 2, got %+v", o.Items)
	}
	if fs.promoIDUsed != "" {
		t.Errorf("Expected no promo id, got %q", fs.promoIDUsed)
	}

	if len(c.Items()) != 0 {
		t.Error("Expected cart to be cleared after submit")
	}
	if fn.calls != 1 {
		t.Errorf("Expected 1 notification, got %d", fn.calls)
	}
	if !result.Notification.Sent {
		t.Error("Expected notification to be reported as sent")
	}
}

func TestSubmitWithPromo(t *testing.T) {
	fs := &fakeStore{}
	svc := NewService(fs, nil, logging.NoopLogger{})

	c := testCart(t)
	result, err := svc.Submit(c, validForm(), activePromo(), nil)
	if err != nil {
		t.Fatalf("Expected submit to succeed, got %v", err)
	}

	if !result.Discount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected discount 100, got %s", result.Discount)
	}
	if !result.Order.TotalAmount.Equal(decimal.NewFromInt(900)) {
		t.Errorf("Expected total 900, got %s", result.Order.TotalAmount)
	}
	if fs.promoIDUsed != "promo-1" {
		t.Errorf("Expected promo id to reach the store, got %q", fs.promoIDUsed)
	}
}

func TestSubmitEmptyCart(t *testing.T) {
	svc := NewService(&fakeStore{}, nil, logging.NoopLogger{})

	_, err := svc.Submit(cart.New(), validForm(), nil, nil)
	if !errors.Is(err, ErrEmptyCart) {
		t.Errorf("Expected ErrEmptyCart, got %v", err)
	}
}

func TestSubmitInvalidFormKeepsCart(t *testing.T) {
	svc := NewService(&fakeStore{}, nil, logging.NoopLogger{})
	c := testCart(t)

	f := validForm()
	f.PostalCode = "1234"
	_, err := svc.Submit(c, f, nil, nil)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected a *ValidationError, got %v", err)
	}
	if len(c.Items()) == 0 {
		t.Error("Expected cart to survive a failed submit")
	}
}

func TestSubmitIneligiblePromo(t *testing.T) {
	svc := NewService(&fakeStore{}, nil, logging.NoopLogger{})
	c := testCart(t)

	p := activePromo()
	p.MinOrderAmount = decimal.NewFromInt(9999)
	_, err := svc.Submit(c, validForm(), p, nil)
	if !errors.Is(err, ErrPromoNotEligible) {
		t.Errorf("Expected ErrPromoNotEligible, got %v", err)
	}

	expired := activePromo()
	expired.ValidUntil = time.Now().Add(-time.Minute)
	_, err = svc.Submit(c, validForm(), expired, nil)
	if !errors.Is(err, ErrPromoNotEligible) {
		t.Errorf("Expected ErrPromoNotEligible for expired promo, got %v", err)
	}
}

func TestSubmitExhaustedPromoAtStore(t *testing.T) {
	fs := &fakeStore{createErr: store.ErrPromoExhausted}
	svc := NewService(fs, nil, logging.NoopLogger{})
	c := testCart(t)

	_, err := svc.Submit(c, validForm(), activePromo(), nil)
	if !errors.Is(err, ErrPromoNotEligible) {
		t.Errorf("Expected race on the last use to surface as ErrPromoNotEligible, got %v", err)
	}
	if len(c.Items()) == 0 {
		t.Error("Expected cart to survive a failed submit")
	}
}

func TestSubmitMapsPersistenceErrors(t *testing.T) {
	tests := []struct {
		raw  string
		want error
	}{
		{`new row violates row-level security policy for table "orders"`, ErrAccessDenied},
		{`pq: permission denied, insufficient privilege`, ErrAccessDenied},
		{`duplicate key value violates unique constraint "orders_pkey"`, ErrDuplicateData},
		{`insert or update violates foreign key constraint`, ErrStaleData},
	}

	for _, tt := range tests {
		fs := &fakeStore{createErr: errors.New(tt.raw)}
		svc := NewService(fs, nil, logging.NoopLogger{})

		_, err := svc.Submit(testCart(t), validForm(), nil, nil)
		if !errors.Is(err, tt.want) {
			t.Errorf("Expected %q to map to %v, got %v", tt.raw, tt.want, err)
		}
	}

	// Unrecognized failures keep the raw cause.
	raw := fmt.Errorf("connection reset by peer")
	fs := &fakeStore{createErr: raw}
	svc := NewService(fs, nil, logging.NoopLogger{})

	_, err := svc.Submit(testCart(t), validForm(), nil, nil)
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected a *PersistenceError, got %v", err)
	}
	if !errors.Is(perr, raw) {
		t.Error("Expected the raw cause to be preserved")
	}
}

func TestSubmitNotificationFailureDoesNotFailCheckout(t *testing.T) {
	fs := &fakeStore{}
	fn := &fakeNotifier{delivery: notify.Delivery{Sent: false, Err: errors.New("timeout")}}
	svc := NewService(fs, fn, logging.NoopLogger{})

	result, err := svc.Submit(testCart(t), validForm(), nil, nil)
	if err != nil {
		t.Fatalf("Expected checkout to succeed despite notification failure, got %v", err)
	}
	if result.Notification.Sent {
		t.Error("Expected notification to be reported as not sent")
	}
	if result.Notification.Err == nil {
		t.Error("Expected the delivery error to be reported")
	}
}
