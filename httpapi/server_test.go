package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kustore/storefront/auth"
	"github.com/kustore/storefront/catalog"
	"github.com/kustore/storefront/checkout"
	"github.com/kustore/storefront/logging"
	"github.com/kustore/storefront/order"
	"github.com/kustore/storefront/promo"
	"github.com/kustore/storefront/store"
)

// fakeStore implements the store calls the handlers under test make.
type fakeStore struct {
	store.Store
	products []catalog.Product
	promos   map[string]promo.PromoCode
	orders   []order.Order
	created  *order.Order
}

func (f *fakeStore) Products() ([]catalog.Product, error) { return f.products, nil }

func (f *fakeStore) ProductByID(id string) (catalog.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return catalog.Product{}, store.ErrNotFound
}

func (f *fakeStore) PromoCodeByCode(code string) (promo.PromoCode, error) {
	if pc, ok := f.promos[promo.NormalizeCode(code)]; ok {
		return pc, nil
	}
	return promo.PromoCode{}, store.ErrNotFound
}

func (f *fakeStore) CreateOrder(o *order.Order, promoID string) error {
	o.ID = "order-1"
	f.created = o
	return nil
}

func (f *fakeStore) OrdersByUser(userID int64) ([]order.Order, error) { return f.orders, nil }

func (f *fakeStore) UpsertUser(store.User) error { return nil }

func (f *fakeStore) IsConnected() bool { return true }

func testServer(fs *fakeStore) *Server {
	logger := logging.NoopLogger{}
	co := checkout.NewService(fs, nil, logger)
	au := auth.NewService(fs, logger)
	return NewServer(fs, co, au, logger)
}

func testStore() *fakeStore {
	now := time.Now()
	return &fakeStore{
		products: []catalog.Product{
			{ID: "p1", Name: "Oxford shirt", Category: "shirts",
				RealPrice: decimal.NewFromInt(500), InStock: true,
				StockQuantity: map[string]int{"M": 5}, CreatedAt: now},
			{ID: "p2", Name: "Slim jeans", Category: "jeans",
				RealPrice: decimal.NewFromInt(3000), InStock: true,
				StockQuantity: map[string]int{"32": 2}, CreatedAt: now.Add(-time.Hour)},
		},
		promos: map[string]promo.PromoCode{
			"SALE10": {
				ID: "promo-1", Code: "SALE10",
				DiscountType: promo.DiscountPercentage, DiscountValue: decimal.NewFromInt(10),
				IsActive: true, ValidFrom: now.Add(-time.Hour), ValidUntil: now.Add(time.Hour),
			},
		},
	}
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "10.0.0.1:5000"
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHandleProducts(t *testing.T) {
	srv := testServer(testStore())

	w := doJSON(t, srv, "GET", "/api/products", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var products []catalog.Product
	if err := json.Unmarshal(w.Body.Bytes(), &products); err != nil {
		t.Fatalf("Expected a JSON product list, got %v", err)
	}
	if len(products) != 2 {
		t.Errorf("Expected 2 products, got %d", len(products))
	}
}

func TestHandleProductsFilters(t *testing.T) {
	srv := testServer(testStore())

	w := doJSON(t, srv, "GET", "/api/products?category=jeans", "")
	var products []catalog.Product
	json.Unmarshal(w.Body.Bytes(), &products)
	if len(products) != 1 || products[0].ID != "p2" {
		t.Errorf("Expected only the jeans product, got %d", len(products))
	}

	w = doJSON(t, srv, "GET", "/api/products?price_max=1000", "")
	products = nil
	json.Unmarshal(w.Body.Bytes(), &products)
	if len(products) != 1 || products[0].ID != "p1" {
		t.Errorf("Expected only the cheap product, got %d", len(products))
	}
}

func TestHandleProductNotFound(t *testing.T) {
	srv := testServer(testStore())

	w := doJSON(t, srv, "GET", "/api/products/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown product, got %d", w.Code)
	}
}

func TestHandleValidatePromo(t *testing.T) {
	srv := testServer(testStore())

	body := `{"code":"sale10","items":[{"product_id":"p1","size":"M","quantity":2}]}`
	w := doJSON(t, srv, "POST", "/api/promo/validate", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp validatePromoResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Eligible {
		t.Fatalf("Expected the promo to be eligible, got reason %q", resp.Reason)
	}
	if !resp.Discount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected discount 100, got %s", resp.Discount)
	}
	if !resp.NewTotal.Equal(decimal.NewFromInt(900)) {
		t.Errorf("Expected new total 900, got %s", resp.NewTotal)
	}
}

func TestHandleValidatePromoUnknownCode(t *testing.T) {
	srv := testServer(testStore())

	w := doJSON(t, srv, "POST", "/api/promo/validate",
		`{"code":"NOPE","items":[{"product_id":"p1","size":"M","quantity":1}]}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown code, got %d", w.Code)
	}
}

func TestHandleSubmitOrder(t *testing.T) {
	fs := testStore()
	srv := testServer(fs)

	body := `{
		"items":[{"product_id":"p1","size":"M","quantity":2}],
		"form":{
			"name":"Ivan Petrov","phone":"+79001234567","city":"Moscow",
			"postal_code":"101000","street":"Tverskaya","house":"12",
			"delivery_method":"boxberry"
		},
		"promo_code":"SALE10"
	}`
	w := doJSON(t, srv, "POST", "/api/orders", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp submitOrderResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.OrderID != "order-1" {
		t.Errorf("Expected order id order-1, got %q", resp.OrderID)
	}
	if !resp.Total.Equal(decimal.NewFromInt(900)) {
		t.Errorf("Expected discounted total 900, got %s", resp.Total)
	}
	if fs.created == nil {
		t.Fatal("Expected the order to reach the store")
	}
	if fs.created.UserID != nil {
		t.Error("Expected an anonymous order")
	}
}

// TestHandleSubmitOrderZeroQuantityLine verifies lines with a non-positive
// quantity are dropped instead of being charged as one unit.
func TestHandleSubmitOrderZeroQuantityLine(t *testing.T) {
	fs := testStore()
	srv := testServer(fs)

	body := `{
		"items":[
			{"product_id":"p1","size":"M","quantity":2},
			{"product_id":"p2","size":"32","quantity":0},
			{"product_id":"p2","size":"32","quantity":-1}
		],
		"form":{
			"name":"Ivan Petrov","phone":"+79001234567","city":"Moscow",
			"postal_code":"101000","street":"Tverskaya","house":"12",
			"delivery_method":"boxberry"
		}
	}`
	w := doJSON(t, srv, "POST", "/api/orders", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp submitOrderResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Total.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected total 1000 without the zero-quantity line, got %s", resp.Total)
	}
	if fs.created == nil {
		t.Fatal("Expected the order to reach the store")
	}
	for _, it := range fs.created.Items {
		if it.ProductID == "p2" {
			t.Errorf("Expected no order line for p2, got quantity %d", it.Quantity)
		}
	}
}

func TestHandleSubmitOrderValidation(t *testing.T) {
	srv := testServer(testStore())

	body := `{
		"items":[{"product_id":"p1","size":"M","quantity":1}],
		"form":{"name":"","phone":"123","city":"","postal_code":"1234",
			"street":"","house":"","delivery_method":"boxberry"}
	}`
	w := doJSON(t, srv, "POST", "/api/orders", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}

	var resp errorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Fields["PostalCode"] == "" {
		t.Error("Expected a field message for the bad postal code")
	}
}

func TestHandleSubmitOrderOutOfStock(t *testing.T) {
	srv := testServer(testStore())

	body := `{
		"items":[{"product_id":"p2","size":"32","quantity":5}],
		"form":{"name":"A","phone":"+79001234567","city":"M",
			"postal_code":"101000","street":"S","house":"1",
			"delivery_method":"cdek"}
	}`
	w := doJSON(t, srv, "POST", "/api/orders", body)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 when the requested quantity exceeds stock, got %d", w.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("Expected the 4th request to be rejected")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("Expected another client to have its own budget")
	}

	rl.Reset()
	if !rl.Allow("1.2.3.4") {
		t.Error("Expected the budget to refill after reset")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	srv := testServer(testStore())
	srv.limiter = newRateLimiter(2)

	// The router captured the old limiter; rebuild a tiny handler chain
	// directly instead.
	h := srv.limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/api/products", nil)
		req.RemoteAddr = "9.9.9.9:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200 within budget, got %d", w.Code)
		}
	}

	req := httptest.NewRequest("GET", "/api/products", nil)
	req.RemoteAddr = "9.9.9.9:1234"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 over budget, got %d", w.Code)
	}
}

func TestHandleLogin(t *testing.T) {
	srv := testServer(testStore())

	w := doJSON(t, srv, "POST", "/api/auth/login", `{"id":123,"first_name":"Ivan"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var u store.User
	json.Unmarshal(w.Body.Bytes(), &u)
	if u.TelegramID != 123 {
		t.Errorf("Expected telegram id 123, got %d", u.TelegramID)
	}
}

func TestHealthz(t *testing.T) {
	srv := testServer(testStore())

	w := doJSON(t, srv, "GET", "/healthz", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}
