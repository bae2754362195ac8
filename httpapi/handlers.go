package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/kustore/storefront/auth"
	"github.com/kustore/storefront/cart"
	"github.com/kustore/storefront/catalog"
	"github.com/kustore/storefront/checkout"
	"github.com/kustore/storefront/logging"
	"github.com/kustore/storefront/promo"
	"github.com/kustore/storefront/store"
)

// handleProducts lists products with the catalog filters and sort applied
// from query parameters.
func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.Products()
	if err != nil {
		s.serverError(w, err)
		return
	}

	q := r.URL.Query()
	c := catalog.New(products)

	var out []catalog.Product
	switch category := q.Get("category"); category {
	case "new":
		out = c.NewArrivals()
	case "":
		out = c.Products()
	default:
		out = c.ByCategory(category)
	}

	opts := catalog.FilterOptions{
		Sizes:  splitParam(q.Get("sizes")),
		Brands: splitParam(q.Get("brands")),
	}
	if v := q.Get("price_min"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			opts.PriceMin = d
		}
	}
	if v := q.Get("price_max"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			opts.PriceMax = d
		}
	}
	out = catalog.Filter(out, opts)

	if sortBy := q.Get("sort"); sortBy != "" {
		out = catalog.Sort(out, catalog.SortOption(sortBy))
	}

	if out == nil {
		out = []catalog.Product{}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	p, err := s.store.ProductByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "product not found")
			return
		}
		s.serverError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleMeasurements(w http.ResponseWriter, r *http.Request) {
	ms, err := s.store.MeasurementsFor(mux.Vars(r)["id"])
	if err != nil {
		s.serverError(w, err)
		return
	}
	if ms == nil {
		ms = []catalog.Measurement{}
	}
	s.writeJSON(w, http.StatusOK, ms)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var profile auth.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.auth.Login(profile)
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

// cartLine is one cart line as the client sends it. The server never
// trusts client prices; products are reloaded by id.
type cartLine struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// rebuildCart reloads each line's product and replays it into a fresh
// cart, re-validating stock on the server.
func (s *Server) rebuildCart(lines []cartLine) (*cart.Cart, error) {
	c := cart.New()
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		p, err := s.store.ProductByID(line.ProductID)
		if err != nil {
			return nil, err
		}
		if err := c.Add(p, line.Size); err != nil {
			return nil, err
		}
		if line.Quantity > 1 {
			if err := c.SetQuantity(p.ID, line.Size, line.Quantity); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

type validatePromoRequest struct {
	Code  string     `json:"code"`
	Items []cartLine `json:"items"`
}

type validatePromoResponse struct {
	Eligible bool            `json:"eligible"`
	Reason   string          `json:"reason,omitempty"`
	Discount decimal.Decimal `json:"discount"`
	NewTotal decimal.Decimal `json:"new_total"`
}

// handleValidatePromo checks a code against the caller's cart and returns
// the discount it would produce. Nothing is redeemed here; the usage
// counter only moves at checkout.
func (s *Server) handleValidatePromo(w http.ResponseWriter, r *http.Request) {
	var req validatePromoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pc, err := s.store.PromoCodeByCode(req.Code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "promo code not found")
			return
		}
		s.serverError(w, err)
		return
	}
	if !pc.ValidAt(time.Now()) {
		s.writeJSON(w, http.StatusOK, validatePromoResponse{
			Eligible: false, Reason: "promo code is not active",
		})
		return
	}

	c, err := s.rebuildCart(req.Items)
	if err != nil {
		s.cartError(w, err)
		return
	}

	total := c.Total()
	elig := promo.CheckEligibility(pc, c.Items(), total)
	if !elig.Eligible {
		s.writeJSON(w, http.StatusOK, validatePromoResponse{
			Eligible: false, Reason: elig.Reason, NewTotal: total,
		})
		return
	}

	d := promo.ComputeDiscount(pc, c.Items(), total)
	s.writeJSON(w, http.StatusOK, validatePromoResponse{
		Eligible: true, Discount: d.Discount, NewTotal: d.NewTotal,
	})
}

type submitOrderRequest struct {
	Items     []cartLine    `json:"items"`
	Form      checkout.Form `json:"form"`
	PromoCode string        `json:"promo_code,omitempty"`
	UserID    *int64        `json:"user_id,omitempty"`
}

type submitOrderResponse struct {
	OrderID  string          `json:"order_id"`
	Total    decimal.Decimal `json:"total"`
	Discount decimal.Decimal `json:"discount"`
	Notified bool            `json:"notified"`
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := s.rebuildCart(req.Items)
	if err != nil {
		s.cartError(w, err)
		return
	}

	var appliedPromo *promo.PromoCode
	if req.PromoCode != "" {
		pc, err := s.store.PromoCodeByCode(req.PromoCode)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.writeError(w, http.StatusNotFound, "promo code not found")
				return
			}
			s.serverError(w, err)
			return
		}
		appliedPromo = &pc
	}

	result, err := s.checkout.Submit(c, req.Form, appliedPromo, req.UserID)
	if err != nil {
		var verr *checkout.ValidationError
		if errors.As(err, &verr) {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:  "invalid checkout form",
				Fields: verr.Fields,
			})
			return
		}
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			s.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, checkout.ErrPromoNotEligible):
			s.writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, checkout.ErrAccessDenied),
			errors.Is(err, checkout.ErrDuplicateData),
			errors.Is(err, checkout.ErrStaleData):
			s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			s.serverError(w, err)
		}
		return
	}

	s.writeJSON(w, http.StatusCreated, submitOrderResponse{
		OrderID:  result.Order.ID,
		Total:    result.Order.TotalAmount,
		Discount: result.Discount,
		Notified: result.Notification.Sent,
	})
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userIDParam(w, r)
	if !ok {
		return
	}

	orders, err := s.store.OrdersByUser(userID)
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userIDParam(w, r)
	if !ok {
		return
	}

	products, err := s.store.FavoritesByUser(userID)
	if err != nil {
		s.serverError(w, err)
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	s.writeJSON(w, http.StatusOK, products)
}

type favoriteRequest struct {
	UserID    int64  `json:"user_id"`
	ProductID string `json:"product_id"`
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	var req favoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.store.AddFavorite(req.UserID, req.ProductID)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyFavorite) {
			s.writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.serverError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userIDParam(w, r)
	if !ok {
		return
	}

	if err := s.store.RemoveFavorite(userID, mux.Vars(r)["product_id"]); err != nil {
		s.serverError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "user_id must be an integer")
		return 0, false
	}
	return userID, true
}

func (s *Server) cartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, cart.ErrOutOfStock):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.serverError(w, err)
	}
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", logging.Error(err))
	s.writeError(w, http.StatusInternalServerError, "internal error")
}

func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
