// Package httpapi exposes the storefront over HTTP: catalog browsing,
// promo validation, checkout, order history and favorites.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron"

	"github.com/kustore/storefront/auth"
	"github.com/kustore/storefront/checkout"
	"github.com/kustore/storefront/logging"
	"github.com/kustore/storefront/store"
)

// Server is the storefront HTTP API.
type Server struct {
	store    store.Store
	checkout *checkout.Service
	auth     *auth.Service
	logger   logging.Logger
	limiter  *rateLimiter
	cron     *cron.Cron
	router   *mux.Router
}

// NewServer wires the API routes and the per-IP rate limiter.
func NewServer(s store.Store, co *checkout.Service, au *auth.Service, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.Default()
	}

	srv := &Server{
		store:    s,
		checkout: co,
		auth:     au,
		logger:   logger,
		limiter:  newRateLimiter(DefaultRequestsPerMinute),
		cron:     cron.New(),
	}

	r := mux.NewRouter()
	r.Use(srv.limiter.Middleware)
	r.Use(srv.logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/products", srv.handleProducts).Methods("GET")
	api.HandleFunc("/products/{id}", srv.handleProduct).Methods("GET")
	api.HandleFunc("/products/{id}/measurements", srv.handleMeasurements).Methods("GET")
	api.HandleFunc("/auth/login", srv.handleLogin).Methods("POST")
	api.HandleFunc("/promo/validate", srv.handleValidatePromo).Methods("POST")
	api.HandleFunc("/orders", srv.handleSubmitOrder).Methods("POST")
	api.HandleFunc("/orders", srv.handleOrders).Methods("GET").Queries("user_id", "{user_id}")
	api.HandleFunc("/favorites", srv.handleFavorites).Methods("GET").Queries("user_id", "{user_id}")
	api.HandleFunc("/favorites", srv.handleAddFavorite).Methods("POST")
	api.HandleFunc("/favorites/{product_id}", srv.handleRemoveFavorite).Methods("DELETE")

	r.HandleFunc("/healthz", srv.handleHealth).Methods("GET")

	srv.router = r
	return srv
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start launches the minutely rate-limit reset and serves on addr. Blocks
// until the listener fails.
func (s *Server) Start(addr string) error {
	s.cron.AddFunc("@every 1m", s.limiter.Reset)
	s.cron.Start()
	defer s.cron.Stop()

	s.logger.Info("storefront API listening", logging.String("addr", addr))
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Duration("took", time.Since(start)),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.store.IsConnected() {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// writeJSON writes v as a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", logging.Error(err))
	}
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
