package httpapi

import (
	"net"
	"net/http"
	"sync"
)

// DefaultRequestsPerMinute is the per-IP request budget.
const DefaultRequestsPerMinute = 100

// rateLimiter counts requests per client IP. The counters are wiped once a
// minute by the server's cron scheduler, so the budget is per calendar
// minute rather than a sliding window.
type rateLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	limit  int
}

func newRateLimiter(limit int) *rateLimiter {
	if limit <= 0 {
		limit = DefaultRequestsPerMinute
	}
	return &rateLimiter{
		counts: make(map[string]int),
		limit:  limit,
	}
}

// Allow records one request from ip and reports whether it is within budget.
func (rl *rateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.counts[ip] >= rl.limit {
		return false
	}
	rl.counts[ip]++
	return true
}

// Reset wipes all counters.
func (rl *rateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.counts = make(map[string]int)
}

// Middleware rejects over-budget clients with 429.
func (rl *rateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr so a reconnecting client keeps
// one counter.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
