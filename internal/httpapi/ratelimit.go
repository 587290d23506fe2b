package httpapi

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Submission rate limiting (opt-in). Keyed by client address after the
// RealIP middleware; 0 rps disables it.
var (
	submitRate  float64
	submitBurst int
)

// SetSubmitRateLimit configures the per-client submission rate. A rps of 0
// turns the limiter off.
func SetSubmitRateLimit(rps float64, burst int) {
	if burst <= 0 {
		burst = 1
	}
	submitRate = rps
	submitBurst = burst
}

type cachedLimiter struct {
	limiter   *rate.Limiter
	expiresAt time.Time
}

// rateLimitMiddleware throttles a handler per client address. Entries expire
// so the cache does not grow with one-shot clients.
func rateLimitMiddleware(next http.Handler) http.Handler {
	limiters := sync.Map{} // client addr -> *cachedLimiter

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if submitRate <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		key := r.RemoteAddr
		if !getOrCreateLimiter(&limiters, key, 5*time.Minute).Allow() {
			IncrementBackpressure("rate_limit")
			w.Header().Set("Retry-After", "1")
			writeJSONError(w, http.StatusTooManyRequests, "submission rate exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func getOrCreateLimiter(limiters *sync.Map, key string, ttl time.Duration) *rate.Limiter {
	if v, ok := limiters.Load(key); ok {
		cached := v.(*cachedLimiter)
		if time.Now().Before(cached.expiresAt) {
			return cached.limiter
		}
		// expired, need to create new
	}

	limiter := rate.NewLimiter(rate.Limit(submitRate), submitBurst)
	limiters.Store(key, &cachedLimiter{
		limiter:   limiter,
		expiresAt: time.Now().Add(ttl),
	})
	return limiter
}
