// Package middleware provides HTTP middleware shared by the API routes:
// cross-origin handling and per-client rate limiting.
package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"contest-api/internal/handler/http/respond"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	rate        rate.Limit
	burst       int
	idleTTL     time.Duration
	ipExtractor IPExtractor
	now         func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewRateLimiter allows perMinute requests per minute per IP, with bursts of
// up to burst requests.
//
// Example:
//
//	limiter := NewRateLimiter(10, 5, RemoteAddrExtractor{})
//	mux.Handle("POST /payment-intents", limiter.Middleware(h))
func NewRateLimiter(perMinute float64, burst int, ipExtractor IPExtractor) *RateLimiter {
	if ipExtractor == nil {
		ipExtractor = RemoteAddrExtractor{}
	}
	return &RateLimiter{
		rate:        rate.Limit(perMinute / 60),
		burst:       burst,
		idleTTL:     10 * time.Minute,
		ipExtractor: ipExtractor,
		now:         time.Now,
		visitors:    make(map[string]*visitor),
	}
}

// Middleware rejects requests over the limit with 429 and a Retry-After header.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, err := rl.ipExtractor.ExtractIP(r)
		if err != nil {
			// IP が取れないときは制限しない
			slog.Warn("rate limit: cannot extract client ip",
				slog.String("remote_addr", r.RemoteAddr),
				slog.Any("error", err))
			next.ServeHTTP(w, r)
			return
		}

		if !rl.allow(ip) {
			retry := 60.0
			if rl.rate > 0 {
				retry = 1 / float64(rl.rate)
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(retry+0.5)))
			respond.JSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// CleanupExpired drops buckets for clients idle longer than the TTL.
// It returns the number removed.
func (rl *RateLimiter) CleanupExpired() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idleTTL)
	removed := 0
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
			removed++
		}
	}
	return removed
}

// Size returns the number of tracked clients.
func (rl *RateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}
