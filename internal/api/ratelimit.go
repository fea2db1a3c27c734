// Per-user token buckets for the action endpoints.
package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// staleAfter is how long an idle bucket is kept before it is dropped.
const staleAfter = time.Hour

// RateLimiter hands out one token bucket per key.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     rate.Limit // Sustained requests per second
	burst     int
	lastSweep time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perSecond requests per key with bursts of burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		buckets:   make(map[string]*bucket),
		limit:     rate.Limit(perSecond),
		burst:     max(1, burst),
		lastSweep: time.Now(),
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSweep) > staleAfter {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) > staleAfter {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim
}

// Allow takes a token for key. When none is available it returns false and
// how long until one will be.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	r := rl.limiter(key).Reserve()
	if d := r.Delay(); d > 0 {
		r.Cancel()
		return false, d
	}
	return true, 0
}

// Wait blocks until key has a token or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	return rl.limiter(key).Wait(ctx)
}

// RateLimitMiddleware rejects requests over the limit with 429. keyOf picks
// the bucket; requests it cannot key pass through.
func RateLimitMiddleware(rl *RateLimiter, keyOf func(*http.Request) string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := keyOf(r)
		if rl == nil || key == "" {
			next(w, r)
			return
		}
		if ok, wait := rl.Allow(key); !ok {
			secs := int(wait.Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
