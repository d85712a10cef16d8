package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window counter per key. The tracking ingress keys it
// on the authenticated employee, since location pings arrive on a steady
// per-subject cadence; routes that run before authentication fall back to the
// client IP.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
}

type window struct {
	start time.Time
	count int
}

func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

// Allow counts one request against key's current window.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	w := r.windows[key]
	if w == nil || now.Sub(w.start) >= r.period {
		r.sweep(now)
		w = &window{start: now}
		r.windows[key] = w
	}
	if w.count >= r.limit {
		return false
	}
	w.count++
	return true
}

// sweep drops expired windows. Runs under the lock whenever a window rolls so
// the map does not grow with every subject ever seen.
func (r *RateLimiter) sweep(now time.Time) {
	for k, w := range r.windows {
		if now.Sub(w.start) >= r.period {
			delete(r.windows, k)
		}
	}
}

// RateLimit limits by authenticated employee when AuthRequired has already
// run on the chain, by client IP otherwise.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := GetEmail(c)
		if key == "" {
			key = c.ClientIP()
		}
		if !limiter.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
