package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(3, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Allow("jane.doe@lizza.com") {
			t.Fatalf("request %d denied inside the budget", i+1)
		}
	}
	if l.Allow("jane.doe@lizza.com") {
		t.Error("4th request allowed inside the window")
	}

	// A different subject has its own budget.
	if !l.Allow("john.roe@lizza.com") {
		t.Error("independent key denied")
	}

	// The window rolls and the budget resets.
	now = now.Add(time.Minute)
	if !l.Allow("jane.doe@lizza.com") {
		t.Error("request denied after the window rolled")
	}
}

func TestRateLimiterSweepsStaleKeys(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(10, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 50; i++ {
		l.Allow(string(rune('a' + i%26)))
	}
	now = now.Add(2 * time.Minute)
	l.Allow("fresh")

	l.mu.Lock()
	n := len(l.windows)
	l.mu.Unlock()
	if n != 1 {
		t.Errorf("windows map holds %d entries after sweep, want 1", n)
	}
}

func TestRateLimitKeysOnEmployee(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := NewRateLimiter(1, time.Minute)
	r := gin.New()
	r.POST("/ping", func(c *gin.Context) {
		// Stands in for AuthRequired ahead of the limiter on the chain.
		c.Set("email", c.GetHeader("X-Test-Email"))
	}, RateLimit(l), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(email string) int {
		req := httptest.NewRequest(http.MethodPost, "/ping", nil)
		req.Header.Set("X-Test-Email", email)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := send("jane.doe@lizza.com"); code != http.StatusOK {
		t.Fatalf("first ping = %d", code)
	}
	if code := send("jane.doe@lizza.com"); code != http.StatusTooManyRequests {
		t.Errorf("second ping = %d, want 429", code)
	}
	// Same client IP, different employee: not throttled.
	if code := send("john.roe@lizza.com"); code != http.StatusOK {
		t.Errorf("other employee = %d, want 200", code)
	}
}

func TestRateLimitFallsBackToClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := NewRateLimiter(1, time.Minute)
	r := gin.New()
	r.POST("/login", RateLimit(l), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.7:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	if code := send(); code != http.StatusOK {
		t.Fatalf("first request = %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Errorf("second request = %d, want 429", code)
	}
}
