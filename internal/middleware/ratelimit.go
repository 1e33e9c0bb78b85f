package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openroad/api/internal/helpers"
)

// slidingWindow tracks request timestamps for one client.
type slidingWindow struct {
	requests []time.Time
}

// RateLimiter is a per-client sliding window limiter for the abuse-prone
// public endpoints (booking creation, fraud check, contact form).
type RateLimiter struct {
	window      time.Duration
	maxRequests int

	mu      sync.Mutex
	clients map[string]*slidingWindow

	now func() time.Time
}

func NewRateLimiter(window time.Duration, maxRequests int) *RateLimiter {
	return &RateLimiter{
		window:      window,
		maxRequests: maxRequests,
		clients:     make(map[string]*slidingWindow),
		now:         time.Now,
	}
}

// Allow reports whether the client may proceed. When denied it also returns
// the number of seconds until the oldest request leaves the window.
func (rl *RateLimiter) Allow(clientKey string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.window)

	sw, ok := rl.clients[clientKey]
	if !ok {
		sw = &slidingWindow{}
		rl.clients[clientKey] = sw
	}

	// Drop requests that left the window
	valid := sw.requests[:0]
	for _, reqTime := range sw.requests {
		if reqTime.After(windowStart) {
			valid = append(valid, reqTime)
		}
	}
	sw.requests = valid

	if len(sw.requests) < rl.maxRequests {
		sw.requests = append(sw.requests, now)
		return true, 0
	}

	retryAfter := int(sw.requests[0].Sub(windowStart).Seconds()) + 1
	return false, retryAfter
}

// Middleware returns the gin handler enforcing the limit per client IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter := rl.Allow(c.ClientIP())
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.JSON(http.StatusTooManyRequests, helpers.ErrorResponse("too many requests, slow down"))
			c.Abort()
			return
		}
		c.Next()
	}
}
