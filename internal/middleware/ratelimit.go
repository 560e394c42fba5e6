package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter implements a simple in-memory token bucket rate limiter
type RateLimiter struct {
	tokens    map[string]*tokenBucket
	mu        sync.RWMutex
	rate      int           // tokens per window
	window    time.Duration // time window
	maxTokens int           // bucket size
}

type tokenBucket struct {
	tokens     int
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a new rate limiter
// rate: number of requests allowed per window
// window: time window (e.g., 1 minute)
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		tokens:    make(map[string]*tokenBucket),
		rate:      rate,
		window:    window,
		maxTokens: rate,
	}

	// Start cleanup goroutine
	go rl.cleanup()

	return rl
}

// Allow checks if a request is allowed for the given key (IP, API key, etc.)
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.RLock()
	bucket, exists := rl.tokens[key]
	rl.mu.RUnlock()

	if !exists {
		bucket = &tokenBucket{
			tokens:     rl.maxTokens,
			lastRefill: time.Now(),
		}
		rl.mu.Lock()
		rl.tokens[key] = bucket
		rl.mu.Unlock()
	}

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	// Refill tokens based on time passed
	now := time.Now()
	elapsed := now.Sub(bucket.lastRefill)
	refillTokens := int(elapsed / rl.window * time.Duration(rl.rate))

	if refillTokens > 0 {
		bucket.tokens = min(bucket.tokens+refillTokens, rl.maxTokens)
		bucket.lastRefill = now
	}

	if bucket.tokens > 0 {
		bucket.tokens--
		return true
	}

	return false
}

// cleanup drops buckets that have been idle long enough to be fully
// refilled anyway.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		for key, bucket := range rl.tokens {
			bucket.mu.Lock()
			idle := time.Since(bucket.lastRefill)
			bucket.mu.Unlock()
			if idle > 2*rl.window {
				delete(rl.tokens, key)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimitMiddleware limits requests per client IP.
func RateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
