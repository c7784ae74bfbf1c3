package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Per-IP rate limiters
var (
	ipLimiters = make(map[string]*rate.Limiter)
	limitersMu sync.RWMutex
)

func getIPLimiter(ip string) *rate.Limiter {
	limitersMu.RLock()
	limiter, exists := ipLimiters[ip]
	limitersMu.RUnlock()

	if exists {
		return limiter
	}

	limitersMu.Lock()
	defer limitersMu.Unlock()

	// Check again in case another goroutine created it
	if limiter, exists := ipLimiters[ip]; exists {
		return limiter
	}

	// 10 req/s per IP, burst 20: generous for a single-operator dashboard
	limiter = rate.NewLimiter(rate.Limit(10), 20)
	ipLimiters[ip] = limiter
	return limiter
}

// Reset the limiter map periodically so idle IPs do not accumulate.
func init() {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			limitersMu.Lock()
			ipLimiters = make(map[string]*rate.Limiter)
			limitersMu.Unlock()
		}
	}()
}

// RateLimitMiddleware rejects clients that exceed the per-IP budget.
func RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !getIPLimiter(ip).Allow() {
			log.Printf("api: rate limit exceeded for %s", ip)
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequestLogger logs every request with timing and status.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		log.Printf("api: %s %s | %d | %v | %s",
			method, path, c.Writer.Status(), time.Since(start), c.ClientIP())
	}
}
