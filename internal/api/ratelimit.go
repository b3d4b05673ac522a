package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientLimiter applies a per-client-IP token bucket. Buckets refill at the
// configured per-minute rate with a burst of the same size.
type clientLimiter struct {
	mu        sync.Mutex
	clients   map[string]*rate.Limiter
	perMinute int
}

func newClientLimiter(perMinute int) *clientLimiter {
	return &clientLimiter{
		clients:   make(map[string]*rate.Limiter),
		perMinute: perMinute,
	}
}

func (l *clientLimiter) limiterFor(clientIP string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	limiter, ok := l.clients[clientIP]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)
		l.clients[clientIP] = limiter
	}
	return limiter
}

// RateLimitMiddleware rejects requests above the per-client ceiling with 429.
func RateLimitMiddleware(perMinute int) gin.HandlerFunc {
	limiter := newClientLimiter(perMinute)
	return func(c *gin.Context) {
		if !limiter.limiterFor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
