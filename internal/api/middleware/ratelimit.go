package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// RateLimit throttles verification triggers per authenticated user so a
// misbehaving dashboard cannot hammer the upstream resolvers.
//
// The limiter map grows with the number of distinct authenticated users
// and is never evicted; at a few bytes per user that is bounded by the
// user table. Revisit with an LRU if user counts reach the millions.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[uuid.UUID]*rate.Limiter)

	return func(c *gin.Context) {
		userID := c.MustGet("user_id").(uuid.UUID)

		mu.Lock()
		limiter, ok := limiters[userID]
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[userID] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many verification requests, slow down"})
			c.Abort()
			return
		}

		c.Next()
	}
}
