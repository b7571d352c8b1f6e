package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/readshelf/backend/internal/apperrors"
	"github.com/emilythestrangee/readshelf/backend/internal/ratelimit"
)

// RateLimit rejects requests once the client IP has used up its bucket.
func RateLimit(limiter *ratelimit.KeyedRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			_ = c.Error(apperrors.ErrRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}
