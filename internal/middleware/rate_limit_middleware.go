package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fittrack/internal/utils"
	"fittrack/pkg/cache"
)

// RateLimitMiddleware enforces a fixed-window per-client request limit
// backed by redis, keyed by client IP.
func RateLimitMiddleware(redis *cache.RedisCache, perMinute int) gin.HandlerFunc {
	window := time.Minute

	return func(c *gin.Context) {
		key := utils.CacheRateLimitPrefix + c.ClientIP()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := redis.Increment(ctx, key)
		if err != nil {
			// Fail open when redis is unavailable.
			c.Next()
			return
		}
		if count == 1 {
			_ = redis.SetExpire(ctx, key, window)
		}

		remaining := int64(perMinute) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(perMinute))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(perMinute) {
			if ttl, err := redis.GetTTL(ctx, key); err == nil && ttl > 0 {
				c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			}
			utils.ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
			c.Abort()
			return
		}

		c.Next()
	}
}
