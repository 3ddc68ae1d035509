package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jinsuh/supplyhub/internal/cache"
	"github.com/jinsuh/supplyhub/pkg/errors"
	"github.com/jinsuh/supplyhub/pkg/response"
)

// RateLimit limits requests per (clientIP, path) within a fixed window. The
// counters live in the shared ephemeral store, so the limit holds across
// instances when Redis backs it. A store failure fails open: throttling is
// never worth taking the API down for.
func RateLimit(store cache.Store, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || maxRequests <= 0 || window <= 0 {
			c.Next()
			return
		}

		key := "ratelimit:" + c.ClientIP() + "|" + c.FullPath()
		count, remaining, err := store.IncrementWithTTL(c.Request.Context(), key, window)
		if err != nil {
			c.Next()
			return
		}

		left := int64(maxRequests) - count
		if left < 0 {
			left = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(left, 10))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(remaining.Seconds())))

		if count > int64(maxRequests) {
			response.Error(c, errors.ErrRateLimit)
			c.Abort()
			return
		}

		c.Next()
	}
}
