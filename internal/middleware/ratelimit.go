package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nikotrade/backend/internal/ratelimit"
)

const msgTooManyRequests = "Previse zahtjeva. Pokusajte ponovno malo kasnije."

// RateLimitByIP enforces a fixed window per client IP on one route. The key
// carries a scope prefix so different routes never share a budget.
func RateLimitByIP(limiter ratelimit.Limiter, scope string, rule ratelimit.Rule, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := limiter.Allow(c.Request.Context(), scope+":ip:"+c.ClientIP(), rule)
		if err != nil {
			// Limiter failures never take the route down.
			log.Warn("rate limit check failed",
				zap.String("scope", scope),
				zap.Error(err),
			)
			c.Next()
			return
		}

		if !result.Allowed {
			c.Header("Retry-After", strconv.Itoa(result.RetryAfterSeconds))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": msgTooManyRequests})
			c.Abort()
			return
		}

		c.Next()
	}
}
