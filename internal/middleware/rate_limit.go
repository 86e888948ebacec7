package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pageza/alchemorsel-mealgen/backend/config"
)

// RateLimiter is a fixed-window request counter stored in Redis
type RateLimiter struct {
	redis  *redis.Client
	config config.RateLimitConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(redisClient *redis.Client, cfg config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		redis:  redisClient,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// RateLimitMiddleware limits requests per client IP. Redis errors let the request through.
func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		allowed, remaining, resetTime, err := rl.IsAllowed(c.Request.Context(), clientIP)
		if err != nil {
			rl.logger.Warn("rate limit check failed", zap.String("client_ip", clientIP), zap.Error(err))
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			retryAfter := int(resetTime.Sub(rl.now()).Seconds())
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":            "rate limit exceeded",
				"message":          fmt.Sprintf("You have exceeded the rate limit of %d meal generations per %v", rl.config.Limit, rl.config.Window),
				"rate_limit_reset": resetTime.Unix(),
				"retry_after":      retryAfter,
			})
			return
		}

		c.Next()
	}
}

// IsAllowed counts one request for client and reports whether it fits in the
// current window.
// Returns: allowed, remaining requests, reset time, error
func (rl *RateLimiter) IsAllowed(ctx context.Context, client string) (bool, int, time.Time, error) {
	windowStart := rl.now().Truncate(rl.config.Window)
	key := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, client, windowStart.Unix())

	pipe := rl.redis.TxPipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rl.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	count := int(incrCmd.Val())
	remaining := rl.config.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	return count <= rl.config.Limit, remaining, windowStart.Add(rl.config.Window), nil
}
