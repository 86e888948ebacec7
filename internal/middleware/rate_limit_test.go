package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/alchemorsel-mealgen/backend/config"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/testhelpers"
)

func testRateLimitConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:   true,
		Window:    time.Hour,
		Limit:     2,
		KeyPrefix: "rate_limit:test",
	}
}

func TestRateLimiter(t *testing.T) {
	client := testhelpers.NewRedisClient(t)

	t.Run("should count requests in a fixed window", func(t *testing.T) {
		rl := NewRateLimiter(client, testRateLimitConfig(), nil)
		ctx := context.Background()

		allowed, remaining, reset, err := rl.IsAllowed(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 1, remaining)
		assert.True(t, reset.After(time.Now()))

		allowed, remaining, _, err = rl.IsAllowed(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 0, remaining)

		allowed, _, _, err = rl.IsAllowed(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.False(t, allowed)

		allowed, _, _, err = rl.IsAllowed(ctx, "10.0.0.2")
		require.NoError(t, err)
		assert.True(t, allowed, "clients are counted separately")
	})

	t.Run("should return 429 once the limit is reached", func(t *testing.T) {
		cfg := testRateLimitConfig()
		cfg.KeyPrefix = "rate_limit:http"
		rl := NewRateLimiter(client, cfg, nil)
		router := gin.New()
		router.POST("/generate", rl.RateLimitMiddleware(), func(c *gin.Context) {
			c.Status(http.StatusCreated)
		})

		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest("POST", "/generate", nil))
			codes = append(codes, rr.Code)
			if i == 2 {
				assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
				assert.NotEmpty(t, rr.Header().Get("Retry-After"))
				assert.Contains(t, rr.Body.String(), "rate limit exceeded")
			}
		}
		assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)
	})
}

func TestRateLimiterFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	rl := NewRateLimiter(client, testRateLimitConfig(), nil)
	router := gin.New()
	router.POST("/generate", rl.RateLimitMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/generate", nil))
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "rate limit check failed", rr.Header().Get("X-RateLimit-Error"))
}
