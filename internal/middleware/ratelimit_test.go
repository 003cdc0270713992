package middleware

import (
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withUser(id uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextUserID, id)
		c.Next()
	}
}

func TestRateLimiter(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	limiter := NewRecipeCreationRateLimiter(client, 2)

	first := newRouter(withUser(1), limiter.Middleware())
	w := doRequest(first, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))

	w = doRequest(first, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = doRequest(first, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"TOO_MANY_REQUESTS"`)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// counters are per user
	second := newRouter(withUser(2), limiter.Middleware())
	w = doRequest(second, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiterRedisUnavailable(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr(), MaxRetries: -1})
	defer client.Close()
	server.Close()

	router := newRouter(withUser(1), NewRecipeCreationRateLimiter(client, 1).Middleware())
	w := doRequest(router, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rate limit check failed", w.Header().Get("X-RateLimit-Error"))
}

func TestRateLimiterRequiresUser(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	router := newRouter(NewRecipeCreationRateLimiter(client, 1).Middleware())
	w := doRequest(router, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
