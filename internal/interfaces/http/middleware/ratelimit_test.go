package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, limit int, window time.Duration) *RateLimiter {
	t.Helper()
	l := NewRateLimiter(limit, window)
	t.Cleanup(l.Stop)
	return l
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests within limit", func(t *testing.T) {
		limiter := newLimiter(t, 5, time.Minute)
		for i := range 5 {
			assert.True(t, limiter.Allow("client1"), "request %d should be allowed", i+1)
		}
	})

	t.Run("blocks requests exceeding limit", func(t *testing.T) {
		limiter := newLimiter(t, 3, time.Minute)
		for range 3 {
			assert.True(t, limiter.Allow("client2"))
		}
		assert.False(t, limiter.Allow("client2"))
	})

	t.Run("separate limits per client", func(t *testing.T) {
		limiter := newLimiter(t, 2, time.Minute)
		assert.True(t, limiter.Allow("clientA"))
		assert.True(t, limiter.Allow("clientA"))
		assert.False(t, limiter.Allow("clientA"))
		assert.True(t, limiter.Allow("clientB"))
	})

	t.Run("resets after window", func(t *testing.T) {
		limiter := newLimiter(t, 2, 50*time.Millisecond)
		assert.True(t, limiter.Allow("client3"))
		assert.True(t, limiter.Allow("client3"))
		assert.False(t, limiter.Allow("client3"))

		time.Sleep(60 * time.Millisecond)
		assert.True(t, limiter.Allow("client3"))
	})

	t.Run("remaining returns correct count", func(t *testing.T) {
		limiter := newLimiter(t, 5, time.Minute)
		assert.Equal(t, 5, limiter.Remaining("newclient"))
		limiter.Allow("newclient")
		limiter.Allow("newclient")
		assert.Equal(t, 3, limiter.Remaining("newclient"))
	})

	t.Run("concurrent access is safe", func(t *testing.T) {
		limiter := newLimiter(t, 100, time.Minute)
		var wg sync.WaitGroup
		var allowed atomic.Int32
		for range 150 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Allow("shared") {
					allowed.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(100), allowed.Load())
	})
}

func serve(router *gin.Engine, method, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("returns 429 with envelope when limit exceeded", func(t *testing.T) {
		router := gin.New()
		router.Use(RateLimit(newLimiter(t, 2, time.Minute)))
		router.GET("/api/v1/restaurants", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

		for range 2 {
			assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/v1/restaurants", "").Code)
		}
		w := serve(router, http.MethodGet, "/api/v1/restaurants", "")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"RATE_LIMITED"`)
		assert.Equal(t, "60", w.Header().Get("Retry-After"))
	})

	t.Run("keys by user once authenticated", func(t *testing.T) {
		router := gin.New()
		router.Use(func(c *gin.Context) {
			if u := c.GetHeader("X-Test-User"); u != "" {
				c.Set(ActorKey, identity.Actor{UserID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(u)), Role: identity.RoleCustomer})
			}
			c.Next()
		})
		router.Use(RateLimit(newLimiter(t, 1, time.Minute)))
		router.GET("/orders", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

		do := func(user string) int {
			req := httptest.NewRequest(http.MethodGet, "/orders", nil)
			req.Header.Set("X-Test-User", user)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			return w.Code
		}
		assert.Equal(t, http.StatusOK, do("u1"))
		assert.Equal(t, http.StatusTooManyRequests, do("u1"))
		assert.Equal(t, http.StatusOK, do("u2"))
	})
}

func TestRateLimitByKey(t *testing.T) {
	router := gin.New()
	router.Use(RateLimitByKey(newLimiter(t, 1, time.Minute), func(c *gin.Context) string {
		return c.Param("batchNumber")
	}))
	router.GET("/track/:batchNumber", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/track/FOT-1", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(router, http.MethodGet, "/track/FOT-1", "").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/track/FOT-2", "").Code)
}

func TestAuthRateLimit(t *testing.T) {
	t.Run("limits per IP with auth message", func(t *testing.T) {
		router := gin.New()
		router.Use(AuthRateLimit(newLimiter(t, 2, time.Minute)))
		router.POST("/login", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"success": true}) })

		for range 2 {
			assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/login", "192.168.1.1:12345").Code)
		}
		w := serve(router, http.MethodPost, "/login", "192.168.1.1:12345")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "Too many authentication attempts")

		assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/login", "192.168.1.2:12345").Code)
	})

	t.Run("includes rate limit headers", func(t *testing.T) {
		router := gin.New()
		router.Use(AuthRateLimit(newLimiter(t, 5, time.Minute)))
		router.POST("/login", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"success": true}) })

		w := serve(router, http.MethodPost, "/login", "192.168.1.100:12345")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	})
}

func TestRedisRateLimiter_FailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRedisRateLimiter(client, "", 1, time.Minute)
	_, _, err := limiter.Take(t.Context(), "k")
	require.Error(t, err)

	router := gin.New()
	router.Use(RateLimit(limiter))
	router.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/x", "").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/x", "").Code)
}
