package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/foodontracks/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter decides whether a keyed request fits in the current window
type Limiter interface {
	Take(ctx context.Context, key string) (allowed bool, remaining int, err error)
	Limit() int
	Window() time.Duration
}

// RateLimiter implements a fixed-window in-memory rate limiter
type RateLimiter struct {
	mu          sync.Mutex
	clients     map[string]*client
	limit       int           // Maximum requests per window
	window      time.Duration // Time window
	cleanupTick time.Duration // Cleanup interval
	stop        chan struct{}
	stopOnce    sync.Once
}

type client struct {
	tokens    int
	lastReset time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients:     make(map[string]*client),
		limit:       limit,
		window:      window,
		cleanupTick: window * 2,
		stop:        make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// cleanup removes expired clients periodically
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.cleanupTick)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := time.Now()
			for key, c := range rl.clients {
				if now.Sub(c.lastReset) > rl.window*2 {
					delete(rl.clients, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Stop ends the cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Allow checks if a request from the given key should be allowed
func (rl *RateLimiter) Allow(key string) bool {
	allowed, _, _ := rl.Take(context.Background(), key)
	return allowed
}

// Take consumes one token for key
func (rl *RateLimiter) Take(_ context.Context, key string) (bool, int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	c, exists := rl.clients[key]

	if !exists || now.Sub(c.lastReset) >= rl.window {
		rl.clients[key] = &client{tokens: rl.limit - 1, lastReset: now}
		return true, rl.limit - 1, nil
	}

	if c.tokens > 0 {
		c.tokens--
		return true, c.tokens, nil
	}

	return false, 0, nil
}

// Remaining returns the number of remaining requests for the given key
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, exists := rl.clients[key]
	if !exists || time.Since(c.lastReset) >= rl.window {
		return rl.limit
	}
	return c.tokens
}

// Limit returns the per-window request budget
func (rl *RateLimiter) Limit() int { return rl.limit }

// Window returns the window length
func (rl *RateLimiter) Window() time.Duration { return rl.window }

// RedisRateLimiter is a fixed-window limiter shared between instances.
// Each window is one INCR counter that expires with the window.
type RedisRateLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewRedisRateLimiter creates a Redis-backed limiter
func NewRedisRateLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisRateLimiter {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisRateLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

// Take consumes one token for key
func (rl *RedisRateLimiter) Take(ctx context.Context, key string) (bool, int, error) {
	bucket := time.Now().UnixNano() / int64(rl.window)
	redisKey := fmt.Sprintf("%s%s:%d", rl.prefix, key, bucket)

	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("rate limit %s: %w", key, err)
	}

	count := int(incr.Val())
	if count > rl.limit {
		return false, 0, nil
	}
	return true, rl.limit - count, nil
}

// Limit returns the per-window request budget
func (rl *RedisRateLimiter) Limit() int { return rl.limit }

// Window returns the window length
func (rl *RedisRateLimiter) Window() time.Duration { return rl.window }

// RateLimitConfig configures the rate limit middleware
type RateLimitConfig struct {
	Limiter Limiter
	KeyFunc func(*gin.Context) string
	// Code and Message are written on rejection
	Code    string
	Message string
	Logger  *zap.Logger
}

// RateLimit limits requests per client IP, or per user once authenticated
func RateLimit(limiter Limiter) gin.HandlerFunc {
	return RateLimitWithConfig(RateLimitConfig{
		Limiter: limiter,
		KeyFunc: func(c *gin.Context) string {
			if actor, ok := GetActor(c); ok {
				return "user:" + actor.UserID.String()
			}
			return "ip:" + c.ClientIP()
		},
	})
}

// RateLimitByKey returns a rate limiting middleware with custom key extractor
func RateLimitByKey(limiter Limiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return RateLimitWithConfig(RateLimitConfig{Limiter: limiter, KeyFunc: keyFunc})
}

// AuthRateLimit limits credential endpoints per client IP under a separate key space
func AuthRateLimit(limiter Limiter) gin.HandlerFunc {
	return RateLimitWithConfig(RateLimitConfig{
		Limiter: limiter,
		KeyFunc: func(c *gin.Context) string { return "auth:" + c.ClientIP() },
		Message: "Too many authentication attempts. Please try again later.",
	})
}

// RateLimitWithConfig is the shared implementation. Limiter errors fail open.
func RateLimitWithConfig(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Code == "" {
		cfg.Code = dto.ErrCodeRateLimited
	}
	if cfg.Message == "" {
		cfg.Message = "Too many requests. Please try again later."
	}

	return func(c *gin.Context) {
		key := cfg.KeyFunc(c)

		allowed, remaining, err := cfg.Limiter.Take(c.Request.Context(), key)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("Rate limiter unavailable", zap.String("key", key), zap.Error(err))
			}
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(cfg.Limiter.Window().Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				dto.NewErrorResponseWithRequestID(cfg.Code, cfg.Message, GetRequestID(c)))
			return
		}

		c.Next()
	}
}
