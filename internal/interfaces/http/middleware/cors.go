package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/foodontracks/backend/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
)

// CORSConfig controls which browser origins may call the API. The web
// client authenticates with cookies, so listed origins receive
// Access-Control-Allow-Credentials.
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig allows no origins until http.cors_allow_origins is set
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Request-ID", "Idempotency-Key", "Accept", "Origin", "Cache-Control"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// CORSConfigFromHTTP overlays the http config section on the defaults
func CORSConfigFromHTTP(cfg config.HTTPConfig) CORSConfig {
	out := DefaultCORSConfig()
	out.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		out.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		out.AllowHeaders = cfg.CORSAllowHeaders
	}
	return out
}

// CORSWithConfig writes CORS headers for allowed origins only. Preflight
// requests are always answered with 204 so they never reach the router.
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	policy := newOriginPolicy(cfg.AllowOrigins)
	shared := cfg.sharedHeaders()

	return func(c *gin.Context) {
		if origin, ok := policy.match(c.GetHeader("Origin")); ok {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				h.Add("Vary", "Origin")
				// browsers reject credentials on a wildcard origin
				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}
			for _, kv := range shared {
				h.Set(kv[0], kv[1])
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (cfg CORSConfig) sharedHeaders() [][2]string {
	out := [][2]string{
		{"Access-Control-Allow-Methods", strings.Join(cfg.AllowMethods, ", ")},
		{"Access-Control-Allow-Headers", strings.Join(cfg.AllowHeaders, ", ")},
	}
	if len(cfg.ExposeHeaders) > 0 {
		out = append(out, [2]string{"Access-Control-Expose-Headers", strings.Join(cfg.ExposeHeaders, ", ")})
	}
	if cfg.MaxAge > 0 {
		out = append(out, [2]string{"Access-Control-Max-Age", strconv.Itoa(int(cfg.MaxAge / time.Second))})
	}
	return out
}

type originPolicy struct {
	wildcard bool
	allowed  map[string]struct{}
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{allowed: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		if o == "*" {
			p.wildcard = true
			continue
		}
		p.allowed[strings.TrimSuffix(o, "/")] = struct{}{}
	}
	return p
}

// match returns the value for Access-Control-Allow-Origin
func (p originPolicy) match(origin string) (string, bool) {
	if p.wildcard {
		return "*", true
	}
	if origin == "" {
		return "", false
	}
	_, ok := p.allowed[origin]
	return origin, ok
}
