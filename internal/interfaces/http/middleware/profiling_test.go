package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestProfilingWithConfig_LabelsRequest(t *testing.T) {
	router := gin.New()
	router.Use(withActor(identity.RoleRestaurantOwner), Profiling())

	got := map[string]string{}
	router.PATCH("/api/v1/orders/:id/status", func(c *gin.Context) {
		pprof.ForLabels(c.Request.Context(), func(k, v string) bool {
			got[k] = v
			return true
		})
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/api/v1/orders/7/status", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{
		"controller": "orders",
		"method":     "PATCH",
		"route":      "/api/v1/orders/:id/status",
		"role":       "restaurant_owner",
	}, got)
}

func TestProfilingWithConfig_SkipsAndDisabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  ProfilingConfig
		path string
	}{
		{"disabled", ProfilingConfig{Enabled: false}, "/api/v1/orders"},
		{"skip path", DefaultProfilingConfig(), "/health"},
		{"skip prefix", DefaultProfilingConfig(), "/swagger/index.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(ProfilingWithConfig(tt.cfg))

			labelled := false
			router.GET(tt.path, func(c *gin.Context) {
				pprof.ForLabels(c.Request.Context(), func(string, string) bool {
					labelled = true
					return false
				})
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.False(t, labelled)
		})
	}
}

func TestControllerFromRoute(t *testing.T) {
	tests := map[string]string{
		"/api/v1/orders/:id/claim":     "orders",
		"/api/v1/restaurants/:id/menu": "restaurants",
		"/api/v2/menu-items/:id":       "menu-items",
		"/health":                      "health",
		"/api/v1/:param":               "",
		"":                             "",
	}
	for route, want := range tests {
		assert.Equal(t, want, controllerFromRoute(route), route)
	}
}
