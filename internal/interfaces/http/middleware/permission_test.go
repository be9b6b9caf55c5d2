package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

// withActor stands in for the JWT middleware
func withActor(role identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if role != "" {
			c.Set(ActorKey, identity.Actor{UserID: uuid.New(), Role: role})
		}
		c.Next()
	}
}

func runGuarded(role identity.Role, guard gin.HandlerFunc) (int, bool) {
	called := false
	router := gin.New()
	router.Use(withActor(role))
	router.GET("/x", guard, func(c *gin.Context) {
		called = true
		c.Status(http.StatusOK)
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	return w.Code, called
}

var (
	allResources = []identity.Resource{
		identity.ResourceUsers, identity.ResourceRestaurants, identity.ResourceMenu, identity.ResourceOrders,
		identity.ResourcePayments, identity.ResourceReviews, identity.ResourceBatches, identity.ResourceAudit,
	}
	allActions = []identity.Action{
		identity.ActionCreate, identity.ActionRead, identity.ActionUpdate,
		identity.ActionDelete, identity.ActionClaim, identity.ActionUpload,
	}
)

func TestGuard_DefaultDenyMatchesAllowList(t *testing.T) {
	for _, role := range identity.AllRoles {
		for _, res := range allResources {
			for _, act := range allActions {
				perm := identity.NewPermission(res, act)
				code, called := runGuarded(role, Guard(GuardConfig{Permission: perm.String()}))
				if identity.Allows(role, perm) {
					assert.Equal(t, http.StatusOK, code, "%s %s", role, perm)
					assert.True(t, called)
				} else {
					assert.Equal(t, http.StatusForbidden, code, "%s %s", role, perm)
					assert.False(t, called, "%s %s reached the handler", role, perm)
				}
			}
		}
	}
}

func TestGuard_KnownDecisions(t *testing.T) {
	tests := []struct {
		role identity.Role
		perm string
		want int
	}{
		{identity.RoleCustomer, "orders:create", http.StatusOK},
		{identity.RoleCustomer, "orders:claim", http.StatusForbidden},
		{identity.RoleCustomer, "audit:read", http.StatusForbidden},
		{identity.RoleDeliveryGuy, "orders:claim", http.StatusOK},
		{identity.RoleDeliveryGuy, "menu:create", http.StatusForbidden},
		{identity.RoleRestaurantOwner, "menu:upload", http.StatusOK},
		{identity.RoleRestaurantOwner, "users:read", http.StatusForbidden},
		// level does not imply permission
		{identity.RoleAdmin, "orders:create", http.StatusForbidden},
		{identity.RoleAdmin, "audit:read", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %s", tt.role, tt.perm), func(t *testing.T) {
			code, _ := runGuarded(tt.role, Guard(GuardConfig{Permission: tt.perm}))
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestGuard_EdgeCases(t *testing.T) {
	t.Run("no actor", func(t *testing.T) {
		code, called := runGuarded("", Guard(GuardConfig{Permission: "restaurants:read"}))
		assert.Equal(t, http.StatusForbidden, code)
		assert.False(t, called)
	})

	t.Run("nothing declared denies", func(t *testing.T) {
		code, _ := runGuarded(identity.RoleAdmin, Guard(GuardConfig{}))
		assert.Equal(t, http.StatusForbidden, code)
	})

	t.Run("malformed permission denies", func(t *testing.T) {
		code, _ := runGuarded(identity.RoleAdmin, Guard(GuardConfig{Permission: "audit"}))
		assert.Equal(t, http.StatusForbidden, code)
	})

	t.Run("roles and permission both apply", func(t *testing.T) {
		g := Guard(GuardConfig{Roles: []identity.Role{identity.RoleDeliveryGuy}, Permission: "orders:update"})
		code, _ := runGuarded(identity.RoleDeliveryGuy, g)
		assert.Equal(t, http.StatusOK, code)
		code, _ = runGuarded(identity.RoleRestaurantOwner, g)
		assert.Equal(t, http.StatusForbidden, code)
	})

	t.Run("roles only", func(t *testing.T) {
		g := Guard(GuardConfig{Roles: []identity.Role{identity.RoleAdmin}, Logger: zaptest.NewLogger(t)})
		code, _ := runGuarded(identity.RoleAdmin, g)
		assert.Equal(t, http.StatusOK, code)
		code, _ = runGuarded(identity.RoleCustomer, g)
		assert.Equal(t, http.StatusForbidden, code)
	})
}

func TestGuard_DenialEnvelope(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), withActor(identity.RoleCustomer))
	router.POST("/api/v1/restaurants/:id/menu", Guard(GuardConfig{Permission: "menu:create"}), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/restaurants/r1/menu", nil)
	req.Header.Set(RequestIDHeader, "menu-req-7")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	info := decodeError(t, w)
	assert.Equal(t, dto.ErrCodeForbidden, info.Code)
	assert.Equal(t, "menu-req-7", info.RequestID)
}
