package router

import (
	"net/http"
	"strings"

	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/interfaces/http/handler"
	"github.com/foodontracks/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Access levels that are not resource:action permissions
const (
	Public        = ""
	Authenticated = "authenticated"
)

// Route is one row of the API table. Path is relative to the API base path.
type Route struct {
	Method     string
	Path       string
	Permission string
	Handler    gin.HandlerFunc
	// Credential routes are additionally throttled per client IP
	Credential bool
}

// Handlers groups the handlers mounted under the API base path
type Handlers struct {
	Auth        *handler.AuthHandler
	Users       *handler.UserHandler
	Restaurants *handler.RestaurantHandler
	Menu        *handler.MenuHandler
	Orders      *handler.OrderHandler
	Reviews     *handler.ReviewHandler
	Batches     *handler.BatchHandler
	Audit       *handler.AuditHandler
}

// Routes returns the full API table
func (h Handlers) Routes() []Route {
	return []Route{
		{Method: http.MethodPost, Path: "/auth/signup", Permission: Public, Handler: h.Auth.Signup, Credential: true},
		{Method: http.MethodPost, Path: "/auth/login", Permission: Public, Handler: h.Auth.Login, Credential: true},
		{Method: http.MethodPost, Path: "/auth/refresh", Permission: Public, Handler: h.Auth.Refresh, Credential: true},
		{Method: http.MethodPost, Path: "/auth/logout", Permission: Authenticated, Handler: h.Auth.Logout},
		{Method: http.MethodGet, Path: "/auth/me", Permission: Authenticated, Handler: h.Auth.Me},

		{Method: http.MethodGet, Path: "/users", Permission: "users:read", Handler: h.Users.ListUsers},
		{Method: http.MethodPatch, Path: "/users/:id/active", Permission: "users:update", Handler: h.Users.SetActive},

		{Method: http.MethodGet, Path: "/restaurants", Permission: "restaurants:read", Handler: h.Restaurants.List},
		{Method: http.MethodPost, Path: "/restaurants", Permission: "restaurants:create", Handler: h.Restaurants.Create},
		{Method: http.MethodGet, Path: "/restaurants/:id", Permission: "restaurants:read", Handler: h.Restaurants.Get},
		{Method: http.MethodPut, Path: "/restaurants/:id", Permission: "restaurants:update", Handler: h.Restaurants.Update},
		{Method: http.MethodDelete, Path: "/restaurants/:id", Permission: "restaurants:delete", Handler: h.Restaurants.Delete},
		{Method: http.MethodGet, Path: "/restaurants/:id/menu", Permission: "menu:read", Handler: h.Menu.ListMenu},
		{Method: http.MethodPost, Path: "/restaurants/:id/menu", Permission: "menu:create", Handler: h.Menu.CreateItem},
		{Method: http.MethodGet, Path: "/restaurants/:id/reviews", Permission: "reviews:read", Handler: h.Reviews.ListByRestaurant},

		{Method: http.MethodGet, Path: "/menu-items/:id", Permission: "menu:read", Handler: h.Menu.GetItem},
		{Method: http.MethodPut, Path: "/menu-items/:id", Permission: "menu:update", Handler: h.Menu.UpdateItem},
		{Method: http.MethodPatch, Path: "/menu-items/:id/stock", Permission: "menu:update", Handler: h.Menu.Restock},
		{Method: http.MethodDelete, Path: "/menu-items/:id", Permission: "menu:delete", Handler: h.Menu.DeleteItem},
		{Method: http.MethodPost, Path: "/menu-items/:id/image-upload-url", Permission: "menu:upload", Handler: h.Menu.ImageUploadURL},

		{Method: http.MethodPost, Path: "/orders", Permission: "orders:create", Handler: h.Orders.Place},
		{Method: http.MethodGet, Path: "/orders", Permission: "orders:read", Handler: h.Orders.List},
		{Method: http.MethodGet, Path: "/orders/claimable", Permission: "orders:claim", Handler: h.Orders.ListClaimable},
		{Method: http.MethodGet, Path: "/orders/:id", Permission: "orders:read", Handler: h.Orders.Get},
		{Method: http.MethodPatch, Path: "/orders/:id/status", Permission: "orders:update", Handler: h.Orders.UpdateStatus},
		{Method: http.MethodPost, Path: "/orders/:id/claim", Permission: "orders:claim", Handler: h.Orders.Claim},
		{Method: http.MethodGet, Path: "/orders/:id/payment", Permission: "payments:read", Handler: h.Orders.GetPayment},

		{Method: http.MethodPost, Path: "/reviews", Permission: "reviews:create", Handler: h.Reviews.Create},
		{Method: http.MethodDelete, Path: "/reviews/:id", Permission: "reviews:delete", Handler: h.Reviews.Delete},

		{Method: http.MethodPost, Path: "/batches", Permission: "batches:create", Handler: h.Batches.Create},
		{Method: http.MethodGet, Path: "/batches/mine", Permission: "batches:read", Handler: h.Batches.Mine},
		{Method: http.MethodGet, Path: "/batches/:id", Permission: "batches:read", Handler: h.Batches.Get},
		{Method: http.MethodPatch, Path: "/batches/:id/status", Permission: "batches:update", Handler: h.Batches.UpdateStatus},

		{Method: http.MethodGet, Path: "/track/:batchNumber", Permission: Public, Handler: h.Batches.Track},

		{Method: http.MethodGet, Path: "/audit/:entityType/:id", Permission: "audit:read", Handler: h.Audit.List},
	}
}

// APIConfig carries the middleware placed in front of table routes
type APIConfig struct {
	// Authenticate resolves the actor; it runs on every non-public route
	Authenticate gin.HandlerFunc
	// CredentialLimit throttles signup, login and refresh; optional
	CredentialLimit gin.HandlerFunc
	// RequestLimit runs after Authenticate so callers are limited per user
	// and anonymous requests per IP; optional
	RequestLimit gin.HandlerFunc
	Logger       *zap.Logger
}

func chain(rt Route, cfg APIConfig) []gin.HandlerFunc {
	var handlers []gin.HandlerFunc
	if rt.Credential && cfg.CredentialLimit != nil {
		handlers = append(handlers, cfg.CredentialLimit)
	}
	if rt.Permission != Public {
		handlers = append(handlers, cfg.Authenticate)
	}
	if cfg.RequestLimit != nil {
		handlers = append(handlers, cfg.RequestLimit)
	}
	switch rt.Permission {
	case Public:
	case Authenticated:
		handlers = append(handlers, middleware.Guard(middleware.GuardConfig{Roles: identity.AllRoles, Logger: cfg.Logger}))
	default:
		handlers = append(handlers, middleware.Guard(middleware.GuardConfig{Permission: rt.Permission, Logger: cfg.Logger}))
	}
	return append(handlers, rt.Handler)
}

// splitPrefix turns /orders/:id/claim into ("orders", "/:id/claim")
func splitPrefix(path string) (string, string) {
	name, rest, found := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if !found {
		return name, ""
	}
	return name, "/" + rest
}
