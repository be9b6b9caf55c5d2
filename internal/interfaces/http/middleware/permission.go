package middleware

import (
	"net/http"
	"slices"

	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GuardConfig declares what a route requires. Both checks apply when both
// are set.
type GuardConfig struct {
	Roles      []identity.Role
	Permission string
	Logger     *zap.Logger
}

// Guard authorizes the actor set by Authenticate against the route's
// declaration. Default deny: a guard declaring neither roles nor a
// permission, or a permission that does not parse, rejects everyone.
func Guard(cfg GuardConfig) gin.HandlerFunc {
	var perm *identity.Permission
	if p, err := identity.ParsePermission(cfg.Permission); err == nil {
		perm = &p
	}
	required := make([]string, 0, len(cfg.Roles)+1)
	if cfg.Permission != "" {
		required = append(required, cfg.Permission)
	}
	for _, r := range cfg.Roles {
		required = append(required, "role:"+r.String())
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		var reason string
		switch {
		case !ok:
			reason = "no authenticated actor"
		case len(cfg.Roles) == 0 && cfg.Permission == "":
			reason = "route declares no permission"
		case len(cfg.Roles) > 0 && !slices.Contains(cfg.Roles, actor.Role):
			reason = "role not admitted"
		case cfg.Permission != "" && (perm == nil || !actor.Can(*perm)):
			reason = "role lacks permission"
		default:
			c.Next()
			return
		}

		log.Warn("Permission denied",
			zap.String("reason", reason),
			zap.String("user_id", actor.UserID.String()),
			zap.String("role", actor.Role.String()),
			zap.Strings("required", required),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()))
		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeForbidden, "Access denied: insufficient permissions", GetRequestID(c)))
	}
}
