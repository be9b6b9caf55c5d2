package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/infrastructure/auth"
	"github.com/foodontracks/backend/internal/infrastructure/logger"
	"github.com/foodontracks/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ClaimsKey = "auth_claims"
	ActorKey  = "auth_actor"

	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
	// AccessTokenName is the cookie browsers send instead of the header
	AccessTokenName = "accessToken"
)

// AuthConfig wires Authenticate
type AuthConfig struct {
	Tokens *auth.JWTService
	// Revocations rejects logged-out tokens and deactivated users when set.
	// A failing store lets the request through.
	Revocations auth.RevocationStore
	Logger      *zap.Logger
}

var errMissingCredential = errors.New("missing credential")

// Authenticate resolves the caller from the bearer header or the access
// token cookie and stores the actor on both the gin and request contexts.
// The router attaches it to non-public routes only.
func Authenticate(cfg AuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		token, reason := bearerToken(c)
		if token == "" {
			rejectUnauthenticated(c, log, errMissingCredential, reason)
			return
		}

		claims, err := cfg.Tokens.ValidateAccessToken(token)
		if err != nil {
			rejectUnauthenticated(c, log, err, "")
			return
		}

		if cfg.Revocations != nil {
			revoked, err := cfg.Revocations.IsRevoked(c.Request.Context(), claims.Ref())
			if err != nil {
				log.Error("Revocation check failed",
					zap.String("user_id", claims.UserID),
					zap.String("jti", claims.ID),
					zap.Error(err))
			} else if revoked {
				rejectUnauthenticated(c, log, auth.ErrTokenRevoked, "")
				return
			}
		}

		actor, err := claims.Actor()
		if err != nil {
			rejectUnauthenticated(c, log, err, "")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(ActorKey, actor)
		ctx := identity.WithActor(c.Request.Context(), actor)
		ctx, _ = logger.WithUser(ctx, logger.FromContext(ctx), claims.UserID, claims.Role.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// bearerToken prefers the Authorization header. A malformed header is not
// rescued by the cookie.
func bearerToken(c *gin.Context) (token, reason string) {
	header := c.GetHeader(AuthorizationHeader)
	if header == "" {
		if cookie, err := c.Cookie(AccessTokenName); err == nil && cookie != "" {
			return cookie, ""
		}
		return "", "Missing authorization header"
	}
	rest, ok := strings.CutPrefix(header, BearerPrefix)
	if !ok {
		return "", "Invalid authorization header format"
	}
	if token = strings.TrimSpace(rest); token == "" {
		return "", "Missing token"
	}
	return token, ""
}

func rejectUnauthenticated(c *gin.Context, log *zap.Logger, err error, reason string) {
	code, message := dto.ErrCodeTokenInvalid, "Invalid token"
	switch {
	case errors.Is(err, errMissingCredential):
		code, message = dto.ErrCodeUnauthorized, reason
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		code, message = dto.ErrCodeTokenRevoked, "Token has been revoked"
	}

	log.Info("Authentication rejected",
		zap.String("code", code),
		zap.String("path", c.FullPath()),
		zap.Error(err))
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetJWTClaims returns the verified access token claims, or nil
func GetJWTClaims(c *gin.Context) *auth.Claims {
	v, _ := c.Get(ClaimsKey)
	claims, _ := v.(*auth.Claims)
	return claims
}

// GetActor returns the authenticated actor, if any
func GetActor(c *gin.Context) (identity.Actor, bool) {
	v, _ := c.Get(ActorKey)
	actor, ok := v.(identity.Actor)
	return actor, ok
}
