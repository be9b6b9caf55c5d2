package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/foodontracks/backend/internal/application/identity"
	"github.com/foodontracks/backend/internal/infrastructure/config"
	"github.com/foodontracks/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// RefreshTokenName is the cookie carrying the refresh token
const RefreshTokenName = "refreshToken"

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
	cookies     config.CookieConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService, cookies config.CookieConfig) *AuthHandler {
	if cookies.Path == "" {
		cookies.Path = "/"
	}
	return &AuthHandler{authService: authService, cookies: cookies}
}

// LogoutResponse is the logout acknowledgement
type LogoutResponse struct {
	Message string `json:"message" example:"Logged out successfully"`
}

// Signup godoc
// @Summary      Register a user
// @Description  Creates a customer, restaurant owner or delivery agent account. Admins are seeded, never signed up.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.SignupRequest true "Signup details"
// @Success      201 {object} dto.Response{data=identity.UserInfo}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req identity.SignupRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.authService.Signup(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}

// Login godoc
// @Summary      User login
// @Description  Authenticates with email and password. Tokens are returned in the body and set as http-only cookies.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.LoginRequest true "Login credentials"
// @Success      200 {object} dto.Response{data=identity.AuthResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req identity.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setTokenCookies(c, result)
	h.Success(c, result)
}

// Refresh godoc
// @Summary      Refresh tokens
// @Description  Exchanges a refresh token (body or refreshToken cookie) for a new pair. The used refresh token is revoked.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.RefreshRequest false "Refresh token"
// @Success      200 {object} dto.Response{data=identity.AuthResult}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	result, err := h.authService.Refresh(c.Request.Context(), refreshToken(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setTokenCookies(c, result)
	h.Success(c, result)
}

// Logout godoc
// @Summary      User logout
// @Description  Revokes the access token and, when sent, the refresh token. Clears the auth cookies.
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=LogoutResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	userID, err := claims.UserUUID()
	if err != nil {
		h.Unauthorized(c, "Invalid token subject")
		return
	}

	err = h.authService.Logout(c.Request.Context(), identity.LogoutInput{
		UserID:            userID,
		AccessTokenJTI:    claims.ID,
		AccessTokenExpiry: claims.RemainingTTL(),
		RefreshToken:      refreshToken(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.clearTokenCookies(c)
	h.Success(c, LogoutResponse{Message: "Logged out successfully"})
}

// Me godoc
// @Summary      Current user
// @Description  Returns the authenticated user and the permissions of their role
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=identity.CurrentUserResult}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	result, err := h.authService.Me(c.Request.Context(), actor.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *AuthHandler) setTokenCookies(c *gin.Context, result *identity.AuthResult) {
	http.SetCookie(c.Writer, h.cookie(middleware.AccessTokenName, result.AccessToken, result.AccessTokenExpiresAt))
	http.SetCookie(c.Writer, h.cookie(RefreshTokenName, result.RefreshToken, result.RefreshTokenExpiresAt))
}

func (h *AuthHandler) clearTokenCookies(c *gin.Context) {
	for _, name := range []string{middleware.AccessTokenName, RefreshTokenName} {
		http.SetCookie(c.Writer, h.cookie(name, "", time.Unix(0, 0)))
	}
}

// cookie builds an http-only cookie; a past expiry deletes it
func (h *AuthHandler) cookie(name, value string, expires time.Time) *http.Cookie {
	maxAge := int(time.Until(expires).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     h.cookies.Path,
		Domain:   h.cookies.Domain,
		Expires:  expires,
		MaxAge:   maxAge,
		Secure:   h.cookies.Secure,
		HttpOnly: true,
		SameSite: sameSiteMode(h.cookies.SameSite),
	}
}

// refreshToken prefers the JSON body over the refreshToken cookie. A
// missing or unreadable body is not an error.
func refreshToken(c *gin.Context) string {
	var req identity.RefreshRequest
	if c.Request.ContentLength > 0 {
		_ = c.ShouldBindJSON(&req)
	}
	if token := strings.TrimSpace(req.RefreshToken); token != "" {
		return token
	}
	token, _ := c.Cookie(RefreshTokenName)
	return token
}

var sameSiteModes = map[string]http.SameSite{
	"strict": http.SameSiteStrictMode,
	"none":   http.SameSiteNoneMode,
	"lax":    http.SameSiteLaxMode,
}

func sameSiteMode(s string) http.SameSite {
	if mode, ok := sameSiteModes[strings.ToLower(s)]; ok {
		return mode
	}
	return http.SameSiteLaxMode
}
