// Package auth issues and verifies the HS256 session tokens and tracks
// revoked ones.
package auth

import (
	"errors"
	"time"

	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrMissingUserID    = errors.New("missing userId in claims")
	ErrInvalidRole      = errors.New("unknown role in claims")
	ErrTokenRevoked     = errors.New("token has been revoked")
)

// TokenPair is returned on login and refresh
type TokenPair struct {
	AccessToken           string    `json:"accessToken"`
	RefreshToken          string    `json:"refreshToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
	TokenType             string    `json:"tokenType"`
}

// GenerateTokenInput is the identity a pair is issued for
type GenerateTokenInput struct {
	UserID       uuid.UUID
	Email        string
	Role         identity.Role
	RestaurantID *uuid.UUID
}

// signer holds the key and lifetime of one token type
type signer struct {
	typ    TokenType
	secret []byte
	ttl    time.Duration
}

type JWTService struct {
	access  signer
	refresh signer
	issuer  string
	parser  *jwt.Parser
	now     func() time.Time
}

// NewJWTService signs refresh tokens with cfg.Secret when no separate
// refresh secret is configured
func NewJWTService(cfg config.JWTConfig) *JWTService {
	refreshSecret := cfg.RefreshSecret
	if refreshSecret == "" {
		refreshSecret = cfg.Secret
	}
	return &JWTService{
		access:  signer{typ: TokenTypeAccess, secret: []byte(cfg.Secret), ttl: cfg.AccessTokenExpiration},
		refresh: signer{typ: TokenTypeRefresh, secret: []byte(refreshSecret), ttl: cfg.RefreshTokenExpiration},
		issuer:  cfg.Issuer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithIssuedAt(),
			jwt.WithExpirationRequired(),
		),
		now: time.Now,
	}
}

// GenerateTokenPair signs an access token carrying role, restaurant and
// permissions, and a refresh token carrying only the user id
func (s *JWTService) GenerateTokenPair(input GenerateTokenInput) (*TokenPair, error) {
	if input.UserID == uuid.Nil {
		return nil, ErrMissingUserID
	}
	if !input.Role.IsValid() {
		return nil, ErrInvalidRole
	}
	now := s.now()

	access := &Claims{
		UserID:      input.UserID.String(),
		Email:       input.Email,
		Role:        input.Role,
		RoleLevel:   input.Role.Level(),
		Permissions: identity.PermissionsFor(input.Role),
	}
	if input.RestaurantID != nil {
		access.RestaurantID = input.RestaurantID.String()
	}
	accessToken, accessExp, err := s.sign(s.access, access, now)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshExp, err := s.sign(s.refresh, &Claims{UserID: input.UserID.String()}, now)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		AccessTokenExpiresAt:  accessExp,
		RefreshTokenExpiresAt: refreshExp,
		TokenType:             "Bearer",
	}, nil
}

// sign fills the registered claims and a fresh jti
func (s *JWTService) sign(k signer, claims *Claims, now time.Time) (string, time.Time, error) {
	exp := now.Add(k.ttl)
	claims.TokenType = k.typ
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		Subject:   claims.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(k.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ValidateAccessToken also rejects roles this build does not know
func (s *JWTService) ValidateAccessToken(token string) (*Claims, error) {
	claims, err := s.verify(s.access, token)
	if err != nil {
		return nil, err
	}
	if !claims.Role.IsValid() {
		return nil, ErrInvalidRole
	}
	return claims, nil
}

func (s *JWTService) ValidateRefreshToken(token string) (*Claims, error) {
	return s.verify(s.refresh, token)
}

func (s *JWTService) verify(k signer, token string) (*Claims, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return k.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, ErrInvalidToken
	}

	if claims.TokenType != k.typ {
		return nil, ErrInvalidTokenType
	}
	if _, err := claims.UserUUID(); err != nil {
		return nil, ErrMissingUserID
	}
	return claims, nil
}
