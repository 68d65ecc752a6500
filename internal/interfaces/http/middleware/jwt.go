package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/erp/messaging/internal/infrastructure/auth"
	"github.com/erp/messaging/internal/infrastructure/logger"
	"github.com/erp/messaging/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Gin context keys and header names used by the JWT middleware
const (
	JWTClaimsKey    = "jwt_claims"
	JWTUserIDKey    = "jwt_user_id"
	JWTPartnerIDKey = "jwt_partner_id"
	JWTLoginKey     = "jwt_login"
	PrincipalKey    = "principal"
	AuthHeaderKey   = "Authorization"
	BearerPrefix    = "Bearer "
)

var errPrincipalUnavailable = errors.New("principal unavailable")

// PrincipalLoader resolves the acting identity of a token's user
type PrincipalLoader interface {
	Load(ctx context.Context, userID int64) (*identity.Principal, error)
}

// JWTMiddlewareConfig configures JWTAuthMiddlewareWithConfig. Only
// JWTService is required.
type JWTMiddlewareConfig struct {
	JWTService  *auth.JWTService
	Revocations auth.RevocationList
	// Principals resolves the acting principal. Without it only the
	// claims are stored on the context.
	Principals PrincipalLoader
	// SkipPaths are served without a token
	SkipPaths []string
	// OnError replaces the default 401 response
	OnError func(c *gin.Context, err error)
	Logger  *zap.Logger
}

// DefaultJWTConfig exempts the probes and the token endpoints
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health", "/healthz", "/ready", "/api/v1/health",
			"/api/v1/auth/login", "/api/v1/auth/refresh",
		},
	}
}

// JWTAuthMiddleware authenticates with DefaultJWTConfig
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig requires a valid, unrevoked access token
// and, when a PrincipalLoader is set, an active user behind it.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		if slices.Contains(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		claims, principal, err := cfg.authenticate(c.Request.Context(), c.GetHeader(AuthHeaderKey), log)
		if err != nil {
			if cfg.OnError != nil {
				cfg.OnError(c, err)
				c.Abort()
				return
			}
			log.Warn("JWT authentication failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
			code, msg := authFailure(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(code, msg, getRequestID(c)))
			return
		}

		if principal != nil {
			c.Set(PrincipalKey, principal)
		}
		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Set(JWTPartnerIDKey, claims.PartnerID)
		c.Set(JWTLoginKey, claims.Login)
		c.Request = c.Request.WithContext(logger.WithIdentity(c.Request.Context(), claims.UserID, claims.PartnerID))

		c.Next()
	}
}

func (cfg JWTMiddlewareConfig) authenticate(ctx context.Context, header string, log *zap.Logger) (*auth.Claims, *identity.Principal, error) {
	raw, found := strings.CutPrefix(header, BearerPrefix)
	if !found || raw == "" {
		return nil, nil, auth.ErrInvalidToken
	}
	claims, err := cfg.JWTService.ValidateAccessToken(raw)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Revocations != nil && claims.ID != "" {
		revoked, err := cfg.Revocations.IsRevoked(ctx, claims.ID)
		switch {
		case err != nil:
			// lookup errors fail open
			log.Error("Failed to check token revocation", zap.String("jti", claims.ID), zap.Error(err))
		case revoked:
			return nil, nil, auth.ErrTokenRevoked
		}
	}

	if cfg.Principals == nil {
		return claims, nil, nil
	}
	principal, err := cfg.Principals.Load(ctx, claims.UserID)
	if err != nil {
		log.Warn("Token user cannot act", zap.Int64("user_id", claims.UserID), zap.Error(err))
		return nil, nil, errPrincipalUnavailable
	}
	return claims, principal, nil
}

// authFailure maps an authentication error to its wire code and message
func authFailure(err error) (string, string) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		return dto.ErrCodeTokenRevoked, "Token has been revoked"
	case errors.Is(err, errPrincipalUnavailable):
		return dto.ErrCodeUnauthorized, "User is inactive or unknown"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidTokenType),
		errors.Is(err, auth.ErrInvalidClaims), errors.Is(err, auth.ErrTokenNotYetValid):
		return dto.ErrCodeTokenInvalid, "Invalid token"
	}
	return dto.ErrCodeUnauthorized, "Authentication required"
}

// GetJWTClaims returns the validated claims, or nil on skipped paths
func GetJWTClaims(c *gin.Context) *auth.Claims {
	claims, _ := c.Value(JWTClaimsKey).(*auth.Claims)
	return claims
}

// GetJWTUserID returns the authenticated user id, 0 when absent
func GetJWTUserID(c *gin.Context) int64 {
	return c.GetInt64(JWTUserIDKey)
}

// GetPrincipal returns the acting principal, or nil
func GetPrincipal(c *gin.Context) *identity.Principal {
	p, _ := c.Value(PrincipalKey).(*identity.Principal)
	return p
}
