package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/erp/messaging/internal/infrastructure/auth"
	"github.com/erp/messaging/internal/infrastructure/config"
	"github.com/erp/messaging/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
	})
}

func newTestTokenPair(t *testing.T, jwtService *auth.JWTService) *auth.TokenPair {
	t.Helper()
	pair, err := jwtService.GenerateTokenPair(auth.TokenSubject{UserID: 7, PartnerID: 3, Login: "ernest"})
	require.NoError(t, err)
	return pair
}

func newTestPrincipal(t *testing.T, groups ...identity.Group) *identity.Principal {
	t.Helper()
	user, err := identity.NewUser("ernest", "ernest-password", 3, 1)
	require.NoError(t, err)
	user.ID = 7
	for _, g := range groups {
		require.NoError(t, user.AddGroup(g))
	}
	partner, err := identity.NewPartner("Ernest Employee", "e.e@example.com", 1)
	require.NoError(t, err)
	partner.ID = 3
	return identity.NewPrincipal(user, partner, nil)
}

type stubPrincipals struct {
	principal *identity.Principal
	err       error
}

func (s stubPrincipals) Load(_ context.Context, _ int64) (*identity.Principal, error) {
	return s.principal, s.err
}

func serveJWT(cfg JWTMiddlewareConfig, header string, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	router := gin.New()
	router.Use(RequestID(), JWTAuthMiddlewareWithConfig(cfg))
	router.GET("/api/v1/messages", handler)
	router.GET("/health", handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/messages", nil)
	if header != "" {
		req.Header.Set(AuthHeaderKey, header)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	jwtService := newTestJWTService()
	pair := newTestTokenPair(t, jwtService)
	principal := newTestPrincipal(t, identity.GroupEmployee)

	cfg := DefaultJWTConfig(jwtService)
	cfg.Principals = stubPrincipals{principal: principal}

	rec := serveJWT(cfg, BearerPrefix+pair.AccessToken, func(c *gin.Context) {
		claims := GetJWTClaims(c)
		require.NotNil(t, claims)
		assert.Equal(t, int64(7), claims.UserID)
		assert.Equal(t, int64(7), GetJWTUserID(c))
		assert.Same(t, principal, GetPrincipal(c))
		ok(c)
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthMiddleware_Rejects(t *testing.T) {
	jwtService := newTestJWTService()
	pair := newTestTokenPair(t, jwtService)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", dto.ErrCodeTokenInvalid},
		{"wrong scheme", "Basic abc", dto.ErrCodeTokenInvalid},
		{"empty token", BearerPrefix, dto.ErrCodeTokenInvalid},
		{"garbage token", BearerPrefix + "not.a.jwt", dto.ErrCodeTokenInvalid},
		{"refresh token", BearerPrefix + pair.RefreshToken, dto.ErrCodeTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveJWT(DefaultJWTConfig(jwtService), tt.header, ok)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestJWTAuthMiddleware_ExpiredToken(t *testing.T) {
	expired := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		AccessTokenExpiration:  -time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "test-issuer",
	})
	pair := newTestTokenPair(t, expired)

	rec := serveJWT(DefaultJWTConfig(newTestJWTService()), BearerPrefix+pair.AccessToken, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrCodeTokenExpired, errorCode(t, rec))
}

func TestJWTAuthMiddleware_RevokedToken(t *testing.T) {
	jwtService := newTestJWTService()
	pair := newTestTokenPair(t, jwtService)
	claims, err := jwtService.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	revocations := auth.NewMemoryRevocationList()
	require.NoError(t, revocations.Revoke(context.Background(), claims.ID, time.Minute))

	cfg := DefaultJWTConfig(jwtService)
	cfg.Revocations = revocations

	rec := serveJWT(cfg, BearerPrefix+pair.AccessToken, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrCodeTokenRevoked, errorCode(t, rec))
}

func TestJWTAuthMiddleware_InactiveUser(t *testing.T) {
	jwtService := newTestJWTService()
	pair := newTestTokenPair(t, jwtService)

	cfg := DefaultJWTConfig(jwtService)
	cfg.Principals = stubPrincipals{err: errors.New("account inactive")}

	rec := serveJWT(cfg, BearerPrefix+pair.AccessToken, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, errorCode(t, rec))
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	router := gin.New()
	router.Use(JWTAuthMiddleware(newTestJWTService()))
	router.GET("/health", ok)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthMiddleware_OnError(t *testing.T) {
	var seen error
	cfg := DefaultJWTConfig(newTestJWTService())
	cfg.OnError = func(c *gin.Context, err error) {
		seen = err
		c.JSON(http.StatusTeapot, gin.H{})
	}

	rec := serveJWT(cfg, "", ok)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.ErrorIs(t, seen, auth.ErrInvalidToken)
}
