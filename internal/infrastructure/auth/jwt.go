package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/erp/messaging/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType tells access tokens from refresh tokens
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrTokenRevoked     = errors.New("token has been revoked")
)

// Claims carries identifiers only. The principal behind a token is
// reloaded on every request.
type Claims struct {
	jwt.RegisteredClaims
	UserID    int64     `json:"user_id"`
	PartnerID int64     `json:"partner_id"`
	Login     string    `json:"login,omitempty"`
	TokenType TokenType `json:"token_type"`
}

// GetRemainingTTL is how long the token stays valid, never negative
func (c *Claims) GetRemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}

// TokenPair is what login and refresh hand back to the client
type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// TokenSubject is the user a pair is issued to
type TokenSubject struct {
	UserID    int64
	PartnerID int64
	Login     string
}

type signingKey struct {
	secret []byte
	ttl    time.Duration
}

// JWTService issues and verifies HS256 tokens. Access and refresh tokens
// use separate secrets unless no refresh secret is configured.
type JWTService struct {
	keys   map[TokenType]signingKey
	issuer string
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	refresh := cfg.RefreshSecret
	if refresh == "" {
		refresh = cfg.Secret
	}
	return &JWTService{
		keys: map[TokenType]signingKey{
			TokenTypeAccess:  {secret: []byte(cfg.Secret), ttl: cfg.AccessTokenExpiration},
			TokenTypeRefresh: {secret: []byte(refresh), ttl: cfg.RefreshTokenExpiration},
		},
		issuer: cfg.Issuer,
	}
}

// GetAccessTokenExpiration is the configured access token lifetime
func (s *JWTService) GetAccessTokenExpiration() time.Duration {
	return s.keys[TokenTypeAccess].ttl
}

func (s *JWTService) GenerateTokenPair(subject TokenSubject) (*TokenPair, error) {
	now := time.Now()
	access, accessExp, err := s.issue(subject, TokenTypeAccess, now)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.issue(subject, TokenTypeRefresh, now)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:           access,
		RefreshToken:          refresh,
		AccessTokenExpiresAt:  accessExp,
		RefreshTokenExpiresAt: refreshExp,
		TokenType:             "Bearer",
	}, nil
}

// RefreshTokenPair trades a valid refresh token for a new pair. The old
// token's claims are returned so the caller can revoke it.
func (s *JWTService) RefreshTokenPair(refreshToken, login string) (*TokenPair, *Claims, error) {
	old, err := s.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, err
	}
	pair, err := s.GenerateTokenPair(TokenSubject{UserID: old.UserID, PartnerID: old.PartnerID, Login: login})
	if err != nil {
		return nil, nil, err
	}
	return pair, old, nil
}

func (s *JWTService) ValidateAccessToken(token string) (*Claims, error) {
	return s.verify(token, TokenTypeAccess)
}

func (s *JWTService) ValidateRefreshToken(token string) (*Claims, error) {
	return s.verify(token, TokenTypeRefresh)
}

func (s *JWTService) issue(subject TokenSubject, kind TokenType, now time.Time) (string, time.Time, error) {
	key := s.keys[kind]
	claims := s.newClaims(subject, kind, now, key.ttl)
	signed, err := sign(claims, key.secret)
	return signed, claims.ExpiresAt.Time, err
}

// newClaims stamps a fresh jti. The login only rides on access tokens.
func (s *JWTService) newClaims(subject TokenSubject, kind TokenType, now time.Time, ttl time.Duration) *Claims {
	c := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(subject.UserID, 10),
			Audience:  jwt.ClaimStrings{s.issuer},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    subject.UserID,
		PartnerID: subject.PartnerID,
		TokenType: kind,
	}
	if kind == TokenTypeAccess {
		c.Login = subject.Login
	}
	return c
}

func sign(claims *Claims, secret []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (s *JWTService) verify(token string, want TokenType) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.issuer),
		jwt.WithExpirationRequired(),
	)
	claims := &Claims{}
	secret := s.keys[want].secret
	if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return secret, nil }); err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}
	if claims.TokenType != want {
		return nil, ErrInvalidTokenType
	}
	if claims.UserID <= 0 || claims.PartnerID <= 0 {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}
