package identity

import (
	"context"
	"errors"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/erp/messaging/internal/domain/shared"
	"github.com/erp/messaging/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// ErrInvalidCredentials covers unknown logins and wrong passwords alike
var ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid login or password")

var (
	errTokenExpired = shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	errTokenInvalid = shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	errTokenCheck   = shared.NewDomainError("TOKEN_ERROR", "Failed to validate refresh token")
	errTokenRevoked = shared.NewDomainError("TOKEN_REVOKED", "Token has been revoked")
)

// AuthService opens, rotates and closes sessions
type AuthService struct {
	users       identity.UserRepository
	principals  *PrincipalLoader
	tokens      *auth.JWTService
	revocations auth.RevocationList
	logger      *zap.Logger
}

// NewAuthService wires the session service. With nil revocations logout
// does nothing and refresh tokens can be replayed until they expire.
func NewAuthService(
	users identity.UserRepository,
	principals *PrincipalLoader,
	tokens *auth.JWTService,
	revocations auth.RevocationList,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{users: users, principals: principals, tokens: tokens, revocations: revocations, logger: logger}
}

// Login checks the credentials of an active user and issues a token pair
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	log := s.logger.With(zap.String("login", input.Login))

	user, err := s.users.FindByLogin(ctx, input.Login)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		log.Warn("Login for unknown user")
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, err
	case !user.Active:
		log.Warn("Login for deactivated account")
		return nil, ErrAccountInactive
	case !user.VerifyPassword(input.Password):
		log.Warn("Login with wrong password")
		return nil, ErrInvalidCredentials
	}

	principal, err := s.principals.Load(ctx, user.ID)
	if err != nil {
		log.Error("Failed to load principal", zap.Error(err))
		return nil, err
	}
	pair, err := s.tokens.GenerateTokenPair(auth.TokenSubject{UserID: user.ID, PartnerID: user.PartnerID, Login: user.Login})
	if err != nil {
		log.Error("Failed to issue tokens", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	user.RecordLogin()
	if err := s.users.Update(ctx, user); err != nil {
		log.Error("Failed to record login time", zap.Error(err))
	}
	log.Info("User logged in", zap.Int64("user_id", user.ID))
	return &LoginResult{TokenPair: *pair, User: ToUserInfo(principal)}, nil
}

// RefreshToken consumes a refresh token and issues a new pair. The
// consumed token is revoked for the rest of its lifetime.
func (s *AuthService) RefreshToken(ctx context.Context, input RefreshTokenInput) (*RefreshTokenResult, error) {
	claims, err := s.tokens.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token rejected", zap.Error(err))
		return nil, tokenError(err)
	}
	revoked, err := s.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Error("Failed to check token revocation", zap.Error(err))
		return nil, errTokenCheck
	}
	if revoked {
		return nil, errTokenRevoked
	}

	principal, err := s.principals.Load(ctx, claims.UserID)
	if err != nil {
		s.logger.Warn("Refresh for unavailable user", zap.Int64("user_id", claims.UserID), zap.Error(err))
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
		}
		return nil, err
	}

	pair, _, err := s.tokens.RefreshTokenPair(input.RefreshToken, principal.User.Login)
	if err != nil {
		s.logger.Warn("Token rotation failed", zap.Error(err))
		return nil, tokenError(err)
	}
	if s.revocations != nil {
		if err := s.revocations.Revoke(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
			s.logger.Error("Failed to revoke consumed refresh token", zap.Error(err))
		}
	}
	s.logger.Info("Tokens rotated", zap.Int64("user_id", claims.UserID))
	return &RefreshTokenResult{TokenPair: *pair}, nil
}

// Logout revokes the access token until it would have expired
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	s.logger.Info("User logout", zap.Int64("user_id", input.UserID))
	if s.revocations == nil || input.TokenJTI == "" || input.TokenTTL <= 0 {
		return nil
	}
	if err := s.revocations.Revoke(ctx, input.TokenJTI, input.TokenTTL); err != nil {
		s.logger.Error("Failed to revoke token", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to revoke token")
	}
	return nil
}

// IsRevoked reports whether the token id jti was revoked
func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if s.revocations == nil || jti == "" {
		return false, nil
	}
	return s.revocations.IsRevoked(ctx, jti)
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return errTokenExpired
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidTokenType), errors.Is(err, auth.ErrInvalidClaims):
		return errTokenInvalid
	}
	return errTokenCheck
}
