package identity

import (
	"time"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/erp/messaging/internal/infrastructure/auth"
)

// LoginInput contains the input for user login
type LoginInput struct {
	Login    string
	Password string
}

// LoginResult is the token pair of a new session and its user
type LoginResult struct {
	auth.TokenPair
	User UserInfo `json:"user"`
}

// UserInfo contains basic user information
type UserInfo struct {
	ID          int64    `json:"id"`
	Login       string   `json:"login"`
	PartnerID   int64    `json:"partner_id"`
	CompanyID   int64    `json:"company_id"`
	Name        string   `json:"name"`
	Email       string   `json:"email,omitempty"`
	CompanyName string   `json:"company_name,omitempty"`
	Groups      []string `json:"groups"`
	IsAdmin     bool     `json:"is_admin"`
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// RefreshTokenResult is the rotated token pair
type RefreshTokenResult struct {
	auth.TokenPair
}

// LogoutInput contains the input for user logout
type LogoutInput struct {
	UserID   int64
	TokenJTI string        // access token id to revoke
	TokenTTL time.Duration // remaining lifetime of the access token
}

// CreateUserInput contains input for creating a user together with its partner
type CreateUserInput struct {
	Login    string   `json:"login" binding:"required,min=3,max=100"`
	Password string   `json:"password" binding:"required,min=8,max=72"`
	Name     string   `json:"name" binding:"required,min=1,max=200"`
	Email    string   `json:"email" binding:"omitempty,email,max=200"`
	Groups   []string `json:"groups"`
}

// ToUserInfo builds the user information of a principal
func ToUserInfo(p *identity.Principal) UserInfo {
	groups := make([]string, len(p.User.Groups))
	for i, g := range p.User.Groups {
		groups[i] = g.String()
	}
	return UserInfo{
		ID:          p.UserID(),
		Login:       p.User.Login,
		PartnerID:   p.PartnerID(),
		CompanyID:   p.User.CompanyID,
		Name:        p.Name(),
		Email:       p.Email(),
		CompanyName: p.CompanyName(),
		Groups:      groups,
		IsAdmin:     p.IsAdmin(),
	}
}
