package identity

import (
	"context"
	"errors"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/erp/messaging/internal/domain/shared"
)

// ErrAccountInactive is returned when a deactivated user tries to act
var ErrAccountInactive = shared.NewDomainError("ACCOUNT_INACTIVE", "Account is not active")

// PrincipalLoader assembles the acting identity of a user
type PrincipalLoader struct {
	users     identity.UserRepository
	partners  identity.PartnerRepository
	companies identity.CompanyRepository
}

// NewPrincipalLoader creates a new PrincipalLoader
func NewPrincipalLoader(
	users identity.UserRepository,
	partners identity.PartnerRepository,
	companies identity.CompanyRepository,
) *PrincipalLoader {
	return &PrincipalLoader{users: users, partners: partners, companies: companies}
}

// Load returns the principal of an active user
func (l *PrincipalLoader) Load(ctx context.Context, userID int64) (*identity.Principal, error) {
	user, err := l.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return l.forUser(ctx, user)
}

// LoadByLogin returns the principal of an active user by login
func (l *PrincipalLoader) LoadByLogin(ctx context.Context, login string) (*identity.Principal, error) {
	user, err := l.users.FindByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	return l.forUser(ctx, user)
}

func (l *PrincipalLoader) forUser(ctx context.Context, user *identity.User) (*identity.Principal, error) {
	if !user.Active {
		return nil, ErrAccountInactive
	}
	partner, err := l.partners.FindByID(ctx, user.PartnerID)
	if err != nil {
		return nil, err
	}
	company, err := l.companies.FindByID(ctx, user.CompanyID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	return identity.NewPrincipal(user, partner, company), nil
}
