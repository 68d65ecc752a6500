package identity

import (
	"context"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/erp/messaging/internal/domain/shared"
	"go.uber.org/zap"
)

// UserService handles user management operations
type UserService struct {
	userRepo    identity.UserRepository
	partnerRepo identity.PartnerRepository
	principals  *PrincipalLoader
	logger      *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo identity.UserRepository,
	partnerRepo identity.PartnerRepository,
	principals *PrincipalLoader,
	logger *zap.Logger,
) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		userRepo:    userRepo,
		partnerRepo: partnerRepo,
		principals:  principals,
		logger:      logger,
	}
}

// Create creates a user and the partner it speaks as, in the acting
// administrator's company. Users without groups become employees.
func (s *UserService) Create(ctx context.Context, actor *identity.Principal, input CreateUserInput) (*UserInfo, error) {
	if !actor.IsAdmin() {
		return nil, shared.ErrForbidden
	}

	exists, err := s.userRepo.ExistsByLogin(ctx, input.Login)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("LOGIN_EXISTS", "Login already exists")
	}

	groups := input.Groups
	if len(groups) == 0 {
		groups = []string{identity.GroupEmployee.String()}
	}

	if err := identity.ValidateCredentials(input.Login, input.Password); err != nil {
		return nil, err
	}
	for _, g := range groups {
		if !identity.Group(g).IsValid() {
			return nil, shared.NewDomainError("INVALID_GROUP", "Unknown group: "+g)
		}
	}
	partner, err := identity.NewPartner(input.Name, input.Email, actor.User.CompanyID)
	if err != nil {
		return nil, err
	}
	if err := s.partnerRepo.Create(ctx, partner); err != nil {
		return nil, err
	}

	user, err := identity.NewUser(input.Login, input.Password, partner.ID, actor.User.CompanyID)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		if err := user.AddGroup(identity.Group(g)); err != nil {
			return nil, err
		}
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User created",
		zap.String("login", user.Login),
		zap.Int64("user_id", user.ID),
		zap.Int64("partner_id", partner.ID),
		zap.Strings("groups", groups),
	)

	principal, err := s.principals.Load(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	info := ToUserInfo(principal)
	return &info, nil
}

// Deactivate disables a user's login
func (s *UserService) Deactivate(ctx context.Context, actor *identity.Principal, userID int64) error {
	if !actor.IsAdmin() {
		return shared.ErrForbidden
	}
	if actor.UserID() == userID {
		return shared.NewDomainError("CANNOT_DEACTIVATE_SELF", "You cannot deactivate your own account")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	user.Deactivate()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	s.logger.Info("User deactivated", zap.Int64("user_id", userID))
	return nil
}
