package identity

import "context"

// CompanyRepository defines the interface for company persistence
type CompanyRepository interface {
	Create(ctx context.Context, company *Company) error
	FindByID(ctx context.Context, id int64) (*Company, error)
}

// PartnerRepository defines the interface for partner persistence
type PartnerRepository interface {
	Create(ctx context.Context, partner *Partner) error
	Update(ctx context.Context, partner *Partner) error
	FindByID(ctx context.Context, id int64) (*Partner, error)
	// FindByIDs returns the partners found; missing ids are skipped
	FindByIDs(ctx context.Context, ids []int64) ([]*Partner, error)
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create creates a new user and its group memberships
	Create(ctx context.Context, user *User) error

	// Update updates an existing user and replaces its group memberships
	Update(ctx context.Context, user *User) error

	// FindByID finds a user by ID, groups loaded
	FindByID(ctx context.Context, id int64) (*User, error)

	// FindByLogin finds a user by login, groups loaded
	FindByLogin(ctx context.Context, login string) (*User, error)

	// FindByPartnerID finds the user speaking as the given partner
	FindByPartnerID(ctx context.Context, partnerID int64) (*User, error)

	// ExistsByLogin checks if a login is already taken
	ExistsByLogin(ctx context.Context, login string) (bool, error)
}
