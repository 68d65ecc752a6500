package identity

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/erp/messaging/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = bcrypt.DefaultCost

var (
	loginRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-.@]+$`)
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// User is a login bound to a partner (its public identity) and a company.
type User struct {
	shared.BaseAggregateRoot
	Login        string
	PasswordHash string
	PartnerID    int64
	CompanyID    int64
	Groups       []Group // Stored in separate table, loaded by repository
	Active       bool
	Superuser    bool
	LastLoginAt  *time.Time
}

// NewUser creates a new active user with required fields
func NewUser(login, password string, partnerID, companyID int64) (*User, error) {
	if err := validateLogin(login); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if partnerID <= 0 {
		return nil, shared.NewDomainError("INVALID_PARTNER", "User must be linked to a partner")
	}
	if companyID <= 0 {
		return nil, shared.NewDomainError("INVALID_COMPANY", "User must belong to a company")
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Login:             strings.ToLower(strings.TrimSpace(login)),
		PasswordHash:      passwordHash,
		PartnerID:         partnerID,
		CompanyID:         companyID,
		Groups:            make([]Group, 0),
		Active:            true,
	}, nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// SetPassword replaces the password hash
func (u *User) SetPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	passwordHash, err := hashPassword(password)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = passwordHash
	u.Touch()
	return nil
}

// AddGroup adds the user to a group; adding an existing group is a no-op
func (u *User) AddGroup(group Group) error {
	if !group.IsValid() {
		return shared.NewDomainError("INVALID_GROUP", "Unknown group: "+group.String())
	}
	if u.HasGroup(group) {
		return nil
	}
	u.Groups = append(u.Groups, group)
	u.Touch()
	return nil
}

// RemoveGroup removes the user from a group
func (u *User) RemoveGroup(group Group) {
	u.Groups = slices.DeleteFunc(u.Groups, func(g Group) bool { return g == group })
	u.Touch()
}

// HasGroup checks if user belongs to a group
func (u *User) HasGroup(group Group) bool {
	return slices.Contains(u.Groups, group)
}

// Deactivate disables the user login
func (u *User) Deactivate() {
	u.Active = false
	u.Touch()
}

// RecordLogin stamps the last successful login
func (u *User) RecordLogin() {
	now := time.Now()
	u.LastLoginAt = &now
	u.Touch()
}

// ValidateCredentials checks a login and password before anything is created for them
func ValidateCredentials(login, password string) error {
	if err := validateLogin(login); err != nil {
		return err
	}
	return validatePassword(password)
}

// Validation functions

func validateLogin(login string) error {
	login = strings.TrimSpace(login)
	if login == "" {
		return shared.NewDomainError("INVALID_LOGIN", "Login cannot be empty")
	}
	if len(login) < 3 {
		return shared.NewDomainError("INVALID_LOGIN", "Login must be at least 3 characters")
	}
	if len(login) > 100 {
		return shared.NewDomainError("INVALID_LOGIN", "Login cannot exceed 100 characters")
	}
	if !loginRegex.MatchString(login) {
		return shared.NewDomainError("INVALID_LOGIN", "Login can only contain letters, numbers, underscores, hyphens, dots and @")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(strings.TrimSpace(email)) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
