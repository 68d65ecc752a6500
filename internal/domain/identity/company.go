package identity

import (
	"strings"

	"github.com/erp/messaging/internal/domain/shared"
)

// Company owns users; its name prefixes catch-all reply addresses.
type Company struct {
	shared.BaseEntity
	Name  string
	Email string
}

// NewCompany creates a new company
func NewCompany(name, email string) (*Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_COMPANY_NAME", "Company name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_COMPANY_NAME", "Company name cannot exceed 200 characters")
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
	}
	return &Company{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Email:      strings.ToLower(strings.TrimSpace(email)),
	}, nil
}
