package identity

import (
	"strings"

	"github.com/erp/messaging/internal/domain/shared"
)

// Partner is an addressable contact. Message authors, recipients and
// starring identities are all partners.
type Partner struct {
	shared.BaseEntity
	Name      string
	Email     string
	CompanyID int64
}

// NewPartner creates a new partner
func NewPartner(name, email string, companyID int64) (*Partner, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PARTNER_NAME", "Partner name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_PARTNER_NAME", "Partner name cannot exceed 200 characters")
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
	}
	return &Partner{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Email:      strings.ToLower(strings.TrimSpace(email)),
		CompanyID:  companyID,
	}, nil
}

// SetEmail changes the partner's email; an empty value clears it
func (p *Partner) SetEmail(email string) error {
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}
	p.Email = strings.ToLower(strings.TrimSpace(email))
	p.Touch()
	return nil
}

// Address returns the formatted "Name <email>" address, or "" when the
// partner has no email.
func (p *Partner) Address() string {
	if p.Email == "" {
		return ""
	}
	return FormatAddress(p.Name, p.Email)
}
