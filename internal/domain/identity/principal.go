package identity

// Principal is the acting identity an operation is evaluated for: a user
// together with the partner it speaks as and the company it belongs to.
type Principal struct {
	User    *User
	Partner *Partner
	Company *Company
}

// NewPrincipal bundles an already loaded user, partner and company
func NewPrincipal(user *User, partner *Partner, company *Company) *Principal {
	return &Principal{User: user, Partner: partner, Company: company}
}

// UserID returns the acting user id
func (p *Principal) UserID() int64 {
	return p.User.ID
}

// PartnerID returns the acting partner id
func (p *Principal) PartnerID() int64 {
	return p.Partner.ID
}

// IsAdmin reports whether the principal bypasses access checks
func (p *Principal) IsAdmin() bool {
	return p.User.Superuser || p.User.HasGroup(GroupSystem)
}

// IsEmployee reports whether the principal is an internal user
func (p *Principal) IsEmployee() bool {
	return p.IsAdmin() || p.User.HasGroup(GroupEmployee)
}

// IsPortal reports whether the principal is a portal user
func (p *Principal) IsPortal() bool {
	return !p.IsEmployee() && p.User.HasGroup(GroupPortal)
}

// IsPublic reports whether the principal is an anonymous public user
func (p *Principal) IsPublic() bool {
	return !p.IsEmployee() && !p.IsPortal()
}

// IsShared reports whether the principal is a portal or public user
func (p *Principal) IsShared() bool {
	return !p.IsEmployee()
}

// HasGroup reports membership; administrators implicitly hold every group
func (p *Principal) HasGroup(group Group) bool {
	if p.IsAdmin() {
		return true
	}
	return p.User.HasGroup(group)
}

// Name returns the display name of the principal
func (p *Principal) Name() string {
	return p.Partner.Name
}

// Email returns the principal's email, possibly empty
func (p *Principal) Email() string {
	return p.Partner.Email
}

// CompanyName returns the name of the principal's company
func (p *Principal) CompanyName() string {
	if p.Company == nil {
		return ""
	}
	return p.Company.Name
}
