package identity

// Group is the key of a security group a user belongs to.
type Group string

const (
	// GroupEmployee is the internal user group.
	GroupEmployee Group = "base.group_user"
	// GroupPortal is the external customer/vendor group.
	GroupPortal Group = "base.group_portal"
	// GroupPublic is the anonymous website visitor group.
	GroupPublic Group = "base.group_public"
	// GroupSystem grants administrator rights.
	GroupSystem Group = "base.group_system"
)

// IsValid reports whether g is a known group key
func (g Group) IsValid() bool {
	switch g {
	case GroupEmployee, GroupPortal, GroupPublic, GroupSystem:
		return true
	}
	return false
}

// String returns the group key
func (g Group) String() string {
	return string(g)
}
