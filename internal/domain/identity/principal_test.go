package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPrincipal(t *testing.T, groups ...Group) *Principal {
	t.Helper()
	user, err := NewUser("someone", "Password123", 2, 1)
	require.NoError(t, err)
	for _, g := range groups {
		require.NoError(t, user.AddGroup(g))
	}
	partner := &Partner{Name: "Someone", Email: "someone@example.com"}
	partner.ID = 2
	company := &Company{Name: "YourCompany"}
	company.ID = 1
	return NewPrincipal(user, partner, company)
}

func TestPrincipal_Roles(t *testing.T) {
	t.Run("employee", func(t *testing.T) {
		p := newTestPrincipal(t, GroupEmployee)

		assert.True(t, p.IsEmployee())
		assert.False(t, p.IsAdmin())
		assert.False(t, p.IsShared())
	})

	t.Run("portal", func(t *testing.T) {
		p := newTestPrincipal(t, GroupPortal)

		assert.True(t, p.IsPortal())
		assert.True(t, p.IsShared())
		assert.False(t, p.IsPublic())
	})

	t.Run("public", func(t *testing.T) {
		p := newTestPrincipal(t, GroupPublic)

		assert.True(t, p.IsPublic())
		assert.True(t, p.IsShared())
	})

	t.Run("system group is admin and holds every group", func(t *testing.T) {
		p := newTestPrincipal(t, GroupSystem)

		assert.True(t, p.IsAdmin())
		assert.True(t, p.IsEmployee())
		assert.True(t, p.HasGroup(GroupPortal))
	})

	t.Run("superuser is admin without groups", func(t *testing.T) {
		p := newTestPrincipal(t)
		p.User.Superuser = true

		assert.True(t, p.IsAdmin())
	})

	t.Run("accessors", func(t *testing.T) {
		p := newTestPrincipal(t, GroupEmployee)

		assert.Equal(t, int64(2), p.PartnerID())
		assert.Equal(t, "Someone", p.Name())
		assert.Equal(t, "someone@example.com", p.Email())
		assert.Equal(t, "YourCompany", p.CompanyName())
	})
}
