package mail

import (
	"testing"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func principalWith(partnerID int64, groups ...identity.Group) *identity.Principal {
	user := &identity.User{Groups: groups}
	user.ID = partnerID * 10
	partner := &identity.Partner{Name: "P"}
	partner.ID = partnerID
	return identity.NewPrincipal(user, partner, &identity.Company{Name: "YourCompany"})
}

func TestNewChannel(t *testing.T) {
	t.Run("defaults to employee visibility", func(t *testing.T) {
		c, err := NewChannel("Pigs")

		require.NoError(t, err)
		assert.Equal(t, VisibilityGroups, c.Visibility)
		assert.Equal(t, identity.GroupEmployee, c.GroupPublic)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewChannel("  ")

		assert.Error(t, err)
	})
}

func TestChannel_SetVisibility(t *testing.T) {
	c, err := NewChannel("Pigs")
	require.NoError(t, err)

	require.NoError(t, c.SetVisibility(VisibilityPublic, identity.GroupEmployee))
	assert.Empty(t, c.GroupPublic)

	require.NoError(t, c.SetVisibility(VisibilityGroups, ""))
	assert.Equal(t, identity.GroupEmployee, c.GroupPublic)

	assert.Error(t, c.SetVisibility(Visibility("secret"), ""))
	assert.Error(t, c.SetVisibility(VisibilityGroups, identity.Group("nope")))
}

func TestChannel_SetAlias(t *testing.T) {
	c, err := NewChannel("Pigs")
	require.NoError(t, err)

	require.NoError(t, c.SetAlias(" Group+Pigs "))
	assert.Equal(t, "group+pigs", c.AliasName)
	assert.Equal(t, "group+pigs", c.AsDocument().AliasName)

	assert.Error(t, c.SetAlias("no spaces"))
}

func TestChannel_AccessRules(t *testing.T) {
	employee := principalWith(1, identity.GroupEmployee)
	portal := principalWith(2, identity.GroupPortal)
	public := principalWith(3, identity.GroupPublic)
	admin := principalWith(4, identity.GroupSystem)

	pigs, _ := NewChannel("Pigs")
	public1, _ := NewChannel("Jobs")
	require.NoError(t, public1.SetVisibility(VisibilityPublic, ""))
	private, _ := NewChannel("Private")
	require.NoError(t, private.SetVisibility(VisibilityPrivate, ""))

	t.Run("groups channel", func(t *testing.T) {
		assert.True(t, pigs.CanRead(employee))
		assert.True(t, pigs.CanWrite(employee))
		assert.False(t, pigs.CanRead(portal))
		assert.False(t, pigs.CanRead(public))
		assert.True(t, pigs.CanWrite(admin))
	})

	t.Run("public channel is readable by all but writable by employees", func(t *testing.T) {
		assert.True(t, public1.CanRead(portal))
		assert.True(t, public1.CanRead(public))
		assert.False(t, public1.CanWrite(portal))
		assert.True(t, public1.CanWrite(employee))
	})

	t.Run("private channel needs membership", func(t *testing.T) {
		assert.False(t, private.CanRead(employee))
		assert.False(t, private.CanWrite(employee))
		assert.True(t, private.CanRead(admin))

		private.AddMembers(employee.PartnerID(), portal.PartnerID())
		assert.True(t, private.CanRead(employee))
		assert.True(t, private.CanWrite(employee))
		assert.True(t, private.CanRead(portal))
		assert.False(t, private.CanWrite(portal))
	})
}
