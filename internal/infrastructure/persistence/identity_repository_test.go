package persistence

import (
	"context"
	"testing"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/erp/messaging/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormIdentityRepositories(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	companies := NewGormCompanyRepository(db)
	partners := NewGormPartnerRepository(db)
	users := NewGormUserRepository(db)

	company, err := identity.NewCompany("YourCompany", "info@yourcompany.example.com")
	require.NoError(t, err)
	require.NoError(t, companies.Create(ctx, company))
	require.NotZero(t, company.ID)

	partner, err := identity.NewPartner("Bert Tartignole", "bert@example.com", company.ID)
	require.NoError(t, err)
	require.NoError(t, partners.Create(ctx, partner))

	user, err := identity.NewUser("Bert", "secret-password", partner.ID, company.ID)
	require.NoError(t, err)
	require.NoError(t, user.AddGroup(identity.GroupEmployee))
	require.NoError(t, users.Create(ctx, user))
	require.NotZero(t, user.ID)

	t.Run("company round trip", func(t *testing.T) {
		found, err := companies.FindByID(ctx, company.ID)
		require.NoError(t, err)
		assert.Equal(t, "YourCompany", found.Name)

		_, err = companies.FindByID(ctx, 9999)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("partner update and batch lookup", func(t *testing.T) {
		require.NoError(t, partner.SetEmail(""))
		require.NoError(t, partners.Update(ctx, partner))

		found, err := partners.FindByID(ctx, partner.ID)
		require.NoError(t, err)
		assert.Empty(t, found.Email)

		batch, err := partners.FindByIDs(ctx, []int64{partner.ID, 9999})
		require.NoError(t, err)
		require.Len(t, batch, 1)
		assert.Equal(t, partner.ID, batch[0].ID)

		missing := &identity.Partner{BaseEntity: shared.BaseEntity{ID: 9999}, Name: "ghost"}
		assert.ErrorIs(t, partners.Update(ctx, missing), shared.ErrNotFound)
	})

	t.Run("user lookups load groups", func(t *testing.T) {
		found, err := users.FindByLogin(ctx, "BERT")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
		assert.True(t, found.HasGroup(identity.GroupEmployee))
		assert.True(t, found.VerifyPassword("secret-password"))

		byPartner, err := users.FindByPartnerID(ctx, partner.ID)
		require.NoError(t, err)
		assert.Equal(t, user.ID, byPartner.ID)

		exists, err := users.ExistsByLogin(ctx, "bert")
		require.NoError(t, err)
		assert.True(t, exists)

		_, err = users.FindByLogin(ctx, "nobody")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("update replaces groups", func(t *testing.T) {
		user.RemoveGroup(identity.GroupEmployee)
		require.NoError(t, user.AddGroup(identity.GroupPortal))
		user.Deactivate()
		require.NoError(t, users.Update(ctx, user))

		found, err := users.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, []identity.Group{identity.GroupPortal}, found.Groups)
		assert.False(t, found.Active)
	})
}
