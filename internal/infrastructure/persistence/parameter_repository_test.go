package persistence

import (
	"context"
	"testing"

	"github.com/erp/messaging/internal/domain/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormParameterRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormParameterRepository(newTestDB(t))

	_, ok, err := repo.Get(ctx, mail.ParamCatchallDomain)
	require.NoError(t, err)
	assert.False(t, ok)

	param, err := mail.NewConfigParameter(mail.ParamCatchallDomain, "schlouby.fr")
	require.NoError(t, err)
	require.NoError(t, repo.Set(ctx, param))

	param.Value = "example.com"
	require.NoError(t, repo.Set(ctx, param))

	value, ok, err := repo.Get(ctx, mail.ParamCatchallDomain)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "example.com", value)

	alias, err := mail.NewConfigParameter(mail.ParamCatchallAlias, "gateway")
	require.NoError(t, err)
	require.NoError(t, repo.Set(ctx, alias))

	settings, err := mail.LoadCatchallSettings(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, mail.CatchallSettings{Domain: "example.com", Alias: "gateway"}, settings)

	params, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, params, 2)
	assert.Equal(t, mail.ParamCatchallAlias, params[0].Key)

	require.NoError(t, repo.Delete(ctx, mail.ParamCatchallDomain))
	require.NoError(t, repo.Delete(ctx, mail.ParamCatchallDomain))
	_, ok, err = repo.Get(ctx, mail.ParamCatchallDomain)
	require.NoError(t, err)
	assert.False(t, ok)
}
