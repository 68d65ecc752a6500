//go:build integration

package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/erp/messaging/internal/domain/mail"
	"github.com/erp/messaging/internal/domain/shared"
	"github.com/erp/messaging/internal/infrastructure/migration"
	"github.com/erp/messaging/migrations"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresDB starts PostgreSQL, applies the embedded migrations and
// returns a GORM session on it.
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("messaging_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.New(sqlDB, migrations.FS, nil)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.EqualValues(t, 2, version)
	assert.False(t, dirty)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db
}

func TestPostgres_MessageVisibility(t *testing.T) {
	ctx := context.Background()
	db := newPostgresDB(t)

	company, err := identity.NewCompany("YourCompany", "info@yourcompany.example.com")
	require.NoError(t, err)
	require.NoError(t, NewGormCompanyRepository(db).Create(ctx, company))

	partners := NewGormPartnerRepository(db)
	var pids []int64
	for _, name := range []string{"Reader", "Author", "Other"} {
		p, err := identity.NewPartner(name, "", company.ID)
		require.NoError(t, err)
		require.NoError(t, partners.Create(ctx, p))
		pids = append(pids, p.ID)
	}
	reader, author, other := pids[0], pids[1], pids[2]

	subtypes := NewGormSubtypeRepository(db)
	comment, err := subtypes.FindByXMLID(ctx, mail.SubtypeComment)
	require.NoError(t, err, "subtypes are seeded by the migrations")
	note, err := subtypes.FindByXMLID(ctx, mail.SubtypeNote)
	require.NoError(t, err)
	assert.True(t, note.Internal)

	repo := NewGormMessageRepository(db)
	create := func(author int64, ref mail.DocumentRef, subtype *mail.Subtype, recipients ...int64) *mail.Message {
		m := mail.NewMessage("s", "b")
		m.AuthorID = &author
		m.AttachTo(ref)
		if subtype != nil {
			m.SubtypeID = &subtype.ID
		}
		m.AddRecipients(recipients...)
		require.NoError(t, repo.Create(ctx, m))
		return m
	}

	own := create(reader, mail.DocumentRef{}, nil)
	addressed := create(author, mail.DocumentRef{}, nil, reader, other)
	onDoc := create(author, mail.DocumentRef{Model: mail.ChannelModel, ResID: 10}, comment)
	internalNote := create(author, mail.DocumentRef{Model: mail.ChannelModel, ResID: 10}, note)
	create(author, mail.DocumentRef{Model: mail.ChannelModel, ResID: 20}, comment)

	scope := &mail.VisibilityScope{
		PartnerID: reader,
		Readable:  map[string][]int64{mail.ChannelModel: {10}},
	}
	msgs, total, err := repo.Search(ctx, mail.MessageFilter{Filter: shared.DefaultFilter()}, scope)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Equal(t, []int64{internalNote.ID, onDoc.ID, addressed.ID, own.ID}, ids(msgs))

	scope.RestrictSubtypes = true
	msgs, _, err = repo.Search(ctx, mail.MessageFilter{Filter: shared.DefaultFilter()}, scope)
	require.NoError(t, err)
	assert.Equal(t, []int64{onDoc.ID, own.ID}, ids(msgs))

	require.NoError(t, repo.SetStarred(ctx, onDoc.ID, reader, true))
	require.NoError(t, repo.SetStarred(ctx, onDoc.ID, reader, true))
	starred, err := repo.FindByID(ctx, onDoc.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{reader}, starred.StarredPartnerIDs)

	thread, err := repo.ThreadMessageIDs(ctx, onDoc.Document())
	require.NoError(t, err)
	assert.Equal(t, []int64{internalNote.ID, onDoc.ID}, thread)

	require.NoError(t, repo.Delete(ctx, onDoc.ID))
	thread, err = repo.ThreadMessageIDs(ctx, onDoc.Document())
	require.NoError(t, err)
	assert.Equal(t, []int64{internalNote.ID}, thread)
}

func TestPostgres_ParameterUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewGormParameterRepository(newPostgresDB(t))

	for _, v := range []string{"example.com", "example.org"} {
		param, err := mail.NewConfigParameter(mail.ParamCatchallDomain, v)
		require.NoError(t, err)
		require.NoError(t, repo.Set(ctx, param))
	}

	value, ok, err := repo.Get(ctx, mail.ParamCatchallDomain)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "example.org", value)
}
