package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/messaging/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// mockedPostgres wraps a sqlmock connection in a postgres gorm session
func mockedPostgres(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	require.NoError(t, err)
	return NewDatabaseFromGorm(gdb), mock
}

func TestNewDatabase_SQLite(t *testing.T) {
	db, err := NewDatabase(&config.DatabaseConfig{Driver: DriverSQLite, SQLitePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Equal(t, DriverSQLite, db.Driver())
	require.NoError(t, db.AutoMigrate())
	for _, table := range []string{"mail_message", "mail_channel", "res_users", "ir_config_parameter"} {
		assert.True(t, db.DB.Migrator().HasTable(table), table)
	}
	assert.NoError(t, db.Ping(context.Background()))
}

func TestNewDatabase_UnknownDriver(t *testing.T) {
	_, err := NewDatabase(&config.DatabaseConfig{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported database driver "oracle"`)
}

func TestDatabase_PingAndClose(t *testing.T) {
	db, mock := mockedPostgres(t)
	assert.Equal(t, DriverPostgres, db.Driver())

	mock.ExpectPing()
	mock.ExpectClose()

	assert.NoError(t, db.Ping(context.Background()))
	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_PingCanceled(t *testing.T) {
	db, mock := mockedPostgres(t)
	mock.ExpectPing().WillReturnError(context.Canceled)

	assert.ErrorIs(t, db.Ping(context.Background()), context.Canceled)
}
