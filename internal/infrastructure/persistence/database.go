package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erp/messaging/internal/infrastructure/config"
	"github.com/erp/messaging/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Database is the shared gorm session plus the dialect it speaks
type Database struct {
	DB     *gorm.DB
	driver string
}

// Option adjusts the gorm configuration before the connection opens
type Option func(*gorm.Config)

func WithLogger(l logger.Interface) Option {
	return func(c *gorm.Config) { c.Logger = l }
}

// NewDatabase opens and pings the configured database. An empty driver
// means postgres. A sqlite database without a path lives in memory.
func NewDatabase(cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	gcfg := &gorm.Config{Logger: logger.Discard, SkipDefaultTransaction: true}
	for _, opt := range opts {
		opt(gcfg)
	}

	driver := cfg.Driver
	if driver == "" {
		driver = DriverPostgres
	}
	var dialector gorm.Dialector
	var tune func(*sql.DB)
	switch driver {
	case DriverPostgres:
		gcfg.PrepareStmt = true
		dialector = postgres.Open(cfg.DSN())
		tune = func(pool *sql.DB) {
			pool.SetMaxOpenConns(cfg.MaxOpenConns)
			pool.SetMaxIdleConns(cfg.MaxIdleConns)
			pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
			pool.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
		}
	case DriverSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = "file::memory:?cache=shared"
		}
		dialector = sqlite.Open(path)
		// a single connection keeps an in-memory database alive and
		// serializes writers
		tune = func(pool *sql.DB) { pool.SetMaxOpenConns(1) }
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	pool, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	tune(pool)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}
	return &Database{DB: gdb, driver: driver}, nil
}

// NewDatabaseFromGorm wraps a session opened elsewhere, as tests do
func NewDatabaseFromGorm(gdb *gorm.DB) *Database {
	return &Database{DB: gdb, driver: gdb.Dialector.Name()}
}

func (d *Database) Driver() string { return d.driver }

// AutoMigrate builds the schema from the persistence models. Only sqlite
// uses it; postgres runs the SQL migrations.
func (d *Database) AutoMigrate() error {
	if err := d.DB.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Ping reports whether the pool can still reach the database
func (d *Database) Ping(ctx context.Context) error {
	pool, err := d.DB.DB()
	if err != nil {
		return err
	}
	return pool.PingContext(ctx)
}

func (d *Database) Close() error {
	pool, err := d.DB.DB()
	if err != nil {
		return err
	}
	return pool.Close()
}
