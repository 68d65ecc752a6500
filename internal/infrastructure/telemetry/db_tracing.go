package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds database tracing settings.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include bound variables in statements (dev only)
	SlowQueryThresh time.Duration
	DBSystem        string
}

type queryStartKey struct{}

// DBTracingPlugin registers otelgorm plus callbacks that annotate the
// query span with rows affected, the table and slow-query events. The
// annotating callbacks run before otelgorm ends the span.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates the plugin
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// Register installs tracing on db; it is a no-op when disabled
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := p.registerCallbacks(db); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

func (p *DBTracingPlugin) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	steps := []struct {
		name   string
		before func() error
		after  func() error
	}{
		{"create",
			func() error { return cb.Create().Before("gorm:create").Register("mail_trace:before_create", p.before) },
			func() error {
				return cb.Create().After("gorm:create").Before("otel:after:create").Register("mail_trace:after_create", p.after)
			}},
		{"query",
			func() error { return cb.Query().Before("gorm:query").Register("mail_trace:before_query", p.before) },
			func() error {
				return cb.Query().After("gorm:query").Before("otel:after:query").Register("mail_trace:after_query", p.after)
			}},
		{"update",
			func() error { return cb.Update().Before("gorm:update").Register("mail_trace:before_update", p.before) },
			func() error {
				return cb.Update().After("gorm:update").Before("otel:after:update").Register("mail_trace:after_update", p.after)
			}},
		{"delete",
			func() error { return cb.Delete().Before("gorm:delete").Register("mail_trace:before_delete", p.before) },
			func() error {
				return cb.Delete().After("gorm:delete").Before("otel:after:delete").Register("mail_trace:after_delete", p.after)
			}},
		{"row",
			func() error { return cb.Row().Before("gorm:row").Register("mail_trace:before_row", p.before) },
			func() error {
				return cb.Row().After("gorm:row").Before("otel:after:row").Register("mail_trace:after_row", p.after)
			}},
		{"raw",
			func() error { return cb.Raw().Before("gorm:raw").Register("mail_trace:before_raw", p.before) },
			func() error {
				return cb.Raw().After("gorm:raw").Before("otel:after:raw").Register("mail_trace:after_raw", p.after)
			}},
	}
	for _, s := range steps {
		if err := s.before(); err != nil {
			return err
		}
		if err := s.after(); err != nil {
			return err
		}
	}
	return nil
}

func (p *DBTracingPlugin) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (p *DBTracingPlugin) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
		))
	}
}
