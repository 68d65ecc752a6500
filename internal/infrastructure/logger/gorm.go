package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowSQL = 200 * time.Millisecond

// GormLogger routes GORM's statement log into zap, tagged with the request
// and trace ids found on the context.
type GormLogger struct {
	log      *zap.Logger
	level    gormlogger.LogLevel
	slowSQL  time.Duration
	keepMiss bool
}

// GormLoggerOption tunes a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold flags statements slower than d. Zero disables it.
func WithSlowThreshold(d time.Duration) GormLoggerOption {
	return func(l *GormLogger) { l.slowSQL = d }
}

// WithRecordNotFound logs gorm.ErrRecordNotFound as a failure. Lookups by
// id miss routinely, so it is dropped by default.
func WithRecordNotFound() GormLoggerOption {
	return func(l *GormLogger) { l.keepMiss = true }
}

// NewGormLogger returns a gorm logger writing to a "gorm" child of base
func NewGormLogger(base *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	l := &GormLogger{log: base.Named("gorm"), level: level, slowSQL: defaultSlowSQL}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, gormlogger.Info, zapcore.InfoLevel, msg, args)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, gormlogger.Warn, zapcore.WarnLevel, msg, args)
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, gormlogger.Error, zapcore.ErrorLevel, msg, args)
}

func (l *GormLogger) printf(ctx context.Context, floor gormlogger.LogLevel, lvl zapcore.Level, msg string, args []any) {
	if l.level < floor {
		return
	}
	if ce := l.log.Check(lvl, fmt.Sprintf(msg, args...)); ce != nil {
		ce.Write(Fields(ctx)...)
	}
}

// Trace logs one executed statement. A failure outranks slowness, and
// plain statements only show up at Info.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	if err != nil && !l.keepMiss && errors.Is(err, gormlogger.ErrRecordNotFound) {
		return
	}
	took := time.Since(begin)

	var lvl zapcore.Level
	var msg string
	switch {
	case err != nil && l.level >= gormlogger.Error:
		lvl, msg = zapcore.ErrorLevel, "sql failed"
	case l.slowSQL > 0 && took > l.slowSQL && l.level >= gormlogger.Warn:
		lvl, msg = zapcore.WarnLevel, "slow sql"
	case err == nil && l.level >= gormlogger.Info:
		lvl, msg = zapcore.DebugLevel, "sql"
	default:
		return
	}

	ce := l.log.Check(lvl, msg)
	if ce == nil {
		return
	}
	stmt, rows := fc()
	fields := append(Fields(ctx), zap.String("sql", stmt), zap.Int64("rows", rows), zap.Duration("took", took))
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	ce.Write(fields...)
}

var gormLevels = map[string]gormlogger.LogLevel{
	"silent": gormlogger.Silent,
	"error":  gormlogger.Error,
	"warn":   gormlogger.Warn,
	"info":   gormlogger.Info,
	"debug":  gormlogger.Info,
}

// MapGormLogLevel turns the application log level into a gorm level.
// Unknown names fall back to warnings.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	if l, ok := gormLevels[level]; ok {
		return l
	}
	return gormlogger.Warn
}
