package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerProvider ships zap entries to the collector as OTLP log records
type LoggerProvider struct {
	sdk *sdklog.LoggerProvider
}

// NewLoggerProvider batches records over gRPC. A disabled provider yields
// a no-op core from ZapCore.
func NewLoggerProvider(ctx context.Context, cfg Config, log *zap.Logger) (*LoggerProvider, error) {
	if !cfg.Enabled {
		return &LoggerProvider{}, nil
	}
	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exp, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("otlp log exporter: %w", err)
	}
	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	lp := &LoggerProvider{sdk: sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)),
	)}
	global.SetLoggerProvider(lp.sdk)
	if log != nil {
		log.Info("Log export enabled", zap.String("collector_endpoint", cfg.CollectorEndpoint))
	}
	return lp, nil
}

// NewLoggerProviderWithProcessor hands every record to p
func NewLoggerProviderWithProcessor(p sdklog.Processor) *LoggerProvider {
	return &LoggerProvider{sdk: sdklog.NewLoggerProvider(sdklog.WithProcessor(p))}
}

func (lp *LoggerProvider) IsEnabled() bool { return lp != nil && lp.sdk != nil }

// ZapCore bridges entries at or above min. Pass it to logger.New so the
// console output keeps working alongside.
func (lp *LoggerProvider) ZapCore(name string, min zapcore.Level) zapcore.Core {
	if !lp.IsEnabled() {
		return zapcore.NewNopCore()
	}
	return minLevelCore{Core: otelzap.NewCore(name, otelzap.WithLoggerProvider(lp.sdk)), min: min}
}

func (lp *LoggerProvider) ForceFlush(ctx context.Context) error {
	if !lp.IsEnabled() {
		return nil
	}
	return lp.sdk.ForceFlush(ctx)
}

func (lp *LoggerProvider) Shutdown(ctx context.Context) error {
	if !lp.IsEnabled() {
		return nil
	}
	return flushAndStop(ctx, "logger", lp.sdk.Shutdown)
}

// minLevelCore puts a level floor on the otelzap core, which accepts
// every level on its own.
type minLevelCore struct {
	zapcore.Core
	min zapcore.Level
}

func (c minLevelCore) Enabled(l zapcore.Level) bool {
	return l >= c.min && c.Core.Enabled(l)
}

func (c minLevelCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(e.Level) {
		return ce
	}
	return c.Core.Check(e, ce)
}

func (c minLevelCore) With(fields []zapcore.Field) zapcore.Core {
	return minLevelCore{Core: c.Core.With(fields), min: c.min}
}
