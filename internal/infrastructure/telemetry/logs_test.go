package telemetry_test

import (
	"context"
	"sync"
	"testing"

	"github.com/erp/messaging/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type captureProcessor struct {
	mu      sync.Mutex
	records []string
}

func (p *captureProcessor) OnEmit(_ context.Context, r *sdklog.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, r.Body().AsString())
	return nil
}

func (p *captureProcessor) Shutdown(context.Context) error   { return nil }
func (p *captureProcessor) ForceFlush(context.Context) error { return nil }

func (p *captureProcessor) bodies() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.records...)
}

func TestLoggerProvider_ZapCore(t *testing.T) {
	capture := &captureProcessor{}
	lp := telemetry.NewLoggerProviderWithProcessor(capture)
	require.True(t, lp.IsEnabled())

	logger := zap.New(lp.ZapCore("messaging", zapcore.InfoLevel))
	logger.Debug("dropped below level")
	logger.Info("message posted", zap.Int64("message_id", 7))
	logger.With(zap.String("model", "mail.channel")).Warn("thread cache invalidation failed")

	require.NoError(t, lp.ForceFlush(context.Background()))
	assert.Equal(t, []string{"message posted", "thread cache invalidation failed"}, capture.bodies())
	assert.NoError(t, lp.Shutdown(context.Background()))
}

func TestLoggerProvider_Disabled(t *testing.T) {
	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetry.Config{}, nil)
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	core := lp.ZapCore("messaging", zapcore.DebugLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
	assert.NoError(t, lp.Shutdown(context.Background()))
}
