package telemetry_test

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/erp/messaging/internal/infrastructure/config"
	"github.com/erp/messaging/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
)

func TestProfilerConfigFrom(t *testing.T) {
	cfg := telemetry.ProfilerConfigFrom(config.TelemetryConfig{
		ServiceName:            "messaging",
		ProfilingEnabled:       true,
		ProfilingServerAddress: "http://pyroscope:4040",
	})

	assert.Equal(t, telemetry.ProfilerConfig{
		Enabled:         true,
		ServerAddress:   "http://pyroscope:4040",
		ApplicationName: "messaging",
	}, cfg)
}

func TestNewProfiler(t *testing.T) {
	t.Run("disabled is a no-op", func(t *testing.T) {
		p, err := telemetry.NewProfiler(telemetry.ProfilerConfig{}, zaptest.NewLogger(t))
		require.NoError(t, err)

		assert.False(t, p.IsEnabled())
		assert.NoError(t, p.Stop())
		assert.NoError(t, p.Stop())
	})

	t.Run("enabled needs a server address", func(t *testing.T) {
		_, err := telemetry.NewProfiler(telemetry.ProfilerConfig{Enabled: true, ApplicationName: "messaging"}, nil)
		assert.ErrorContains(t, err, "server address")
	})

	t.Run("enabled needs an application name", func(t *testing.T) {
		_, err := telemetry.NewProfiler(telemetry.ProfilerConfig{Enabled: true, ServerAddress: "http://pyroscope:4040"}, nil)
		assert.ErrorContains(t, err, "application name")
	})
}

func TestProfileOperation(t *testing.T) {
	var operation, model string
	var labelled bool
	telemetry.ProfileOperation(context.Background(), "message.create", "mail.channel", func(ctx context.Context) {
		operation, labelled = pprof.Label(ctx, telemetry.ProfilingLabelOperation)
		model, _ = pprof.Label(ctx, telemetry.ProfilingLabelModel)
	})

	assert.True(t, labelled)
	assert.Equal(t, "message.create", operation)
	assert.Equal(t, "mail.channel", model)
}

func TestWithProfilingLabels(t *testing.T) {
	t.Run("empty values are dropped", func(t *testing.T) {
		called := false
		telemetry.ProfileOperation(context.Background(), "message.search", "", func(ctx context.Context) {
			called = true
			_, ok := pprof.Label(ctx, telemetry.ProfilingLabelModel)
			assert.False(t, ok)
		})
		assert.True(t, called)
	})

	t.Run("no labels runs fn as is", func(t *testing.T) {
		ctx := context.Background()
		var got context.Context
		telemetry.WithProfilingLabels(ctx, nil, func(c context.Context) { got = c })
		assert.Equal(t, ctx, got)
	})

	t.Run("long values are truncated", func(t *testing.T) {
		long := "/api/v1/" + strings.Repeat("x", 200)
		var route string
		telemetry.WithProfilingLabels(context.Background(), telemetry.HTTPRequestLabels(long, "GET"), func(ctx context.Context) {
			route, _ = pprof.Label(ctx, telemetry.ProfilingLabelRoute)
		})
		assert.Len(t, route, telemetry.MaxLabelValueLength)
	})
}

func TestTracerProvider_EnableSpanProfiles(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	exporter := tracetest.NewInMemoryExporter()
	tp := telemetry.NewTracerProviderWithExporter(exporter, nil)
	tp.EnableSpanProfiles()
	tp.EnableSpanProfiles()

	_, span := telemetry.StartServiceSpan(context.Background(), "thread", "message_post")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "thread.message_post", spans[0].Name)
	require.NoError(t, tp.Shutdown(context.Background()))
}

func TestTracerProvider_EnableSpanProfilesDisabled(t *testing.T) {
	prev := otel.GetTracerProvider()

	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{}, nil)
	require.NoError(t, err)
	tp.EnableSpanProfiles()

	assert.Equal(t, prev, otel.GetTracerProvider())
}
