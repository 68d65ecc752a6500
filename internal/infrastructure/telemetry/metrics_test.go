package telemetry_test

import (
	"context"
	"testing"

	"github.com/erp/messaging/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string][]metricdata.DataPoint[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string][]metricdata.DataPoint[int64])
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				out[m.Name] = sum.DataPoints
			}
		}
	}
	return out
}

func total(points []metricdata.DataPoint[int64]) int64 {
	var n int64
	for _, p := range points {
		n += p.Value
	}
	return n
}

func TestNewMessageMetrics_NilMeter(t *testing.T) {
	m, err := telemetry.NewMessageMetrics(nil)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
	assert.Nil(t, m)
}

func TestMessageMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := telemetry.NewMessageMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordMessageCreated(ctx, "mail.channel", "comment")
	m.RecordMessageCreated(ctx, "mail.channel", "comment")
	m.RecordMessageCreated(ctx, "", "email")
	m.RecordMessagesDeleted(ctx, 3)
	m.RecordMessagesDeleted(ctx, 0)
	m.RecordAccessDenied(ctx, "read")
	m.RecordStarToggle(ctx, true)
	m.RecordThreadCacheLookup(ctx, true)
	m.RecordThreadCacheLookup(ctx, false)
	m.RecordThreadCacheLookup(ctx, false)

	sums := collectSums(t, reader)
	assert.EqualValues(t, 3, total(sums["mail_message_created_total"]))
	assert.Len(t, sums["mail_message_created_total"], 2)
	assert.EqualValues(t, 3, total(sums["mail_message_deleted_total"]))
	assert.EqualValues(t, 1, total(sums["mail_message_access_denied_total"]))
	assert.EqualValues(t, 1, total(sums["mail_message_star_toggle_total"]))

	lookups := sums["mail_thread_cache_lookup_total"]
	require.Len(t, lookups, 2)
	for _, p := range lookups {
		result, _ := p.Attributes.Value(attribute.Key("result"))
		switch result.AsString() {
		case "hit":
			assert.EqualValues(t, 1, p.Value)
		case "miss":
			assert.EqualValues(t, 2, p.Value)
		default:
			t.Fatalf("unexpected result label %q", result.AsString())
		}
	}
}

func TestMessageMetrics_NilReceiver(t *testing.T) {
	var m *telemetry.MessageMetrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordMessageCreated(ctx, "mail.channel", "comment")
		m.RecordMessagesDeleted(ctx, 1)
		m.RecordAccessDenied(ctx, "create")
		m.RecordStarToggle(ctx, false)
		m.RecordThreadCacheLookup(ctx, true)
	})
}

func TestMeterProvider_Disabled(t *testing.T) {
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.Config{}, 0, nil)
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}
