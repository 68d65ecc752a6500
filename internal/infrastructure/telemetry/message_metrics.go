package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

var (
	attrModel       = attribute.Key("mail.model")
	attrMessageType = attribute.Key("mail.message_type")
	attrOperation   = attribute.Key("mail.operation")
	attrResult      = attribute.Key("result")
)

// MessageMetrics counts messaging activity. Methods on a nil
// *MessageMetrics do nothing, so services can run without metrics.
type MessageMetrics struct {
	created     metric.Int64Counter
	deleted     metric.Int64Counter
	denied      metric.Int64Counter
	starToggles metric.Int64Counter
	cacheLookup metric.Int64Counter
}

func NewMessageMetrics(meter metric.Meter) (*MessageMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	var errs []error
	counter := func(name, desc, unit string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		errs = append(errs, err)
		return c
	}
	m := &MessageMetrics{
		created:     counter("mail_message_created_total", "Messages created, by document model and type", "{message}"),
		deleted:     counter("mail_message_deleted_total", "Messages deleted", "{message}"),
		denied:      counter("mail_message_access_denied_total", "Message operations rejected by the access policy", "{operation}"),
		starToggles: counter("mail_message_star_toggle_total", "Starred flag toggles", "{toggle}"),
		cacheLookup: counter("mail_thread_cache_lookup_total", "Thread cache lookups by result", "{lookup}"),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordMessageCreated counts a message under its document model, "none"
// for messages outside any thread
func (m *MessageMetrics) RecordMessageCreated(ctx context.Context, model, messageType string) {
	if m == nil {
		return
	}
	if model == "" {
		model = "none"
	}
	m.created.Add(ctx, 1, metric.WithAttributes(attrModel.String(model), attrMessageType.String(messageType)))
}

func (m *MessageMetrics) RecordMessagesDeleted(ctx context.Context, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.deleted.Add(ctx, int64(count))
}

// RecordAccessDenied counts a rejected read, create, write or unlink
func (m *MessageMetrics) RecordAccessDenied(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.denied.Add(ctx, 1, metric.WithAttributes(attrOperation.String(operation)))
}

// RecordStarToggle labels the toggle with the state it produced
func (m *MessageMetrics) RecordStarToggle(ctx context.Context, starred bool) {
	if m == nil {
		return
	}
	m.starToggles.Add(ctx, 1, metric.WithAttributes(attribute.Bool("starred", starred)))
}

func (m *MessageMetrics) RecordThreadCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookup.Add(ctx, 1, metric.WithAttributes(attrResult.String(result)))
}
