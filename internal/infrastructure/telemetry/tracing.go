package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for service spans
const TracerName = "messaging"

// Span attribute keys for messaging spans
const (
	SpanAttrMessageID  = "mail.message_id"
	SpanAttrModel      = "mail.model"
	SpanAttrResID      = "mail.res_id"
	SpanAttrPartnerID  = "mail.partner_id"
	SpanAttrUserID     = "mail.user_id"
	SpanAttrCacheHit   = "mail.thread_cache_hit"
	SpanAttrResultSize = "mail.result_size"
)

// SpanOption is applied when a span starts. Spans are internal unless
// WithSpanKind says otherwise.
type SpanOption = trace.SpanStartOption

// WithAttribute attaches key=value at span start
func WithAttribute(key string, value any) SpanOption {
	return trace.WithAttributes(kv(key, value))
}

// WithSpanKind overrides the span kind
func WithSpanKind(kind trace.SpanKind) SpanOption {
	return trace.WithSpanKind(kind)
}

// StartSpan starts a span on the global provider. The caller ends it.
func StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name, opts...)
}

// StartServiceSpan starts a span named "<service>.<method>"
func StartServiceSpan(ctx context.Context, service, method string, opts ...SpanOption) (context.Context, trace.Span) {
	return StartSpan(ctx, service+"."+method, opts...)
}

// SetAttributes sets alternating key/value pairs on span. Pairs whose
// key is not a string are skipped.
func SetAttributes(span trace.Span, keyValues ...any) {
	if span != nil {
		span.SetAttributes(kvs(keyValues)...)
	}
}

// RecordError records err on span and marks it failed. A nil err is a no-op.
func RecordError(span trace.Span, err error, opts ...trace.EventOption) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err, opts...)
	span.SetStatus(codes.Error, err.Error())
}

// AddEvent adds a named event carrying alternating key/value pairs
func AddEvent(span trace.Span, name string, keyValues ...any) {
	if span != nil {
		span.AddEvent(name, trace.WithAttributes(kvs(keyValues)...))
	}
}

// GetTraceID returns the hex trace id active in ctx, or "" outside a trace
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

func kvs(keyValues []any) []attribute.KeyValue {
	var out []attribute.KeyValue
	for i := 1; i < len(keyValues); i += 2 {
		if key, ok := keyValues[i-1].(string); ok {
			out = append(out, kv(key, keyValues[i]))
		}
	}
	return out
}

func kv(key string, value any) attribute.KeyValue {
	k := attribute.Key(key)
	switch v := value.(type) {
	case string:
		return k.String(v)
	case bool:
		return k.Bool(v)
	case int:
		return k.Int(v)
	case int64:
		return k.Int64(v)
	case float64:
		return k.Float64(v)
	case []string:
		return k.StringSlice(v)
	case []int64:
		return k.Int64Slice(v)
	case fmt.Stringer:
		return k.String(v.String())
	}
	return k.String(fmt.Sprint(value))
}
