package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/erp/messaging/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	prev := otel.GetTracerProvider()
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func spanAttrs(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	recorder := setupSpanRecorder(t)

	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{ServiceName: "messaging", Enabled: false}))
	router.GET("/", ok)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, recorder.Ended())
}

func TestSpanEnricher(t *testing.T) {
	recorder := setupSpanRecorder(t)
	principal := newTestPrincipal(t, identity.GroupEmployee)

	router := gin.New()
	router.Use(
		RequestID(),
		TracingWithConfig(TracingConfig{ServiceName: "messaging", Enabled: true}),
		func(c *gin.Context) {
			c.Set(JWTUserIDKey, principal.UserID())
			c.Set(PrincipalKey, principal)
			c.Next()
		},
		SpanEnricher(),
	)
	router.GET("/api/v1/messages/:id", func(c *gin.Context) {
		c.JSON(http.StatusForbidden, gin.H{})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/messages/42", nil)
	req.Header.Set(RequestIDKey, "req-trace")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]

	attrs := spanAttrs(span.Attributes())
	assert.Equal(t, "req-trace", attrs["request_id"].AsString())
	assert.Equal(t, int64(7), attrs[telemetry.SpanAttrUserID].AsInt64())
	assert.Equal(t, int64(3), attrs[telemetry.SpanAttrPartnerID].AsInt64())
	assert.Equal(t, codes.Error, span.Status().Code)
}
