// Package middleware provides the HTTP middleware of the messaging API.
package middleware

import (
	"net/http"

	"github.com/erp/messaging/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig selects whether server spans are produced and under
// which service name.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// TracingWithConfig opens an otelgin server span per request
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passThrough
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// SpanEnricher tags the server span with the request id and the acting
// identity, then flags 4xx and 5xx responses as errors. It must run after
// TracingWithConfig and the JWT middleware.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}
		span.SetAttributes(identityAttrs(c)...)

		c.Next()

		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			span.SetAttributes(attribute.Int("http.status_code", status))
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

func identityAttrs(c *gin.Context) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if id := getRequestID(c); id != "" {
		attrs = append(attrs, attribute.String("request_id", id))
	}
	if uid := GetJWTUserID(c); uid != 0 {
		attrs = append(attrs, attribute.Int64(telemetry.SpanAttrUserID, uid))
	}
	if p := GetPrincipal(c); p != nil {
		attrs = append(attrs, attribute.Int64(telemetry.SpanAttrPartnerID, p.PartnerID()))
	}
	return attrs
}
