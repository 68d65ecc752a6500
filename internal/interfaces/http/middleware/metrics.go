package middleware

import (
	"time"

	"github.com/erp/messaging/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// HTTPMetricsConfig switches request metrics on and names their provider
type HTTPMetricsConfig struct {
	MeterProvider *telemetry.MeterProvider
	Enabled       bool
}

type httpInstruments struct {
	requests metric.Int64Counter
	latency  metric.Float64Histogram
	reqSize  metric.Int64Histogram
	respSize metric.Int64Histogram
	inFlight metric.Int64UpDownCounter
}

func newHTTPInstruments(meter metric.Meter) (*httpInstruments, error) {
	var in httpInstruments
	var err error
	if in.requests, err = meter.Int64Counter("http_server_request_total",
		metric.WithDescription("HTTP requests served"), metric.WithUnit("{request}")); err != nil {
		return nil, err
	}
	if in.latency, err = meter.Float64Histogram("http_server_request_duration_seconds",
		metric.WithDescription("HTTP request latency"), metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(telemetry.HTTPDurationBuckets...)); err != nil {
		return nil, err
	}
	if in.reqSize, err = meter.Int64Histogram("http_server_request_size_bytes",
		metric.WithDescription("HTTP request body size"), metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(telemetry.HTTPSizeBuckets...)); err != nil {
		return nil, err
	}
	if in.respSize, err = meter.Int64Histogram("http_server_response_size_bytes",
		metric.WithDescription("HTTP response body size"), metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(telemetry.HTTPSizeBuckets...)); err != nil {
		return nil, err
	}
	if in.inFlight, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("HTTP requests in flight"), metric.WithUnit("{request}")); err != nil {
		return nil, err
	}
	return &in, nil
}

func passThrough(c *gin.Context) { c.Next() }

// HTTPMetrics records request metrics when cfg enables them and the
// provider exports. Otherwise it only calls the next handler.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || !cfg.MeterProvider.IsEnabled() {
		return passThrough
	}
	return HTTPMetricsWithMeter(cfg.MeterProvider.Meter("http.server"), true)
}

// HTTPMetricsWithMeter labels every request with its route template, so
// /messages/1 and /messages/2 share a series. Unmatched paths are "unknown".
func HTTPMetricsWithMeter(meter metric.Meter, enabled bool) gin.HandlerFunc {
	if !enabled {
		return passThrough
	}
	in, err := newHTTPInstruments(meter)
	if err != nil {
		return passThrough
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		began := time.Now()
		in.inFlight.Add(ctx, 1)
		defer in.inFlight.Add(ctx, -1)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		series := metric.WithAttributes(
			semconv.HTTPRequestMethodKey.String(c.Request.Method),
			semconv.HTTPRouteKey.String(route),
		)
		in.requests.Add(ctx, 1, metric.WithAttributes(
			semconv.HTTPRequestMethodKey.String(c.Request.Method),
			semconv.HTTPRouteKey.String(route),
			semconv.HTTPResponseStatusCode(c.Writer.Status()),
		))
		in.latency.Record(ctx, time.Since(began).Seconds(), series)
		if n := c.Request.ContentLength; n > 0 {
			in.reqSize.Record(ctx, n, series)
		}
		if n := c.Writer.Size(); n > 0 {
			in.respSize.Record(ctx, int64(n), series)
		}
	}
}
