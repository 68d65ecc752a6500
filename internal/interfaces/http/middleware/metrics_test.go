package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestHTTPMetricsWithMeter(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(provider.Meter("test"), true))
	router.POST("/api/v1/messages/:id/star", ok)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/messages/1/star", strings.NewReader(`{}`))
		router.ServeHTTP(httptest.NewRecorder(), req)
	}
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	data := collectMetrics(t, reader)

	total, ok := data["http_server_request_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	byRoute := make(map[string]int64)
	for _, p := range total.DataPoints {
		route, _ := p.Attributes.Value("http.route")
		byRoute[route.AsString()] += p.Value
	}
	assert.EqualValues(t, 2, byRoute["/api/v1/messages/:id/star"])
	assert.EqualValues(t, 1, byRoute["unknown"])

	duration, ok := data["http_server_request_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, p := range duration.DataPoints {
		count += p.Count
	}
	assert.EqualValues(t, 3, count)

	assert.Contains(t, data, "http_server_request_size_bytes")
	assert.Contains(t, data, "http_server_response_size_bytes")

	active, ok := data["http_server_active_requests"].(metricdata.Sum[int64])
	require.True(t, ok)
	for _, p := range active.DataPoints {
		assert.Zero(t, p.Value)
	}
}

func TestHTTPMetrics_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(HTTPMetrics(HTTPMetricsConfig{Enabled: false}))
	router.GET("/", ok)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHTTPMetrics_NilProvider(t *testing.T) {
	router := gin.New()
	router.Use(HTTPMetrics(HTTPMetricsConfig{Enabled: true}))
	router.GET("/", ok)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
