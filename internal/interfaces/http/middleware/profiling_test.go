package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/erp/messaging/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestProfiling(t *testing.T) {
	serve := func(cfg ProfilingConfig, path string) (route, method string) {
		router := gin.New()
		router.Use(Profiling(cfg))
		router.GET("/api/v1/messages/:id", func(c *gin.Context) {
			route, _ = pprof.Label(c.Request.Context(), telemetry.ProfilingLabelRoute)
			method, _ = pprof.Label(c.Request.Context(), telemetry.ProfilingLabelMethod)
			c.Status(http.StatusOK)
		})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return route, method
	}

	t.Run("labels the route pattern, not the path", func(t *testing.T) {
		route, method := serve(ProfilingConfig{Enabled: true}, "/api/v1/messages/42")
		assert.Equal(t, "/api/v1/messages/:id", route)
		assert.Equal(t, http.MethodGet, method)
	})

	t.Run("disabled adds no labels", func(t *testing.T) {
		route, _ := serve(ProfilingConfig{}, "/api/v1/messages/42")
		assert.Empty(t, route)
	})

	t.Run("unmatched paths pass through", func(t *testing.T) {
		router := gin.New()
		router.Use(Profiling(ProfilingConfig{Enabled: true}))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
