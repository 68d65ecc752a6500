package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/erp/messaging/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// healthProbeTimeout bounds the database round trip of /health
const healthProbeTimeout = 2 * time.Second

// Pinger is a dependency that can answer a liveness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the unauthenticated probe endpoints
type SystemHandler struct {
	BaseHandler
	name, version string
	db            Pinger
	started       time.Time
}

// NewSystemHandler returns the probe handler. db may be nil, in which case
// /health reports the database as unknown.
func NewSystemHandler(name, version string, db Pinger) *SystemHandler {
	return &SystemHandler{name: name, version: version, db: db, started: time.Now()}
}

// SystemInfoResponse identifies the running build
type SystemInfoResponse struct {
	Name      string `json:"name" example:"Messaging API"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// PingResponse echoes the server clock
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// HealthResponse reports liveness and database reachability
type HealthResponse struct {
	Status   string `json:"status" example:"healthy"`
	Database string `json:"database" example:"up"`
}

// GetSystemInfo godoc
// @Summary      Build and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	})
}

// Ping godoc
// @Summary      Round trip check
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[PingResponse]
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{Message: "pong", Timestamp: time.Now().UTC().Format(time.RFC3339)})
}

// Health godoc
// @Summary      Liveness and database probe
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthResponse]
// @Failure      503 {object} APIResponse[HealthResponse]
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "healthy", Database: h.databaseState(c.Request.Context())}
	status := http.StatusOK
	if resp.Database == "down" {
		resp.Status, status = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(status, dto.NewSuccessResponse(resp))
}

func (h *SystemHandler) databaseState(ctx context.Context) string {
	if h.db == nil {
		return "unknown"
	}
	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		return "down"
	}
	return "up"
}
