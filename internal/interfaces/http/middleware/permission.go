package middleware

import (
	"net/http"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/erp/messaging/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PermissionConfig holds configuration for permission middleware
type PermissionConfig struct {
	// Logger for middleware logging
	Logger *zap.Logger
}

// RequireAdmin allows members of the system group only
func RequireAdmin() gin.HandlerFunc {
	return RequireAnyGroupWithConfig(PermissionConfig{}, identity.GroupSystem)
}

// RequireAnyGroup allows principals holding at least one of the groups.
// Administrators always pass.
func RequireAnyGroup(groups ...identity.Group) gin.HandlerFunc {
	return RequireAnyGroupWithConfig(PermissionConfig{}, groups...)
}

// RequireAnyGroupWithConfig is RequireAnyGroup with custom config
func RequireAnyGroupWithConfig(cfg PermissionConfig, groups ...identity.Group) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := GetPrincipal(c)
		if principal == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Authentication required", getRequestID(c)))
			return
		}
		if principal.IsAdmin() {
			c.Next()
			return
		}
		for _, g := range groups {
			if principal.HasGroup(g) {
				c.Next()
				return
			}
		}

		if cfg.Logger != nil {
			cfg.Logger.Warn("Group check failed",
				zap.Int64("user_id", principal.UserID()),
				zap.Strings("required_any", groupNames(groups)),
				zap.String("path", c.Request.URL.Path),
			)
		}
		c.AbortWithStatusJSON(http.StatusForbidden,
			dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "You do not have permission to access this resource", getRequestID(c)))
	}
}

func groupNames(groups []identity.Group) []string {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.String()
	}
	return names
}
