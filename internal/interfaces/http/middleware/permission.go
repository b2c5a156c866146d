package middleware

import (
	"net/http"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PermissionConfig holds configuration for permission middleware
type PermissionConfig struct {
	Logger *zap.Logger
}

// RequireRole admits only actors holding one of roles. Per-entity rules are
// enforced by the session; this guards operational endpoints.
func RequireRole(roles ...shared.Role) gin.HandlerFunc {
	return RequireRoleWithConfig(PermissionConfig{}, roles...)
}

// RequireRoleWithConfig is RequireRole with custom config
func RequireRoleWithConfig(cfg PermissionConfig, roles ...shared.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Authentication required", GetRequestID(c)))
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		if cfg.Logger != nil {
			cfg.Logger.Warn("Permission denied",
				zap.String("user_id", actor.UserID.String()),
				zap.String("role", string(actor.Role)),
				zap.String("path", c.Request.URL.Path),
			)
		}
		c.AbortWithStatusJSON(http.StatusForbidden,
			dto.NewErrorResponseWithRequestID(dto.ErrCodePermissionDenied, "Insufficient role for this operation", GetRequestID(c)))
	}
}
