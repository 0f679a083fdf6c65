package middleware

import (
	"net/http"

	"github.com/dropship/backend/internal/infrastructure/auth"
	"github.com/dropship/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PermissionConfig holds configuration for permission middleware
type PermissionConfig struct {
	// Logger for middleware logging
	Logger *zap.Logger
}

// RequirePermission creates middleware that requires a specific permission
func RequirePermission(permission string) gin.HandlerFunc {
	return RequireAnyPermissionWithConfig(PermissionConfig{}, permission)
}

// RequireAnyPermission creates middleware that requires any of the specified permissions
func RequireAnyPermission(permissions ...string) gin.HandlerFunc {
	return RequireAnyPermissionWithConfig(PermissionConfig{}, permissions...)
}

// RequireAnyPermissionWithConfig creates middleware that requires any of the
// specified permissions with custom config
func RequireAnyPermissionWithConfig(cfg PermissionConfig, permissions ...string) gin.HandlerFunc {
	return requirePermissions(cfg, permissions, (*auth.Claims).HasAnyPermission)
}

// RequireAllPermissions creates middleware that requires every listed permission
func RequireAllPermissions(permissions ...string) gin.HandlerFunc {
	return requirePermissions(PermissionConfig{}, permissions, (*auth.Claims).HasAllPermissions)
}

func requirePermissions(cfg PermissionConfig, permissions []string, check func(*auth.Claims, ...string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			handlePermissionDenied(c, cfg, nil, permissions, "No authentication claims found")
			return
		}
		if !check(claims, permissions...) {
			handlePermissionDenied(c, cfg, claims, permissions, "User lacks required permission")
			return
		}
		c.Next()
	}
}

// handlePermissionDenied aborts the request with 403
func handlePermissionDenied(c *gin.Context, cfg PermissionConfig, claims *auth.Claims, required []string, reason string) {
	if cfg.Logger != nil {
		fields := []zap.Field{
			zap.String("reason", reason),
			zap.Strings("required_permissions", required),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		}
		if claims != nil {
			fields = append(fields,
				zap.String("user_id", claims.UserID),
				zap.Strings("user_permissions", claims.Permissions),
			)
		}
		cfg.Logger.Warn("Permission denied", fields...)
	}

	c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeForbidden,
		"Access denied: insufficient permissions",
		c.GetString("request_id"),
	))
}
