package rbac

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"grc-backend/internal/shared/server/middleware"
	"grc-backend/internal/shared/server/respond"
	"grc-backend/internal/shared/telemetry"
)

// Require rejects requests whose user lacks the permission that the request
// method maps to on resource.
func Require(resource string, checker Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserIDFromContext(c)
		if userID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		permission := PermissionFor(resource, c.Request.Method)
		ok, err := checker.HasPermission(c.Request.Context(), userID, permission)
		if err != nil {
			telemetry.Error("rbac.check_failed", map[string]any{
				"user_id":    userID,
				"permission": permission,
				"error":      err,
			})
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to check permissions", nil)
			return
		}
		if !ok {
			verb, res := action(permission)
			respond.Error(c, http.StatusForbidden, "permission_denied",
				fmt.Sprintf("You do not have permission to %s %s", verb, res),
				gin.H{"permission": permission})
			return
		}
		c.Next()
	}
}
