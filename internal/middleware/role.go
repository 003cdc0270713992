package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
)

// RequireRole checks the role set by the authenticator. Mount it after
// RequireAuth.
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(ContextUserID); !exists {
			respondUnauthorized(c, "Authentication credentials were not provided.")
			return
		}

		role, _ := c.Get(ContextUserRole)
		if userRole, ok := role.(string); !ok || userRole != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, models.NewAPIError(
				models.ErrForbidden,
				"You do not have permission to perform this action.",
				map[string]any{"required_role": requiredRole},
			))
			return
		}

		c.Next()
	}
}
