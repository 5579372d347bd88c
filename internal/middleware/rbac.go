// rbac.go implements role-gated authorization middleware. The role checked
// here comes from the session token, which makes the check free of database
// work; operations with audit consequences (approve/reject) additionally
// re-verify the role against the role store inside the lifecycle service.
package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/resource-share/resource-share/internal/db/models"
)

// RequireRole aborts with 403 unless the authenticated user holds the given role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Not authenticated",
			})
			return
		}

		if actor.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			return
		}

		c.Next()
	}
}

// RequireAdmin aborts with 403 unless the authenticated user is an administrator.
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}

// RequireSelfOrAdmin aborts with 403 unless the numeric path parameter
// matches the authenticated user's ID, or the user is an administrator. Used
// for profile updates and account deletion.
func RequireSelfOrAdmin(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Not authenticated",
			})
			return
		}

		targetID, err := strconv.ParseInt(c.Param(param), 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "Invalid id",
			})
			return
		}

		if actor.UserID != targetID && !actor.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			return
		}

		c.Next()
	}
}
