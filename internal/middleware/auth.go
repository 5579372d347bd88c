// Package middleware provides Gin HTTP middleware for authentication,
// authorization, rate limiting, and metrics.
//
// Middleware ordering matters and is enforced in router.go:
//
//	RequestID → Metrics → RateLimit → Auth → RBAC → Handler
//
// Rate limiting runs before auth so brute-force attempts are shed before any
// bcrypt or database work. Auth populates the acting identity; the RBAC
// middleware reads from that context.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/resource-share/resource-share/internal/auth"
	"github.com/resource-share/resource-share/internal/services"
)

// Context keys populated by AuthMiddleware.
const (
	ContextUserIDKey   = "user_id"
	ContextUsernameKey = "username"
	ContextRoleKey     = "role"
)

// AuthMiddleware validates the bearer session token and resolves the acting
// user. Expired tokens get a distinct message from invalid ones so clients
// know whether to prompt a re-login.
func AuthMiddleware(accounts *services.AccountsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing authorization header",
			})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header must start with 'Bearer '",
			})
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is empty",
			})
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Token expired",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token",
			})
			return
		}

		// The token subject is the username; resolve it to a user row so
		// handlers get a stable numeric ID and deleted accounts are locked
		// out immediately.
		user, err := accounts.GetByUsername(c.Request.Context(), claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "User not found",
			})
			return
		}

		c.Set(ContextUserIDKey, user.ID)
		c.Set(ContextUsernameKey, user.Username)
		c.Set(ContextRoleKey, claims.Role)

		c.Next()
	}
}

// ActorFromContext rebuilds the acting identity stored by AuthMiddleware.
// The second return value is false when the request was not authenticated.
func ActorFromContext(c *gin.Context) (services.Actor, bool) {
	userIDVal, ok := c.Get(ContextUserIDKey)
	if !ok {
		return services.Actor{}, false
	}
	userID, ok := userIDVal.(int64)
	if !ok {
		return services.Actor{}, false
	}

	role, _ := c.Get(ContextRoleKey)
	roleStr, _ := role.(string)

	return services.Actor{UserID: userID, Role: roleStr}, true
}
