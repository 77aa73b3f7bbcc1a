package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"textbook-backend/internal/shared/rbac"
	"textbook-backend/internal/shared/response"
	"textbook-backend/pkg/jwt"
)

const actorKey = "actor"

// AuthMiddleware validates the bearer token and stores the identity
// tuple (user id, username, role) in the request context.
func AuthMiddleware(manager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := manager.ValidateAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		if !rbac.IsValidRole(claims.Role) {
			response.Unauthorized(c, "unknown role in token")
			c.Abort()
			return
		}

		c.Set(actorKey, rbac.Actor{
			UserID:   claims.UserID,
			Username: claims.Username,
			Role:     claims.Role,
		})

		c.Next()
	}
}

// ActorFromContext returns the authenticated actor set by AuthMiddleware.
func ActorFromContext(c *gin.Context) (rbac.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return rbac.Actor{}, false
	}
	actor, ok := v.(rbac.Actor)
	return actor, ok
}

// RequireRoles aborts with 403 unless the actor holds one of the roles.
// Route-level gate for warehouse/admin endpoints; row-level rules stay
// in the rbac policy evaluated by services.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			response.Unauthorized(c, "not authenticated")
			c.Abort()
			return
		}

		if err := rbac.RequireRole(actor, roles...); err != nil {
			response.Forbidden(c, "insufficient role")
			c.Abort()
			return
		}

		c.Next()
	}
}
