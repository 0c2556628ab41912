package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// contextKey is the gin context key the middleware stores the actor under.
const contextKey = "workflow-actor"

// Middleware reads the actor identity forwarded by the authenticating
// reverse proxy. The backend never sees credentials, only the
// authenticated user ID and their roles.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := Actor{
			Name: c.GetHeader("X-User-Name"),
		}

		if id, err := uuid.Parse(c.GetHeader("X-User-Id")); err == nil {
			actor.ID = id
		}

		for _, role := range strings.Split(c.GetHeader("X-User-Roles"), ",") {
			role = strings.TrimSpace(role)
			if role != "" {
				actor.Roles = append(actor.Roles, Role(role))
			}
		}

		c.Set(contextKey, actor)
		c.Next()
	}
}

// ActorFromContext returns the actor stored by Middleware. Requests
// without identity headers yield a zero actor with no roles.
func ActorFromContext(c *gin.Context) Actor {
	if actor, ok := c.Get(contextKey); ok {
		return actor.(Actor)
	}

	return Actor{}
}
