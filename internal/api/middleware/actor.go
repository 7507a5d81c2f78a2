package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/edulab/homeworkd/internal/identity"
)

const actorContextKey = "actor"

// ActorExtractor reads the acting user from the X-Actor-Id and X-Actor-Role
// headers into the request context. A missing or malformed identity is not an
// error here; handlers that require an actor respond 401 themselves.
// A real deployment would put a session-token verifier in front of this.
func ActorExtractor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Actor-Id")
		roleHeader := c.GetHeader("X-Actor-Role")
		if id == "" || roleHeader == "" {
			c.Next()
			return
		}

		role, err := identity.ParseRole(roleHeader)
		if err != nil {
			c.Next()
			return
		}

		c.Set(actorContextKey, identity.Actor{ID: id, Role: role})
		c.Next()
	}
}

// ActorFromContext returns the actor extracted for this request, if any.
func ActorFromContext(c *gin.Context) (identity.Actor, bool) {
	v, ok := c.Get(actorContextKey)
	if !ok {
		return identity.Actor{}, false
	}
	actor, ok := v.(identity.Actor)
	return actor, ok
}
