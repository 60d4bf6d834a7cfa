package webapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"luaspark-server/internal/domain/session"
	httptransport "luaspark-server/internal/transport/http"
)

// emailKey is the gin context key under which the middleware stores the
// resolved identity.
const emailKey = "auth.email"

// tokenKey stores the raw bearer token for handlers that revoke it.
const tokenKey = "auth.token"

// AuthMiddleware resolves the bearer token through the session registry and
// aborts with 401 when it is missing or unknown.
func AuthMiddleware(sessions *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" || token == header {
			httptransport.RespondError(c, http.StatusUnauthorized, "missing bearer token", nil)
			c.Abort()
			return
		}

		email, err := sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			httptransport.RespondError(c, http.StatusUnauthorized, "invalid or expired token", nil)
			c.Abort()
			return
		}

		c.Set(emailKey, email)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// authedEmail returns the identity placed by AuthMiddleware.
func authedEmail(c *gin.Context) string {
	return c.GetString(emailKey)
}
