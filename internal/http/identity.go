package http

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextKeyUser holds the resolved user name on the gin context.
const ContextKeyUser = "kikoeru.user"

// IdentityMiddleware resolves the acting user from the given header, falling
// back to defaultUser when the header is absent. The user row is created on
// first sight so ownership foreign keys always resolve.
func IdentityMiddleware(header, defaultUser string, users UserEnsurer) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := defaultUser
		if header != "" {
			if v := strings.TrimSpace(c.GetHeader(header)); v != "" {
				name = v
			}
		}
		if len(name) > 100 {
			respondBadRequest(c, "user name too long")
			c.Abort()
			return
		}
		if users != nil {
			if err := users.EnsureUser(c.Request.Context(), name); err != nil {
				respondStoreError(c, err, "resolve identity")
				c.Abort()
				return
			}
		}
		c.Set(ContextKeyUser, name)
		c.Next()
	}
}

// currentUser returns the user resolved by IdentityMiddleware.
func currentUser(c *gin.Context) string {
	return c.GetString(ContextKeyUser)
}
