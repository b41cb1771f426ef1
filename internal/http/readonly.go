package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ContextKeyReadOnly marks requests served by a read-only instance.
const ContextKeyReadOnly = "kikoeru.read_only"

// ReadOnlyMiddleware blocks every write to the API. GET, HEAD and OPTIONS
// pass through. Demo instances run with it so visitors can browse a seeded
// catalog without changing it.
func ReadOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyReadOnly, true)
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Error: "this instance is read-only",
			Code:  "read_only",
		})
	}
}
