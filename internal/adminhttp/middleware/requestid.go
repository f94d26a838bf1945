package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/agendahq/agenda-go/internal/requestid"
)

// RequestID injects a run id into the request context and response
// header, preserving an inbound X-Request-ID when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = requestid.New()
		}

		ctx := requestid.WithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
