package middleware

import (
	"net/http"

	"change-aggregator/pkg/apperror"
	"change-aggregator/pkg/response"

	"github.com/gin-gonic/gin"
)

// DefaultMaxBodyBytes caps JSON request bodies. The largest legitimate body is
// a merchant signup, well under a kilobyte.
const DefaultMaxBodyBytes int64 = 1 << 20

// MaxBodySize rejects bodies over maxBytes with VAL_004. A declared
// Content-Length is checked before the handler runs; chunked bodies fail when
// the handler reads past the limit.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, apperror.ErrPayloadTooLarge(maxBytes))
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
