package middleware

import (
	"errors"
	"net/http"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

const bodyTooLargeMessage = "Request body exceeds maximum allowed size"

// BodyLimit caps request bodies at maxBytes. A declared Content-Length over
// the cap is refused up front; undeclared bodies are cut off while reading and
// the bind failure is reported as 413 by HandleValidationError. A non-positive
// maxBytes disables the limit.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			abortBodyTooLarge(c)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// IsBodyTooLarge reports whether err came from reading past the body limit
func IsBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

func abortBodyTooLarge(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeBodyTooLarge, bodyTooLargeMessage, GetRequestID(c)))
}
