package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "cryptoledger/internal/errors"
)

// APIKeyHeader carries the operator key on write requests.
const APIKeyHeader = "X-API-Key"

// APIKey returns a Gin middleware that validates the X-API-Key header against
// the configured operator key. An empty key leaves the routes open.
func APIKey(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		key := c.GetHeader(APIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			abortWithError(c, apperrors.ErrInvalidAPIKey)
			return
		}
		c.Next()
	}
}

func abortWithError(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.StatusCode, gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}
