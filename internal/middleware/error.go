package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "cryptoledger/internal/errors"
	"cryptoledger/internal/logger"
)

// ErrorHandler writes the JSON error response for the last error a handler
// recorded with c.Error. Binding errors become INVALID_INPUT with the binding
// message; AppErrors keep their code and status; anything else is logged and
// answered with INTERNAL_ERROR.
func ErrorHandler() gin.HandlerFunc {
	log := logger.Named("http")
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		if last.IsType(gin.ErrorTypeBind) {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, last.Err.Error()))
			return
		}

		var appErr *apperrors.AppError
		if errors.As(last.Err, &appErr) {
			if appErr.Internal != nil {
				log.Errorw("app error",
					"request_id", RequestID(c),
					"code", appErr.Code,
					"internal", appErr.Internal.Error(),
					"path", c.Request.URL.Path,
				)
			}
			abortWithError(c, appErr)
			return
		}

		log.Errorw("unexpected error",
			"request_id", RequestID(c),
			"error", last.Err.Error(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		abortWithError(c, apperrors.ErrInternalServer)
	}
}

// NotFound answers requests that match no route.
func NotFound(c *gin.Context) {
	_ = c.Error(apperrors.ErrNotFound)
}
