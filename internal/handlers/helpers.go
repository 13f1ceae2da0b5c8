package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "cryptoledger/internal/errors"
)

// parsePathID parses a uint path parameter.
// Returns ErrInvalidInput if the parameter is not a valid positive integer.
//
//nolint:unparam // param is intentionally generic for reuse across handlers with different path params
func parsePathID(c *gin.Context, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return uint(id), nil
}

// flexibleTimeLayouts are tried in order by parseFlexibleTime.
var flexibleTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseFlexibleTime parses RFC3339 (with or without fractional seconds), a
// zone-less date-time, or YYYY-MM-DD. Values without a zone are taken as UTC.
func parseFlexibleTime(value string) (time.Time, error) {
	for _, layout := range flexibleTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q, use RFC3339 (e.g. 2024-01-01T10:00:00Z) or YYYY-MM-DD", value)
}

// respondWithError records err on the context and stops the handler chain.
// middleware.ErrorHandler turns it into the JSON error response.
func respondWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// respondWithBindError records a request decoding or binding failure, reported as INVALID_INPUT.
func respondWithBindError(c *gin.Context, err error) {
	_ = c.Error(err).SetType(gin.ErrorTypeBind)
	c.Abort()
}
