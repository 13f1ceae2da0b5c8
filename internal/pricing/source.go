// Package pricing fetches current unit prices for supported crypto assets from an external quote feed.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnsupportedAsset is returned for crypto codes outside the supported set. No request is made.
	ErrUnsupportedAsset = errors.New("unsupported crypto asset")

	// ErrMalformedResponse is returned when the quote body cannot be decoded or has no usable ask price.
	ErrMalformedResponse = errors.New("malformed price response")
)

// PriceSource returns the current fiat unit price of a crypto asset.
type PriceSource interface {
	GetUnitPrice(ctx context.Context, asset string) (decimal.Decimal, error)
}

// UpstreamError reports a failed exchange with the quote feed.
// StatusCode is zero when no HTTP response was received (timeout, connection refused).
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("price feed unreachable: %v", e.Err)
	}
	return fmt.Sprintf("price feed returned status %d: %s", e.StatusCode, e.Body)
}

// Unwrap returns the underlying transport error, if any.
func (e *UpstreamError) Unwrap() error { return e.Err }

// Quote is the body returned by the quote feed.
type Quote struct {
	Ask  *decimal.Decimal `json:"ask"`
	Bid  *decimal.Decimal `json:"bid"`
	Time int64            `json:"time"`
}
