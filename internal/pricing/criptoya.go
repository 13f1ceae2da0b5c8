package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cryptoledger/internal/logger"
	"cryptoledger/internal/models"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
)

const (
	defaultBaseURL  = "https://criptoya.com/api"
	defaultExchange = "satoshitango"
	defaultFiat     = "ars"

	// maxErrorBody caps how much of a non-2xx body is kept on UpstreamError.
	maxErrorBody = 512
)

// CriptoYaConfig configures a CriptoYaSource. Zero values fall back to the public feed defaults.
type CriptoYaConfig struct {
	BaseURL    string
	Exchange   string
	Fiat       string
	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration
}

// CriptoYaSource fetches ask prices from a CriptoYa-compatible quote feed.
type CriptoYaSource struct {
	httpClient *http.Client
	baseURL    string
	exchange   string
	fiat       string
	maxRetries uint64
	retryBase  time.Duration
}

// NewCriptoYaSource creates a price source with a bounded HTTP timeout and retry policy.
func NewCriptoYaSource(cfg CriptoYaConfig) *CriptoYaSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Exchange == "" {
		cfg.Exchange = defaultExchange
	}
	if cfg.Fiat == "" {
		cfg.Fiat = defaultFiat
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 200 * time.Millisecond
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &CriptoYaSource{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		exchange:   cfg.Exchange,
		fiat:       strings.ToLower(cfg.Fiat),
		maxRetries: uint64(cfg.MaxRetries),
		retryBase:  cfg.RetryBase,
	}
}

// GetUnitPrice returns the current ask price of one unit of asset.
func (s *CriptoYaSource) GetUnitPrice(ctx context.Context, asset string) (decimal.Decimal, error) {
	code := models.NormalizeAsset(asset)
	if !models.IsSupportedAsset(code) {
		return decimal.Zero, ErrUnsupportedAsset
	}

	url := fmt.Sprintf("%s/%s/%s/%s", s.baseURL, s.exchange, code, s.fiat)
	log := logger.Named("pricing")

	var price decimal.Decimal
	attempt := 0
	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(s.retryBase))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		p, err := s.fetch(ctx, url)
		if err != nil {
			if isRetryable(err) {
				log.Warnw("price fetch failed, retrying", "asset", code, "attempt", attempt, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		price = p
		return nil
	})
	if err != nil {
		var upstream *UpstreamError
		if !errors.As(err, &upstream) && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			err = &UpstreamError{Err: err}
		}
		return decimal.Zero, err
	}

	log.Debugw("price fetched", "asset", code, "price", price.String(), "attempts", attempt)
	return price, nil
}

// fetch performs a single request against the quote feed.
func (s *CriptoYaSource) fetch(ctx context.Context, url string) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, &UpstreamError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return decimal.Zero, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var quote Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if quote.Ask == nil || !quote.Ask.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: missing or non-positive ask", ErrMalformedResponse)
	}

	return *quote.Ask, nil
}

// isRetryable reports whether a failed fetch may succeed on a later attempt.
func isRetryable(err error) bool {
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		return false
	}
	return upstream.StatusCode == 0 ||
		upstream.StatusCode == http.StatusTooManyRequests ||
		upstream.StatusCode >= http.StatusInternalServerError
}
