package pricing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSource(url string, maxRetries int) *CriptoYaSource {
	return NewCriptoYaSource(CriptoYaConfig{
		BaseURL:    url,
		Timeout:    time.Second,
		MaxRetries: maxRetries,
		RetryBase:  time.Millisecond,
	})
}

func TestCriptoYaSource_GetUnitPrice_Success(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ask": 65000000.55, "bid": 64000000.10, "time": 1714560000}`))
	}))
	defer server.Close()

	src := newTestSource(server.URL, 0)
	price, err := src.GetUnitPrice(context.Background(), "BTC")

	require.NoError(t, err)
	assert.Equal(t, "/satoshitango/btc/ars", gotPath)
	assert.True(t, price.Equal(decimal.RequireFromString("65000000.55")), "got %s", price)
}

func TestCriptoYaSource_GetUnitPrice_UnsupportedAsset(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	src := newTestSource(server.URL, 2)
	_, err := src.GetUnitPrice(context.Background(), "doge")

	assert.ErrorIs(t, err, ErrUnsupportedAsset)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "no request should be made for unsupported assets")
}

func TestCriptoYaSource_GetUnitPrice_MalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"missing ask", `{"bid": 10, "time": 1}`},
		{"zero ask", `{"ask": 0, "bid": 10, "time": 1}`},
		{"negative ask", `{"ask": -5, "bid": 10, "time": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				atomic.AddInt32(&calls, 1)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			src := newTestSource(server.URL, 2)
			_, err := src.GetUnitPrice(context.Background(), "eth")

			assert.ErrorIs(t, err, ErrMalformedResponse)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "malformed responses are not retried")
		})
	}
}

func TestCriptoYaSource_GetUnitPrice_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`not found`))
	}))
	defer server.Close()

	src := newTestSource(server.URL, 2)
	_, err := src.GetUnitPrice(context.Background(), "usdt")

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream), "expected UpstreamError, got %v", err)
	assert.Equal(t, http.StatusNotFound, upstream.StatusCode)
	assert.Equal(t, "not found", upstream.Body)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCriptoYaSource_GetUnitPrice_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ask": 1015.5, "bid": 1000, "time": 1}`))
	}))
	defer server.Close()

	src := newTestSource(server.URL, 2)
	price, err := src.GetUnitPrice(context.Background(), "usdt")

	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("1015.5")))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCriptoYaSource_GetUnitPrice_RetriesExhausted(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	src := newTestSource(server.URL, 2)
	_, err := src.GetUnitPrice(context.Background(), "btc")

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream), "expected UpstreamError, got %v", err)
	assert.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "one attempt plus two retries")
}

func TestCriptoYaSource_GetUnitPrice_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"ask": 1, "bid": 1, "time": 1}`))
	}))
	defer server.Close()

	src := NewCriptoYaSource(CriptoYaConfig{BaseURL: server.URL, Timeout: 20 * time.Millisecond})
	_, err := src.GetUnitPrice(context.Background(), "btc")

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream), "expected UpstreamError, got %v", err)
	assert.Equal(t, 0, upstream.StatusCode)
}

func TestCriptoYaSource_GetUnitPrice_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ask": 1, "bid": 1, "time": 1}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := newTestSource(server.URL, 2)
	_, err := src.GetUnitPrice(ctx, "btc")

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream), "expected UpstreamError, got %v", err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUpstreamError_Error(t *testing.T) {
	withStatus := &UpstreamError{StatusCode: 503, Body: "down"}
	assert.Contains(t, withStatus.Error(), "503")

	transport := &UpstreamError{Err: errors.New("connection refused")}
	assert.Contains(t, transport.Error(), "connection refused")
	assert.ErrorContains(t, transport.Unwrap(), "connection refused")
}
