package pricing

import (
	"context"
	"time"

	"cryptoledger/internal/models"

	"github.com/dgraph-io/ristretto"
	"github.com/shopspring/decimal"
)

// CachedSource wraps a PriceSource and keeps each asset's price for a fixed TTL.
type CachedSource struct {
	next  PriceSource
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewCachedSource creates a caching decorator around next.
func NewCachedSource(next PriceSource, ttl time.Duration) (*CachedSource, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e3,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &CachedSource{next: next, cache: c, ttl: ttl}, nil
}

// GetUnitPrice returns the cached price for asset or fetches and caches a fresh one.
func (s *CachedSource) GetUnitPrice(ctx context.Context, asset string) (decimal.Decimal, error) {
	code := models.NormalizeAsset(asset)
	if v, ok := s.cache.Get(code); ok {
		if price, ok := v.(decimal.Decimal); ok {
			return price, nil
		}
	}

	price, err := s.next.GetUnitPrice(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}

	s.cache.SetWithTTL(code, price, 1, s.ttl)
	s.cache.Wait()
	return price, nil
}

// Close stops the cache's background goroutines.
func (s *CachedSource) Close() {
	s.cache.Close()
}
