package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cryptoledger/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestClient creates a client with a unique email.
func CreateTestClient(t *testing.T, db *gorm.DB) *models.Client {
	t.Helper()

	n := nextID()
	client := &models.Client{
		Name:  fmt.Sprintf("Client %d", n),
		Email: fmt.Sprintf("client%d@test.com", n),
	}
	if err := db.Create(client).Error; err != nil {
		t.Fatalf("failed to create test client: %v", err)
	}
	return client
}

// CreateTestTransaction inserts a transaction directly, bypassing validation and pricing.
// Money is amount × 1000 so fixtures stay distinguishable.
func CreateTestTransaction(t *testing.T, db *gorm.DB, clientID uint, asset string, action models.Action, amount string) *models.Transaction {
	t.Helper()
	return CreateTestTransactionAt(t, db, clientID, asset, action, amount, time.Now().UTC().Add(-time.Hour))
}

// CreateTestTransactionAt is CreateTestTransaction with an explicit datetime.
func CreateTestTransactionAt(t *testing.T, db *gorm.DB, clientID uint, asset string, action models.Action, amount string, at time.Time) *models.Transaction {
	t.Helper()

	qty := decimal.RequireFromString(amount)
	transaction := &models.Transaction{
		ClientID:     clientID,
		CryptoCode:   asset,
		Action:       action,
		CryptoAmount: qty,
		Money:        qty.Mul(decimal.NewFromInt(1000)).Round(models.MoneyScale),
		Datetime:     at,
	}
	if err := db.Create(transaction).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return transaction
}

// StubPriceSource is a pricing.PriceSource returning a fixed price and counting calls.
type StubPriceSource struct {
	mu    sync.Mutex
	Price decimal.Decimal
	Err   error
	calls int
}

// NewStubPriceSource creates a StubPriceSource returning price.
func NewStubPriceSource(price string) *StubPriceSource {
	return &StubPriceSource{Price: decimal.RequireFromString(price)}
}

// GetUnitPrice returns the configured price or error.
func (s *StubPriceSource) GetUnitPrice(_ context.Context, _ string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.Err != nil {
		return decimal.Zero, s.Err
	}
	return s.Price, nil
}

// Calls returns how many times GetUnitPrice was invoked.
func (s *StubPriceSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
