package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"cryptoledger/internal/models"
	"cryptoledger/internal/pagination"
)

// ClientServicer defines the contract for client-related business logic.
type ClientServicer interface {
	CreateClient(name, email string) (*models.Client, error)
	GetClients(page pagination.PageRequest) (*pagination.PageResponse[models.Client], error)
	GetClientByID(clientID uint) (*models.Client, error)
	UpdateClient(clientID uint, name, email string) (*models.Client, error)
	DeleteClient(clientID uint) error
}

// Holding is a client's net quantity of one crypto asset.
type Holding struct {
	CryptoCode string          `json:"cryptoCode"`
	Balance    decimal.Decimal `json:"balance"`
}

// LedgerServicer computes balances from the transaction history.
// Methods taking a *gorm.DB run against that handle (e.g. an open database transaction);
// nil means the service's own connection.
type LedgerServicer interface {
	Balance(tx *gorm.DB, clientID uint, cryptoCode string) (decimal.Decimal, error)
	HasSufficientBalance(tx *gorm.DB, clientID uint, cryptoCode string, action models.Action, quantity decimal.Decimal) (bool, error)
	GetHoldings(clientID uint) ([]Holding, error)
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	ClientID   *uint
	CryptoCode *string
	Action     *models.Action
}

// TransactionUpdateFields holds the fields a partial update may change. Nil means unchanged.
type TransactionUpdateFields struct {
	CryptoAmount *decimal.Decimal
	Datetime     *time.Time
	Money        *decimal.Decimal
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, clientID uint, cryptoCode string, action string, cryptoAmount decimal.Decimal, datetime time.Time) (*models.Transaction, error)
	GetTransactions(page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(transactionID uint) (*models.Transaction, error)
	// UpdateTransaction returns the stored record for auditing; the HTTP API answers 204 with no body.
	UpdateTransaction(ctx context.Context, transactionID uint, fields TransactionUpdateFields) (*models.Transaction, error)
	DeleteTransaction(transactionID uint) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}
