package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "cryptoledger/internal/errors"
	"cryptoledger/internal/lock"
	"cryptoledger/internal/logger"
	"cryptoledger/internal/models"
	"cryptoledger/internal/pagination"
	"cryptoledger/internal/pricing"
	"cryptoledger/internal/validator"
)

// Upper bounds imposed by NUMERIC(18,8) and NUMERIC(18,2).
var (
	maxQuantity = decimal.New(1, 10)
	maxMoney    = decimal.New(1, 16)
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db     *gorm.DB
	ledger LedgerServicer
	prices pricing.PriceSource
	locker lock.Locker
}

// NewTransactionService creates a new TransactionServicer.
// A nil locker falls back to an in-process KeyedMutex.
func NewTransactionService(db *gorm.DB, ledger LedgerServicer, prices pricing.PriceSource, locker lock.Locker) TransactionServicer {
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	return &transactionService{
		db:     db,
		ledger: ledger,
		prices: prices,
		locker: locker,
	}
}

// CreateTransaction validates, prices and records a purchase or sale.
// Sales are serialized per client and asset, and the balance is checked again
// inside the write transaction.
func (s *transactionService) CreateTransaction(
	ctx context.Context,
	clientID uint,
	cryptoCode string,
	action string,
	cryptoAmount decimal.Decimal,
	datetime time.Time,
) (*models.Transaction, error) {
	quantity, err := validateQuantity(cryptoAmount)
	if err != nil {
		return nil, err
	}
	if !validator.IsValidAction(action) {
		return nil, apperrors.ErrInvalidAction
	}
	if !validator.IsValidAsset(cryptoCode) {
		return nil, apperrors.WithMessage(apperrors.ErrUnsupportedAsset, fmt.Sprintf("crypto asset '%s' is not supported", cryptoCode))
	}
	if !validator.IsValidTimestamp(datetime) {
		return nil, apperrors.ErrInvalidTimestamp
	}

	code := models.NormalizeAsset(cryptoCode)
	act := models.Action(action)

	if _, err := findClient(s.db, clientID); err != nil {
		return nil, err
	}

	if act == models.ActionSale {
		unlock, err := s.locker.Lock(ctx, lock.SellKey(clientID, code))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, fmt.Errorf("acquiring sell lock: %w", err))
		}
		defer unlock()

		ok, err := s.ledger.HasSufficientBalance(nil, clientID, code, act, quantity)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperrors.ErrInsufficientBalance
		}
	}

	money, err := s.price(ctx, code, quantity)
	if err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		ClientID:     clientID,
		CryptoCode:   code,
		Action:       act,
		CryptoAmount: quantity,
		Money:        money,
		Datetime:     datetime.UTC(),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if act == models.ActionSale {
			if err := lockClientRow(tx, clientID); err != nil {
				return err
			}
			ok, err := s.ledger.HasSufficientBalance(tx, clientID, code, act, quantity)
			if err != nil {
				return err
			}
			if !ok {
				return apperrors.ErrInsufficientBalance
			}
		}

		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Named("transactions").Infow("transaction recorded",
		"transaction_id", transaction.ID,
		"client_id", clientID,
		"crypto_code", code,
		"action", act,
		"crypto_amount", quantity.String(),
		"money", money.String(),
	)
	return transaction, nil
}

// GetTransactions retrieves a paginated, filtered list of transactions, newest first.
func (s *transactionService) GetTransactions(page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := applyTransactionFilters(s.db.Model(&models.Transaction{}), filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("datetime DESC").
		Order("id DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.ClientID != nil {
		q = q.Where("client_id = ?", *f.ClientID)
	}
	if f.CryptoCode != nil {
		q = q.Where("crypto_code = ?", models.NormalizeAsset(*f.CryptoCode))
	}
	if f.Action != nil {
		q = q.Where("action = ?", *f.Action)
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID.
func (s *transactionService) GetTransactionByID(transactionID uint) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.First(&transaction, transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction applies a partial update. A new quantity re-prices the
// transaction's asset; a money override is honored only when quantity is unchanged.
// The client's balance is not re-checked.
func (s *transactionService) UpdateTransaction(ctx context.Context, transactionID uint, fields TransactionUpdateFields) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(transactionID)
	if err != nil {
		return nil, err
	}

	var quantity decimal.Decimal
	if fields.CryptoAmount != nil {
		if quantity, err = validateQuantity(*fields.CryptoAmount); err != nil {
			return nil, err
		}
	}
	if fields.Datetime != nil && !validator.IsValidTimestamp(*fields.Datetime) {
		return nil, apperrors.ErrInvalidTimestamp
	}
	if fields.CryptoAmount == nil && fields.Money != nil {
		if !fields.Money.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "money must be greater than zero")
		}
		if fields.Money.Round(models.MoneyScale).GreaterThanOrEqual(maxMoney) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "money exceeds the supported range")
		}
	}

	if fields.CryptoAmount != nil {
		money, err := s.price(ctx, transaction.CryptoCode, quantity)
		if err != nil {
			return nil, err
		}
		transaction.CryptoAmount = quantity
		transaction.Money = money
	} else if fields.Money != nil {
		transaction.Money = fields.Money.Round(models.MoneyScale)
	}
	if fields.Datetime != nil {
		transaction.Datetime = fields.Datetime.UTC()
	}

	if err := s.db.Save(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transaction, nil
}

// DeleteTransaction deletes a transaction.
func (s *transactionService) DeleteTransaction(transactionID uint) error {
	transaction, err := s.GetTransactionByID(transactionID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// price returns the fiat value of quantity units of code at the current unit price.
func (s *transactionService) price(ctx context.Context, code string, quantity decimal.Decimal) (decimal.Decimal, error) {
	unitPrice, err := s.prices.GetUnitPrice(ctx, code)
	if err != nil {
		return decimal.Zero, priceError(err)
	}

	money := unitPrice.Mul(quantity).Round(models.MoneyScale)
	if money.GreaterThanOrEqual(maxMoney) {
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction value exceeds the supported range")
	}
	return money, nil
}

// validateQuantity checks q is positive, has at most 8 fractional digits and fits NUMERIC(18,8).
// Amounts are never rounded, so the recorded quantity is exactly what was requested.
func validateQuantity(q decimal.Decimal) (decimal.Decimal, error) {
	if !validator.IsValidQuantity(q) {
		return decimal.Zero, apperrors.ErrInvalidQuantity
	}
	if !q.Equal(q.Truncate(models.QuantityScale)) {
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrInvalidQuantity, "crypto amount has more than 8 decimal places")
	}
	if q.GreaterThanOrEqual(maxQuantity) {
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrInvalidQuantity, "crypto amount exceeds the supported range")
	}
	return q, nil
}

// priceError maps a pricing failure to an AppError.
func priceError(err error) error {
	if errors.Is(err, pricing.ErrUnsupportedAsset) {
		return apperrors.Wrap(apperrors.ErrUnsupportedAsset, err)
	}
	return apperrors.Wrap(apperrors.ErrPriceUnavailable, err)
}

// lockClientRow loads the client row inside tx, holding a row lock on PostgreSQL
// until tx ends so concurrent sales by the same client queue on the database.
func lockClientRow(tx *gorm.DB, clientID uint) error {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	_, err := findClient(q, clientID)
	return err
}
