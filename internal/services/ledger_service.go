package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "cryptoledger/internal/errors"
	"cryptoledger/internal/models"
)

// ledgerService derives balances from the full transaction history on every call.
type ledgerService struct {
	db *gorm.DB
}

// NewLedgerService creates a new LedgerServicer.
func NewLedgerService(db *gorm.DB) LedgerServicer {
	return &ledgerService{db: db}
}

func (s *ledgerService) conn(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return s.db
	}
	return tx
}

// Balance returns purchased minus sold quantity of cryptoCode for a client.
func (s *ledgerService) Balance(tx *gorm.DB, clientID uint, cryptoCode string) (decimal.Decimal, error) {
	var rows []models.Transaction
	if err := s.conn(tx).
		Select("action", "crypto_amount").
		Where("client_id = ? AND crypto_code = ?", clientID, models.NormalizeAsset(cryptoCode)).
		Find(&rows).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return net(rows), nil
}

// HasSufficientBalance reports whether a client holds at least quantity of cryptoCode.
// Only sales are gated; any other action is always allowed.
func (s *ledgerService) HasSufficientBalance(tx *gorm.DB, clientID uint, cryptoCode string, action models.Action, quantity decimal.Decimal) (bool, error) {
	if action != models.ActionSale {
		return true, nil
	}

	balance, err := s.Balance(tx, clientID, cryptoCode)
	if err != nil {
		return false, err
	}
	return quantity.LessThanOrEqual(balance), nil
}

// GetHoldings returns the client's balance of every supported asset.
func (s *ledgerService) GetHoldings(clientID uint) ([]Holding, error) {
	if _, err := findClient(s.db, clientID); err != nil {
		return nil, err
	}

	var rows []models.Transaction
	if err := s.db.
		Select("crypto_code", "action", "crypto_amount").
		Where("client_id = ?", clientID).
		Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	byAsset := make(map[string][]models.Transaction)
	for _, r := range rows {
		byAsset[r.CryptoCode] = append(byAsset[r.CryptoCode], r)
	}

	holdings := make([]Holding, 0, len(models.SupportedAssets))
	for _, asset := range models.SupportedAssets {
		holdings = append(holdings, Holding{CryptoCode: asset, Balance: net(byAsset[asset])})
	}
	return holdings, nil
}

// net sums purchases minus sales. Amounts are added in Go so the result is
// exact regardless of how the driver returns NUMERIC columns.
func net(rows []models.Transaction) decimal.Decimal {
	purchased, sold := decimal.Zero, decimal.Zero
	for _, r := range rows {
		switch r.Action {
		case models.ActionPurchase:
			purchased = purchased.Add(r.CryptoAmount)
		case models.ActionSale:
			sold = sold.Add(r.CryptoAmount)
		}
	}
	return purchased.Sub(sold)
}
