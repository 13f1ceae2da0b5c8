package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single purchase or sale of a crypto asset by a client.
type Transaction struct {
	Base
	ClientID     uint            `gorm:"not null;index:idx_transactions_client_asset_action,priority:1" json:"clientId"`
	CryptoCode   string          `gorm:"size:10;not null;index:idx_transactions_client_asset_action,priority:2" json:"cryptoCode"`
	Action       Action          `gorm:"size:10;not null;index:idx_transactions_client_asset_action,priority:3" json:"action"`
	CryptoAmount decimal.Decimal `gorm:"type:numeric(18,8);not null" json:"cryptoAmount"`
	Money        decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"money"`
	Datetime     time.Time       `gorm:"not null;index" json:"datetime"`
}

// QuantityScale and MoneyScale are the fractional digits persisted for crypto amounts and fiat money.
const (
	QuantityScale int32 = 8
	MoneyScale    int32 = 2
)
