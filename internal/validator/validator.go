// Package validator holds the trade validation predicates and registers
// the matching custom validations with Gin's binding engine.
package validator

import (
	"time"

	"cryptoledger/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// IsValidQuantity reports whether q is strictly positive.
func IsValidQuantity(q decimal.Decimal) bool {
	return q.IsPositive()
}

// IsValidAction reports whether a is exactly "purchase" or "sale".
func IsValidAction(a string) bool {
	switch models.Action(a) {
	case models.ActionPurchase, models.ActionSale:
		return true
	}
	return false
}

// IsValidAsset reports whether code is a supported crypto code, ignoring case.
func IsValidAsset(code string) bool {
	return models.IsSupportedAsset(code)
}

// IsValidTimestamp reports whether t is not after the current UTC time.
func IsValidTimestamp(t time.Time) bool {
	return IsValidTimestampAt(t, time.Now().UTC())
}

// IsValidTimestampAt reports whether t is not after now.
func IsValidTimestampAt(t, now time.Time) bool {
	return !t.After(now)
}

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("crypto_action", validateAction)
		_ = v.RegisterValidation("crypto_asset", validateAsset)
	}
}

func validateAction(fl validator.FieldLevel) bool {
	return IsValidAction(fl.Field().String())
}

func validateAsset(fl validator.FieldLevel) bool {
	return IsValidAsset(fl.Field().String())
}
