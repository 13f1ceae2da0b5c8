package models

import "strings"

// Action is the side of a trade.
type Action string

const (
	ActionPurchase Action = "purchase"
	ActionSale     Action = "sale"
)

// SupportedAssets lists the crypto codes the ledger accepts, in display order.
var SupportedAssets = []string{"btc", "eth", "usdt"}

// NormalizeAsset returns the canonical (lowercase) form of a crypto code.
func NormalizeAsset(code string) string {
	return strings.ToLower(code)
}

// IsSupportedAsset reports whether code, in any letter case, is a supported crypto code.
func IsSupportedAsset(code string) bool {
	normalized := NormalizeAsset(code)
	for _, asset := range SupportedAssets {
		if asset == normalized {
			return true
		}
	}
	return false
}
