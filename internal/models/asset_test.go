package models

import "testing"

func TestIsSupportedAsset(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"btc", true},
		{"BTC", true},
		{"Eth", true},
		{"usdt", true},
		{"doge", false},
		{"", false},
		{" btc", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := IsSupportedAsset(tt.code); got != tt.want {
				t.Errorf("IsSupportedAsset(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestNormalizeAsset(t *testing.T) {
	if got := NormalizeAsset("UsDt"); got != "usdt" {
		t.Errorf("NormalizeAsset(UsDt) = %q, want usdt", got)
	}
}
