package util

import (
	"math/big"

	"github.com/shopspring/decimal"
)

const gweiExponent = 9

// FormatGwei renders a wei amount as a gwei decimal string, e.g. 1500000000 -> "1.5".
func FormatGwei(wei *big.Int) string {
	if wei == nil {
		return "0"
	}

	return decimal.NewFromBigInt(wei, -gweiExponent).String()
}
