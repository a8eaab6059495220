package utils

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatBigInt converts a raw minor-unit amount to a human-readable string,
// e.g. amount=1234500000000000000, decimals=18 => "1.2345".
func FormatBigInt(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	if decimals == 0 {
		return amount.String()
	}

	s := decimal.NewFromBigInt(amount, -int32(decimals)).StringFixed(int32(decimals))
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

// ToHumanUnits converts a raw minor-unit amount to a float in whole-token
// units. Only for the display/summation boundary; raw amounts stay *big.Int
// everywhere else.
func ToHumanUnits(amount *big.Int, decimals uint8) float64 {
	if amount == nil {
		return 0
	}
	f, _ := decimal.NewFromBigInt(amount, -int32(decimals)).Float64()
	return f
}

// CalculateValueUSD derives the USD value of a raw minor-unit amount at the
// given unit price. The multiplication runs on decimals, not float64, so
// amounts beyond the safe float integer range do not lose precision before
// the final conversion.
func CalculateValueUSD(amount *big.Int, decimals uint8, priceUSD float64) float64 {
	if amount == nil || priceUSD == 0 {
		return 0
	}
	v, _ := decimal.NewFromBigInt(amount, -int32(decimals)).
		Mul(decimal.NewFromFloat(priceUSD)).
		Float64()
	return v
}
