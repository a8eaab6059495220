package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBig(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok, "bad big.Int literal %q", s)
	return v
}

func TestFormatBigInt(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals uint8
		want     string
	}{
		{"whole token", "1000000000000000000", 18, "1"},
		{"fractional", "1234500000000000000", 18, "1.2345"},
		{"sub unit", "5", 18, "0.000000000000000005"},
		{"zero", "0", 18, "0"},
		{"no decimals", "12345", 0, "12345"},
		{"six decimals", "1500000", 6, "1.5"},
		{"negative", "-2500000000000000000", 18, "-2.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatBigInt(mustBig(t, tt.amount), tt.decimals)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatBigIntNil(t *testing.T) {
	assert.Equal(t, "0", FormatBigInt(nil, 18))
}

func TestToHumanUnits(t *testing.T) {
	assert.InDelta(t, 1.5, ToHumanUnits(mustBig(t, "1500000000000000000"), 18), 1e-12)
	assert.InDelta(t, 0.5, ToHumanUnits(mustBig(t, "500000000000000000"), 18), 1e-12)
	assert.Zero(t, ToHumanUnits(nil, 18))
}

func TestCalculateValueUSD(t *testing.T) {
	// 1.5 tokens at $2.00 each.
	v := CalculateValueUSD(mustBig(t, "1500000000000000000"), 18, 2.0)
	assert.InDelta(t, 3.0, v, 1e-12)

	assert.Zero(t, CalculateValueUSD(nil, 18, 2.0))
	assert.Zero(t, CalculateValueUSD(mustBig(t, "1000000000000000000"), 18, 0))
}

func TestCalculateValueUSDLargeAmountKeepsPrecision(t *testing.T) {
	// An amount beyond float64's safe integer range must not lose minor
	// units before the multiply.
	amount := mustBig(t, "123456789012345678901234567890")
	v := CalculateValueUSD(amount, 18, 1.0)
	assert.InDelta(t, 123456789012.34567890123456789, v, 1e-3)
}

func TestBatchStrings(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	batches := BatchStrings(items, 2)
	require.Len(t, batches, 3)
	assert.Equal(t, []string{"a", "b"}, batches[0])
	assert.Equal(t, []string{"c", "d"}, batches[1])
	assert.Equal(t, []string{"e"}, batches[2])

	assert.Len(t, BatchStrings(items, 10), 1)
	assert.Empty(t, BatchStrings(nil, 2))
}
