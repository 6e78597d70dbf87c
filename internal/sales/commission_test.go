package sales

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCommissionRoundsHalfUp(t *testing.T) {
	cases := map[string]string{
		"0.01":    "0.00",
		"5.00":    "0.43",
		"10.10":   "0.86",
		"100.00":  "8.50",
		"300.00":  "25.50",
		"1234.56": "104.94",
		"0.06":    "0.01",
	}
	for amount, want := range cases {
		got := Commission(decimal.RequireFromString(amount))
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "commission(%s) = %s, want %s", amount, got, want)
	}
}

func TestCommissionMatchesRoundedProduct(t *testing.T) {
	for cents := int64(1); cents <= 20000; cents += 37 {
		amount := decimal.New(cents, -2)
		want := amount.Mul(decimal.RequireFromString("0.085")).Round(2)
		assert.True(t, Commission(amount).Equal(want), "amount %s", amount)
		assert.Equal(t, int32(-2), Commission(amount).Exponent(), "amount %s", amount)
	}
}
