package sales

import "github.com/shopspring/decimal"

// CommissionRate applies to every sale at creation time. Changing it does not touch stored sales.
var CommissionRate = decimal.RequireFromString("0.085")

// MinAmount is the smallest accepted sale amount.
var MinAmount = decimal.RequireFromString("0.01")

// Commission returns amount × CommissionRate rounded half-up to cents.
func Commission(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(CommissionRate).Round(2)
}
